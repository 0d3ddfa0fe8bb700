// Package household holds the data model read by the mode evaluators: zones,
// households with their vehicles and persons, trip chains and trips.
package household

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// Zone is a traffic analysis zone. Point is the planar centroid in metres.
type Zone struct {
	Number           int
	Point            orb.Point
	InternalDistance float64
	ParkingCost      float64
}

// Distance returns the Manhattan distance between the centroids of o and d.
// For intrazonal trips the zone's internal distance is used instead.
func Distance(o, d *Zone) float64 {
	if o.Number == d.Number {
		return o.InternalDistance
	}
	return math.Abs(o.Point.X()-d.Point.X()) + math.Abs(o.Point.Y()-d.Point.Y())
}

// Intrazonal reports whether o and d are the same zone.
func Intrazonal(o, d *Zone) bool {
	return o.Number == d.Number
}

// ZoneSystem indexes zones by number. It is immutable once built.
type ZoneSystem struct {
	byNumber map[int]*Zone
	ordered  []*Zone
}

// NewZoneSystem builds a zone system. Duplicate zone numbers are rejected.
func NewZoneSystem(zones []*Zone) (*ZoneSystem, error) {
	zs := &ZoneSystem{
		byNumber: make(map[int]*Zone, len(zones)),
		ordered:  make([]*Zone, 0, len(zones)),
	}
	for _, z := range zones {
		if _, dup := zs.byNumber[z.Number]; dup {
			return nil, fmt.Errorf("duplicate zone %d", z.Number)
		}
		zs.byNumber[z.Number] = z
		zs.ordered = append(zs.ordered, z)
	}
	sort.Slice(zs.ordered, func(i, j int) bool { return zs.ordered[i].Number < zs.ordered[j].Number })
	return zs, nil
}

// Get returns the zone with the given number.
func (zs *ZoneSystem) Get(number int) (*Zone, bool) {
	z, ok := zs.byNumber[number]
	return z, ok
}

// Zones returns every zone ordered by number.
func (zs *ZoneSystem) Zones() []*Zone {
	return zs.ordered
}

// Len returns the number of zones.
func (zs *ZoneSystem) Len() int {
	return len(zs.ordered)
}

// Bound returns the bounding box of all zone centroids.
func (zs *ZoneSystem) Bound() orb.Bound {
	points := make(orb.MultiPoint, 0, len(zs.ordered))
	for _, z := range zs.ordered {
		points = append(points, z.Point)
	}
	return points.Bound()
}
