package network

import (
	"github.com/travelmodel/modechoice/internal/clock"
)

type stationPair struct {
	from int
	to   int
}

type goLine struct {
	lineHaul  clock.Time
	fare      float64
	frequency map[clock.Period]float64
}

// GoNetwork is the in-memory commuter rail network.
type GoNetwork struct {
	settings GoSettings
	stations map[int]Station
	closest  map[int][]int
	legs     map[stationPair]GoLegRecord
	lines    map[stationPair]*goLine
}

var _ GoData = (*GoNetwork)(nil)

// NewGoNetwork builds the rail network from its tables and station records.
func NewGoNetwork(tables GoTables, stations []StationRecord, access []AccessRecord) *GoNetwork {
	g := &GoNetwork{
		settings: tables.Settings,
		stations: make(map[int]Station, len(stations)),
		closest:  buildClosest(access),
		legs:     make(map[stationPair]GoLegRecord, len(tables.Legs)),
		lines:    make(map[stationPair]*goLine, len(tables.Lines)),
	}
	for _, s := range stations {
		g.stations[s.Station] = Station{Zone: s.Station, ParkingCost: s.ParkingCost, ClosestZone: s.ClosestZone}
	}
	for _, leg := range tables.Legs {
		g.legs[stationPair{leg.Zone, leg.Station}] = leg
	}
	for _, l := range tables.Lines {
		key := stationPair{l.Access, l.Egress}
		line, ok := g.lines[key]
		if !ok {
			line = &goLine{frequency: make(map[clock.Period]float64, len(clock.Periods))}
			g.lines[key] = line
		}
		line.lineHaul = l.LineHaul
		line.fare = l.Fare
		line.frequency[l.Period] = l.Frequency
	}
	return g
}

func (g *GoNetwork) Name() string { return g.settings.Network }

func (g *GoNetwork) MinDistance() float64 { return g.settings.MinDistance }

func (g *GoNetwork) ServiceWindow() (clock.Time, clock.Time) {
	return g.settings.ServiceStart, g.settings.ServiceEnd
}

// ClosestStations returns the candidate stations for zone, closest first.
// Zones without candidates get nil.
func (g *GoNetwork) ClosestStations(zone int) []int {
	return g.closest[zone]
}

func (g *GoNetwork) Station(zone int) (Station, bool) {
	s, ok := g.stations[zone]
	return s, ok
}

func (g *GoNetwork) leg(zone, station int) GoLegRecord {
	return g.legs[stationPair{zone, station}]
}

func (g *GoNetwork) line(access, egress int) *goLine {
	if l, ok := g.lines[stationPair{access, egress}]; ok {
		return l
	}
	return &goLine{}
}

func (g *GoNetwork) AutoTime(zone, station int) clock.Time {
	return g.leg(zone, station).AutoTime
}

func (g *GoNetwork) AutoCost(zone, station int) float64 {
	return g.leg(zone, station).AutoCost
}

func (g *GoNetwork) LineHaulTime(access, egress int) clock.Time {
	return g.line(access, egress).lineHaul
}

func (g *GoNetwork) TransitAccessTime(zone, station int) clock.Time {
	return g.leg(zone, station).TransitAccessTime
}

// TransitEgressTime is the local transit time from station to zone. Legs are
// stored zone first.
func (g *GoNetwork) TransitEgressTime(station, zone int) clock.Time {
	return g.leg(zone, station).TransitEgressTime
}

func (g *GoNetwork) AccessWalkTime(zone, station int) clock.Time {
	return g.leg(zone, station).AccessWalkTime
}

func (g *GoNetwork) AccessWaitTime(zone, station int) clock.Time {
	return g.leg(zone, station).AccessWaitTime
}

func (g *GoNetwork) EgressWalkTime(zone, station int) clock.Time {
	return g.leg(zone, station).EgressWalkTime
}

func (g *GoNetwork) EgressWaitTime(zone, station int) clock.Time {
	return g.leg(zone, station).EgressWaitTime
}

func (g *GoNetwork) GoFare(access, egress int) float64 {
	return g.line(access, egress).fare
}

func (g *GoNetwork) TransitFare(zone, station int) float64 {
	return g.leg(zone, station).TransitFare
}

// Frequency returns trains per hour between two stations in the period of t.
func (g *GoNetwork) Frequency(access, egress int, t clock.Time) float64 {
	return g.line(access, egress).frequency[clock.PeriodOf(t)]
}
