package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/paulmach/orb"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
)

// InMemoryRepository is an in-memory implementation of Repository.
// It backs tests and fixture-driven runs. Production should use
// PostgresRepository.
type InMemoryRepository struct {
	mu sync.RWMutex
	ds Dataset
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates a repository holding ds.
func NewInMemoryRepository(ds Dataset) *InMemoryRepository {
	return &InMemoryRepository{ds: ds}
}

// Replace swaps the stored dataset.
func (r *InMemoryRepository) Replace(ds Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ds = ds
}

func (r *InMemoryRepository) Zones(_ context.Context) ([]*household.Zone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Zones are copied so a later Replace cannot alias a built snapshot.
	out := make([]*household.Zone, len(r.ds.Zones))
	for i, z := range r.ds.Zones {
		cpy := *z
		out[i] = &cpy
	}
	return out, nil
}

func (r *InMemoryRepository) Skims(_ context.Context) ([]SkimRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]SkimRecord(nil), r.ds.Skims...), nil
}

func (r *InMemoryRepository) Stations(_ context.Context) ([]StationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]StationRecord(nil), r.ds.Stations...), nil
}

func (r *InMemoryRepository) StationAccess(_ context.Context) ([]AccessRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]AccessRecord(nil), r.ds.StationAccess...), nil
}

func (r *InMemoryRepository) GoTables(_ context.Context) (*GoTables, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.ds.GoTables == nil {
		return nil, ErrNoGoTables
	}
	cpy := *r.ds.GoTables
	return &cpy, nil
}

// fixture is the JSON layout read by ReadFixture. Durations are minutes.
type fixture struct {
	Zones []struct {
		Number           int     `json:"number"`
		X                float64 `json:"x"`
		Y                float64 `json:"y"`
		InternalDistance float64 `json:"internal_distance"`
		ParkingCost      float64 `json:"parking_cost"`
	} `json:"zones"`
	Skims []struct {
		Network     string  `json:"network"`
		Period      string  `json:"period"`
		Origin      int     `json:"origin"`
		Destination int     `json:"destination"`
		TravelTime  float64 `json:"travel_time"`
		Cost        float64 `json:"cost"`
		InVehicle   float64 `json:"in_vehicle"`
		Wait        float64 `json:"wait"`
		Walk        float64 `json:"walk"`
		Valid       *bool   `json:"valid"`
	} `json:"skims"`
	Stations []struct {
		Network     string  `json:"network"`
		Station     int     `json:"station"`
		ParkingCost float64 `json:"parking_cost"`
		ClosestZone *int    `json:"closest_zone"`
	} `json:"stations"`
	StationAccess []accessFixture `json:"station_access"`
	Go            *struct {
		Network      string     `json:"network"`
		MinDistance  float64    `json:"min_distance"`
		ServiceStart clock.Time `json:"service_start"`
		ServiceEnd   clock.Time `json:"service_end"`
		Legs         []struct {
			Zone              int     `json:"zone"`
			Station           int     `json:"station"`
			AutoTime          float64 `json:"auto_time"`
			AutoCost          float64 `json:"auto_cost"`
			TransitAccessTime float64 `json:"transit_access_time"`
			TransitEgressTime float64 `json:"transit_egress_time"`
			AccessWalkTime    float64 `json:"access_walk_time"`
			AccessWaitTime    float64 `json:"access_wait_time"`
			EgressWalkTime    float64 `json:"egress_walk_time"`
			EgressWaitTime    float64 `json:"egress_wait_time"`
			TransitFare       float64 `json:"transit_fare"`
		} `json:"legs"`
		Lines []struct {
			Access    int     `json:"access"`
			Egress    int     `json:"egress"`
			Period    string  `json:"period"`
			LineHaul  float64 `json:"line_haul"`
			Fare      float64 `json:"fare"`
			Frequency float64 `json:"frequency"`
		} `json:"lines"`
	} `json:"go"`
}

// accessFixture is the fixture form of an AccessRecord.
type accessFixture struct {
	Network string `json:"network"`
	Zone    int    `json:"zone"`
	Station int    `json:"station"`
	Rank    int    `json:"rank"`
}

// ReadFixture decodes a JSON network fixture into a repository.
func ReadFixture(r io.Reader) (*InMemoryRepository, error) {
	var f fixture
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode network fixture: %w", err)
	}

	var ds Dataset
	for _, z := range f.Zones {
		ds.Zones = append(ds.Zones, &household.Zone{
			Number:           z.Number,
			Point:            orb.Point{z.X, z.Y},
			InternalDistance: z.InternalDistance,
			ParkingCost:      z.ParkingCost,
		})
	}

	for _, s := range f.Skims {
		period, ok := clock.ParsePeriod(s.Period)
		if !ok {
			return nil, fmt.Errorf("skim %d-%d: unknown period %q", s.Origin, s.Destination, s.Period)
		}
		valid := s.TravelTime > 0
		if s.Valid != nil {
			valid = *s.Valid
		}
		ds.Skims = append(ds.Skims, SkimRecord{
			Network:     s.Network,
			Period:      period,
			Origin:      s.Origin,
			Destination: s.Destination,
			Skim: Skim{
				TravelTime: clock.FromMinutes(s.TravelTime),
				Cost:       s.Cost,
				InVehicle:  clock.FromMinutes(s.InVehicle),
				Wait:       clock.FromMinutes(s.Wait),
				Walk:       clock.FromMinutes(s.Walk),
				Valid:      valid,
			},
		})
	}

	for _, s := range f.Stations {
		closest := -1
		if s.ClosestZone != nil {
			closest = *s.ClosestZone
		}
		ds.Stations = append(ds.Stations, StationRecord{
			Network:     s.Network,
			Station:     s.Station,
			ParkingCost: s.ParkingCost,
			ClosestZone: closest,
		})
	}

	for _, a := range f.StationAccess {
		ds.StationAccess = append(ds.StationAccess, AccessRecord(a))
	}

	if f.Go != nil {
		tables := &GoTables{Settings: GoSettings{
			Network:      f.Go.Network,
			MinDistance:  f.Go.MinDistance,
			ServiceStart: f.Go.ServiceStart,
			ServiceEnd:   f.Go.ServiceEnd,
		}}
		for _, l := range f.Go.Legs {
			tables.Legs = append(tables.Legs, GoLegRecord{
				Zone:              l.Zone,
				Station:           l.Station,
				AutoTime:          clock.FromMinutes(l.AutoTime),
				AutoCost:          l.AutoCost,
				TransitAccessTime: clock.FromMinutes(l.TransitAccessTime),
				TransitEgressTime: clock.FromMinutes(l.TransitEgressTime),
				AccessWalkTime:    clock.FromMinutes(l.AccessWalkTime),
				AccessWaitTime:    clock.FromMinutes(l.AccessWaitTime),
				EgressWalkTime:    clock.FromMinutes(l.EgressWalkTime),
				EgressWaitTime:    clock.FromMinutes(l.EgressWaitTime),
				TransitFare:       l.TransitFare,
			})
		}
		for _, l := range f.Go.Lines {
			period, ok := clock.ParsePeriod(l.Period)
			if !ok {
				return nil, fmt.Errorf("rail line %d-%d: unknown period %q", l.Access, l.Egress, l.Period)
			}
			tables.Lines = append(tables.Lines, GoLineRecord{
				Access:    l.Access,
				Egress:    l.Egress,
				Period:    period,
				LineHaul:  clock.FromMinutes(l.LineHaul),
				Fare:      l.Fare,
				Frequency: l.Frequency,
			})
		}
		ds.GoTables = tables
	}

	return NewInMemoryRepository(ds), nil
}
