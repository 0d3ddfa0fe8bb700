package network

import (
	"sort"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
)

type odKey struct {
	origin      int
	destination int
}

// Matrix is an in-memory skim matrix keyed by period. Missing pairs have a
// zero, invalid skim. A Matrix is read-only once built.
type Matrix struct {
	name  string
	skims map[clock.Period]map[odKey]Skim
}

var _ TripComponentData = (*Matrix)(nil)

// NewMatrix creates an empty matrix for the named network.
func NewMatrix(name string) *Matrix {
	return &Matrix{
		name:  name,
		skims: make(map[clock.Period]map[odKey]Skim, len(clock.Periods)),
	}
}

// Set stores the skim for a zone pair in a period. It must not be called
// after the matrix is shared.
func (m *Matrix) Set(p clock.Period, origin, destination int, s Skim) {
	tbl, ok := m.skims[p]
	if !ok {
		tbl = make(map[odKey]Skim)
		m.skims[p] = tbl
	}
	tbl[odKey{origin, destination}] = s
}

// Skim returns the skim for a zone pair at time t.
func (m *Matrix) Skim(o, d *household.Zone, t clock.Time) Skim {
	tbl, ok := m.skims[clock.PeriodOf(t)]
	if !ok {
		return Skim{}
	}
	return tbl[odKey{o.Number, d.Number}]
}

// Len returns the number of stored skims across all periods.
func (m *Matrix) Len() int {
	n := 0
	for _, tbl := range m.skims {
		n += len(tbl)
	}
	return n
}

func (m *Matrix) Name() string { return m.name }

func (m *Matrix) TravelTime(o, d *household.Zone, t clock.Time) clock.Time {
	return m.Skim(o, d, t).TravelTime
}

func (m *Matrix) TravelCost(o, d *household.Zone, t clock.Time) float64 {
	return m.Skim(o, d, t).Cost
}

func (m *Matrix) ValidOD(o, d *household.Zone, t clock.Time) bool {
	return m.Skim(o, d, t).Valid
}

func (m *Matrix) InVehicleTravelTime(o, d *household.Zone, t clock.Time) clock.Time {
	return m.Skim(o, d, t).InVehicle
}

func (m *Matrix) WaitTime(o, d *household.Zone, t clock.Time) clock.Time {
	return m.Skim(o, d, t).Wait
}

func (m *Matrix) WalkTime(o, d *household.Zone, t clock.Time) clock.Time {
	return m.Skim(o, d, t).Walk
}

// StationMatrix is a skim matrix with station access tables.
type StationMatrix struct {
	*Matrix
	stations map[int]Station
	closest  map[int][]int
}

var _ StationData = (*StationMatrix)(nil)

// NewStationMatrix wraps m with station tables built from records.
func NewStationMatrix(m *Matrix, stations []StationRecord, access []AccessRecord) *StationMatrix {
	sm := &StationMatrix{
		Matrix:   m,
		stations: make(map[int]Station, len(stations)),
		closest:  buildClosest(access),
	}
	for _, s := range stations {
		sm.stations[s.Station] = Station{Zone: s.Station, ParkingCost: s.ParkingCost, ClosestZone: s.ClosestZone}
	}
	return sm
}

func (sm *StationMatrix) ClosestStations(zone *household.Zone) []int {
	return sm.closest[zone.Number]
}

func (sm *StationMatrix) Station(zone int) (Station, bool) {
	s, ok := sm.stations[zone]
	return s, ok
}

func buildClosest(access []AccessRecord) map[int][]int {
	byZone := make(map[int][]AccessRecord)
	for _, a := range access {
		byZone[a.Zone] = append(byZone[a.Zone], a)
	}
	out := make(map[int][]int, len(byZone))
	for zone, recs := range byZone {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Rank < recs[j].Rank })
		stations := make([]int, len(recs))
		for i, r := range recs {
			stations[i] = r.Station
		}
		out[zone] = stations
	}
	return out
}
