package mode

import (
	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
)

// GoEgress is the return leg of a drive access rail tour: reach a rail
// station by transit or on foot, ride back to the station where the car is
// parked and drive on.
type GoEgress struct {
	goMode

	zones   *household.ZoneSystem
	walking Mode
}

var _ Mode = (*GoEgress)(nil)

// NewGoEgress creates the rail egress mode.
func NewGoEgress(cfg GoConfig) *GoEgress {
	return &GoEgress{goMode: goMode{base: newBase(cfg.Common, household.KindGoEgress), cfg: cfg}}
}

func (m *GoEgress) RequiresVehicle() *household.VehicleType { return m.vehicleType }
func (m *GoEgress) NonPersonalVehicle() bool                { return false }

// RuntimeValidation binds the rail network. The walking mode is optional;
// without it stations must be reached by transit.
func (m *GoEgress) RuntimeValidation(env *Environment) error {
	if err := m.bind(env); err != nil {
		return err
	}
	m.zones = env.Zones
	m.walking = nil
	if m.cfg.WalkingModeName != "" {
		if w, ok := env.Mode(m.cfg.WalkingModeName); ok {
			m.walking = w
		}
	}
	return nil
}

// parkedStation returns the station the car was left at by the latest
// earlier access leg of the chain.
func parkedStation(trip *household.Trip) (int, bool) {
	before := trip.Chain.Before(trip)
	for i := len(before) - 1; i >= 0; i-- {
		if s := before[i].Scratch.GoAccessStation; s.Valid {
			return s.Zone, true
		}
	}
	return 0, false
}

// boarding finds the station to board at: the closest one with a transit
// connection, else the closest one the walking mode can reach.
func (m *GoEgress) boarding(trip *household.Trip) (station int, reach clock.Time, walk *household.Trip, ok bool) {
	o := trip.Origin
	candidates := m.rail.ClosestStations(o.Number)
	for _, s := range candidates {
		if t := m.rail.TransitAccessTime(o.Number, s); t.Positive() {
			return s, t, nil, true
		}
	}
	if m.walking == nil || m.zones == nil {
		return 0, 0, nil, false
	}
	for _, s := range candidates {
		st, found := m.rail.Station(s)
		if !found || st.ClosestZone < 0 {
			continue
		}
		z, found := m.zones.Get(st.ClosestZone)
		if !found {
			continue
		}
		walk := &household.Trip{
			Origin:            o,
			Destination:       z,
			Purpose:           household.Intermediate,
			TripStartTime:     trip.TripStartTime,
			ActivityStartTime: trip.ActivityStartTime,
			Chain:             trip.Chain,
		}
		if m.walking.Feasible(walk) {
			return s, m.walking.TravelTime(o, z, trip.ActivityStartTime), walk, true
		}
	}
	return 0, 0, nil, false
}

// Feasible requires a car parked at a rail station earlier in the chain and
// a train from the boarding station to it during service hours.
func (m *GoEgress) Feasible(trip *household.Trip) bool {
	sc := &trip.Scratch
	sc.GoEgressEvaluated = true
	sc.GoEgressStation = household.NoStation
	sc.WalkAccessTrip = nil

	if !m.driverEligible(trip) {
		return false
	}
	parked, ok := parkedStation(trip)
	if !ok {
		return false
	}
	station, reach, walk, ok := m.boarding(trip)
	if !ok || !reach.Positive() {
		return false
	}
	if station == parked || m.rail.Frequency(station, parked, trip.ActivityStartTime) <= 0 {
		return false
	}
	start, end := m.rail.ServiceWindow()
	atStation := trip.ActivityStartTime + reach
	if atStation.Before(start) || atStation.After(end) {
		return false
	}

	sc.GoEgressStation = household.StationAt(station)
	sc.WalkAccessTrip = walk
	return true
}

func (m *GoEgress) CalculateV(trip *household.Trip) (float64, error) {
	sc := &trip.Scratch
	if !sc.GoEgressEvaluated || !sc.GoEgressStation.Valid {
		return 0, ErrNotEvaluated
	}
	parked, ok := parkedStation(trip)
	if !ok {
		return 0, ErrNotEvaluated
	}
	boarding := sc.GoEgressStation.Zone
	o, d := trip.Origin.Number, trip.Destination.Number
	p := trip.Person()

	v := m.cfg.Constant
	if sc.WalkAccessTrip != nil {
		walkV, err := m.walking.CalculateV(sc.WalkAccessTrip)
		if err != nil {
			return 0, err
		}
		v += walkV
	} else {
		v += m.cfg.TransitTime*m.rail.TransitAccessTime(o, boarding).Minutes() +
			m.cfg.WalkTime*m.rail.AccessWalkTime(o, boarding).Minutes() +
			m.cfg.WaitTime*m.rail.AccessWaitTime(o, boarding).Minutes() +
			m.cfg.FareCost*localFare(p, m.rail.TransitFare(o, boarding), m.cfg.PassCoversLocalFare)
	}

	v += m.cfg.AutoTime*m.rail.AutoTime(d, parked).Minutes() +
		m.cfg.AutoCost*m.rail.AutoCost(d, parked) +
		m.cfg.RailTime*m.rail.LineHaulTime(boarding, parked).Minutes() +
		m.cfg.FareCost*m.rail.GoFare(boarding, parked)
	v += peakTerm(trip.ActivityStartTime, m.cfg.Peak)
	v += occupationTerm(p, m.cfg.OccSales, m.cfg.OccGeneral)
	return v, nil
}

func (m *GoEgress) FeasibleChain(chain *household.TripChain) bool {
	return railChainFeasible(chain)
}

// TravelTime assumes the car waits at the station serving d.
func (m *GoEgress) TravelTime(o, d *household.Zone, _ clock.Time) clock.Time {
	parked, ok := m.egressStation(d)
	if !ok {
		return clock.EndOfDay
	}
	return minTime(m.rail.ClosestStations(o.Number), func(s int) clock.Time {
		return m.rail.TransitAccessTime(o.Number, s) + m.rail.LineHaulTime(s, parked) + m.rail.AutoTime(d.Number, parked)
	})
}

// Cost assumes the car waits at the station serving d.
func (m *GoEgress) Cost(o, d *household.Zone, _ clock.Time) float64 {
	parked, ok := m.egressStation(d)
	if !ok {
		return unreachableCost
	}
	return minCost(m.rail.ClosestStations(o.Number), func(s int) float64 {
		return m.rail.GoFare(s, parked) + m.rail.AutoCost(d.Number, parked)
	})
}
