package mode

import (
	"github.com/samber/lo"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
)

// minRailLeg is the shortest access, egress or line haul time counted as a
// real connection.
const minRailLeg = 6 * clock.Second

// GoNonDrive is commuter rail reached and left by local transit.
type GoNonDrive struct {
	goMode
}

var _ Mode = (*GoNonDrive)(nil)

// NewGoNonDrive creates the transit access rail mode.
func NewGoNonDrive(cfg GoConfig) *GoNonDrive {
	return &GoNonDrive{goMode{base: newBase(cfg.Common, household.KindGoNonDrive), cfg: cfg}}
}

func (m *GoNonDrive) RequiresVehicle() *household.VehicleType { return nil }
func (m *GoNonDrive) NonPersonalVehicle() bool                { return true }

func (m *GoNonDrive) RuntimeValidation(env *Environment) error {
	return m.bind(env)
}

// Feasible records the access stations connected by transit at both ends
// and by rail in between.
func (m *GoNonDrive) Feasible(trip *household.Trip) bool {
	sc := &trip.Scratch
	sc.NonDriveGoEvaluated = true
	sc.FeasibleNonDriveGoStations = nil

	if trip.Distance() < m.rail.MinDistance() {
		return false
	}
	o, d := trip.Origin.Number, trip.Destination.Number
	access := m.rail.ClosestStations(o)
	egress, ok := m.egressStation(trip.Destination)
	if !ok || len(access) == 0 || access[0] == egress {
		return false
	}
	if m.rail.TransitEgressTime(egress, d) < minRailLeg {
		return false
	}
	sc.FeasibleNonDriveGoStations = lo.Filter(access, func(s int, _ int) bool {
		return s != egress &&
			m.rail.TransitAccessTime(o, s) >= minRailLeg &&
			m.rail.LineHaulTime(s, egress) >= minRailLeg
	})
	return len(sc.FeasibleNonDriveGoStations) > 0
}

func (m *GoNonDrive) CalculateV(trip *household.Trip) (float64, error) {
	sc := &trip.Scratch
	if !sc.NonDriveGoEvaluated || len(sc.FeasibleNonDriveGoStations) == 0 {
		return 0, ErrNotEvaluated
	}
	egress, ok := m.egressStation(trip.Destination)
	if !ok {
		return 0, ErrNotEvaluated
	}

	o, d := trip.Origin.Number, trip.Destination.Number
	p := trip.Person()
	fixed := m.cfg.Constant +
		peakTerm(trip.ActivityStartTime, m.cfg.Peak) +
		occupationTerm(p, m.cfg.OccSales, m.cfg.OccGeneral) +
		m.cfg.TransitTime*m.rail.TransitEgressTime(egress, d).Minutes() +
		m.cfg.WalkTime*m.rail.EgressWalkTime(d, egress).Minutes() +
		m.cfg.WaitTime*m.rail.EgressWaitTime(d, egress).Minutes()
	egressFare := localFare(p, m.rail.TransitFare(d, egress), m.cfg.PassCoversLocalFare)

	chosen := best(sc.FeasibleNonDriveGoStations, func(s int) float64 {
		return fixed +
			m.cfg.TransitTime*m.rail.TransitAccessTime(o, s).Minutes() +
			m.cfg.WalkTime*m.rail.AccessWalkTime(o, s).Minutes() +
			m.cfg.WaitTime*m.rail.AccessWaitTime(o, s).Minutes() +
			m.cfg.RailTime*m.rail.LineHaulTime(s, egress).Minutes() +
			m.cfg.FareCost*(localFare(p, m.rail.TransitFare(o, s), m.cfg.PassCoversLocalFare)+m.rail.GoFare(s, egress)+egressFare)
	})
	return chosen.v, nil
}

func (m *GoNonDrive) FeasibleChain(*household.TripChain) bool { return true }

func (m *GoNonDrive) TravelTime(o, d *household.Zone, _ clock.Time) clock.Time {
	egress, ok := m.egressStation(d)
	if !ok {
		return clock.EndOfDay
	}
	return minTime(m.rail.ClosestStations(o.Number), func(s int) clock.Time {
		return m.rail.TransitAccessTime(o.Number, s) + m.rail.LineHaulTime(s, egress) + m.rail.TransitEgressTime(egress, d.Number)
	})
}

// Cost is the cheapest rail fare over the access stations.
func (m *GoNonDrive) Cost(o, d *household.Zone, _ clock.Time) float64 {
	egress, ok := m.egressStation(d)
	if !ok {
		return unreachableCost
	}
	return minCost(m.rail.ClosestStations(o.Number), func(s int) float64 {
		return m.rail.GoFare(s, egress)
	})
}
