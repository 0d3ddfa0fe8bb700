package mode

import (
	"github.com/samber/lo"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/network"
)

// goMode is what the commuter rail modes share.
type goMode struct {
	base
	cfg GoConfig

	rail        network.GoData
	vehicleType *household.VehicleType
}

func (m *goMode) bind(env *Environment) error {
	rail, err := env.Networks.Go(m.cfg.NetworkName)
	if err != nil {
		return m.invalidErr(err, "rail network %q", m.cfg.NetworkName)
	}
	m.rail = rail
	m.vehicleType = env.AutoType
	return nil
}

// driverEligible requires a licensed driver from a household with a car on
// a trip long enough for rail.
func (m *goMode) driverEligible(trip *household.Trip) bool {
	p := trip.Person()
	return p.Licence && p.Household.HasVehicles() && trip.Distance() >= m.rail.MinDistance()
}

// egressStation is the rail station serving zone.
func (m *goMode) egressStation(zone *household.Zone) (int, bool) {
	stations := m.rail.ClosestStations(zone.Number)
	if len(stations) == 0 {
		return 0, false
	}
	return stations[0], true
}

func (m *goMode) FeasibleOD(*household.Zone, *household.Zone, clock.Time) bool {
	return m.currentlyFeasible > 0
}

func (m *goMode) CalculateODV(*household.Zone, *household.Zone, clock.Time) (float64, error) {
	return 0, ErrUnsupported
}

// railChainFeasible pairs every drive access rail leg with a later egress
// leg that brings the driver back to the car.
func railChainFeasible(chain *household.TripChain) bool {
	carIsOut := false
	for _, trip := range chain.Trips {
		if trip.Mode == nil {
			continue
		}
		switch trip.Mode.Kind() {
		case household.KindGoAccess:
			if carIsOut {
				return false
			}
			carIsOut = true
		case household.KindGoEgress:
			if !carIsOut {
				return false
			}
			carIsOut = false
		}
	}
	return !carIsOut
}

// GoAccess is driving to a rail station, parking and taking the train.
type GoAccess struct {
	goMode
}

var _ Mode = (*GoAccess)(nil)

// NewGoAccess creates the drive access rail mode.
func NewGoAccess(cfg GoConfig) *GoAccess {
	return &GoAccess{goMode{base: newBase(cfg.Common, household.KindGoAccess), cfg: cfg}}
}

func (m *GoAccess) RequiresVehicle() *household.VehicleType { return m.vehicleType }
func (m *GoAccess) NonPersonalVehicle() bool                { return false }

func (m *GoAccess) RuntimeValidation(env *Environment) error {
	return m.bind(env)
}

// Feasible records the access stations the driver can park at and still
// catch a train to the destination's station during service hours.
func (m *GoAccess) Feasible(trip *household.Trip) bool {
	sc := &trip.Scratch
	sc.GoAccessEvaluated = true
	sc.FeasibleGoStations = nil

	if !m.driverEligible(trip) {
		return false
	}
	access := m.rail.ClosestStations(trip.Origin.Number)
	egress, ok := m.egressStation(trip.Destination)
	if !ok || len(access) == 0 || access[0] == egress {
		return false
	}

	start, end := m.rail.ServiceWindow()
	sc.FeasibleGoStations = lo.Filter(access, func(s int, _ int) bool {
		drive := m.rail.AutoTime(trip.Origin.Number, s)
		if !drive.Positive() || s == egress {
			return false
		}
		if m.rail.Frequency(s, egress, trip.ActivityStartTime) <= 0 {
			return false
		}
		atStation := trip.ActivityStartTime + drive
		return atStation.After(start) && atStation.Before(end)
	})
	return len(sc.FeasibleGoStations) > 0
}

// CalculateV picks the best feasible access station and records it for the
// return leg.
func (m *GoAccess) CalculateV(trip *household.Trip) (float64, error) {
	sc := &trip.Scratch
	if !sc.GoAccessEvaluated || len(sc.FeasibleGoStations) == 0 {
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

	chosen := best(sc.FeasibleGoStations, func(s int) float64 {
		return fixed +
			m.cfg.AutoTime*m.rail.AutoTime(o, s).Minutes() +
			m.cfg.AutoCost*m.rail.AutoCost(o, s) +
			m.cfg.RailTime*m.rail.LineHaulTime(s, egress).Minutes() +
			m.cfg.FareCost*(m.rail.GoFare(s, egress)+egressFare)
	})
	sc.GoAccessStation = household.StationAt(chosen.station)
	return chosen.v, nil
}

func (m *GoAccess) FeasibleChain(chain *household.TripChain) bool {
	return railChainFeasible(chain)
}

// TravelTime is the fastest drive, ride and transit egress over the access
// stations.
func (m *GoAccess) TravelTime(o, d *household.Zone, _ clock.Time) clock.Time {
	egress, ok := m.egressStation(d)
	if !ok {
		return clock.EndOfDay
	}
	return minTime(m.rail.ClosestStations(o.Number), func(s int) clock.Time {
		return m.rail.AutoTime(o.Number, s) + m.rail.LineHaulTime(s, egress) + m.rail.TransitEgressTime(egress, d.Number)
	})
}

// Cost is the cheapest drive and rail fare over the access stations.
func (m *GoAccess) Cost(o, d *household.Zone, _ clock.Time) float64 {
	egress, ok := m.egressStation(d)
	if !ok {
		return unreachableCost
	}
	return minCost(m.rail.ClosestStations(o.Number), func(s int) float64 {
		return m.rail.AutoCost(o.Number, s) + m.rail.GoFare(s, egress)
	})
}
