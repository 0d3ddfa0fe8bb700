package mode

import (
	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/network"
)

// Transit is walk access local transit.
type Transit struct {
	base
	cfg TransitConfig

	network network.TripComponentData
}

var _ Mode = (*Transit)(nil)

// NewTransit creates the transit mode.
func NewTransit(cfg TransitConfig) *Transit {
	return &Transit{base: newBase(cfg.Common, household.KindTransit), cfg: cfg}
}

func (m *Transit) RequiresVehicle() *household.VehicleType { return nil }
func (m *Transit) NonPersonalVehicle() bool                { return true }

func (m *Transit) RuntimeValidation(env *Environment) error {
	data, err := env.Networks.TripComponent(m.cfg.NetworkName)
	if err != nil {
		return m.invalidErr(err, "network %q", m.cfg.NetworkName)
	}
	m.network = data
	return nil
}

func (m *Transit) intrazonal(o, d *household.Zone) bool {
	return m.cfg.UseIntrazonalRegression && household.Intrazonal(o, d)
}

func (m *Transit) CalculateV(trip *household.Trip) (float64, error) {
	o, d := trip.Origin, trip.Destination
	p := trip.Person()

	var v float64
	if m.intrazonal(o, d) {
		v = m.cfg.IntrazonalConstant + o.InternalDistance*m.cfg.IntrazonalDistance
	} else {
		t := trip.ActivityStartTime
		v = m.cfg.Constant +
			m.network.InVehicleTravelTime(o, d, t).Minutes()*m.cfg.InVehicleTime +
			m.network.WaitTime(o, d, t).Minutes()*m.cfg.WaitTime +
			m.network.WalkTime(o, d, t).Minutes()*m.cfg.WalkTime +
			localFare(p, m.network.TravelCost(o, d, t), m.cfg.PassCoversFare)*m.cfg.Fare
	}
	v += occupationTerm(p, m.cfg.OccSales, m.cfg.OccGeneral)
	if p.Child {
		v += m.cfg.Child
	}
	v += purposeTerm(trip.Purpose, m.cfg.ShopPurpose, m.cfg.OtherPurpose)
	return v, nil
}

func (m *Transit) CalculateODV(o, d *household.Zone, t clock.Time) (float64, error) {
	return m.cfg.Constant +
		m.network.InVehicleTravelTime(o, d, t).Minutes()*m.cfg.InVehicleTime +
		m.network.WaitTime(o, d, t).Minutes()*m.cfg.WaitTime +
		m.network.WalkTime(o, d, t).Minutes()*m.cfg.WalkTime +
		m.network.TravelCost(o, d, t)*m.cfg.Fare, nil
}

// Feasible keeps young children off transit unless they travel jointly.
func (m *Transit) Feasible(trip *household.Trip) bool {
	if trip.Person().Age < m.cfg.MinAgeAlone && trip.Purpose != household.JointOther {
		return false
	}
	o, d := trip.Origin, trip.Destination
	if m.intrazonal(o, d) {
		return true
	}
	t := trip.ActivityStartTime
	return m.network.ValidOD(o, d, t) && m.TravelTime(o, d, t).Positive()
}

func (m *Transit) FeasibleOD(o, d *household.Zone, t clock.Time) bool {
	return m.currentlyFeasible > 0 && m.network.ValidOD(o, d, t)
}

func (m *Transit) FeasibleChain(*household.TripChain) bool { return true }

// TravelTime is the sum of walk, wait and in vehicle time.
func (m *Transit) TravelTime(o, d *household.Zone, t clock.Time) clock.Time {
	return m.network.WalkTime(o, d, t) + m.network.WaitTime(o, d, t) + m.network.InVehicleTravelTime(o, d, t)
}

func (m *Transit) Cost(o, d *household.Zone, t clock.Time) float64 {
	return m.network.TravelCost(o, d, t)
}
