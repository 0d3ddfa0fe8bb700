package mode

import (
	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/network"
)

// Minimum trip distance, in metres, for a student to be bused, by grade.
const (
	elementaryBusDistance = 1600
	middleBusDistance     = 3200
	highBusDistance       = 4800
)

// SchoolBus carries students between home and school.
type SchoolBus struct {
	base
	cfg SchoolBusConfig

	network network.Data
}

var _ Mode = (*SchoolBus)(nil)

// NewSchoolBus creates the school bus mode.
func NewSchoolBus(cfg SchoolBusConfig) *SchoolBus {
	return &SchoolBus{base: newBase(cfg.Common, household.KindSchoolBus), cfg: cfg}
}

func (m *SchoolBus) RequiresVehicle() *household.VehicleType { return nil }
func (m *SchoolBus) NonPersonalVehicle() bool                { return true }

func (m *SchoolBus) RuntimeValidation(env *Environment) error {
	data, err := env.Networks.Get(m.cfg.NetworkName)
	if err != nil {
		return m.invalidErr(err, "network %q", m.cfg.NetworkName)
	}
	m.network = data
	return nil
}

func (m *SchoolBus) CalculateV(trip *household.Trip) (float64, error) {
	p := trip.Person()
	v := m.cfg.Constant
	if p.Licence {
		v += m.cfg.Licence
	}
	if p.Youth {
		v += m.cfg.YouthPassenger + m.cfg.YouthWalk
	}
	if p.YoungAdult {
		v += m.cfg.YoungAdultPassenger + m.cfg.YoungAdultWalk
	}
	if schoolRelated(trip) {
		v += m.cfg.SchoolPurpose
	}
	v += m.network.TravelTime(trip.Origin, trip.Destination, trip.TripStartTime).Minutes() * m.cfg.Distance
	v += float64(p.Age) * m.cfg.Age
	return v, nil
}

func (m *SchoolBus) CalculateODV(o, d *household.Zone, t clock.Time) (float64, error) {
	return m.cfg.Constant + m.network.TravelTime(o, d, t).Minutes()*m.cfg.Distance, nil
}

// Feasible serves students going to school, or coming home from it, who
// live beyond the walking distance of their grade.
func (m *SchoolBus) Feasible(trip *household.Trip) bool {
	o, d := trip.Origin, trip.Destination
	if !m.cfg.AvailableZones.Contains(o.Number) || !m.cfg.AvailableZones.Contains(d.Number) {
		return false
	}
	p := trip.Person()
	if !p.IsStudent() || !beyondWalkingDistance(p.Age, trip.Distance()) {
		return false
	}
	if !schoolRelated(trip) {
		return false
	}
	return m.network.TravelTime(o, d, trip.TripStartTime).Positive()
}

// schoolRelated reports a trip to school, or a trip home right after school.
func schoolRelated(trip *household.Trip) bool {
	if trip.Purpose == household.School {
		return true
	}
	if trip.Purpose != household.Home {
		return false
	}
	prev := trip.Chain.Previous(trip)
	return prev != nil && prev.Purpose == household.School
}

// beyondWalkingDistance applies the busing distance of the student's grade.
// Grade is estimated from age.
func beyondWalkingDistance(age int, distance float64) bool {
	grade := age - 5
	switch {
	case grade >= 1 && grade <= 5:
		return distance > elementaryBusDistance
	case grade < 9:
		return distance > middleBusDistance
	case grade < 13:
		return distance > highBusDistance
	}
	return false
}

func (m *SchoolBus) FeasibleOD(o, d *household.Zone, _ clock.Time) bool {
	return m.currentlyFeasible > 0 &&
		m.cfg.AvailableZones.Contains(o.Number) && m.cfg.AvailableZones.Contains(d.Number)
}

func (m *SchoolBus) FeasibleChain(*household.TripChain) bool { return true }

func (m *SchoolBus) TravelTime(o, d *household.Zone, t clock.Time) clock.Time {
	return m.network.TravelTime(o, d, t)
}

func (m *SchoolBus) Cost(*household.Zone, *household.Zone, clock.Time) float64 { return 0 }
