package mode

import (
	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
)

// Bike is cycling. It only consumes a vehicle when a vehicle type is
// configured.
type Bike struct {
	base
	cfg BikeConfig

	// speed in metres per minute
	speed       float64
	vehicleType *household.VehicleType
}

var _ Mode = (*Bike)(nil)

// NewBike creates the bike mode.
func NewBike(cfg BikeConfig) *Bike {
	return &Bike{base: newBase(cfg.Common, household.KindBike), cfg: cfg}
}

func (m *Bike) RequiresVehicle() *household.VehicleType { return m.vehicleType }
func (m *Bike) NonPersonalVehicle() bool                { return true }

func (m *Bike) RuntimeValidation(env *Environment) error {
	if m.cfg.Speed <= 0 {
		return m.invalid("speed must be positive, got %g km/h", m.cfg.Speed)
	}
	m.speed = m.cfg.Speed * kmhToMetresPerMinute
	if m.cfg.VehicleTypeName != "" {
		vt, ok := env.VehicleTypes[m.cfg.VehicleTypeName]
		if !ok {
			return m.invalid("unknown vehicle type %q", m.cfg.VehicleTypeName)
		}
		m.vehicleType = vt
	}
	return nil
}

func (m *Bike) CalculateV(trip *household.Trip) (float64, error) {
	p := trip.Person()
	v := m.cfg.Constant + m.TravelTime(trip.Origin, trip.Destination, trip.TripStartTime).Minutes()*m.cfg.TravelTime
	if p.Youth {
		v += m.cfg.Youth
	}
	if p.YoungAdult {
		v += m.cfg.YoungAdult
	}
	if trip.Intrazonal() {
		v += m.cfg.Intrazonal
	}
	return v, nil
}

func (m *Bike) CalculateODV(o, d *household.Zone, t clock.Time) (float64, error) {
	v := m.cfg.Constant + m.TravelTime(o, d, t).Minutes()*m.cfg.TravelTime
	if household.Intrazonal(o, d) {
		v += m.cfg.Intrazonal
	}
	return v, nil
}

func (m *Bike) Feasible(trip *household.Trip) bool {
	if m.vehicleType != nil && !trip.Household().HasVehicleType(m.vehicleType) {
		return false
	}
	return m.FeasibleOD(trip.Origin, trip.Destination, trip.TripStartTime)
}

func (m *Bike) FeasibleOD(o, d *household.Zone, _ clock.Time) bool {
	return m.currentlyFeasible > 0 && household.Distance(o, d) <= m.cfg.MaxTravelDistance
}

// FeasibleChain requires a bike, once taken, to be ridden on the first and
// last trips, to leave from wherever it was last left and to end up back
// where the chain started.
func (m *Bike) FeasibleChain(chain *household.TripChain) bool {
	if len(chain.Trips) == 0 {
		return true
	}
	anchor := chain.Trips[0].Origin.Number
	var (
		used, first, last bool
		lastPlace         = anchor
	)
	for i, trip := range chain.Trips {
		byBike := trip.Mode != nil && trip.Mode.Name() == m.name && trip.Mode.Kind() == m.kind
		if i == 0 {
			first = byBike
		}
		last = byBike
		if !byBike {
			continue
		}
		used = true
		if trip.Origin.Number != lastPlace {
			return false
		}
		lastPlace = trip.Destination.Number
	}
	return !used || (first && last && lastPlace == anchor)
}

func (m *Bike) TravelTime(o, d *household.Zone, _ clock.Time) clock.Time {
	return clock.FromMinutes(household.Distance(o, d) / m.speed)
}

func (m *Bike) Cost(*household.Zone, *household.Zone, clock.Time) float64 { return 0 }
