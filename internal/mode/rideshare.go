package mode

import (
	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/network"
)

// RideShare is household members travelling together in the household car
// on a joint trip.
type RideShare struct {
	base
	cfg RideShareConfig

	network     network.Data
	vehicleType *household.VehicleType
	auto        Mode
}

var _ SharedMode = (*RideShare)(nil)

// NewRideShare creates the ride share mode.
func NewRideShare(cfg RideShareConfig) *RideShare {
	return &RideShare{base: newBase(cfg.Common, household.KindRideShare), cfg: cfg}
}

func (m *RideShare) RequiresVehicle() *household.VehicleType { return m.vehicleType }
func (m *RideShare) NonPersonalVehicle() bool                { return false }
func (m *RideShare) AssociatedMode() Mode                    { return m.auto }

func (m *RideShare) RuntimeValidation(env *Environment) error {
	data, err := env.Networks.Get(m.cfg.NetworkName)
	if err != nil {
		return m.invalidErr(err, "network %q", m.cfg.NetworkName)
	}
	if env.AutoType == nil {
		return m.invalid("no auto vehicle type")
	}
	if env.AutoMode == nil {
		return m.invalid("no auto mode to share")
	}
	m.network = data
	m.vehicleType = env.AutoType
	m.auto = env.AutoMode
	return nil
}

func (m *RideShare) CalculateV(trip *household.Trip) (float64, error) {
	o, d := trip.Origin, trip.Destination
	v := m.cfg.Constant +
		m.network.TravelTime(o, d, trip.ActivityStartTime).Minutes()*m.cfg.TravelTime +
		m.network.TravelCost(o, d, trip.TripStartTime)*m.cfg.TravelCost +
		d.ParkingCost*m.cfg.Parking
	v += purposeTerm(trip.Purpose, m.cfg.ShopPurpose, m.cfg.OtherPurpose)
	return v, nil
}

func (m *RideShare) CalculateODV(*household.Zone, *household.Zone, clock.Time) (float64, error) {
	return 0, ErrUnsupported
}

// Feasible is only true for joint trips of households owning a vehicle.
func (m *RideShare) Feasible(trip *household.Trip) bool {
	return trip.Chain.JointTrip && trip.Household().HasVehicles()
}

func (m *RideShare) FeasibleOD(*household.Zone, *household.Zone, clock.Time) bool {
	return m.currentlyFeasible > 0
}

func (m *RideShare) FeasibleChain(chain *household.TripChain) bool {
	return chain.Person.Household.HasVehicles()
}

func (m *RideShare) TravelTime(o, d *household.Zone, t clock.Time) clock.Time {
	return m.network.TravelTime(o, d, t)
}

func (m *RideShare) Cost(o, d *household.Zone, t clock.Time) float64 {
	return m.network.TravelCost(o, d, t)
}
