package mode

import (
	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/network"
)

// Auto is the private car driver mode.
type Auto struct {
	base
	cfg AutoConfig

	network     network.Data
	vehicleType *household.VehicleType
}

var _ Mode = (*Auto)(nil)

// NewAuto creates the auto mode.
func NewAuto(cfg AutoConfig) *Auto {
	return &Auto{base: newBase(cfg.Common, household.KindAuto), cfg: cfg}
}

func (m *Auto) RequiresVehicle() *household.VehicleType { return m.vehicleType }
func (m *Auto) NonPersonalVehicle() bool                { return false }

func (m *Auto) RuntimeValidation(env *Environment) error {
	data, err := env.Networks.Get(m.cfg.NetworkName)
	if err != nil {
		return m.invalidErr(err, "network %q", m.cfg.NetworkName)
	}
	vt, ok := env.vehicleType(m.cfg.VehicleTypeName)
	if !ok {
		return m.invalid("unknown vehicle type %q", m.cfg.VehicleTypeName)
	}
	m.network = data
	m.vehicleType = vt
	return nil
}

func (m *Auto) intrazonal(o, d *household.Zone) bool {
	return m.cfg.UseIntrazonalRegression && household.Intrazonal(o, d)
}

func (m *Auto) CalculateV(trip *household.Trip) (float64, error) {
	o, d := trip.Origin, trip.Destination
	var v float64
	if m.intrazonal(o, d) {
		v = m.cfg.IntrazonalConstant + o.InternalDistance*m.cfg.IntrazonalDistance
	} else {
		t := trip.ActivityStartTime
		v = m.cfg.Constant +
			m.network.TravelTime(o, d, t).Minutes()*m.cfg.TravelTime +
			m.network.TravelCost(o, d, t)*m.cfg.TravelCost
	}
	v += d.ParkingCost * m.cfg.Parking
	v += purposeTerm(trip.Purpose, m.cfg.ShopPurpose, m.cfg.OtherPurpose)
	return v, nil
}

func (m *Auto) CalculateODV(o, d *household.Zone, t clock.Time) (float64, error) {
	return m.network.TravelTime(o, d, t).Minutes()*m.cfg.TravelTime +
		m.network.TravelCost(o, d, t)*m.cfg.TravelCost +
		d.ParkingCost*m.cfg.Parking, nil
}

// Feasible requires a licensed driver in a household owning the vehicle.
func (m *Auto) Feasible(trip *household.Trip) bool {
	return trip.Person().Licence && trip.Household().HasVehicleType(m.vehicleType)
}

func (m *Auto) FeasibleOD(o, d *household.Zone, t clock.Time) bool {
	if m.intrazonal(o, d) {
		return true
	}
	return m.currentlyFeasible > 0 && m.network.ValidOD(o, d, t)
}

// FeasibleChain follows the car through the chain. It leaves from home, may
// only be taken from where it was last parked, and must end the day at home.
func (m *Auto) FeasibleChain(chain *household.TripChain) bool {
	if len(chain.Trips) == 0 {
		return true
	}
	home := chain.Person.Household.HomeZone
	if home == nil {
		home = chain.Trips[0].Origin
	}

	var (
		parkedAt    = home.Number
		used        bool
		firstByAuto bool
		lastByAuto  bool
	)
	for i, trip := range chain.Trips {
		byAuto := trip.Mode != nil && !trip.Mode.NonPersonalVehicle() &&
			household.UsesVehicle(trip.Mode, m.vehicleType)
		if byAuto {
			if trip.Origin.Number != parkedAt {
				return false
			}
			parkedAt = trip.Destination.Number
			used = true
		}
		if i == 0 {
			firstByAuto = byAuto
		}
		lastByAuto = byAuto
	}
	if !used {
		return true
	}
	return firstByAuto && lastByAuto && parkedAt == home.Number
}

func (m *Auto) TravelTime(o, d *household.Zone, t clock.Time) clock.Time {
	return m.network.TravelTime(o, d, t)
}

func (m *Auto) Cost(o, d *household.Zone, t clock.Time) float64 {
	return m.network.TravelCost(o, d, t)
}
