package mode

import (
	"math"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/network"
)

// Passenger is riding with a household driver who detours from their own
// trip. It is evaluated per driver and passenger pair through
// CalculatePassengerV; the single trip operations do not apply.
type Passenger struct {
	base
	cfg PassengerConfig

	network     network.Data
	vehicleType *household.VehicleType
	auto        Mode
}

var _ SharedMode = (*Passenger)(nil)

// NewPassenger creates the passenger mode.
func NewPassenger(cfg PassengerConfig) *Passenger {
	return &Passenger{base: newBase(cfg.Common, household.KindPassenger), cfg: cfg}
}

func (m *Passenger) RequiresVehicle() *household.VehicleType { return m.vehicleType }
func (m *Passenger) NonPersonalVehicle() bool                { return true }
func (m *Passenger) AssociatedMode() Mode                    { return m.auto }

func (m *Passenger) RuntimeValidation(env *Environment) error {
	data, err := env.Networks.Get(m.cfg.NetworkName)
	if err != nil {
		return m.invalidErr(err, "network %q", m.cfg.NetworkName)
	}
	if m.cfg.MaxDriverTime < 0 || m.cfg.MaxPassengerTime < 0 {
		return m.invalid("time thresholds must not be negative")
	}
	m.network = data
	m.vehicleType = env.AutoType
	m.auto = env.AutoMode
	return nil
}

// detour is the extra driving a pickup requires.
type detour struct {
	toPassenger clock.Time
	passenger   clock.Time
	final       clock.Time
}

func (d detour) total() clock.Time {
	return d.toPassenger + d.passenger + d.final
}

// ridden is the driving priced in the utility. The leg from the passenger's
// destination to the driver's only constrains lateness.
func (d detour) ridden() clock.Time {
	return d.toPassenger + d.passenger
}

// plan checks that the driver can reach the passenger within both parties'
// tolerance and still arrive at their own activity in time.
func (m *Passenger) plan(driver, passenger *household.Trip) (detour, bool) {
	var d detour

	earliestPassenger := passenger.ActivityStartTime - m.cfg.MaxPassengerTime
	latestPassenger := passenger.ActivityStartTime + m.cfg.MaxPassengerTime

	d.toPassenger = m.network.TravelTime(driver.Origin, passenger.Origin, driver.TripStartTime)
	driverArrives := driver.TripStartTime + d.toPassenger
	earliestDriver := driverArrives - m.cfg.MaxDriverTime
	latestDriver := driverArrives + m.cfg.MaxDriverTime

	overlapStart, _, ok := clock.Intersection(earliestPassenger, latestPassenger, earliestDriver, latestDriver)
	if !ok {
		return detour{}, false
	}

	d.passenger = m.network.TravelTime(passenger.Origin, passenger.Destination, latestDriver)
	if passenger.Destination.Number != driver.Destination.Number {
		d.final = m.network.TravelTime(passenger.Destination, driver.Destination, latestDriver+d.passenger)
	}
	if overlapStart+d.total() > driver.ActivityStartTime+m.cfg.MaxDriverTime {
		return detour{}, false
	}
	return d, true
}

// CalculatePassengerV returns the utility of passenger riding with driver.
// An infeasible pairing returns negative infinity and false.
func (m *Passenger) CalculatePassengerV(driver, passenger *household.Trip) (float64, bool) {
	d, ok := m.plan(driver, passenger)
	if !ok {
		return math.Inf(-1), false
	}

	// The passenger leg is counted twice.
	v := m.cfg.Constant
	v += (d.ridden().Minutes() + d.passenger.Minutes()) * m.cfg.TravelTime
	v += m.Cost(passenger.Origin, passenger.Destination, passenger.ActivityStartTime) * m.cfg.TravelCost
	v += purposeTerm(passenger.Purpose, m.cfg.ShopPurpose, m.cfg.OtherPurpose)
	if passenger.Purpose == household.School {
		v += m.cfg.SchoolPurpose
	}

	p := passenger.Person()
	if p.Female {
		v += m.cfg.Female
	}
	if p.Licence {
		v += m.cfg.Licence
	}

	sameOrigin := passenger.Origin.Number == driver.Origin.Number
	sameDestination := passenger.Destination.Number == driver.Destination.Number
	switch {
	case sameOrigin && sameDestination:
		v += m.cfg.RoundTrip
	case sameOrigin, sameDestination:
		v += m.cfg.Connecting
	}
	return v, true
}

func (m *Passenger) CalculateV(*household.Trip) (float64, error) {
	return 0, ErrUnsupported
}

func (m *Passenger) CalculateODV(*household.Zone, *household.Zone, clock.Time) (float64, error) {
	return 0, ErrUnsupported
}

// Feasible is always false. Passenger trips need a driver; see
// CalculatePassengerV.
func (m *Passenger) Feasible(*household.Trip) bool { return false }

func (m *Passenger) FeasibleOD(*household.Zone, *household.Zone, clock.Time) bool {
	return m.currentlyFeasible > 0
}

// FeasibleChain rejects joint chains, which ride share covers.
func (m *Passenger) FeasibleChain(chain *household.TripChain) bool {
	return !chain.JointTrip
}

func (m *Passenger) TravelTime(o, d *household.Zone, t clock.Time) clock.Time {
	return m.network.TravelTime(o, d, t)
}

func (m *Passenger) Cost(o, d *household.Zone, t clock.Time) float64 {
	return m.network.TravelCost(o, d, t)
}
