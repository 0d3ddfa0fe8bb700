package mode

import (
	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
)

// kmhToMetresPerMinute converts km/h to m/min.
const kmhToMetresPerMinute = 1000.0 / 60.0

// Walking needs no network; travel time comes from centroid distance.
type Walking struct {
	base
	cfg WalkingConfig

	// speed in metres per minute
	speed float64
}

var _ Mode = (*Walking)(nil)

// NewWalking creates the walking mode.
func NewWalking(cfg WalkingConfig) *Walking {
	return &Walking{base: newBase(cfg.Common, household.KindWalk), cfg: cfg}
}

func (m *Walking) RequiresVehicle() *household.VehicleType { return nil }
func (m *Walking) NonPersonalVehicle() bool                { return true }

func (m *Walking) RuntimeValidation(*Environment) error {
	if m.cfg.Speed <= 0 {
		return m.invalid("speed must be positive, got %g km/h", m.cfg.Speed)
	}
	m.speed = m.cfg.Speed * kmhToMetresPerMinute
	return nil
}

func (m *Walking) CalculateV(trip *household.Trip) (float64, error) {
	p := trip.Person()
	v := m.cfg.Constant
	if p.Licence {
		v += m.cfg.Licence
	}
	v += m.TravelTime(trip.Origin, trip.Destination, trip.TripStartTime).Minutes() * m.cfg.TravelTime
	v += peakTerm(trip.TripStartTime, m.cfg.Peak)
	if p.Youth {
		v += m.cfg.Youth
	}
	if p.YoungAdult {
		v += m.cfg.YoungAdult
	}
	if trip.Intrazonal() {
		v += m.cfg.Intrazonal
	}
	if !p.Household.HasVehicles() {
		v += m.cfg.NoVehicle
	}
	v += purposeTerm(trip.Purpose, m.cfg.ShopPurpose, m.cfg.OtherPurpose)
	return v, nil
}

func (m *Walking) CalculateODV(o, d *household.Zone, t clock.Time) (float64, error) {
	v := m.cfg.Constant + m.TravelTime(o, d, t).Minutes()*m.cfg.TravelTime + peakTerm(t, m.cfg.Peak)
	if household.Intrazonal(o, d) {
		v += m.cfg.Intrazonal
	}
	return v, nil
}

func (m *Walking) Feasible(trip *household.Trip) bool {
	return m.FeasibleOD(trip.Origin, trip.Destination, trip.TripStartTime)
}

func (m *Walking) FeasibleOD(o, d *household.Zone, _ clock.Time) bool {
	return m.currentlyFeasible > 0 && household.Distance(o, d) <= m.cfg.MaxWalkDistance
}

func (m *Walking) FeasibleChain(*household.TripChain) bool { return true }

func (m *Walking) TravelTime(o, d *household.Zone, _ clock.Time) clock.Time {
	return clock.FromMinutes(household.Distance(o, d) / m.speed)
}

func (m *Walking) Cost(*household.Zone, *household.Zone, clock.Time) float64 { return 0 }
