package mode

import (
	"math"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/network"
)

// Taxi is a metered taxi trip inside the taxi service area.
type Taxi struct {
	base
	cfg TaxiConfig

	network network.Data
}

var _ Mode = (*Taxi)(nil)

// NewTaxi creates the taxi mode.
func NewTaxi(cfg TaxiConfig) *Taxi {
	return &Taxi{base: newBase(cfg.Common, household.KindTaxi), cfg: cfg}
}

func (m *Taxi) RequiresVehicle() *household.VehicleType { return nil }
func (m *Taxi) NonPersonalVehicle() bool                { return true }

func (m *Taxi) RuntimeValidation(env *Environment) error {
	if m.cfg.MinZone > m.cfg.MaxZone {
		return m.invalid("min zone %d above max zone %d", m.cfg.MinZone, m.cfg.MaxZone)
	}
	data, err := env.Networks.Get(m.cfg.NetworkName)
	if err != nil {
		return m.invalidErr(err, "network %q", m.cfg.NetworkName)
	}
	m.network = data
	return nil
}

func (m *Taxi) intrazonal(o, d *household.Zone) bool {
	return m.cfg.UseIntrazonalRegression && household.Intrazonal(o, d)
}

func (m *Taxi) inServiceArea(z *household.Zone) bool {
	return z.Number >= m.cfg.MinZone && z.Number <= m.cfg.MaxZone
}

func (m *Taxi) CalculateV(trip *household.Trip) (float64, error) {
	o, d := trip.Origin, trip.Destination
	var v float64
	if m.intrazonal(o, d) {
		v = m.cfg.IntrazonalConstant + o.InternalDistance*m.cfg.IntrazonalDistance
	} else {
		v = m.cfg.Constant +
			m.network.TravelTime(o, d, trip.TripStartTime).Minutes()*m.cfg.Time +
			m.fare(o, d, trip.ActivityStartTime)*m.cfg.FareCost
	}
	if !clock.PeriodOf(trip.TripStartTime).IsPeak() {
		v += m.cfg.OffPeakTrip
	}
	if m.cfg.TerminalZones.Contains(o.Number) || m.cfg.TerminalZones.Contains(d.Number) {
		v += m.cfg.Terminal
	}
	v += purposeTerm(trip.Purpose, m.cfg.ShopPurpose, m.cfg.OtherPurpose)
	return v, nil
}

func (m *Taxi) CalculateODV(o, d *household.Zone, t clock.Time) (float64, error) {
	return m.cfg.Constant +
		m.network.TravelTime(o, d, t).Minutes()*m.cfg.Time +
		m.fare(o, d, t)*m.cfg.FareCost, nil
}

// fare meters the trip on centroid distance and network time, tip included.
func (m *Taxi) fare(o, d *household.Zone, t clock.Time) float64 {
	km := manhattan(o, d) / 1000
	minutes := m.network.TravelTime(o, d, t).Minutes()
	return (m.cfg.InitialFare + km*m.cfg.PerKFare + minutes*m.cfg.PerMinuteFare) * m.cfg.Tip
}

func (m *Taxi) Feasible(trip *household.Trip) bool {
	o, d := trip.Origin, trip.Destination
	if !m.inServiceArea(o) || !m.inServiceArea(d) {
		return false
	}
	return m.intrazonal(o, d) || m.network.TravelTime(o, d, trip.TripStartTime).Positive()
}

func (m *Taxi) FeasibleOD(*household.Zone, *household.Zone, clock.Time) bool {
	return m.currentlyFeasible > 0
}

func (m *Taxi) FeasibleChain(*household.TripChain) bool { return true }

func (m *Taxi) TravelTime(o, d *household.Zone, t clock.Time) clock.Time {
	return m.network.TravelTime(o, d, t)
}

// Cost is the metered fare, never negative.
func (m *Taxi) Cost(o, d *household.Zone, t clock.Time) float64 {
	return max(m.fare(o, d, t), 0)
}

// manhattan is the centroid distance, ignoring internal distance.
func manhattan(o, d *household.Zone) float64 {
	dx := o.Point.X() - d.Point.X()
	dy := o.Point.Y() - d.Point.Y()
	return math.Abs(dx) + math.Abs(dy)
}
