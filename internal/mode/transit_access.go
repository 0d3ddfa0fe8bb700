package mode

import (
	"github.com/samber/lo"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/network"
)

// subwayMode is what the park and ride subway modes share.
type subwayMode struct {
	base
	cfg SubwayConfig

	subway      network.StationData
	zones       *household.ZoneSystem
	auto        Mode
	vehicleType *household.VehicleType
}

func (m *subwayMode) bind(env *Environment) error {
	subway, err := env.Networks.Stations(m.cfg.NetworkName)
	if err != nil {
		return m.invalidErr(err, "network %q", m.cfg.NetworkName)
	}
	if env.AutoMode == nil {
		return m.invalid("no auto mode to drive to the station with")
	}
	if env.Zones == nil {
		return m.invalid("no zone system")
	}
	m.subway = subway
	m.zones = env.Zones
	m.auto = env.AutoMode
	m.vehicleType = env.AutoType
	return nil
}

func (m *subwayMode) RequiresVehicle() *household.VehicleType { return m.vehicleType }
func (m *subwayMode) NonPersonalVehicle() bool                { return false }

func (m *subwayMode) FeasibleOD(*household.Zone, *household.Zone, clock.Time) bool {
	return m.currentlyFeasible > 0
}

func (m *subwayMode) CalculateODV(*household.Zone, *household.Zone, clock.Time) (float64, error) {
	return 0, ErrUnsupported
}

func (m *subwayMode) driverEligible(trip *household.Trip) bool {
	p := trip.Person()
	return p.Licence && p.Household.HasVehicles() && trip.Distance() >= m.cfg.MinDistance
}

func (m *subwayMode) parking(station int) float64 {
	if st, ok := m.subway.Station(station); ok {
		return st.ParkingCost
	}
	return 0
}

// stationZones resolves station numbers to zones, dropping unknown ones.
func (m *subwayMode) stationZones(stations []int) []*household.Zone {
	return lo.FilterMap(stations, func(s int, _ int) (*household.Zone, bool) {
		return m.zones.Get(s)
	})
}

// subwayChainFeasible pairs subway access and egress legs and checks the
// car is taken from where it was left. moves reports the legs that drive
// the car elsewhere; egress legs never move it.
func subwayChainFeasible(chain *household.TripChain, moves func(household.ModeTag) bool) bool {
	if len(chain.Trips) == 0 {
		return true
	}
	var (
		carAt    = chain.Trips[0].Origin.Number
		accessed bool
	)
	for _, trip := range chain.Trips {
		if trip.Mode == nil {
			continue
		}
		switch trip.Mode.Kind() {
		case household.KindTransitAccess:
			if accessed || trip.Origin.Number != carAt {
				return false
			}
			accessed = true
		case household.KindTransitEgress:
			if !accessed {
				return false
			}
			accessed = false
		default:
			if moves(trip.Mode) {
				carAt = trip.Destination.Number
			}
		}
	}
	return !accessed
}

// TransitAccess is driving to a subway station, parking and riding on.
type TransitAccess struct {
	subwayMode
}

var _ Mode = (*TransitAccess)(nil)

// NewTransitAccess creates the drive access subway mode.
func NewTransitAccess(cfg SubwayConfig) *TransitAccess {
	return &TransitAccess{subwayMode{base: newBase(cfg.Common, household.KindTransitAccess), cfg: cfg}}
}

func (m *TransitAccess) RuntimeValidation(env *Environment) error {
	return m.bind(env)
}

// Feasible records the stations reachable by car from which the subway
// reaches the destination.
func (m *TransitAccess) Feasible(trip *household.Trip) bool {
	sc := &trip.Scratch
	sc.SubwayAccessEvaluated = true
	sc.SubwayAccessStation = household.NoStation
	sc.FeasibleSubwayStations = nil

	if !m.driverEligible(trip) {
		return false
	}
	o, d, t := trip.Origin, trip.Destination, trip.TripStartTime
	for _, z := range m.stationZones(m.subway.ClosestStations(o)) {
		if m.auto.TravelTime(o, z, t).Positive() && m.subway.InVehicleTravelTime(z, d, t).Positive() {
			sc.FeasibleSubwayStations = append(sc.FeasibleSubwayStations, z.Number)
		}
	}
	return len(sc.FeasibleSubwayStations) > 0
}

// CalculateV picks the best feasible station and records it for the
// return leg.
func (m *TransitAccess) CalculateV(trip *household.Trip) (float64, error) {
	sc := &trip.Scratch
	if !sc.SubwayAccessEvaluated || len(sc.FeasibleSubwayStations) == 0 {
		return 0, ErrNotEvaluated
	}
	o, d, t := trip.Origin, trip.Destination, trip.TripStartTime
	fixed := m.cfg.Constant +
		peakTerm(trip.ActivityStartTime, m.cfg.Peak) +
		occupationTerm(trip.Person(), m.cfg.OccSales, m.cfg.OccGeneral)

	chosen := best(sc.FeasibleSubwayStations, func(s int) float64 {
		z, _ := m.zones.Get(s)
		return fixed +
			m.cfg.AutoTime*m.auto.TravelTime(o, z, t).Minutes() +
			m.cfg.AutoCost*m.auto.Cost(o, z, t) +
			m.cfg.WalkTime*m.subway.WalkTime(z, d, t).Minutes() +
			m.cfg.WaitTime*m.subway.WaitTime(z, d, t).Minutes() +
			m.cfg.TransitTime*m.subway.InVehicleTravelTime(z, d, t).Minutes() +
			m.cfg.ParkingCost*m.parking(s)
	})
	sc.SubwayAccessStation = household.StationAt(chosen.station)
	return chosen.v, nil
}

func (m *TransitAccess) FeasibleChain(chain *household.TripChain) bool {
	return subwayChainFeasible(chain, func(tag household.ModeTag) bool {
		return tag.Kind() == household.KindAuto
	})
}

// TravelTime is the fastest drive and subway ride over the candidate
// stations.
func (m *TransitAccess) TravelTime(o, d *household.Zone, t clock.Time) clock.Time {
	return minTime(m.stationZones(m.subway.ClosestStations(o)), func(z *household.Zone) clock.Time {
		return m.auto.TravelTime(o, z, t) + m.subway.TravelTime(z, d, t)
	})
}

// Cost is the cheapest drive and parking over the candidate stations.
func (m *TransitAccess) Cost(o, _ *household.Zone, t clock.Time) float64 {
	return minCost(m.stationZones(m.subway.ClosestStations(o)), func(z *household.Zone) float64 {
		return m.auto.Cost(o, z, t) + m.parking(z.Number)
	})
}

// TransitEgress is riding the subway back to the station where the car was
// parked and driving on.
type TransitEgress struct {
	subwayMode
}

var _ Mode = (*TransitEgress)(nil)

// NewTransitEgress creates the subway egress mode.
func NewTransitEgress(cfg SubwayConfig) *TransitEgress {
	return &TransitEgress{subwayMode{base: newBase(cfg.Common, household.KindTransitEgress), cfg: cfg}}
}

func (m *TransitEgress) RuntimeValidation(env *Environment) error {
	return m.bind(env)
}

// subwayParkedStation returns the station of the latest earlier subway
// access leg of the chain.
func subwayParkedStation(trip *household.Trip) (int, bool) {
	before := trip.Chain.Before(trip)
	for i := len(before) - 1; i >= 0; i-- {
		if s := before[i].Scratch.SubwayAccessStation; s.Valid {
			return s.Zone, true
		}
	}
	return 0, false
}

// Feasible requires a car parked at a subway station earlier in the chain.
func (m *TransitEgress) Feasible(trip *household.Trip) bool {
	sc := &trip.Scratch
	sc.SubwayEgressEvaluated = true
	sc.SubwayEgressStation = household.NoStation

	if !m.driverEligible(trip) {
		return false
	}
	parked, ok := subwayParkedStation(trip)
	if !ok {
		return false
	}
	z, ok := m.zones.Get(parked)
	if !ok {
		return false
	}
	t := trip.TripStartTime
	if !m.auto.TravelTime(trip.Destination, z, t).Positive() ||
		!m.subway.InVehicleTravelTime(z, trip.Origin, t).Positive() {
		return false
	}
	sc.SubwayEgressStation = household.StationAt(parked)
	return true
}

func (m *TransitEgress) CalculateV(trip *household.Trip) (float64, error) {
	sc := &trip.Scratch
	if !sc.SubwayEgressEvaluated || !sc.SubwayEgressStation.Valid {
		return 0, ErrNotEvaluated
	}
	station := sc.SubwayEgressStation.Zone
	z, ok := m.zones.Get(station)
	if !ok {
		return 0, ErrNotEvaluated
	}
	o, d, t := trip.Origin, trip.Destination, trip.TripStartTime

	v := m.cfg.Constant +
		m.cfg.AutoTime*m.auto.TravelTime(d, z, t).Minutes() +
		m.cfg.AutoCost*m.auto.Cost(d, z, t) +
		m.cfg.WalkTime*m.subway.WalkTime(z, o, t).Minutes() +
		m.cfg.WaitTime*m.subway.WaitTime(z, o, t).Minutes() +
		m.cfg.TransitTime*m.subway.InVehicleTravelTime(z, o, t).Minutes() +
		m.cfg.ParkingCost*m.parking(station)
	v += peakTerm(trip.ActivityStartTime, m.cfg.Peak)
	v += occupationTerm(trip.Person(), m.cfg.OccSales, m.cfg.OccGeneral)
	return v, nil
}

func (m *TransitEgress) FeasibleChain(chain *household.TripChain) bool {
	return subwayChainFeasible(chain, func(tag household.ModeTag) bool {
		return m.vehicleType != nil && household.UsesVehicle(tag, m.vehicleType)
	})
}

// TravelTime is the fastest subway ride and drive over the stations near o.
func (m *TransitEgress) TravelTime(o, d *household.Zone, t clock.Time) clock.Time {
	return minTime(m.stationZones(m.subway.ClosestStations(o)), func(z *household.Zone) clock.Time {
		return m.auto.TravelTime(d, z, t) + m.subway.TravelTime(z, o, t)
	})
}

// Cost is the cheapest drive and parking over the stations near d.
func (m *TransitEgress) Cost(_, d *household.Zone, t clock.Time) float64 {
	return minCost(m.stationZones(m.subway.ClosestStations(d)), func(z *household.Zone) float64 {
		return m.auto.Cost(d, z, t) + m.parking(z.Number)
	})
}
