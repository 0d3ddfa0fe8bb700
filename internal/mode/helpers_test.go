package mode_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/mode"
	"github.com/travelmodel/modechoice/internal/network"
)

// Zone numbers of the test world. Zones sit on a line, x in metres.
const (
	home    = 1 // x 0
	work    = 2 // x 6000
	near    = 3 // x 2000, walk zone of rail station 100
	mid     = 4 // x 3000
	subway  = 10
	taxiA   = 1700
	taxiB   = 1800
	railA   = 100 // serves home
	railB   = 200 // serves work
	railAlt = 300 // second choice for home
)

var (
	am = clock.New(8, 0)
	pm = clock.New(17, 0)
)

// world is a small zone system with auto, transit, subway and rail data.
type world struct {
	zones    *household.ZoneSystem
	networks *network.Registry
	car      *household.VehicleType
}

func (w *world) zone(n int) *household.Zone {
	z, ok := w.zones.Get(n)
	if !ok {
		panic("unknown test zone")
	}
	return z
}

func newWorld(t *testing.T) *world {
	t.Helper()

	zones := []*household.Zone{
		{Number: home, Point: orb.Point{0, 0}, InternalDistance: 300},
		{Number: work, Point: orb.Point{6000, 0}, ParkingCost: 5},
		{Number: near, Point: orb.Point{2000, 0}},
		{Number: mid, Point: orb.Point{3000, 0}},
		{Number: subway, Point: orb.Point{1000, 0}},
		{Number: taxiA, Point: orb.Point{0, 3000}},
		{Number: taxiB, Point: orb.Point{4000, 3000}},
	}
	zs, err := household.NewZoneSystem(zones)
	require.NoError(t, err)

	// Auto runs at 30 km/h plus a minute, and costs 0.2 per km.
	auto := network.NewMatrix("Auto")
	for _, o := range zones {
		for _, d := range zones {
			km := household.Distance(o, d) / 1000
			for _, p := range clock.Periods {
				auto.Set(p, o.Number, d.Number, network.Skim{
					TravelTime: clock.FromMinutes(km*2 + 1),
					Cost:       km * 0.2,
					Valid:      true,
				})
			}
		}
	}

	transitSkim := network.Skim{
		TravelTime: 31 * clock.Minute,
		InVehicle:  20 * clock.Minute,
		Wait:       5 * clock.Minute,
		Walk:       6 * clock.Minute,
		Cost:       3.25,
		Valid:      true,
	}
	transit := network.NewMatrix("Transit")
	subwayMatrix := network.NewMatrix("Subway")
	for _, p := range clock.Periods {
		transit.Set(p, home, work, transitSkim)
		transit.Set(p, work, home, transitSkim)
		subwayMatrix.Set(p, subway, work, network.Skim{
			TravelTime: 19 * clock.Minute,
			InVehicle:  12 * clock.Minute,
			Wait:       3 * clock.Minute,
			Walk:       4 * clock.Minute,
			Cost:       2.5,
			Valid:      true,
		})
	}
	subwayData := network.NewStationMatrix(subwayMatrix,
		[]network.StationRecord{{Network: "Subway", Station: subway, ParkingCost: 2, ClosestZone: -1}},
		[]network.AccessRecord{
			{Network: "Subway", Zone: home, Station: subway, Rank: 1},
			{Network: "Subway", Zone: work, Station: subway, Rank: 1},
		},
	)

	var lines []network.GoLineRecord
	addLine := func(a, e int, lineHaul, fare, freq float64) {
		for _, p := range clock.Periods {
			lines = append(lines, network.GoLineRecord{
				Access:    a,
				Egress:    e,
				Period:    p,
				LineHaul:  clock.FromMinutes(lineHaul),
				Fare:      fare,
				Frequency: freq,
			})
		}
	}
	addLine(railA, railB, 30, 6, 4)
	addLine(railAlt, railB, 25, 5, 4)
	addLine(railB, railAlt, 25, 5, 4)
	addLine(railB, railA, 30, 6, 0)
	addLine(railA, railAlt, 10, 2, 2)

	tables := network.GoTables{
		Settings: network.GoSettings{
			Network:      "GO",
			MinDistance:  1000,
			ServiceStart: clock.New(6, 0),
			ServiceEnd:   clock.New(22, 0),
		},
		Legs: []network.GoLegRecord{
			{
				Zone:              home,
				Station:           railA,
				AutoTime:          8 * clock.Minute,
				AutoCost:          1.5,
				TransitAccessTime: 12 * clock.Minute,
				AccessWalkTime:    3 * clock.Minute,
				AccessWaitTime:    4 * clock.Minute,
				TransitFare:       3,
			},
			{Zone: home, Station: railAlt, AutoTime: 10 * clock.Minute, AutoCost: 2},
			{
				Zone:              work,
				Station:           railB,
				AutoTime:          5 * clock.Minute,
				AutoCost:          1,
				TransitAccessTime: 7 * clock.Minute,
				TransitEgressTime: 6 * clock.Minute,
				AccessWalkTime:    2 * clock.Minute,
				AccessWaitTime:    5 * clock.Minute,
				EgressWalkTime:    2 * clock.Minute,
				EgressWaitTime:    3 * clock.Minute,
				TransitFare:       3,
			},
		},
		Lines: lines,
	}
	stations := []network.StationRecord{
		{Network: "GO", Station: railA, ParkingCost: 4, ClosestZone: near},
		{Network: "GO", Station: railB, ClosestZone: -1},
		{Network: "GO", Station: railAlt, ParkingCost: 1, ClosestZone: -1},
	}
	access := []network.AccessRecord{
		{Network: "GO", Zone: home, Station: railA, Rank: 1},
		{Network: "GO", Zone: home, Station: railAlt, Rank: 2},
		{Network: "GO", Zone: work, Station: railB, Rank: 1},
		{Network: "GO", Zone: mid, Station: railA, Rank: 1},
	}
	rail := network.NewGoNetwork(tables, stations, access)

	reg := network.NewRegistry()
	reg.Register(auto)
	reg.Register(transit)
	reg.Register(subwayData)
	reg.RegisterGo("GO", rail)

	return &world{zones: zs, networks: reg, car: &household.VehicleType{Name: "Auto"}}
}

func (w *world) env() *mode.Environment {
	return &mode.Environment{
		Networks:     w.networks,
		Zones:        w.zones,
		VehicleTypes: map[string]*household.VehicleType{"Auto": w.car},
		AutoType:     w.car,
	}
}

// testParameters are the defaults with simple, distinct coefficients.
func testParameters() mode.Parameters {
	p := mode.DefaultParameters()

	p.Auto.Constant = -0.5
	p.Auto.TravelTime = -0.1
	p.Auto.TravelCost = -0.4
	p.Auto.Parking = -0.2

	p.Transit.Constant = -1
	p.Transit.InVehicleTime = -0.05
	p.Transit.WaitTime = -0.07
	p.Transit.WalkTime = -0.08
	p.Transit.Fare = -0.3

	p.Passenger.Constant = -1
	p.Passenger.TravelTime = -0.1
	p.Passenger.TravelCost = -0.2
	p.Passenger.RoundTrip = 1
	p.Passenger.Connecting = 0.4

	for _, g := range []*mode.GoConfig{p.GoAccess, p.GoEgress, p.GoNonDrive} {
		g.Constant = -1
		g.AutoTime = -0.1
		g.AutoCost = -0.2
		g.RailTime = -0.05
		g.TransitTime = -0.04
		g.WalkTime = -0.06
		g.WaitTime = -0.07
		g.FareCost = -0.1
		g.Peak = 0.5
	}
	p.GoNonDrive.Constant = -2

	for _, s := range []*mode.SubwayConfig{p.TransitAccess, p.TransitEgress} {
		s.Constant = -1
		s.AutoTime = -0.1
		s.AutoCost = -0.3
		s.TransitTime = -0.05
		s.WalkTime = -0.08
		s.WaitTime = -0.07
		s.ParkingCost = -0.2
		s.Peak = 0.3
	}
	return p
}

// newSet builds and validates a set against w.
func newSet(t *testing.T, w *world, params mode.Parameters) *mode.Set {
	t.Helper()
	set, err := mode.NewSet(params, nopLogger())
	require.NoError(t, err)
	require.NoError(t, set.Validate(w.env()))
	return set
}

func get(t *testing.T, set *mode.Set, name string) mode.Mode {
	t.Helper()
	m, ok := set.ByName(name)
	require.True(t, ok, "mode %s", name)
	return m
}

// driver is an adult with a licence in a one car household at home.
func (w *world) driver() *household.Person {
	h := &household.Household{
		ID:       1,
		HomeZone: w.zone(home),
		Vehicles: []household.Vehicle{{Type: w.car}},
	}
	p := &household.Person{ID: 1, Age: 40, Licence: true}
	h.AddPerson(p)
	return p
}

// carless is an adult without licence or car.
func (w *world) carless() *household.Person {
	h := &household.Household{ID: 2, HomeZone: w.zone(home)}
	p := &household.Person{ID: 2, Age: 30}
	h.AddPerson(p)
	return p
}

// leg describes one trip of a test chain.
type leg struct {
	from, to int
	purpose  household.Activity
	start    clock.Time
	activity clock.Time
	mode     household.ModeTag
}

func (w *world) chain(p *household.Person, legs ...leg) *household.TripChain {
	c := &household.TripChain{}
	p.AddTripChain(c)
	for _, l := range legs {
		activity := l.activity
		if activity == 0 {
			activity = l.start + 30*clock.Minute
		}
		c.Append(&household.Trip{
			Origin:            w.zone(l.from),
			Destination:       w.zone(l.to),
			Purpose:           l.purpose,
			TripStartTime:     l.start,
			ActivityStartTime: activity,
			Mode:              l.mode,
		})
	}
	return c
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
