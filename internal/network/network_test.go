package network_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/network"
)

var (
	morning = clock.New(7, 30)
	offpeak = clock.New(12, 0)
)

func zone(n int) *household.Zone {
	return &household.Zone{Number: n, Point: orb.Point{float64(n), 0}}
}

func loadFixture(t *testing.T) *network.InMemoryRepository {
	t.Helper()
	f, err := os.Open("testdata/network.json")
	require.NoError(t, err)
	defer f.Close()

	repo, err := network.ReadFixture(f)
	require.NoError(t, err)
	return repo
}

func buildFixture(t *testing.T) *network.Snapshot {
	t.Helper()
	ds, err := network.LoadDataset(context.Background(), loadFixture(t))
	require.NoError(t, err)
	snap, err := network.Build(ds)
	require.NoError(t, err)
	return snap
}

func TestMatrix_PeriodLookup(t *testing.T) {
	m := network.NewMatrix("Auto")
	m.Set(clock.Morning, 1, 2, network.Skim{TravelTime: 15 * clock.Minute, Cost: 2, Valid: true})
	m.Set(clock.Offpeak, 1, 2, network.Skim{TravelTime: 10 * clock.Minute, Cost: 2, Valid: true})

	o, d := zone(1), zone(2)

	assert.Equal(t, "Auto", m.Name())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 15*clock.Minute, m.TravelTime(o, d, morning))
	assert.Equal(t, 10*clock.Minute, m.TravelTime(o, d, offpeak))
	assert.True(t, m.ValidOD(o, d, morning))

	t.Run("missing period is invalid", func(t *testing.T) {
		assert.False(t, m.ValidOD(o, d, clock.New(16, 0)))
		assert.Equal(t, clock.Zero, m.TravelTime(o, d, clock.New(16, 0)))
	})

	t.Run("missing pair is invalid", func(t *testing.T) {
		assert.False(t, m.ValidOD(d, o, morning))
		assert.Zero(t, m.TravelCost(d, o, morning))
	})
}

func TestStationMatrix_ClosestStationsByRank(t *testing.T) {
	m := network.NewMatrix("Subway")
	sm := network.NewStationMatrix(m,
		[]network.StationRecord{
			{Network: "Subway", Station: 9001, ParkingCost: 2, ClosestZone: 3},
			{Network: "Subway", Station: 9002, ClosestZone: -1},
		},
		[]network.AccessRecord{
			{Network: "Subway", Zone: 1, Station: 9002, Rank: 2},
			{Network: "Subway", Zone: 1, Station: 9001, Rank: 1},
		},
	)

	assert.Equal(t, []int{9001, 9002}, sm.ClosestStations(zone(1)))
	assert.Nil(t, sm.ClosestStations(zone(2)))

	st, ok := sm.Station(9001)
	require.True(t, ok)
	assert.Equal(t, 3, st.ClosestZone)
	assert.InDelta(t, 2.0, st.ParkingCost, 1e-9)

	_, ok = sm.Station(1)
	assert.False(t, ok)
}

func TestGoNetwork(t *testing.T) {
	g := network.NewGoNetwork(network.GoTables{
		Settings: network.GoSettings{Network: "GO", MinDistance: 1000, ServiceStart: clock.New(6, 0), ServiceEnd: clock.New(22, 0)},
		Legs: []network.GoLegRecord{
			{Zone: 1, Station: 9001, AutoTime: 6 * clock.Minute, TransitAccessTime: 11 * clock.Minute, TransitEgressTime: 13 * clock.Minute, TransitFare: 3.25},
		},
		Lines: []network.GoLineRecord{
			{Access: 9001, Egress: 9002, Period: clock.Morning, LineHaul: 30 * clock.Minute, Fare: 7.5, Frequency: 4},
			{Access: 9001, Egress: 9002, Period: clock.Offpeak, LineHaul: 30 * clock.Minute, Fare: 7.5, Frequency: 1},
		},
	}, nil, []network.AccessRecord{{Network: "GO", Zone: 1, Station: 9001, Rank: 1}})

	assert.Equal(t, "GO", g.Name())
	assert.InDelta(t, 1000.0, g.MinDistance(), 1e-9)
	start, end := g.ServiceWindow()
	assert.Equal(t, clock.New(6, 0), start)
	assert.Equal(t, clock.New(22, 0), end)
	assert.Equal(t, []int{9001}, g.ClosestStations(1))

	assert.Equal(t, 6*clock.Minute, g.AutoTime(1, 9001))
	assert.Equal(t, 11*clock.Minute, g.TransitAccessTime(1, 9001))
	assert.Equal(t, 13*clock.Minute, g.TransitEgressTime(9001, 1), "egress is looked up station first")
	assert.InDelta(t, 3.25, g.TransitFare(1, 9001), 1e-9)

	assert.Equal(t, 30*clock.Minute, g.LineHaulTime(9001, 9002))
	assert.InDelta(t, 4.0, g.Frequency(9001, 9002, morning), 1e-9)
	assert.InDelta(t, 1.0, g.Frequency(9001, 9002, offpeak), 1e-9)
	assert.Zero(t, g.Frequency(9001, 9002, clock.New(16, 0)))

	t.Run("unknown line is empty", func(t *testing.T) {
		assert.Equal(t, clock.Zero, g.LineHaulTime(9002, 9001))
		assert.Zero(t, g.GoFare(9002, 9001))
		assert.Zero(t, g.Frequency(9002, 9001, morning))
	})
}

type plainData struct{}

func (plainData) Name() string { return "Plain" }
func (plainData) TravelTime(_, _ *household.Zone, _ clock.Time) clock.Time { return clock.Minute }
func (plainData) TravelCost(_, _ *household.Zone, _ clock.Time) float64 { return 0 }
func (plainData) ValidOD(_, _ *household.Zone, _ clock.Time) bool { return true }

func TestRegistry(t *testing.T) {
	r := network.NewRegistry()
	r.Register(network.NewMatrix("Auto"))
	r.Register(plainData{})

	d, err := r.Get("Auto")
	require.NoError(t, err)
	assert.Equal(t, "Auto", d.Name())

	_, err = r.Get("Ferry")
	assert.ErrorIs(t, err, network.ErrNetworkNotFound)

	_, err = r.TripComponent("Plain")
	assert.ErrorIs(t, err, network.ErrWrongNetworkType)

	_, err = r.Stations("Auto")
	assert.ErrorIs(t, err, network.ErrWrongNetworkType)

	_, err = r.Go("GO")
	assert.ErrorIs(t, err, network.ErrNetworkNotFound)

	assert.Equal(t, []string{"Auto", "Plain"}, r.Names())
}

func TestBuild_FromFixture(t *testing.T) {
	snap := buildFixture(t)

	assert.Equal(t, 4, snap.Zones.Len())
	assert.Equal(t, []string{"Auto", "GO", "Subway", "Transit"}, snap.Networks.Names())

	z1, _ := snap.Zones.Get(1)
	z2, _ := snap.Zones.Get(2)

	auto, err := snap.Networks.Get("Auto")
	require.NoError(t, err)
	assert.Equal(t, 15*clock.Minute, auto.TravelTime(z1, z2, morning))

	transit, err := snap.Networks.TripComponent("Transit")
	require.NoError(t, err)
	assert.Equal(t, 25*clock.Minute, transit.InVehicleTravelTime(z1, z2, morning))
	assert.False(t, transit.ValidOD(z2, z1, offpeak))

	subway, err := snap.Networks.Stations("Subway")
	require.NoError(t, err)
	assert.Equal(t, []int{9001}, subway.ClosestStations(z1))

	rail, err := snap.Networks.Go("GO")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, rail.Frequency(9001, 9001, morning), 1e-9)
	st, ok := rail.Station(9001)
	require.True(t, ok)
	assert.Equal(t, -1, st.ClosestZone, "missing closest_zone defaults to unreachable")
}

func TestBuild_RejectsUnknownZone(t *testing.T) {
	ds := network.Dataset{
		Zones: []*household.Zone{zone(1)},
		Skims: []network.SkimRecord{{Network: "Auto", Origin: 1, Destination: 7, Skim: network.Skim{Valid: true}}},
	}

	_, err := network.Build(ds)
	assert.ErrorIs(t, err, household.ErrUnknownZone)
}

func TestLoadDataset_WithoutGoTables(t *testing.T) {
	repo := network.NewInMemoryRepository(network.Dataset{Zones: []*household.Zone{zone(1)}})

	ds, err := network.LoadDataset(context.Background(), repo)
	require.NoError(t, err)
	assert.Nil(t, ds.GoTables)
	assert.Len(t, ds.Zones, 1)
}

func TestReadFixture_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{`},
		{"bad skim period", `{"skims":[{"network":"Auto","period":"evening","origin":1,"destination":2}]}`},
		{"bad line period", `{"go":{"network":"GO","service_start":"6:00","service_end":"22:00","lines":[{"access":1,"egress":2,"period":"night"}]}}`},
		{"bad service time", `{"go":{"network":"GO","service_start":"soon"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := network.ReadFixture(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}
