package mode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/mode"
)

func TestGoAccess_PicksBestStation(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	access := get(t, set, "GoAccess")

	c := w.chain(w.driver(), leg{from: home, to: work, purpose: household.PrimaryWork, start: clock.New(7, 30), activity: am})
	trip := c.Trips[0]

	require.True(t, access.Feasible(trip))
	assert.Equal(t, []int{railA, railAlt}, trip.Scratch.FeasibleGoStations)

	v, err := access.CalculateV(trip)
	require.NoError(t, err)

	// Shared: constant, morning peak and the transit egress at work.
	fixed := -1 + 0.5 + 6*-0.04 + 2*-0.06 + 3*-0.07
	// railAlt drives a little more but rides a cheaper, shorter line.
	alt := fixed + 10*-0.1 + 2*-0.2 + 25*-0.05 + (5+3)*-0.1
	assert.InDelta(t, alt, v, 1e-9)
	assert.Equal(t, household.StationAt(railAlt), trip.Scratch.GoAccessStation)
}

func TestGoAccess_Feasible(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	access := get(t, set, "GoAccess")

	t.Run("too short", func(t *testing.T) {
		c := w.chain(w.driver(), leg{from: home, to: home, start: am})
		assert.False(t, access.Feasible(c.Trips[0]))
		assert.Empty(t, c.Trips[0].Scratch.FeasibleGoStations)
	})

	t.Run("no car", func(t *testing.T) {
		p := w.carless()
		p.Licence = true
		c := w.chain(p, leg{from: home, to: work, start: am})
		assert.False(t, access.Feasible(c.Trips[0]))
	})

	t.Run("destination without station", func(t *testing.T) {
		c := w.chain(w.driver(), leg{from: home, to: near, start: am})
		assert.False(t, access.Feasible(c.Trips[0]))
	})

	t.Run("outside service hours", func(t *testing.T) {
		c := w.chain(w.driver(), leg{from: home, to: work, start: clock.New(5, 0), activity: clock.New(5, 30)})
		assert.False(t, access.Feasible(c.Trips[0]))
	})

	t.Run("repeated calls agree", func(t *testing.T) {
		c := w.chain(w.driver(), leg{from: home, to: work, start: clock.New(7, 30), activity: am})
		trip := c.Trips[0]
		first := access.Feasible(trip)
		stations := append([]int(nil), trip.Scratch.FeasibleGoStations...)
		assert.Equal(t, first, access.Feasible(trip))
		assert.Equal(t, stations, trip.Scratch.FeasibleGoStations)
	})
}

func TestGoAccess_RequiresFeasibility(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	access := get(t, set, "GoAccess")

	c := w.chain(w.driver(), leg{from: home, to: work, start: am})
	_, err := access.CalculateV(c.Trips[0])
	assert.ErrorIs(t, err, mode.ErrNotEvaluated)
}

func TestGoAccess_ODValues(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	access := get(t, set, "GoAccess")
	o, d := w.zone(home), w.zone(work)

	// railA: 8 + 30 + 6, railAlt: 10 + 25 + 6.
	assert.Equal(t, 41*clock.Minute, access.TravelTime(o, d, am))
	// railA: 1.5 + 6, railAlt: 2 + 5.
	assert.InDelta(t, 7, access.Cost(o, d, am), 1e-9)

	_, err := access.CalculateODV(o, d, am)
	assert.ErrorIs(t, err, mode.ErrUnsupported)

	assert.Equal(t, clock.EndOfDay, access.TravelTime(o, w.zone(near), am))
}

// goTour runs the access leg of a home, work, home rail tour and returns the
// chain with the egress trip last.
func goTour(t *testing.T, w *world, set *mode.Set) *household.TripChain {
	t.Helper()
	access := get(t, set, "GoAccess")
	egress := get(t, set, "GoEgress")

	c := w.chain(w.driver(),
		leg{from: home, to: work, purpose: household.PrimaryWork, start: clock.New(7, 30), activity: am, mode: access},
		leg{from: work, to: home, purpose: household.Home, start: pm, activity: clock.New(17, 0), mode: egress},
	)
	require.True(t, access.Feasible(c.Trips[0]))
	_, err := access.CalculateV(c.Trips[0])
	require.NoError(t, err)
	return c
}

func TestGoEgress_ReturnsToParkedStation(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	egress := get(t, set, "GoEgress")

	c := goTour(t, w, set)
	trip := c.Trips[1]

	require.True(t, egress.Feasible(trip))
	assert.Equal(t, household.StationAt(railB), trip.Scratch.GoEgressStation)
	assert.Nil(t, trip.Scratch.WalkAccessTrip)

	v, err := egress.CalculateV(trip)
	require.NoError(t, err)

	transitLeg := 7*-0.04 + 2*-0.06 + 5*-0.07 + 3*-0.1
	driveLeg := 10*-0.1 + 2*-0.2
	railLeg := 25*-0.05 + 5*-0.1
	assert.InDelta(t, -1+transitLeg+driveLeg+railLeg+0.5, v, 1e-9)
}

func TestGoEgress_Feasible(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	egress := get(t, set, "GoEgress")

	t.Run("no earlier access leg", func(t *testing.T) {
		c := w.chain(w.driver(), leg{from: work, to: home, start: pm})
		assert.False(t, egress.Feasible(c.Trips[0]))
		assert.False(t, c.Trips[0].Scratch.GoEgressStation.Valid)
	})

	t.Run("no trains back to the parked station", func(t *testing.T) {
		c := w.chain(w.driver(),
			leg{from: home, to: work, start: clock.New(7, 30)},
			leg{from: work, to: home, start: pm},
		)
		c.Trips[0].Scratch.GoAccessStation = household.StationAt(railA)
		assert.False(t, egress.Feasible(c.Trips[1]))
	})

	t.Run("walks to the station without transit", func(t *testing.T) {
		c := w.chain(w.driver(),
			leg{from: home, to: mid, start: clock.New(7, 30)},
			leg{from: mid, to: home, start: pm},
		)
		c.Trips[0].Scratch.GoAccessStation = household.StationAt(railAlt)
		trip := c.Trips[1]

		require.True(t, egress.Feasible(trip))
		assert.Equal(t, household.StationAt(railA), trip.Scratch.GoEgressStation)
		require.NotNil(t, trip.Scratch.WalkAccessTrip)
		assert.Equal(t, near, trip.Scratch.WalkAccessTrip.Destination.Number)
		assert.Equal(t, household.Intermediate, trip.Scratch.WalkAccessTrip.Purpose)

		walking := get(t, set, "Walking")
		walkV, err := walking.CalculateV(trip.Scratch.WalkAccessTrip)
		require.NoError(t, err)

		v, err := egress.CalculateV(trip)
		require.NoError(t, err)
		driveLeg := 10*-0.1 + 2*-0.2
		railLeg := 10*-0.05 + 2*-0.1
		assert.InDelta(t, -1+walkV+driveLeg+railLeg+0.5, v, 1e-9)
	})
}

func TestGoNonDrive(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	nonDrive := get(t, set, "GoNonDrive")

	p := w.carless()
	p.TransitPass = household.MetroPass
	c := w.chain(p, leg{from: home, to: work, start: clock.New(7, 0), activity: am})
	trip := c.Trips[0]

	require.True(t, nonDrive.Feasible(trip))
	// railAlt has no transit access from home.
	assert.Equal(t, []int{railA}, trip.Scratch.FeasibleNonDriveGoStations)

	v, err := nonDrive.CalculateV(trip)
	require.NoError(t, err)
	fixed := -2 + 0.5 + 6*-0.04 + 2*-0.06 + 3*-0.07
	station := 12*-0.04 + 3*-0.06 + 4*-0.07 + 30*-0.05
	// Both local fares and the rail fare.
	assert.InDelta(t, fixed+station+(3+6+3)*-0.1, v, 1e-9)

	o, d := w.zone(home), w.zone(work)
	assert.InDelta(t, 5, nonDrive.Cost(o, d, am), 1e-9)
	assert.Equal(t, 31*clock.Minute, nonDrive.TravelTime(o, d, am))
	assert.Nil(t, nonDrive.RequiresVehicle())
	assert.True(t, nonDrive.FeasibleChain(c))

	t.Run("pass covers local fares when waived", func(t *testing.T) {
		params := testParameters()
		params.GoNonDrive.PassCoversLocalFare = true
		waived := get(t, newSet(t, w, params), "GoNonDrive")

		c := w.chain(p, leg{from: home, to: work, start: clock.New(7, 0), activity: am})
		require.True(t, waived.Feasible(c.Trips[0]))
		v, err := waived.CalculateV(c.Trips[0])
		require.NoError(t, err)
		assert.InDelta(t, fixed+station+6*-0.1, v, 1e-9)
	})

	t.Run("too short", func(t *testing.T) {
		c := w.chain(w.carless(), leg{from: home, to: home, start: am})
		assert.False(t, nonDrive.Feasible(c.Trips[0]))
	})
}

func TestRailChainPairing(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	access := get(t, set, "GoAccess")
	egress := get(t, set, "GoEgress")
	auto := get(t, set, "Auto")

	tests := []struct {
		name  string
		modes []household.ModeTag
		want  bool
	}{
		{name: "matched pair", modes: []household.ModeTag{access, egress}, want: true},
		{name: "access without egress", modes: []household.ModeTag{access, auto}, want: false},
		{name: "egress first", modes: []household.ModeTag{egress, access}, want: false},
		{name: "two accesses in a row", modes: []household.ModeTag{access, access, egress}, want: false},
		{name: "alternating pairs", modes: []household.ModeTag{access, egress, access, egress}, want: true},
		{name: "no rail", modes: []household.ModeTag{auto, auto}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			legs := make([]leg, len(tt.modes))
			for i, m := range tt.modes {
				from, to := home, work
				if i%2 == 1 {
					from, to = work, home
				}
				legs[i] = leg{from: from, to: to, start: clock.New(7+i*2, 0), mode: m}
			}
			c := w.chain(w.driver(), legs...)
			assert.Equal(t, tt.want, access.FeasibleChain(c))
			assert.Equal(t, tt.want, egress.FeasibleChain(c))
		})
	}
}
