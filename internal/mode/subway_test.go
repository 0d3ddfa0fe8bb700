package mode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/mode"
)

// Drive 3 minutes and 0.2 to station 10, park for 2, then ride to work.
const subwayLegV = -1 + 3*-0.1 + 0.2*-0.3 + 4*-0.08 + 3*-0.07 + 12*-0.05 + 2*-0.2 + 0.3

func TestTransitAccess_ParkAndRide(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	access := get(t, set, "TransitAccess")
	egress := get(t, set, "TransitEgress")

	c := w.chain(w.driver(),
		leg{from: home, to: work, purpose: household.PrimaryWork, start: clock.New(7, 0), activity: am, mode: access},
		leg{from: work, to: home, purpose: household.Home, start: pm, mode: egress},
	)
	out, back := c.Trips[0], c.Trips[1]

	require.True(t, access.Feasible(out))
	assert.Equal(t, []int{subway}, out.Scratch.FeasibleSubwayStations)

	v, err := access.CalculateV(out)
	require.NoError(t, err)
	assert.InDelta(t, subwayLegV, v, 1e-9)
	assert.Equal(t, household.StationAt(subway), out.Scratch.SubwayAccessStation)

	require.True(t, egress.Feasible(back))
	assert.Equal(t, household.StationAt(subway), back.Scratch.SubwayEgressStation)

	v, err = egress.CalculateV(back)
	require.NoError(t, err)
	assert.InDelta(t, subwayLegV, v, 1e-9)

	assert.True(t, access.FeasibleChain(c))
	assert.True(t, egress.FeasibleChain(c))
}

func TestTransitAccess_ODValues(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	access := get(t, set, "TransitAccess")
	egress := get(t, set, "TransitEgress")
	o, d := w.zone(home), w.zone(work)

	assert.Equal(t, 22*clock.Minute, access.TravelTime(o, d, am))
	assert.InDelta(t, 2.2, access.Cost(o, d, am), 1e-9)

	assert.Equal(t, 22*clock.Minute, egress.TravelTime(d, o, pm))
	assert.InDelta(t, 2.2, egress.Cost(d, o, pm), 1e-9)

	assert.Equal(t, clock.EndOfDay, access.TravelTime(w.zone(mid), d, am))

	_, err := access.CalculateODV(o, d, am)
	assert.ErrorIs(t, err, mode.ErrUnsupported)
}

func TestTransitEgress_NeedsParkedCar(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	egress := get(t, set, "TransitEgress")

	c := w.chain(w.driver(), leg{from: work, to: home, start: pm})
	assert.False(t, egress.Feasible(c.Trips[0]))

	_, err := egress.CalculateV(c.Trips[0])
	assert.ErrorIs(t, err, mode.ErrNotEvaluated)
}

func TestSubwayChain(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	access := get(t, set, "TransitAccess")
	egress := get(t, set, "TransitEgress")
	auto := get(t, set, "Auto")
	transit := get(t, set, "Transit")

	tests := []struct {
		name string
		legs []leg
		want bool
	}{
		{
			name: "egress without access",
			legs: []leg{
				{from: home, to: work, start: am, mode: transit},
				{from: work, to: home, start: pm, mode: egress},
			},
			want: false,
		},
		{
			name: "car left at the station",
			legs: []leg{
				{from: home, to: work, start: am, mode: access},
				{from: work, to: home, start: pm, mode: transit},
			},
			want: false,
		},
		{
			name: "access away from the car",
			legs: []leg{
				{from: home, to: mid, start: am, mode: transit},
				{from: mid, to: work, start: clock.New(9, 0), mode: access},
				{from: work, to: home, start: pm, mode: egress},
			},
			want: false,
		},
		{
			name: "car driven to the access origin",
			legs: []leg{
				{from: home, to: mid, start: am, mode: auto},
				{from: mid, to: work, start: clock.New(9, 0), mode: access},
				{from: work, to: mid, start: pm, mode: egress},
			},
			want: true,
		},
		{
			name: "two tours",
			legs: []leg{
				{from: home, to: work, start: am, mode: access},
				{from: work, to: home, start: clock.New(12, 0), mode: egress},
				{from: home, to: work, start: clock.New(13, 0), mode: access},
				{from: work, to: home, start: pm, mode: egress},
			},
			want: true,
		},
		{
			name: "egress does not move the car",
			legs: []leg{
				{from: home, to: work, start: am, mode: access},
				{from: work, to: mid, start: clock.New(12, 0), mode: egress},
				{from: mid, to: work, start: clock.New(13, 0), mode: access},
				{from: work, to: home, start: pm, mode: egress},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := w.chain(w.driver(), tt.legs...)
			assert.Equal(t, tt.want, access.FeasibleChain(c))
		})
	}
}
