package mode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/mode"
)

func TestAuto_CalculateV(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	auto := get(t, set, "Auto")

	c := w.chain(w.driver(), leg{from: home, to: work, purpose: household.PrimaryWork, start: clock.New(7, 30)})
	trip := c.Trips[0]

	require.True(t, auto.Feasible(trip))
	v, err := auto.CalculateV(trip)
	require.NoError(t, err)

	// 13 minutes, 1.2 cost, parking 5 at work.
	assert.InDelta(t, -0.5+13*-0.1+1.2*-0.4+5*-0.2, v, 1e-9)
}

func TestAuto_IntrazonalRegression(t *testing.T) {
	w := newWorld(t)
	params := testParameters()
	params.Auto.UseIntrazonalRegression = true
	params.Auto.IntrazonalConstant = 0.7
	params.Auto.IntrazonalDistance = -0.001
	params.Auto.ShopPurpose = 0.25
	set := newSet(t, w, params)
	auto := get(t, set, "Auto")

	c := w.chain(w.driver(), leg{from: home, to: home, purpose: household.Market, start: clock.New(10, 0)})
	v, err := auto.CalculateV(c.Trips[0])
	require.NoError(t, err)

	// Internal distance 300 m, no parking cost at home.
	assert.InDelta(t, 0.7+300*-0.001+0.25, v, 1e-9)
	assert.True(t, auto.FeasibleOD(w.zone(home), w.zone(home), clock.New(10, 0)))
}

func TestAuto_Feasible(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	auto := get(t, set, "Auto")

	t.Run("licensed driver with a car", func(t *testing.T) {
		c := w.chain(w.driver(), leg{from: home, to: work, start: am})
		assert.True(t, auto.Feasible(c.Trips[0]))
	})

	t.Run("no licence", func(t *testing.T) {
		p := w.driver()
		p.Licence = false
		c := w.chain(p, leg{from: home, to: work, start: am})
		assert.False(t, auto.Feasible(c.Trips[0]))
	})

	t.Run("no car", func(t *testing.T) {
		p := w.carless()
		p.Licence = true
		c := w.chain(p, leg{from: home, to: work, start: am})
		assert.False(t, auto.Feasible(c.Trips[0]))
	})

	t.Run("other vehicle type", func(t *testing.T) {
		p := w.driver()
		p.Household.Vehicles = []household.Vehicle{{Type: &household.VehicleType{Name: "Bike"}}}
		c := w.chain(p, leg{from: home, to: work, start: am})
		assert.False(t, auto.Feasible(c.Trips[0]))
	})
}

func TestAuto_FeasibleChain(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	auto := get(t, set, "Auto")
	transit := get(t, set, "Transit")

	tests := []struct {
		name string
		legs []leg
		want bool
	}{
		{
			name: "there and back by car",
			legs: []leg{
				{from: home, to: work, start: am, mode: auto},
				{from: work, to: home, start: pm, mode: auto},
			},
			want: true,
		},
		{
			name: "car stranded at the first destination",
			legs: []leg{
				{from: home, to: work, start: am, mode: auto},
				{from: work, to: mid, start: clock.New(12, 0), mode: transit},
				{from: mid, to: home, start: pm, mode: auto},
			},
			want: false,
		},
		{
			name: "car never used",
			legs: []leg{
				{from: home, to: work, start: am, mode: transit},
				{from: work, to: home, start: pm, mode: transit},
			},
			want: true,
		},
		{
			name: "car not brought home",
			legs: []leg{
				{from: home, to: work, start: am, mode: auto},
				{from: work, to: home, start: pm, mode: transit},
			},
			want: false,
		},
		{
			name: "car driven on every leg of a tour",
			legs: []leg{
				{from: home, to: work, start: am, mode: auto},
				{from: work, to: mid, start: clock.New(12, 0), mode: auto},
				{from: mid, to: home, start: pm, mode: auto},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := w.chain(w.driver(), tt.legs...)
			assert.Equal(t, tt.want, auto.FeasibleChain(c))
		})
	}
}

func TestAuto_ODValues(t *testing.T) {
	w := newWorld(t)
	set := newSet(t, w, testParameters())
	auto := get(t, set, "Auto")

	o, d := w.zone(home), w.zone(work)
	assert.Equal(t, 13*clock.Minute, auto.TravelTime(o, d, am))
	assert.InDelta(t, 1.2, auto.Cost(o, d, am), 1e-9)

	v, err := auto.CalculateODV(o, d, am)
	require.NoError(t, err)
	assert.InDelta(t, 13*-0.1+1.2*-0.4+5*-0.2, v, 1e-9)

	assert.Equal(t, 'D', auto.ObservedMode())
	assert.Equal(t, 'A', auto.OutputSignature())
	assert.True(t, auto.IsObservedMode('D'))
	assert.Same(t, w.car, auto.RequiresVehicle())
	assert.False(t, auto.NonPersonalVehicle())
	assert.Equal(t, household.KindAuto, auto.Kind())
}

func TestAuto_CurrentlyFeasibleGatesOD(t *testing.T) {
	w := newWorld(t)
	params := testParameters()
	params.Auto.CurrentlyFeasible = 0
	set := newSet(t, w, params)

	auto := get(t, set, "Auto")
	assert.False(t, auto.FeasibleOD(w.zone(home), w.zone(work), am))
}

func TestAuto_UnknownVehicleType(t *testing.T) {
	w := newWorld(t)
	params := testParameters()
	params.Auto.VehicleTypeName = "Truck"

	set, err := mode.NewSet(params, nopLogger())
	require.NoError(t, err)

	err = set.Validate(w.env())
	require.Error(t, err)
	var verr *mode.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Auto", verr.Mode)
	assert.Contains(t, err.Error(), `unknown vehicle type "Truck"`)
}
