// Package mode implements the mode evaluators: the utility and feasibility
// rules that decide which travel modes a trip, a trip chain or a zone pair
// can use.
//
// Evaluators are configured from Parameters, bound to network data through
// RuntimeValidation and are read-only afterwards, so a validated Set may be
// shared by any number of goroutines. Per-trip state lives in the trip's
// household.Scratch and belongs to the goroutine evaluating that household.
package mode

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/network"
)

// Sentinel errors for mode operations.
var (
	// ErrUnsupported indicates a mode does not implement an operation.
	ErrUnsupported = errors.New("operation not supported by mode")
	// ErrNotEvaluated indicates CalculateV was called before a successful
	// Feasible in the current pass.
	ErrNotEvaluated = errors.New("trip has not passed feasibility")
)

// Mode is a travel alternative that can be evaluated for a trip, a chain or
// a zone pair.
type Mode interface {
	household.ModeTag

	// ObservedMode is the survey code of the mode.
	ObservedMode() rune
	// OutputSignature is the code written for the mode in outputs.
	OutputSignature() rune
	IsObservedMode(c rune) bool

	// CalculateV returns the systematic utility of the trip. It must only be
	// called after Feasible returned true for the same trip in this pass.
	CalculateV(trip *household.Trip) (float64, error)
	// CalculateODV returns the utility of travelling from o to d at t.
	CalculateODV(o, d *household.Zone, t clock.Time) (float64, error)

	Feasible(trip *household.Trip) bool
	FeasibleOD(o, d *household.Zone, t clock.Time) bool
	FeasibleChain(chain *household.TripChain) bool

	TravelTime(o, d *household.Zone, t clock.Time) clock.Time
	Cost(o, d *household.Zone, t clock.Time) float64

	// RuntimeValidation binds the mode to its network data.
	RuntimeValidation(env *Environment) error
}

// SharedMode is a mode that rides in a vehicle driven by someone else.
type SharedMode interface {
	Mode
	// AssociatedMode is the mode of the vehicle being shared.
	AssociatedMode() Mode
}

// Environment is what modes resolve their dependencies from.
type Environment struct {
	Networks     *network.Registry
	Zones        *household.ZoneSystem
	VehicleTypes map[string]*household.VehicleType

	// AutoType is the household car. Modes with a blank vehicle type name
	// use it.
	AutoType *household.VehicleType

	// AutoMode is the private auto evaluator. Set.Validate fills it in.
	AutoMode Mode

	modes map[string]Mode
}

// Mode returns a sibling mode by name.
func (e *Environment) Mode(name string) (Mode, bool) {
	m, ok := e.modes[name]
	return m, ok
}

// vehicleType resolves a vehicle type name, falling back to the auto type
// when name is blank.
func (e *Environment) vehicleType(name string) (*household.VehicleType, bool) {
	if name == "" {
		return e.AutoType, e.AutoType != nil
	}
	t, ok := e.VehicleTypes[name]
	return t, ok
}

// ValidationError reports a mode that cannot run with the loaded data.
type ValidationError struct {
	Mode    string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mode %s: %s: %v", e.Mode, e.Message, e.Err)
	}
	return fmt.Sprintf("mode %s: %s", e.Mode, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// base carries the identity shared by every evaluator.
type base struct {
	name              string
	kind              household.ModeKind
	observed          rune
	output            rune
	currentlyFeasible float64
}

func newBase(c Common, kind household.ModeKind) base {
	return base{
		name:              c.Name,
		kind:              kind,
		observed:          rune(c.ObservedMode),
		output:            rune(c.OutputSignature),
		currentlyFeasible: c.CurrentlyFeasible,
	}
}

func (b *base) Name() string               { return b.name }
func (b *base) Kind() household.ModeKind   { return b.kind }
func (b *base) ObservedMode() rune         { return b.observed }
func (b *base) OutputSignature() rune      { return b.output }
func (b *base) IsObservedMode(c rune) bool { return c == b.observed }

func (b *base) invalid(format string, args ...any) error {
	return &ValidationError{Mode: b.name, Message: fmt.Sprintf(format, args...)}
}

func (b *base) invalidErr(err error, format string, args ...any) error {
	return &ValidationError{Mode: b.name, Message: fmt.Sprintf(format, args...), Err: err}
}

func purposeTerm(a household.Activity, shop, other float64) float64 {
	switch {
	case a.IsShopping():
		return shop
	case a.IsOther():
		return other
	}
	return 0
}

func peakTerm(t clock.Time, peak float64) float64 {
	if clock.PeriodOf(t).IsPeak() {
		return peak
	}
	return 0
}

// occupationTerm applies the retail (sales) weight for retail workers and
// the general weight for office workers.
func occupationTerm(p *household.Person, sales, general float64) float64 {
	switch p.Occupation {
	case household.Retail:
		return sales
	case household.Office:
		return general
	}
	return 0
}

// localFare is the local transit fare a person pays, nothing when waive is
// set and their pass covers it.
func localFare(p *household.Person, fare float64, waive bool) float64 {
	if waive && p.TransitPass.CoversLocalTransit() {
		return 0
	}
	return fare
}

type candidate struct {
	station int
	v       float64
}

// best returns the highest utility station. Ties keep the closer station.
func best(stations []int, utility func(station int) float64) candidate {
	candidates := lo.Map(stations, func(s int, _ int) candidate {
		return candidate{station: s, v: utility(s)}
	})
	return lo.MaxBy(candidates, func(a, b candidate) bool { return a.v > b.v })
}

// minTime returns the smallest value of f over stations, or EndOfDay when
// there are none.
func minTime[S any](stations []S, f func(station S) clock.Time) clock.Time {
	if len(stations) == 0 {
		return clock.EndOfDay
	}
	return lo.Min(lo.Map(stations, func(s S, _ int) clock.Time { return f(s) }))
}

// unreachableCost is the cost reported when no station connects a pair.
const unreachableCost = math.MaxFloat32

// minCost returns the smallest value of f over stations, or unreachableCost
// when there are none.
func minCost[S any](stations []S, f func(station S) float64) float64 {
	if len(stations) == 0 {
		return unreachableCost
	}
	return lo.Min(lo.Map(stations, func(s S, _ int) float64 { return f(s) }))
}
