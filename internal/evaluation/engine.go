package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
	"github.com/travelmodel/modechoice/internal/mode"
	"github.com/travelmodel/modechoice/internal/network"
)

const tracerName = "github.com/travelmodel/modechoice/internal/evaluation"

// EngineConfig holds configuration for creating an Engine.
type EngineConfig struct {
	Parameters mode.Parameters
	Snapshot   *network.Snapshot

	// VehicleTypes are the vehicle type names households may own.
	// Default: ["Auto"]
	VehicleTypes []string

	// AutoVehicleType is the type driven by the auto based modes.
	// Default: "Auto"
	AutoVehicleType string

	Metrics *Metrics
	Logger  zerolog.Logger
}

// Engine evaluates households against one network snapshot. It is safe for
// concurrent use as long as each household is evaluated by one goroutine.
type Engine struct {
	set          *mode.Set
	snapshot     *network.Snapshot
	vehicleTypes map[string]*household.VehicleType
	autoMode     mode.Mode
	passenger    *mode.Passenger
	evaluated    []mode.Mode
	metrics      *Metrics
	tracer       trace.Tracer
	logger       zerolog.Logger
}

// NewEngine builds the mode set from cfg.Parameters and validates it against
// the snapshot.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Snapshot == nil {
		return nil, ErrNotReady
	}
	names := cfg.VehicleTypes
	if len(names) == 0 {
		names = []string{"Auto"}
	}
	autoName := cfg.AutoVehicleType
	if autoName == "" {
		autoName = "Auto"
	}

	vehicleTypes := make(map[string]*household.VehicleType, len(names))
	for _, n := range names {
		vehicleTypes[n] = &household.VehicleType{Name: n}
	}
	autoType, ok := vehicleTypes[autoName]
	if !ok {
		return nil, fmt.Errorf("auto vehicle type %q is not a configured vehicle type", autoName)
	}

	set, err := mode.NewSet(cfg.Parameters, cfg.Logger)
	if err != nil {
		return nil, err
	}
	env := &mode.Environment{
		Networks:     cfg.Snapshot.Networks,
		Zones:        cfg.Snapshot.Zones,
		VehicleTypes: vehicleTypes,
		AutoType:     autoType,
	}
	if err := set.Validate(env); err != nil {
		return nil, fmt.Errorf("validate modes: %w", err)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics()
	}

	// Passenger trips are evaluated in driver pairs, not per trip.
	evaluated := lo.Reject(set.Modes(), func(m mode.Mode, _ int) bool {
		_, ok := m.(*mode.Passenger)
		return ok
	})

	return &Engine{
		set:          set,
		snapshot:     cfg.Snapshot,
		vehicleTypes: vehicleTypes,
		autoMode:     env.AutoMode,
		passenger:    set.Passenger(),
		evaluated:    evaluated,
		metrics:      metrics,
		tracer:       otel.Tracer(tracerName),
		logger:       cfg.Logger,
	}, nil
}

// Set returns the validated mode set.
func (e *Engine) Set() *mode.Set {
	return e.set
}

// Snapshot returns the network snapshot the engine is bound to.
func (e *Engine) Snapshot() *network.Snapshot {
	return e.snapshot
}

// ModeNames returns the names of the modes evaluated per trip.
func (e *Engine) ModeNames() []string {
	return lo.Map(e.evaluated, func(m mode.Mode, _ int) string { return m.Name() })
}

// Resolver returns the lookups for building households from documents.
func (e *Engine) Resolver() household.Resolver {
	return household.Resolver{
		Zones:        e.snapshot.Zones,
		VehicleTypes: e.vehicleTypes,
		Mode:         e.set.Tag,
	}
}

// Build resolves a household document against the engine's zones, vehicle
// types and modes.
func (e *Engine) Build(doc household.Document) (*household.Household, error) {
	return doc.Build(e.Resolver())
}

// EvaluateHousehold runs one pass over h. Every trip's scratch is cleared,
// then each trip is evaluated in chain order so that later trips see the
// stations chosen by earlier ones.
func (e *Engine) EvaluateHousehold(ctx context.Context, h *household.Household) *HouseholdResult {
	_, span := e.tracer.Start(ctx, "evaluation.EvaluateHousehold",
		trace.WithAttributes(attribute.Int("household.id", h.ID)),
	)
	defer span.End()
	start := time.Now()

	for _, p := range h.Persons {
		for _, c := range p.TripChains {
			for _, t := range c.Trips {
				t.Scratch.Reset()
			}
		}
	}

	result := &HouseholdResult{HouseholdID: h.ID}
	for pi, p := range h.Persons {
		for ci, c := range p.TripChains {
			for ti, t := range c.Trips {
				tr := e.evaluateTrip(t)
				tr.TripRef = TripRef{Person: pi, Chain: ci, Trip: ti}
				result.Trips = append(result.Trips, tr)
				result.weights = append(result.weights, p.ExpansionFactor)
			}
		}
	}
	result.Passengers = e.matchPassengers(h)

	span.SetAttributes(
		attribute.Int("trips", len(result.Trips)),
		attribute.Int("passenger_matches", len(result.Passengers)),
	)
	e.metrics.recordHousehold(ctx, result, time.Since(start))
	return result
}

func (e *Engine) evaluateTrip(t *household.Trip) TripResult {
	tr := TripResult{
		Origin:      t.Origin.Number,
		Destination: t.Destination.Number,
		Feasible:    []ModeUtility{},
	}
	for _, m := range e.evaluated {
		if !m.Feasible(t) {
			continue
		}
		v, err := m.CalculateV(t)
		if err != nil {
			if !errors.Is(err, mode.ErrUnsupported) {
				e.logger.Warn().Err(err).
					Str("mode", m.Name()).
					Int("origin", t.Origin.Number).
					Int("destination", t.Destination.Number).
					Msg("utility calculation failed")
				tr.Errors = append(tr.Errors, ModeError{Mode: m.Name(), Error: err.Error()})
			}
			continue
		}
		tr.Feasible = append(tr.Feasible, ModeUtility{
			Mode:      m.Name(),
			Signature: string(m.OutputSignature()),
			V:         v,
		})
	}
	return tr
}

type located struct {
	ref  TripRef
	trip *household.Trip
}

// matchPassengers finds, for every trip a household member could make as a
// passenger, the best trip of another member who can drive it.
func (e *Engine) matchPassengers(h *household.Household) []PassengerOption {
	if e.passenger == nil || e.autoMode == nil {
		return nil
	}

	var drivers, riders []located
	for pi, p := range h.Persons {
		for ci, c := range p.TripChains {
			riderChain := e.passenger.FeasibleChain(c)
			for ti, t := range c.Trips {
				l := located{ref: TripRef{Person: pi, Chain: ci, Trip: ti}, trip: t}
				if e.autoMode.Feasible(t) {
					drivers = append(drivers, l)
				}
				if riderChain {
					riders = append(riders, l)
				}
			}
		}
	}

	var options []PassengerOption
	for _, r := range riders {
		var (
			best  PassengerOption
			found bool
		)
		for _, d := range drivers {
			if d.ref.Person == r.ref.Person {
				continue
			}
			v, ok := e.passenger.CalculatePassengerV(d.trip, r.trip)
			if !ok || (found && v <= best.V) {
				continue
			}
			best = PassengerOption{Passenger: r.ref, Driver: d.ref, V: v}
			found = true
		}
		if found {
			options = append(options, best)
		}
	}
	return options
}

// CheckChains runs every mode's chain rules over each trip chain of h. Trips
// carry their assigned modes from the household document.
func (e *Engine) CheckChains(h *household.Household) []ChainCheck {
	var checks []ChainCheck
	for pi, p := range h.Persons {
		for ci, c := range p.TripChains {
			check := ChainCheck{
				Person: pi,
				Chain:  ci,
				Modes:  make(map[string]bool, e.set.Len()),
			}
			for _, m := range e.set.Modes() {
				check.Modes[m.Name()] = m.FeasibleChain(c)
			}
			check.Assigned = lo.Uniq(lo.FilterMap(c.Trips, func(t *household.Trip, _ int) (string, bool) {
				if t.Mode == nil {
					return "", false
				}
				return t.Mode.Name(), true
			}))
			check.Feasible = lo.EveryBy(check.Assigned, func(name string) bool {
				return check.Modes[name]
			})
			checks = append(checks, check)
		}
	}
	return checks
}

// EvaluateOD reports every mode's feasibility, utility, travel time and
// cost between two zones at t. Utilities are omitted for infeasible pairs
// and for modes without a zone pair utility.
func (e *Engine) EvaluateOD(origin, destination int, t clock.Time) ([]ODResult, error) {
	o, ok := e.snapshot.Zones.Get(origin)
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnknownZone, origin)
	}
	d, ok := e.snapshot.Zones.Get(destination)
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnknownZone, destination)
	}

	results := make([]ODResult, 0, e.set.Len())
	for _, m := range e.set.Modes() {
		r := ODResult{
			Mode:     m.Name(),
			Feasible: m.FeasibleOD(o, d, t),
		}
		if r.Feasible {
			r.TravelTime = m.TravelTime(o, d, t)
			r.Cost = m.Cost(o, d, t)
			if v, err := m.CalculateODV(o, d, t); err == nil {
				r.V = &v
			}
		}
		results = append(results, r)
	}
	return results, nil
}
