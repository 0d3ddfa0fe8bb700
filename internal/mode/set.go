package mode

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/travelmodel/modechoice/internal/household"
)

// Set is the configured collection of modes, in a fixed order.
type Set struct {
	modes        []Mode
	byName       map[string]Mode
	autoModeName string
	passenger    *Passenger
	logger       zerolog.Logger
}

// NewSet builds every mode enabled in params. Mode names must be unique.
func NewSet(params Parameters, logger zerolog.Logger) (*Set, error) {
	var modes []Mode
	if c := params.Auto; c != nil {
		modes = append(modes, NewAuto(*c))
	}
	if c := params.Transit; c != nil {
		modes = append(modes, NewTransit(*c))
	}
	if c := params.Walking; c != nil {
		modes = append(modes, NewWalking(*c))
	}
	if c := params.Bike; c != nil {
		modes = append(modes, NewBike(*c))
	}
	if c := params.Taxi; c != nil {
		modes = append(modes, NewTaxi(*c))
	}
	if c := params.RideShare; c != nil {
		modes = append(modes, NewRideShare(*c))
	}
	if c := params.SchoolBus; c != nil {
		modes = append(modes, NewSchoolBus(*c))
	}
	var passenger *Passenger
	if c := params.Passenger; c != nil {
		passenger = NewPassenger(*c)
		modes = append(modes, passenger)
	}
	if c := params.GoAccess; c != nil {
		modes = append(modes, NewGoAccess(*c))
	}
	if c := params.GoEgress; c != nil {
		modes = append(modes, NewGoEgress(*c))
	}
	if c := params.GoNonDrive; c != nil {
		modes = append(modes, NewGoNonDrive(*c))
	}
	if c := params.TransitAccess; c != nil {
		modes = append(modes, NewTransitAccess(*c))
	}
	if c := params.TransitEgress; c != nil {
		modes = append(modes, NewTransitEgress(*c))
	}

	byName := make(map[string]Mode, len(modes))
	for _, m := range modes {
		if m.Name() == "" {
			return nil, fmt.Errorf("mode of kind %s has no name", m.Kind())
		}
		if _, dup := byName[m.Name()]; dup {
			return nil, fmt.Errorf("duplicate mode name %q", m.Name())
		}
		byName[m.Name()] = m
	}

	logger.Debug().
		Strs("modes", lo.Map(modes, func(m Mode, _ int) string { return m.Name() })).
		Msg("mode set built")

	return &Set{
		modes:        modes,
		byName:       byName,
		autoModeName: params.AutoModeName,
		passenger:    passenger,
		logger:       logger,
	}, nil
}

// Validate binds every mode to env and reports all failures together. It
// fills in env.AutoMode from the configured auto mode name.
func (s *Set) Validate(env *Environment) error {
	env.modes = s.byName
	if env.AutoMode == nil && s.autoModeName != "" {
		env.AutoMode = s.byName[s.autoModeName]
	}

	// The auto mode is bound first; other modes drive with it.
	ordered := s.modes
	if env.AutoMode != nil {
		ordered = append([]Mode{env.AutoMode}, lo.Without(s.modes, env.AutoMode)...)
	}

	var errs []error
	for _, m := range ordered {
		if err := m.RuntimeValidation(env); err != nil {
			s.logger.Error().Err(err).Str("mode", m.Name()).Msg("mode failed validation")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Modes returns the modes in configuration order.
func (s *Set) Modes() []Mode {
	return s.modes
}

// ByName returns the mode named name.
func (s *Set) ByName(name string) (Mode, bool) {
	m, ok := s.byName[name]
	return m, ok
}

// Tag resolves a mode name for household documents.
func (s *Set) Tag(name string) (household.ModeTag, bool) {
	m, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return m, true
}

// Passenger returns the passenger mode, or nil when it is disabled.
func (s *Set) Passenger() *Passenger {
	return s.passenger
}

// Len returns the number of modes.
func (s *Set) Len() int {
	return len(s.modes)
}
