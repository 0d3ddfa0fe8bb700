// Package evaluation drives the mode evaluators over households: it walks
// persons, trip chains and trips, asks every mode whether it is feasible,
// computes utilities for the feasible ones, pairs passengers with household
// drivers and checks chain assignments.
package evaluation

import (
	"errors"

	"github.com/travelmodel/modechoice/internal/clock"
)

// Sentinel errors for evaluation.
var (
	// ErrNotReady indicates no network snapshot has been loaded yet.
	ErrNotReady = errors.New("evaluation engine not loaded")

	// ErrUnknownZone indicates a zone pair query named a zone that is not in
	// the loaded zone system.
	ErrUnknownZone = errors.New("unknown zone")
)

// TripRef locates a trip inside a household.
type TripRef struct {
	Person int `json:"person"`
	Chain  int `json:"chain"`
	Trip   int `json:"trip"`
}

// ModeUtility is one feasible mode of a trip.
type ModeUtility struct {
	Mode      string  `json:"mode"`
	Signature string  `json:"signature"`
	V         float64 `json:"v"`
}

// ModeError is a mode that was feasible for a trip but failed to compute a
// utility.
type ModeError struct {
	Mode  string `json:"mode"`
	Error string `json:"error"`
}

// TripResult holds the feasible modes of one trip, in mode set order.
type TripResult struct {
	TripRef
	Origin      int           `json:"origin"`
	Destination int           `json:"destination"`
	Feasible    []ModeUtility `json:"feasible"`
	Errors      []ModeError   `json:"errors,omitempty"`
}

// PassengerOption is the best household driver for a passenger trip.
type PassengerOption struct {
	Passenger TripRef `json:"passenger"`
	Driver    TripRef `json:"driver"`
	V         float64 `json:"v"`
}

// HouseholdResult is the outcome of evaluating one household.
type HouseholdResult struct {
	HouseholdID int               `json:"household_id"`
	Trips       []TripResult      `json:"trips"`
	Passengers  []PassengerOption `json:"passengers,omitempty"`

	// weights holds the person expansion factor of each trip, aligned with
	// Trips, for the summary.
	weights []float64
}

// ChainCheck reports which modes accept a trip chain as a whole.
type ChainCheck struct {
	Person int `json:"person"`
	Chain  int `json:"chain"`

	// Modes maps every mode name to its chain feasibility.
	Modes map[string]bool `json:"modes"`

	// Assigned lists the modes assigned to trips of the chain, in first use
	// order.
	Assigned []string `json:"assigned"`

	// Feasible is true when every assigned mode accepts the chain.
	Feasible bool `json:"feasible"`
}

// ODResult is one mode's view of a zone pair.
type ODResult struct {
	Mode       string     `json:"mode"`
	Feasible   bool       `json:"feasible"`
	V          *float64   `json:"v,omitempty"`
	TravelTime clock.Time `json:"travel_time"`
	Cost       float64    `json:"cost"`
}

// ModeTally accumulates the outcomes of one mode over many trips.
type ModeTally struct {
	Feasible   int     `json:"feasible"`
	Infeasible int     `json:"infeasible"`
	Errors     int     `json:"errors"`
	Weighted   float64 `json:"weighted"`
	SumV       float64 `json:"sum_v"`
}

// MeanV is the average utility over feasible trips.
func (t ModeTally) MeanV() float64 {
	if t.Feasible == 0 {
		return 0
	}
	return t.SumV / float64(t.Feasible)
}

// Summary accumulates household results. Each worker folds into its own
// Summary; the results are combined with Merge.
type Summary struct {
	Households       int                  `json:"households"`
	Trips            int                  `json:"trips"`
	PassengerMatches int                  `json:"passenger_matches"`
	Failures         int                  `json:"failures"`
	Modes            map[string]ModeTally `json:"modes"`
}

// NewSummary creates an empty summary.
func NewSummary() Summary {
	return Summary{Modes: make(map[string]ModeTally)}
}

// Add folds r into s. names are the evaluated modes, used to count
// infeasible trips.
func (s *Summary) Add(r *HouseholdResult, names []string) {
	if s.Modes == nil {
		s.Modes = make(map[string]ModeTally)
	}
	s.Households++
	s.Trips += len(r.Trips)
	s.PassengerMatches += len(r.Passengers)

	for i, tr := range r.Trips {
		weight := 1.0
		if i < len(r.weights) {
			weight = r.weights[i]
		}
		seen := make(map[string]bool, len(tr.Feasible)+len(tr.Errors))
		for _, mu := range tr.Feasible {
			t := s.Modes[mu.Mode]
			t.Feasible++
			t.Weighted += weight
			t.SumV += mu.V
			s.Modes[mu.Mode] = t
			seen[mu.Mode] = true
		}
		for _, me := range tr.Errors {
			t := s.Modes[me.Mode]
			t.Errors++
			s.Modes[me.Mode] = t
			seen[me.Mode] = true
		}
		for _, name := range names {
			if !seen[name] {
				t := s.Modes[name]
				t.Infeasible++
				s.Modes[name] = t
			}
		}
	}
}

// AddFailure counts a household that could not be evaluated.
func (s *Summary) AddFailure() {
	s.Failures++
}

// Merge adds o into s.
func (s *Summary) Merge(o Summary) {
	if s.Modes == nil {
		s.Modes = make(map[string]ModeTally)
	}
	s.Households += o.Households
	s.Trips += o.Trips
	s.PassengerMatches += o.PassengerMatches
	s.Failures += o.Failures
	for name, ot := range o.Modes {
		t := s.Modes[name]
		t.Feasible += ot.Feasible
		t.Infeasible += ot.Infeasible
		t.Errors += ot.Errors
		t.Weighted += ot.Weighted
		t.SumV += ot.SumV
		s.Modes[name] = t
	}
}
