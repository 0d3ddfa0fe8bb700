package models

import (
	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/evaluation"
	"github.com/travelmodel/modechoice/internal/household"
)

// MaxHouseholdsPerRequest caps synchronous evaluations.
const MaxHouseholdsPerRequest = 100

// EvaluationRequest asks for the feasible modes of one or more households.
type EvaluationRequest struct {
	Households []household.Document `json:"households"`
}

// Validate checks the request shape.
func (r *EvaluationRequest) Validate() []FieldError {
	var errs []FieldError
	if len(r.Households) == 0 {
		errs = append(errs, FieldError{
			Field:   "households",
			Message: "at least one household is required",
			Code:    "REQUIRED",
		})
	}
	return errs
}

// EvaluationResponse holds per household results and their summary.
type EvaluationResponse struct {
	RunID      string                         `json:"runId"`
	Households []*evaluation.HouseholdResult `json:"households"`
	Summary    evaluation.Summary             `json:"summary"`
}

// ChainCheckRequest carries one household whose trips have assigned modes.
type ChainCheckRequest struct {
	Household household.Document `json:"household"`
}

// ChainCheckResponse reports chain feasibility per mode.
type ChainCheckResponse struct {
	HouseholdID int                     `json:"householdId"`
	Feasible    bool                    `json:"feasible"`
	Chains      []evaluation.ChainCheck `json:"chains"`
}

// ODResponse is every mode's view of a zone pair.
type ODResponse struct {
	Origin      int                   `json:"origin"`
	Destination int                   `json:"destination"`
	Time        clock.Time            `json:"time"`
	Modes       []evaluation.ODResult `json:"modes"`
}

// ModeInfo describes a configured mode.
type ModeInfo struct {
	Name               string `json:"name"`
	ObservedMode       string `json:"observedMode"`
	OutputSignature    string `json:"outputSignature"`
	Kind               string `json:"kind"`
	VehicleType        string `json:"vehicleType,omitempty"`
	NonPersonalVehicle bool   `json:"nonPersonalVehicle"`
}

// ModesResponse lists the configured modes in evaluation order.
type ModesResponse struct {
	Modes []ModeInfo `json:"modes"`
}

// ReloadResponse reports a completed network reload.
type ReloadResponse struct {
	Zones    int      `json:"zones"`
	Networks []string `json:"networks"`
	Modes    []string `json:"modes"`
}
