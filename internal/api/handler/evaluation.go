package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/travelmodel/modechoice/internal/api/middleware"
	"github.com/travelmodel/modechoice/internal/api/models"
	"github.com/travelmodel/modechoice/internal/api/response"
	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/evaluation"
	"github.com/travelmodel/modechoice/internal/household"
)

// EvaluationHandler handles household and zone pair evaluation endpoints.
type EvaluationHandler struct {
	engines EngineSource
	logger  zerolog.Logger
}

// NewEvaluationHandler creates a new EvaluationHandler.
func NewEvaluationHandler(engines EngineSource, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{engines: engines, logger: logger}
}

// Evaluate handles POST /v1/evaluations.
// Every household must build before any is evaluated; the response lists
// all build failures at once.
func (h *EvaluationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var input models.EvaluationRequest
	if !decodeJSON(w, r, &input) {
		return
	}
	if errs := input.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}
	if len(input.Households) > models.MaxHouseholdsPerRequest {
		response.PayloadTooLarge(w, r, fmt.Sprintf(
			"%d households exceeds the limit of %d; submit larger batches to the worker",
			len(input.Households), models.MaxHouseholdsPerRequest))
		return
	}

	engine, ok := currentEngine(w, r, h.engines, h.logger)
	if !ok {
		return
	}

	households := make([]*household.Household, 0, len(input.Households))
	var fieldErrs []models.FieldError
	for i, doc := range input.Households {
		hh, err := engine.Build(doc)
		if err != nil {
			fieldErrs = append(fieldErrs, buildErrors(fmt.Sprintf("households[%d]", i), err)...)
			continue
		}
		households = append(households, hh)
	}
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "one or more households could not be resolved", fieldErrs)
		return
	}

	start := time.Now()
	names := engine.ModeNames()
	resp := models.EvaluationResponse{
		RunID:      uuid.NewString(),
		Households: make([]*evaluation.HouseholdResult, 0, len(households)),
		Summary:    evaluation.NewSummary(),
	}
	for _, hh := range households {
		if err := r.Context().Err(); err != nil {
			return
		}
		result := engine.EvaluateHousehold(r.Context(), hh)
		resp.Households = append(resp.Households, result)
		resp.Summary.Add(result, names)
	}

	h.logger.Info().
		Str("run_id", resp.RunID).
		Str("client", middleware.GetClient(r.Context())).
		Int("households", resp.Summary.Households).
		Int("trips", resp.Summary.Trips).
		Dur("duration", time.Since(start)).
		Msg("households evaluated")

	response.JSON(w, r, http.StatusOK, resp)
}

// CheckChains handles POST /v1/chains:check.
func (h *EvaluationHandler) CheckChains(w http.ResponseWriter, r *http.Request) {
	var input models.ChainCheckRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	engine, ok := currentEngine(w, r, h.engines, h.logger)
	if !ok {
		return
	}

	hh, err := engine.Build(input.Household)
	if err != nil {
		response.BadRequest(w, r, "household could not be resolved", buildErrors("household", err))
		return
	}

	checks := engine.CheckChains(hh)
	resp := models.ChainCheckResponse{
		HouseholdID: hh.ID,
		Feasible:    true,
		Chains:      checks,
	}
	if resp.Chains == nil {
		resp.Chains = []evaluation.ChainCheck{}
	}
	for _, c := range checks {
		if !c.Feasible {
			resp.Feasible = false
			break
		}
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// EvaluateOD handles GET /v1/od?origin=&destination=&time=.
func (h *EvaluationHandler) EvaluateOD(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var fieldErrs []models.FieldError

	origin, err := strconv.Atoi(q.Get("origin"))
	if err != nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "origin", Message: "must be a zone number", Code: "INVALID_VALUE"})
	}
	destination, err := strconv.Atoi(q.Get("destination"))
	if err != nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "destination", Message: "must be a zone number", Code: "INVALID_VALUE"})
	}
	at, err := clock.Parse(q.Get("time"))
	if err != nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "time", Message: err.Error(), Code: "INVALID_VALUE"})
	}
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrs)
		return
	}

	engine, ok := currentEngine(w, r, h.engines, h.logger)
	if !ok {
		return
	}

	results, err := engine.EvaluateOD(origin, destination, at)
	if err != nil {
		if errors.Is(err, evaluation.ErrUnknownZone) {
			response.NotFound(w, r, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("zone pair evaluation failed")
		response.InternalError(w, r, "zone pair evaluation failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.ODResponse{
		Origin:      origin,
		Destination: destination,
		Time:        at,
		Modes:       results,
	})
}
