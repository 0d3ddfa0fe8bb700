package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/travelmodel/modechoice/internal/api/models"
	"github.com/travelmodel/modechoice/internal/api/response"
	"github.com/travelmodel/modechoice/internal/household"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// decodeJSON reads the request body into dst. It writes the problem
// response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.PayloadTooLarge(w, r, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		response.BadRequest(w, r, "invalid JSON body: "+err.Error(), nil)
		return false
	}
	return true
}

// buildErrors converts a household build error to field errors under
// prefix.
func buildErrors(prefix string, err error) []models.FieldError {
	field := prefix
	var fe *household.FieldError
	if errors.As(err, &fe) {
		field = joinField(prefix, fe.Field)
		err = fe.Err
	}
	return []models.FieldError{{
		Field:   field,
		Message: err.Error(),
		Code:    buildErrorCode(err),
	}}
}

func buildErrorCode(err error) string {
	switch {
	case errors.Is(err, household.ErrUnknownZone):
		return "UNKNOWN_ZONE"
	case errors.Is(err, household.ErrUnknownVehicleType):
		return "UNKNOWN_VEHICLE_TYPE"
	case errors.Is(err, household.ErrUnknownMode):
		return "UNKNOWN_MODE"
	case errors.Is(err, household.ErrTripOrder):
		return "TRIP_ORDER"
	default:
		return "INVALID_VALUE"
	}
}

func joinField(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	default:
		return prefix + "." + field
	}
}
