package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/travelmodel/modechoice/internal/api/models"
	"github.com/travelmodel/modechoice/internal/api/response"
	"github.com/travelmodel/modechoice/internal/evaluation"
)

// EngineSource supplies the current evaluation engine.
// *evaluation.Service implements it.
type EngineSource interface {
	Engine(ctx context.Context) (*evaluation.Engine, error)
}

// ModesHandler handles mode catalogue endpoints.
type ModesHandler struct {
	engines EngineSource
	logger  zerolog.Logger
}

// NewModesHandler creates a new ModesHandler.
func NewModesHandler(engines EngineSource, logger zerolog.Logger) *ModesHandler {
	return &ModesHandler{engines: engines, logger: logger}
}

// ListModes handles GET /v1/modes.
func (h *ModesHandler) ListModes(w http.ResponseWriter, r *http.Request) {
	engine, ok := currentEngine(w, r, h.engines, h.logger)
	if !ok {
		return
	}

	modes := engine.Set().Modes()
	resp := models.ModesResponse{Modes: make([]models.ModeInfo, 0, len(modes))}
	for _, m := range modes {
		info := models.ModeInfo{
			Name:               m.Name(),
			ObservedMode:       string(m.ObservedMode()),
			OutputSignature:    string(m.OutputSignature()),
			Kind:               m.Kind().String(),
			NonPersonalVehicle: m.NonPersonalVehicle(),
		}
		if vt := m.RequiresVehicle(); vt != nil {
			info.VehicleType = vt.Name
		}
		resp.Modes = append(resp.Modes, info)
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// currentEngine fetches the engine or writes a 503.
func currentEngine(w http.ResponseWriter, r *http.Request, engines EngineSource, logger zerolog.Logger) (*evaluation.Engine, bool) {
	engine, err := engines.Engine(r.Context())
	if err != nil {
		if !errors.Is(err, evaluation.ErrNotReady) {
			logger.Error().Err(err).Msg("evaluation engine unavailable")
		}
		response.ServiceUnavailable(w, r, "network data is not loaded")
		return nil, false
	}
	return engine, true
}
