package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/travelmodel/modechoice/internal/api/middleware"
	"github.com/travelmodel/modechoice/internal/api/models"
	"github.com/travelmodel/modechoice/internal/api/response"
	"github.com/travelmodel/modechoice/internal/evaluation"
)

// Reloader forces a network reload and rebuilds the engine.
// *evaluation.Service implements it.
type Reloader interface {
	Reload(ctx context.Context) (*evaluation.Engine, error)
}

// AdminHandler handles administrative endpoints.
type AdminHandler struct {
	reloader Reloader
	logger   zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(reloader Reloader, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{reloader: reloader, logger: logger}
}

// ReloadNetworks handles POST /v1/admin/networks:reload.
// A failed reload leaves the current engine serving.
func (h *AdminHandler) ReloadNetworks(w http.ResponseWriter, r *http.Request) {
	engine, err := h.reloader.Reload(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("network reload failed")
		response.ServiceUnavailable(w, r, "network reload failed: "+err.Error())
		return
	}

	snap := engine.Snapshot()
	resp := models.ReloadResponse{
		Zones:    snap.Zones.Len(),
		Networks: snap.Networks.Names(),
		Modes:    engine.ModeNames(),
	}

	h.logger.Info().
		Str("client", middleware.GetClient(r.Context())).
		Int("zones", resp.Zones).
		Strs("networks", resp.Networks).
		Msg("networks reloaded")

	response.JSON(w, r, http.StatusOK, resp)
}
