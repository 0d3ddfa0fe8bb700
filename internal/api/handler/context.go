package handler

import (
	"context"

	"github.com/travelmodel/modechoice/internal/api/middleware"
)

// GetClient retrieves the authenticated client name from the context.
// This is a convenience wrapper around middleware.GetClient.
func GetClient(ctx context.Context) string {
	return middleware.GetClient(ctx)
}
