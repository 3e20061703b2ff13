package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"gstbill/internal/models"
)

// DashboardProvider returns the cached dashboard snapshot for an issuer.
type DashboardProvider interface {
	Dashboard(ctx context.Context, issuerID uuid.UUID) (*models.DashboardStats, error)
}

type DashboardHandlers struct {
	analytics DashboardProvider
}

func NewDashboardHandlers(analytics DashboardProvider) *DashboardHandlers {
	return &DashboardHandlers{analytics: analytics}
}

// GetDashboard handles GET /dashboard
func (h *DashboardHandlers) GetDashboard(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	stats, err := h.analytics.Dashboard(c.Request().Context(), actor.IssuerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
