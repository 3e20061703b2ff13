package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gstbill/internal/services"
)

// ChallanHandlers handles HTTP requests for delivery challans
type ChallanHandlers struct {
	challanService services.ChallanService
}

func NewChallanHandlers(challanService services.ChallanService) *ChallanHandlers {
	return &ChallanHandlers{challanService: challanService}
}

// CreateChallan handles POST /challans
func (h *ChallanHandlers) CreateChallan(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req services.ChallanRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	challan, err := h.challanService.Create(c.Request().Context(), actor, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, challan)
}

// ListChallans handles GET /challans
func (h *ChallanHandlers) ListChallans(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filters, err := documentFilters(c, actor)
	if err != nil {
		return err
	}

	page, err := h.challanService.List(c.Request().Context(), actor, filters)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GetChallan handles GET /challans/:id
func (h *ChallanHandlers) GetChallan(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	challan, err := h.challanService.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, challan)
}

// UpdateChallan handles PUT /challans/:id
func (h *ChallanHandlers) UpdateChallan(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req services.ChallanRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	challan, err := h.challanService.Update(c.Request().Context(), actor, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, challan)
}

// DeleteChallan handles DELETE /challans/:id
func (h *ChallanHandlers) DeleteChallan(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.challanService.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateDelivery handles PUT /challans/:id/delivery
func (h *ChallanHandlers) UpdateDelivery(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req services.DeliveryUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	challan, err := h.challanService.UpdateDelivery(c.Request().Context(), actor, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, challan)
}

// DeliveryStats handles GET /challans/stats
func (h *ChallanHandlers) DeliveryStats(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	start, err := optionalDate(c, "start_date")
	if err != nil {
		return err
	}
	end, err := optionalDate(c, "end_date")
	if err != nil {
		return err
	}

	stats, err := h.challanService.Stats(c.Request().Context(), actor, start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
