package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gstbill/internal/services"
)

type QuotationHandlers struct {
	quotationService services.QuotationService
}

func NewQuotationHandlers(quotationService services.QuotationService) *QuotationHandlers {
	return &QuotationHandlers{quotationService: quotationService}
}

// CreateQuotation handles POST /quotations
func (h *QuotationHandlers) CreateQuotation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req services.CreateQuotationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	quotation, err := h.quotationService.Create(c.Request().Context(), actor, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, quotation)
}

// ListQuotations handles GET /quotations
func (h *QuotationHandlers) ListQuotations(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filters, err := documentFilters(c, actor)
	if err != nil {
		return err
	}

	page, err := h.quotationService.List(c.Request().Context(), actor, filters)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GetQuotation handles GET /quotations/:id
func (h *QuotationHandlers) GetQuotation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	quotation, err := h.quotationService.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, quotation)
}

// UpdateQuotation handles PUT /quotations/:id
func (h *QuotationHandlers) UpdateQuotation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req services.UpdateQuotationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	quotation, err := h.quotationService.Update(c.Request().Context(), actor, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, quotation)
}

// DeleteQuotation handles DELETE /quotations/:id
func (h *QuotationHandlers) DeleteQuotation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.quotationService.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateQuotationStatus handles PUT /quotations/:id/status
func (h *QuotationHandlers) UpdateQuotationStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	quotation, err := h.quotationService.UpdateStatus(c.Request().Context(), actor, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, quotation)
}

// ConvertToInvoice handles POST /quotations/:id/convert
func (h *QuotationHandlers) ConvertToInvoice(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	invoice, err := h.quotationService.ConvertToInvoice(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, invoice)
}
