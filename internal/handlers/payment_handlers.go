package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gstbill/internal/services"
)

type PaymentHandlers struct {
	paymentService services.PaymentService
}

func NewPaymentHandlers(paymentService services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{paymentService: paymentService}
}

// RecordPayment handles POST /payments
func (h *PaymentHandlers) RecordPayment(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req services.PaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.paymentService.Record(c.Request().Context(), actor, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// ListPayments handles GET /payments?customer_id=
func (h *PaymentHandlers) ListPayments(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	customerID, err := optionalUUID(c, "customer_id")
	if err != nil {
		return err
	}
	limit, offset, err := paginationParams(c)
	if err != nil {
		return err
	}

	page, err := h.paymentService.List(c.Request().Context(), actor, customerID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}
