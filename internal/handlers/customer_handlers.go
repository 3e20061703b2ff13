package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"gstbill/internal/services"
)

// CustomerHandlers handles HTTP requests for customers
type CustomerHandlers struct {
	customerService services.CustomerService
	paymentService  services.PaymentService
}

// NewCustomerHandlers creates a new customer handlers instance
func NewCustomerHandlers(customerService services.CustomerService, paymentService services.PaymentService) *CustomerHandlers {
	return &CustomerHandlers{
		customerService: customerService,
		paymentService:  paymentService,
	}
}

// CreateCustomer handles POST /customers
func (h *CustomerHandlers) CreateCustomer(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req services.CustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.customerService.Create(c.Request().Context(), actor, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, customer)
}

// ListCustomers handles GET /customers?search=
func (h *CustomerHandlers) ListCustomers(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := paginationParams(c)
	if err != nil {
		return err
	}

	page, err := h.customerService.List(c.Request().Context(), actor, strings.TrimSpace(c.QueryParam("search")), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GetCustomer handles GET /customers/:id
func (h *CustomerHandlers) GetCustomer(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	customer, err := h.customerService.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// UpdateCustomer handles PUT /customers/:id
func (h *CustomerHandlers) UpdateCustomer(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req services.CustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.customerService.Update(c.Request().Context(), actor, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// ListCustomerPayments handles GET /customers/:id/payments
func (h *CustomerHandlers) ListCustomerPayments(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	limit, offset, err := paginationParams(c)
	if err != nil {
		return err
	}

	page, err := h.paymentService.List(c.Request().Context(), actor, &id, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}
