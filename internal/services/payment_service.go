package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"gstbill/internal/caching"
	"gstbill/internal/common"
	"gstbill/internal/models"
	"gstbill/internal/repositories"
)

type PaymentService interface {
	// Record stores a payment against a sent or overdue invoice and settles the invoice
	// once completed payments cover its total.
	Record(ctx context.Context, actor models.Actor, req *PaymentRequest) (*PaymentResult, error)
	List(ctx context.Context, actor models.Actor, customerID *uuid.UUID, limit, offset int) (models.Page[*models.Payment], error)
}

type PaymentRequest struct {
	InvoiceID       uuid.UUID          `json:"invoice_id" validate:"required"`
	AmountPaid      decimal.Decimal    `json:"amount_paid"`
	PaymentMode     models.PaymentMode `json:"payment_mode" validate:"required"`
	ReferenceNumber *string            `json:"reference_number"`
	Date            *time.Time         `json:"date"`
	Notes           *string            `json:"notes"`
	Status          string             `json:"status"`
}

type PaymentResult struct {
	Payment        *models.Payment `json:"payment"`
	InvoiceSettled bool            `json:"invoice_settled"`
}

type paymentService struct {
	payments repositories.PaymentRepository
	invoices repositories.InvoiceRepository
	audit    AuditLogsService
	cache    caching.CacheService
	now      func() time.Time
}

func NewPaymentService(payments repositories.PaymentRepository, invoices repositories.InvoiceRepository, audit AuditLogsService, cache caching.CacheService) PaymentService {
	return &paymentService{
		payments: payments,
		invoices: invoices,
		audit:    audit,
		cache:    cache,
		now:      time.Now,
	}
}

func validPaymentStatus(status string) bool {
	switch status {
	case models.PaymentStatusPending, models.PaymentStatusCompleted, models.PaymentStatusFailed, models.PaymentStatusCancelled:
		return true
	}
	return false
}

func (s *paymentService) Record(ctx context.Context, actor models.Actor, req *PaymentRequest) (*PaymentResult, error) {
	if !req.AmountPaid.IsPositive() {
		return nil, common.NewValidationError("amount_paid", "must be greater than zero")
	}
	if !models.ValidPaymentMode(req.PaymentMode) {
		return nil, common.NewValidationError("payment_mode", "must be one of cash, cheque, bank_transfer, upi, other")
	}
	if req.Status == "" {
		req.Status = models.PaymentStatusCompleted
	}
	if !validPaymentStatus(req.Status) {
		return nil, common.NewValidationError("status", "is not a valid payment status")
	}
	if err := common.ValidateOptionalString(req.ReferenceNumber, "reference_number", 100); err != nil {
		return nil, err
	}
	if err := common.ValidateOptionalString(req.Notes, "notes", 1000); err != nil {
		return nil, err
	}

	invoice, err := s.invoices.GetByID(ctx, actor.IssuerID, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, "invoice", invoice.CreatedBy); err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceStatusSent && invoice.Status != models.InvoiceStatusOverdue {
		return nil, &common.StateConflictError{Resource: "invoice", Status: string(invoice.Status), Action: "record payment against"}
	}

	now := s.now()
	date := now
	if req.Date != nil {
		date = *req.Date
	}
	payment := &models.Payment{
		ID:              uuid.New(),
		IssuerID:        actor.IssuerID,
		CustomerID:      invoice.CustomerID,
		InvoiceID:       invoice.ID,
		AmountPaid:      req.AmountPaid,
		PaymentMode:     req.PaymentMode,
		ReferenceNumber: req.ReferenceNumber,
		Date:            date,
		Notes:           req.Notes,
		Status:          req.Status,
		CreatedBy:       actor.UserID,
		CreatedAt:       now,
	}

	settled, err := s.payments.CreateAndSettle(ctx, payment, invoice.GrandTotal)
	if err != nil {
		return nil, err
	}

	s.audit.LogEntityCreate(ctx, actor, "payments", payment.ID, payment)
	if settled {
		s.audit.LogStatusChange(ctx, actor, "invoices", invoice.ID, invoice.Status, models.InvoiceStatusPaid)
	}
	if err := s.cache.InvalidateDashboard(ctx, actor.IssuerID); err != nil {
		log.Error().Err(err).Msg("failed to invalidate dashboard cache")
	}

	return &PaymentResult{Payment: payment, InvoiceSettled: settled}, nil
}

func (s *paymentService) List(ctx context.Context, actor models.Actor, customerID *uuid.UUID, limit, offset int) (models.Page[*models.Payment], error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return models.Page[*models.Payment]{}, err
	}
	payments, total, err := s.payments.List(ctx, actor.IssuerID, customerID, limit, offset)
	if err != nil {
		return models.Page[*models.Payment]{}, err
	}
	return models.NewPage(payments, total, limit, offset), nil
}
