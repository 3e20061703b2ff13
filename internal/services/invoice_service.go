package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gstbill/internal/billing"
	"gstbill/internal/common"
	"gstbill/internal/models"
	"gstbill/internal/repositories"
)

// InvoiceService manages the lifecycle of tax invoices.
type InvoiceService interface {
	Create(ctx context.Context, actor models.Actor, req *CreateInvoiceRequest) (*models.Invoice, error)
	Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, actor models.Actor, filters *models.DocumentFilters) (models.Page[*models.Invoice], error)
	Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *UpdateInvoiceRequest) (*models.Invoice, error)
	Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error
	UpdateStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status models.DocumentStatus) (*models.Invoice, error)
	Stats(ctx context.Context, actor models.Actor, start, end *time.Time) (*models.InvoiceStats, error)

	// Output
	RenderPDF(ctx context.Context, actor models.Actor, id uuid.UUID) (*RenderedDocument, error)
	Send(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Invoice, error)

	// MarkOverdue moves sent invoices past their due date to overdue across all issuers.
	MarkOverdue(ctx context.Context) (int64, error)
}

type CreateInvoiceRequest struct {
	CustomerID      uuid.UUID         `json:"customer_id" validate:"required"`
	Items           []models.LineItem `json:"items" validate:"required,min=1,dive"`
	PlaceOfSupply   string            `json:"place_of_supply" validate:"required"`
	IsReverseCharge bool              `json:"is_reverse_charge"`
	DueDate         *time.Time        `json:"due_date" validate:"required"`
	Department      *string           `json:"department"`
	Notes           *string           `json:"notes"`
	PaymentTerms    *string           `json:"payment_terms"`
	TransportMode   *string           `json:"transport_mode"`
	VehicleNumber   *string           `json:"vehicle_number"`
	EWayBillNumber  *string           `json:"eway_bill_number"`
}

// UpdateInvoiceRequest carries the fields to change. Nil fields keep their current value.
type UpdateInvoiceRequest struct {
	CustomerID      *uuid.UUID        `json:"customer_id"`
	Items           []models.LineItem `json:"items" validate:"omitempty,dive"`
	PlaceOfSupply   *string           `json:"place_of_supply"`
	IsReverseCharge *bool             `json:"is_reverse_charge"`
	DueDate         *time.Time        `json:"due_date"`
	Department      *string           `json:"department"`
	Notes           *string           `json:"notes"`
	PaymentTerms    *string           `json:"payment_terms"`
	TransportMode   *string           `json:"transport_mode"`
	VehicleNumber   *string           `json:"vehicle_number"`
	EWayBillNumber  *string           `json:"eway_bill_number"`
}

// RenderedDocument points at a stored PDF.
type RenderedDocument struct {
	ObjectName string    `json:"object_name"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

const pdfLinkExpiry = 24 * time.Hour

type invoiceService struct {
	documentBase
	invoices repositories.InvoiceRepository
	renderer DocumentRenderer
	storage  DocumentStorage
	mailer   Mailer
}

func NewInvoiceService(invoices repositories.InvoiceRepository, deps DocumentDeps, renderer DocumentRenderer, storage DocumentStorage, mailer Mailer) InvoiceService {
	return &invoiceService{
		documentBase: newDocumentBase(deps),
		invoices:     invoices,
		renderer:     renderer,
		storage:      storage,
		mailer:       mailer,
	}
}

func validateInvoiceText(department, notes, paymentTerms, transportMode, vehicleNumber, eway *string) error {
	fields := []struct {
		value *string
		name  string
		max   int
	}{
		{department, "department", 100},
		{notes, "notes", 1000},
		{paymentTerms, "payment_terms", 255},
		{transportMode, "transport_mode", 50},
		{vehicleNumber, "vehicle_number", 20},
		{eway, "eway_bill_number", 20},
	}
	for _, f := range fields {
		if err := common.ValidateOptionalString(f.value, f.name, f.max); err != nil {
			return err
		}
	}
	return common.SanitizeHTMLField(notes, "notes")
}

func (s *invoiceService) Create(ctx context.Context, actor models.Actor, req *CreateInvoiceRequest) (*models.Invoice, error) {
	if err := validateLineItems(req.Items); err != nil {
		return nil, err
	}
	if err := validatePlaceOfSupply(req.PlaceOfSupply); err != nil {
		return nil, err
	}
	if req.DueDate == nil {
		return nil, common.NewValidationError("due_date", "is required")
	}
	if err := validateInvoiceText(req.Department, req.Notes, req.PaymentTerms, req.TransportMode, req.VehicleNumber, req.EWayBillNumber); err != nil {
		return nil, err
	}

	customer, err := s.customerFor(ctx, actor, req.CustomerID)
	if err != nil {
		return nil, err
	}
	issuer, err := s.Issuers.GetByID(ctx, actor.IssuerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items, totals := priceItems(req.Items, req.PlaceOfSupply, customer)

	invoice := &models.Invoice{
		Document: models.Document{
			ID:              uuid.New(),
			IssuerID:        actor.IssuerID,
			CreatedBy:       actor.UserID,
			CustomerID:      customer.ID,
			Department:      req.Department,
			Items:           items,
			Totals:          totals,
			PlaceOfSupply:   req.PlaceOfSupply,
			IsReverseCharge: req.IsReverseCharge,
			Notes:           req.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		Status:         models.InvoiceStatusDraft,
		DueDate:        *req.DueDate,
		PaymentTerms:   req.PaymentTerms,
		TransportMode:  req.TransportMode,
		VehicleNumber:  req.VehicleNumber,
		EWayBillNumber: req.EWayBillNumber,
	}

	_, err = s.createWithNumber(ctx, issuer, models.DocumentTypeInvoice, now, func(number string) error {
		invoice.Number = number
		return s.invoices.Create(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.Audit.LogEntityCreate(ctx, actor, "invoices", invoice.ID, invoice)
	s.invalidateDashboard(ctx, actor.IssuerID)
	return invoice, nil
}

func (s *invoiceService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, "invoice", invoice.CreatedBy); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *invoiceService) List(ctx context.Context, actor models.Actor, filters *models.DocumentFilters) (models.Page[*models.Invoice], error) {
	filters, err := scopeFilters(actor, filters)
	if err != nil {
		return models.Page[*models.Invoice]{}, err
	}
	if filters.Status != nil && !billing.InvoiceMachine.Known(models.DocumentStatus(*filters.Status)) {
		return models.Page[*models.Invoice]{}, common.NewValidationError("status", "is not a valid invoice status")
	}
	invoices, total, err := s.invoices.List(ctx, actor.IssuerID, filters)
	if err != nil {
		return models.Page[*models.Invoice]{}, err
	}
	return models.NewPage(invoices, total, filters.Limit, filters.Offset), nil
}

// Update recomputes tax and totals from the resulting items, place of supply and customer.
func (s *invoiceService) Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *UpdateInvoiceRequest) (*models.Invoice, error) {
	existing, err := s.invoices.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeModify(actor, "update", "invoice", existing.CreatedBy); err != nil {
		return nil, err
	}
	if err := billing.InvoiceMachine.CheckMutable(existing.Status); err != nil {
		return nil, err
	}

	updated := *existing
	if req.Items != nil {
		if err := validateLineItems(req.Items); err != nil {
			return nil, err
		}
		updated.Items = req.Items
	}
	if req.PlaceOfSupply != nil {
		if err := validatePlaceOfSupply(*req.PlaceOfSupply); err != nil {
			return nil, err
		}
		updated.PlaceOfSupply = *req.PlaceOfSupply
	}
	if req.CustomerID != nil {
		updated.CustomerID = *req.CustomerID
	}
	if err := validateInvoiceText(req.Department, req.Notes, req.PaymentTerms, req.TransportMode, req.VehicleNumber, req.EWayBillNumber); err != nil {
		return nil, err
	}
	if req.IsReverseCharge != nil {
		updated.IsReverseCharge = *req.IsReverseCharge
	}
	if req.DueDate != nil {
		updated.DueDate = *req.DueDate
	}
	if req.Department != nil {
		updated.Department = req.Department
	}
	if req.Notes != nil {
		updated.Notes = req.Notes
	}
	if req.PaymentTerms != nil {
		updated.PaymentTerms = req.PaymentTerms
	}
	if req.TransportMode != nil {
		updated.TransportMode = req.TransportMode
	}
	if req.VehicleNumber != nil {
		updated.VehicleNumber = req.VehicleNumber
	}
	if req.EWayBillNumber != nil {
		updated.EWayBillNumber = req.EWayBillNumber
	}

	customer, err := s.customerFor(ctx, actor, updated.CustomerID)
	if err != nil {
		return nil, err
	}
	updated.Items, updated.Totals = priceItems(updated.Items, updated.PlaceOfSupply, customer)
	updated.UpdatedAt = s.now()

	if err := s.invoices.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.Audit.LogEntityUpdate(ctx, actor, "invoices", id, existing, &updated)
	s.invalidateDashboard(ctx, actor.IssuerID)
	return &updated, nil
}

func (s *invoiceService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	existing, err := s.invoices.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return err
	}
	if err := authorizeModify(actor, "delete", "invoice", existing.CreatedBy); err != nil {
		return err
	}
	if err := billing.InvoiceMachine.CheckDeletable(existing.Status); err != nil {
		return err
	}
	if err := s.invoices.Delete(ctx, actor.IssuerID, id); err != nil {
		return err
	}

	s.Audit.LogEntityDelete(ctx, actor, "invoices", id, existing)
	s.invalidateDashboard(ctx, actor.IssuerID)
	return nil
}

func (s *invoiceService) UpdateStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status models.DocumentStatus) (*models.Invoice, error) {
	if !billing.InvoiceMachine.Known(status) {
		return nil, common.NewValidationError("status", "is not a valid invoice status")
	}
	invoice, err := s.invoices.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeModify(actor, "change the status of", "invoice", invoice.CreatedBy); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, invoice, status)
}

func (s *invoiceService) transition(ctx context.Context, actor models.Actor, invoice *models.Invoice, status models.DocumentStatus) (*models.Invoice, error) {
	from := invoice.Status
	if err := billing.InvoiceMachine.Transition(from, status); err != nil {
		return nil, err
	}
	if err := s.invoices.UpdateStatus(ctx, actor.IssuerID, invoice.ID, status); err != nil {
		return nil, err
	}
	invoice.Status = status
	invoice.UpdatedAt = s.now()

	s.Audit.LogStatusChange(ctx, actor, "invoices", invoice.ID, from, status)
	s.invalidateDashboard(ctx, actor.IssuerID)
	return invoice, nil
}

func (s *invoiceService) Stats(ctx context.Context, actor models.Actor, start, end *time.Time) (*models.InvoiceStats, error) {
	from, to, err := statsRange(start, end, s.now())
	if err != nil {
		return nil, err
	}
	return s.invoices.GetStats(ctx, actor.IssuerID, statsOwner(actor), from, to)
}

// render produces the PDF together with the parties printed on it.
func (s *invoiceService) render(ctx context.Context, actor models.Actor, invoice *models.Invoice) ([]byte, *models.Customer, error) {
	customer, err := s.Customers.GetByID(ctx, actor.IssuerID, invoice.CustomerID)
	if err != nil {
		return nil, nil, err
	}
	issuer, err := s.Issuers.GetByID(ctx, actor.IssuerID)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.renderer.RenderInvoice(invoice, customer, issuer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render invoice %s: %w", invoice.Number, err)
	}
	return pdf, customer, nil
}

func (s *invoiceService) RenderPDF(ctx context.Context, actor models.Actor, id uuid.UUID) (*RenderedDocument, error) {
	invoice, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	pdf, _, err := s.render(ctx, actor, invoice)
	if err != nil {
		return nil, err
	}

	objectName := DocumentObjectName(actor.IssuerID, models.DocumentTypeInvoice, invoice.ID)
	if err := s.storage.Upload(ctx, objectName, pdf, "application/pdf"); err != nil {
		return nil, err
	}
	url, err := s.storage.PresignedURL(ctx, objectName, pdfLinkExpiry)
	if err != nil {
		return nil, err
	}

	return &RenderedDocument{
		ObjectName: objectName,
		URL:        url,
		ExpiresAt:  s.now().Add(pdfLinkExpiry),
	}, nil
}

// Send mails the invoice PDF to the customer and moves a draft to sent.
func (s *invoiceService) Send(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeModify(actor, "send", "invoice", invoice.CreatedBy); err != nil {
		return nil, err
	}
	if !billing.InvoiceMachine.CanTransition(invoice.Status, models.InvoiceStatusSent) {
		return nil, &common.StateConflictError{Resource: "invoice", Status: string(invoice.Status), Action: "send"}
	}

	pdf, customer, err := s.render(ctx, actor, invoice)
	if err != nil {
		return nil, err
	}
	if customer.Email == nil || *customer.Email == "" {
		return nil, common.NewValidationError("email", "customer has no email address")
	}

	msg := &MailMessage{
		To:      []string{*customer.Email},
		Subject: fmt.Sprintf("Invoice %s", invoice.Number),
		Text: fmt.Sprintf("Dear %s,\n\nPlease find attached invoice %s for %s, due on %s.\n",
			customer.Name, invoice.Number, invoice.GrandTotal.StringFixed(2), invoice.DueDate.Format("02 Jan 2006")),
		Attachments: []MailAttachment{{
			Filename:    DocumentFileName(invoice.Number),
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, invoice, models.InvoiceStatusSent)
}

func (s *invoiceService) MarkOverdue(ctx context.Context) (int64, error) {
	count, err := s.invoices.MarkOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Info().Int64("count", count).Msg("invoices marked overdue")
	}
	return count, nil
}
