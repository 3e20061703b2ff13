package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gstbill/internal/billing"
	"gstbill/internal/common"
	"gstbill/internal/models"
	"gstbill/internal/repositories"
)

type QuotationService interface {
	Create(ctx context.Context, actor models.Actor, req *CreateQuotationRequest) (*models.Quotation, error)
	Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Quotation, error)
	List(ctx context.Context, actor models.Actor, filters *models.DocumentFilters) (models.Page[*models.Quotation], error)
	Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *UpdateQuotationRequest) (*models.Quotation, error)
	Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error
	UpdateStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status models.DocumentStatus) (*models.Quotation, error)

	// ConvertToInvoice turns an open quotation into a draft invoice exactly once.
	ConvertToInvoice(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Invoice, error)

	// ExpireStale moves open quotations past their validity date to expired.
	ExpireStale(ctx context.Context) (int64, error)
}

type CreateQuotationRequest struct {
	CustomerID         uuid.UUID         `json:"customer_id" validate:"required"`
	Items              []models.LineItem `json:"items" validate:"required,min=1,dive"`
	PlaceOfSupply      string            `json:"place_of_supply" validate:"required"`
	IsReverseCharge    bool              `json:"is_reverse_charge"`
	ValidUntil         *time.Time        `json:"valid_until" validate:"required"`
	Department         *string           `json:"department"`
	Notes              *string           `json:"notes"`
	TermsAndConditions *string           `json:"terms_and_conditions"`
}

type UpdateQuotationRequest struct {
	CustomerID         *uuid.UUID        `json:"customer_id"`
	Items              []models.LineItem `json:"items" validate:"omitempty,dive"`
	PlaceOfSupply      *string           `json:"place_of_supply"`
	IsReverseCharge    *bool             `json:"is_reverse_charge"`
	ValidUntil         *time.Time        `json:"valid_until"`
	Department         *string           `json:"department"`
	Notes              *string           `json:"notes"`
	TermsAndConditions *string           `json:"terms_and_conditions"`
}

type quotationService struct {
	documentBase
	quotations repositories.QuotationRepository
}

func NewQuotationService(quotations repositories.QuotationRepository, deps DocumentDeps) QuotationService {
	return &quotationService{
		documentBase: newDocumentBase(deps),
		quotations:   quotations,
	}
}

func validateQuotationText(department, notes, terms *string) error {
	if err := common.ValidateOptionalString(department, "department", 100); err != nil {
		return err
	}
	if err := common.ValidateOptionalString(notes, "notes", 1000); err != nil {
		return err
	}
	if err := common.ValidateOptionalString(terms, "terms_and_conditions", 1000); err != nil {
		return err
	}
	if err := common.SanitizeHTMLField(notes, "notes"); err != nil {
		return err
	}
	return common.SanitizeHTMLField(terms, "terms_and_conditions")
}

func validateValidUntil(validUntil *time.Time, now time.Time) error {
	if validUntil == nil {
		return common.NewValidationError("valid_until", "is required")
	}
	if validUntil.Before(now) {
		return common.NewValidationError("valid_until", "cannot be in the past")
	}
	return nil
}

func (s *quotationService) Create(ctx context.Context, actor models.Actor, req *CreateQuotationRequest) (*models.Quotation, error) {
	if err := validateLineItems(req.Items); err != nil {
		return nil, err
	}
	if err := validatePlaceOfSupply(req.PlaceOfSupply); err != nil {
		return nil, err
	}
	now := s.now()
	if err := validateValidUntil(req.ValidUntil, now); err != nil {
		return nil, err
	}
	if err := validateQuotationText(req.Department, req.Notes, req.TermsAndConditions); err != nil {
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

	items, totals := priceItems(req.Items, req.PlaceOfSupply, customer)

	quotation := &models.Quotation{
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
		Status:             models.QuotationStatusDraft,
		ValidUntil:         *req.ValidUntil,
		TermsAndConditions: req.TermsAndConditions,
	}

	_, err = s.createWithNumber(ctx, issuer, models.DocumentTypeQuotation, now, func(number string) error {
		quotation.Number = number
		return s.quotations.Create(ctx, quotation)
	})
	if err != nil {
		return nil, err
	}

	s.Audit.LogEntityCreate(ctx, actor, "quotations", quotation.ID, quotation)
	s.invalidateDashboard(ctx, actor.IssuerID)
	return quotation, nil
}

func (s *quotationService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Quotation, error) {
	quotation, err := s.quotations.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, "quotation", quotation.CreatedBy); err != nil {
		return nil, err
	}
	return quotation, nil
}

func (s *quotationService) List(ctx context.Context, actor models.Actor, filters *models.DocumentFilters) (models.Page[*models.Quotation], error) {
	filters, err := scopeFilters(actor, filters)
	if err != nil {
		return models.Page[*models.Quotation]{}, err
	}
	if filters.Status != nil && !billing.QuotationMachine.Known(models.DocumentStatus(*filters.Status)) {
		return models.Page[*models.Quotation]{}, common.NewValidationError("status", "is not a valid quotation status")
	}
	quotations, total, err := s.quotations.List(ctx, actor.IssuerID, filters)
	if err != nil {
		return models.Page[*models.Quotation]{}, err
	}
	return models.NewPage(quotations, total, filters.Limit, filters.Offset), nil
}

func (s *quotationService) Update(ctx context.Context, actor models.Actor, id uuid.UUID, req *UpdateQuotationRequest) (*models.Quotation, error) {
	existing, err := s.quotations.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeModify(actor, "update", "quotation", existing.CreatedBy); err != nil {
		return nil, err
	}
	if err := billing.QuotationMachine.CheckMutable(existing.Status); err != nil {
		return nil, err
	}
	if existing.ConvertedToInvoice {
		return nil, &common.StateConflictError{Resource: "quotation", Status: string(existing.Status), Action: "update converted"}
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
	if err := validateQuotationText(req.Department, req.Notes, req.TermsAndConditions); err != nil {
		return nil, err
	}
	if req.CustomerID != nil {
		updated.CustomerID = *req.CustomerID
	}
	if req.IsReverseCharge != nil {
		updated.IsReverseCharge = *req.IsReverseCharge
	}
	if req.ValidUntil != nil {
		if err := validateValidUntil(req.ValidUntil, s.now()); err != nil {
			return nil, err
		}
		updated.ValidUntil = *req.ValidUntil
	}
	if req.Department != nil {
		updated.Department = req.Department
	}
	if req.Notes != nil {
		updated.Notes = req.Notes
	}
	if req.TermsAndConditions != nil {
		updated.TermsAndConditions = req.TermsAndConditions
	}

	customer, err := s.customerFor(ctx, actor, updated.CustomerID)
	if err != nil {
		return nil, err
	}
	updated.Items, updated.Totals = priceItems(updated.Items, updated.PlaceOfSupply, customer)
	updated.UpdatedAt = s.now()

	if err := s.quotations.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.Audit.LogEntityUpdate(ctx, actor, "quotations", id, existing, &updated)
	s.invalidateDashboard(ctx, actor.IssuerID)
	return &updated, nil
}

func (s *quotationService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	existing, err := s.quotations.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return err
	}
	if err := authorizeModify(actor, "delete", "quotation", existing.CreatedBy); err != nil {
		return err
	}
	if err := billing.QuotationMachine.CheckDeletable(existing.Status); err != nil {
		return err
	}
	if err := s.quotations.Delete(ctx, actor.IssuerID, id); err != nil {
		return err
	}

	s.Audit.LogEntityDelete(ctx, actor, "quotations", id, existing)
	s.invalidateDashboard(ctx, actor.IssuerID)
	return nil
}

// UpdateStatus changes the status directly. Acceptance through this path does not
// create an invoice; ConvertToInvoice does both.
func (s *quotationService) UpdateStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status models.DocumentStatus) (*models.Quotation, error) {
	if !billing.QuotationMachine.Known(status) {
		return nil, common.NewValidationError("status", "is not a valid quotation status")
	}
	quotation, err := s.quotations.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeModify(actor, "change the status of", "quotation", quotation.CreatedBy); err != nil {
		return nil, err
	}

	from := quotation.Status
	if err := billing.QuotationMachine.Transition(from, status); err != nil {
		return nil, err
	}
	if err := s.quotations.UpdateStatus(ctx, actor.IssuerID, id, status); err != nil {
		return nil, err
	}
	quotation.Status = status
	quotation.UpdatedAt = s.now()

	s.Audit.LogStatusChange(ctx, actor, "quotations", id, from, status)
	return quotation, nil
}

func (s *quotationService) ConvertToInvoice(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Invoice, error) {
	quotation, err := s.quotations.GetByID(ctx, actor.IssuerID, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeModify(actor, "convert", "quotation", quotation.CreatedBy); err != nil {
		return nil, err
	}
	if quotation.ConvertedToInvoice {
		return nil, &common.ConversionConflictError{QuotationID: id.String()}
	}
	if err := billing.QuotationMachine.Transition(quotation.Status, models.QuotationStatusAccepted); err != nil {
		return nil, err
	}

	issuer, err := s.Issuers.GetByID(ctx, actor.IssuerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	invoice := invoiceFromQuotation(quotation, uuid.New(), actor.UserID, now,
		now.AddDate(0, 0, s.Policy.Documents.InvoiceDueDays))

	// Numbers come from the committed counter; a collision rolls back only the claim.
	_, err = s.createWithNumber(ctx, issuer, models.DocumentTypeInvoice, now, func(number string) error {
		invoice.Number = number
		return s.quotations.ConvertToInvoice(ctx, actor.IssuerID, id, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.Audit.LogConversion(ctx, actor, id, invoice.ID, invoice.Number)
	s.Audit.LogEntityCreate(ctx, actor, "invoices", invoice.ID, invoice)
	s.invalidateDashboard(ctx, actor.IssuerID)
	return invoice, nil
}

// invoiceFromQuotation copies the priced content of a quotation into a new draft invoice.
func invoiceFromQuotation(q *models.Quotation, invoiceID, createdBy uuid.UUID, now, dueDate time.Time) *models.Invoice {
	items := make([]models.LineItem, len(q.Items))
	copy(items, q.Items)
	source := q.ID
	return &models.Invoice{
		Document: models.Document{
			ID:              invoiceID,
			IssuerID:        q.IssuerID,
			CreatedBy:       createdBy,
			CustomerID:      q.CustomerID,
			Department:      q.Department,
			Items:           items,
			Totals:          q.Totals,
			PlaceOfSupply:   q.PlaceOfSupply,
			IsReverseCharge: q.IsReverseCharge,
			Notes:           q.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		Status:            models.InvoiceStatusDraft,
		DueDate:           dueDate,
		SourceQuotationID: &source,
	}
}

func (s *quotationService) ExpireStale(ctx context.Context) (int64, error) {
	count, err := s.quotations.ExpireStale(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Info().Int64("count", count).Msg("quotations expired")
	}
	return count, nil
}
