package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"gstbill/internal/billing"
	"gstbill/internal/caching"
	"gstbill/internal/common"
	"gstbill/internal/config"
	"gstbill/internal/models"
	"gstbill/internal/repositories"
)

// DocumentDeps are the collaborators shared by the invoice, quotation and challan services.
type DocumentDeps struct {
	Customers repositories.CustomerRepository
	Issuers   repositories.IssuerRepository
	Sequences repositories.SequenceRepository
	Audit     AuditLogsService
	Cache     caching.CacheService
	Policy    *config.BillingPolicy
}

type documentBase struct {
	DocumentDeps
	now func() time.Time
}

func newDocumentBase(deps DocumentDeps) documentBase {
	if deps.Policy == nil {
		deps.Policy = config.DefaultBillingPolicy()
	}
	return documentBase{DocumentDeps: deps, now: time.Now}
}

// createWithNumber allocates the next number for docType and hands it to insert.
// When insert reports a number collision a fresh number is allocated, up to the
// policy's retry limit.
func (b *documentBase) createWithNumber(ctx context.Context, issuer *models.Issuer, docType models.DocumentType, issuedAt time.Time, insert func(number string) error) (string, error) {
	prefix := billing.PrefixFor(docType)
	attempts := b.Policy.Documents.NumberingRetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		seq, err := b.Sequences.Next(ctx, issuer.ID, docType, b.Policy.SequenceYear(issuedAt))
		if err != nil {
			return "", err
		}
		number := billing.FormatDocumentNumber(prefix, issuer.TaxID, issuedAt.Year(), seq)

		err = insert(number)
		if err == nil {
			return number, nil
		}
		if !errors.Is(err, common.ErrNumberingConflict) {
			return "", err
		}
		lastErr = err
		log.Warn().
			Str("issuer_id", issuer.ID.String()).
			Str("number", number).
			Int("attempt", attempt).
			Msg("document number collision, allocating again")
	}
	return "", lastErr
}

// customerFor loads the customer inside the actor's issuer.
func (b *documentBase) customerFor(ctx context.Context, actor models.Actor, customerID uuid.UUID) (*models.Customer, error) {
	if customerID == uuid.Nil {
		return nil, common.NewValidationError("customer_id", "is required")
	}
	return b.Customers.GetByID(ctx, actor.IssuerID, customerID)
}

func (b *documentBase) invalidateDashboard(ctx context.Context, issuerID uuid.UUID) {
	if b.Cache == nil {
		return
	}
	if err := b.Cache.InvalidateDashboard(ctx, issuerID); err != nil {
		log.Error().Err(err).Str("issuer_id", issuerID.String()).Msg("failed to invalidate dashboard cache")
	}
}

// scopeFilters applies the issuer-wide visibility rules to a listing.
// Plain users only ever see their own documents.
func scopeFilters(actor models.Actor, filters *models.DocumentFilters) (*models.DocumentFilters, error) {
	if filters == nil {
		filters = &models.DocumentFilters{}
	}
	if actor.Role == models.RoleUser {
		owner := actor.UserID
		filters.CreatedBy = &owner
	}
	if filters.StartDate != nil && filters.EndDate != nil {
		if err := common.ValidateDateRange(*filters.StartDate, *filters.EndDate); err != nil {
			return nil, err
		}
	}
	limit, offset, err := common.ValidatePaginationParams(filters.Limit, filters.Offset)
	if err != nil {
		return nil, err
	}
	filters.Limit, filters.Offset = limit, offset
	return filters, nil
}

// statsOwner restricts statistics for plain users to their own documents.
func statsOwner(actor models.Actor) *uuid.UUID {
	if actor.Role == models.RoleUser {
		owner := actor.UserID
		return &owner
	}
	return nil
}

func statsRange(start, end *time.Time, now time.Time) (time.Time, time.Time, error) {
	to := now
	if end != nil {
		to = *end
	}
	from := to.AddDate(0, -12, 0)
	if start != nil {
		from = *start
	}
	if err := common.ValidateDateRange(from, to); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func authorizeRead(actor models.Actor, resource string, ownerID uuid.UUID) error {
	if !actor.CanRead(ownerID) {
		return &common.AuthorizationError{Action: "view this " + resource}
	}
	return nil
}

func authorizeModify(actor models.Actor, action, resource string, ownerID uuid.UUID) error {
	if !actor.CanModify(ownerID) {
		return &common.AuthorizationError{Action: fmt.Sprintf("%s this %s", action, resource)}
	}
	return nil
}

var maxRate = decimal.NewFromInt(100)

// validateLineItems rejects items the tax engine must never see.
func validateLineItems(items []models.LineItem) error {
	if len(items) == 0 {
		return common.NewValidationError("items", "at least one item is required")
	}
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if err := common.ValidateRequiredString(item.Description, field+".description"); err != nil {
			return err
		}
		if err := common.ValidateRequiredString(item.HSNCode, field+".hsn_code"); err != nil {
			return err
		}
		if !item.Quantity.IsPositive() {
			return common.NewValidationError(field+".quantity", "must be greater than zero")
		}
		if item.Price.IsNegative() {
			return common.NewValidationError(field+".price", "cannot be negative")
		}
		for _, rate := range []struct {
			name  string
			value decimal.Decimal
		}{
			{"cgst", item.CGST.Rate},
			{"sgst", item.SGST.Rate},
			{"igst", item.IGST.Rate},
		} {
			if rate.value.IsNegative() || rate.value.GreaterThan(maxRate) {
				return common.NewValidationError(field+"."+rate.name+".rate", "must be between 0 and 100")
			}
		}
	}
	return nil
}

// priceItems runs the tax engine for a customer and returns the taxed items and totals.
func priceItems(items []models.LineItem, placeOfSupply string, customer *models.Customer) ([]models.LineItem, models.Totals) {
	priced := billing.ComputeItems(items, placeOfSupply, billing.CustomerState(customer.Address))
	return priced, billing.AggregateTotals(priced)
}

func validatePlaceOfSupply(placeOfSupply string) error {
	return common.ValidateRequiredString(placeOfSupply, "place_of_supply")
}
