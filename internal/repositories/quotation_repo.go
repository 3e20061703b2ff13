package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gstbill/internal/billing"
	"gstbill/internal/common"
	"gstbill/internal/models"
)

type QuotationRepository interface {
	Create(ctx context.Context, quotation *models.Quotation) error
	GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.Quotation, error)
	Update(ctx context.Context, quotation *models.Quotation) error
	UpdateStatus(ctx context.Context, issuerID, id uuid.UUID, status models.DocumentStatus) error
	Delete(ctx context.Context, issuerID, id uuid.UUID) error
	List(ctx context.Context, issuerID uuid.UUID, filters *models.DocumentFilters) ([]*models.Quotation, int, error)
	ExpireStale(ctx context.Context, asOf time.Time) (int64, error)

	// ConvertToInvoice claims the quotation and inserts the numbered invoice in one transaction.
	// A quotation that is already converted, or no longer draft or sent, yields a
	// *common.ConversionConflictError and nothing is written.
	ConvertToInvoice(ctx context.Context, issuerID, quotationID uuid.UUID, invoice *models.Invoice) error
}

type quotationRepo struct {
	db DBTX
}

func NewQuotationRepo(db DBTX) QuotationRepository {
	return &quotationRepo{db: db}
}

const quotationColumns = `id, issuer_id, number, customer_id, created_by, department, items,
	subtotal, total_cgst, total_sgst, total_igst, round_off, total, status, valid_until, notes,
	terms_and_conditions, place_of_supply, is_reverse_charge, converted_to_invoice,
	converted_invoice_id, created_at, updated_at`

func scanQuotation(row rowScanner) (*models.Quotation, error) {
	q := &models.Quotation{}
	var items []byte
	err := row.Scan(
		&q.ID, &q.IssuerID, &q.Number, &q.CustomerID, &q.CreatedBy, &q.Department, &items,
		&q.Subtotal, &q.TotalCGST, &q.TotalSGST, &q.TotalIGST, &q.RoundOff, &q.GrandTotal,
		&q.Status, &q.ValidUntil, &q.Notes, &q.TermsAndConditions, &q.PlaceOfSupply, &q.IsReverseCharge,
		&q.ConvertedToInvoice, &q.ConvertedInvoiceID, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB("items", items, &q.Items); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *quotationRepo) Create(ctx context.Context, quotation *models.Quotation) error {
	items, err := marshalJSONB("items", quotation.Items)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO quotations (id, issuer_id, number, customer_id, created_by, department, items,
			subtotal, total_cgst, total_sgst, total_igst, round_off, total, status, valid_until, notes,
			terms_and_conditions, place_of_supply, is_reverse_charge, converted_to_invoice, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, false, $20, $20)
	`
	_, err = r.db.Exec(ctx, query,
		quotation.ID, quotation.IssuerID, quotation.Number, quotation.CustomerID, quotation.CreatedBy, quotation.Department, items,
		quotation.Subtotal, quotation.TotalCGST, quotation.TotalSGST, quotation.TotalIGST, quotation.RoundOff, quotation.GrandTotal,
		quotation.Status, quotation.ValidUntil, quotation.Notes, quotation.TermsAndConditions, quotation.PlaceOfSupply,
		quotation.IsReverseCharge, quotation.CreatedAt,
	)
	return translateError(err, "quotation", quotation.Number)
}

func (r *quotationRepo) GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations WHERE issuer_id = $1 AND id = $2`
	q, err := scanQuotation(r.db.QueryRow(ctx, query, issuerID, id))
	if err != nil {
		return nil, translateError(err, "quotation", id.String())
	}
	return q, nil
}

func (r *quotationRepo) Update(ctx context.Context, quotation *models.Quotation) error {
	items, err := marshalJSONB("items", quotation.Items)
	if err != nil {
		return err
	}

	query := `
		UPDATE quotations
		SET customer_id = $1, department = $2, items = $3, subtotal = $4, total_cgst = $5, total_sgst = $6,
			total_igst = $7, round_off = $8, total = $9, valid_until = $10, notes = $11,
			terms_and_conditions = $12, place_of_supply = $13, is_reverse_charge = $14, updated_at = NOW()
		WHERE issuer_id = $15 AND id = $16 AND NOT (status = ANY($17))
	`
	tag, err := r.db.Exec(ctx, query,
		quotation.CustomerID, quotation.Department, items, quotation.Subtotal, quotation.TotalCGST, quotation.TotalSGST,
		quotation.TotalIGST, quotation.RoundOff, quotation.GrandTotal, quotation.ValidUntil, quotation.Notes,
		quotation.TermsAndConditions, quotation.PlaceOfSupply, quotation.IsReverseCharge, quotation.IssuerID, quotation.ID, billing.QuotationMachine.FrozenStatuses(),
	)
	if err != nil {
		return translateError(err, "quotation", quotation.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return explainWriteMiss(ctx, r.db, "quotations", "quotation", "update", quotation.IssuerID, quotation.ID)
	}
	return nil
}

func (r *quotationRepo) UpdateStatus(ctx context.Context, issuerID, id uuid.UUID, status models.DocumentStatus) error {
	query := `
		UPDATE quotations
		SET status = $1, updated_at = NOW()
		WHERE issuer_id = $2 AND id = $3
	`
	tag, err := r.db.Exec(ctx, query, status, issuerID, id)
	if err != nil {
		return translateError(err, "quotation", id.String())
	}
	if tag.RowsAffected() == 0 {
		return translateError(errNoRowsAffected, "quotation", id.String())
	}
	return nil
}

func (r *quotationRepo) Delete(ctx context.Context, issuerID, id uuid.UUID) error {
	query := `DELETE FROM quotations WHERE issuer_id = $1 AND id = $2 AND NOT (status = ANY($3))`
	tag, err := r.db.Exec(ctx, query, issuerID, id, billing.QuotationMachine.UndeletableStatuses())
	if err != nil {
		return translateError(err, "quotation", id.String())
	}
	if tag.RowsAffected() == 0 {
		return explainWriteMiss(ctx, r.db, "quotations", "quotation", "delete", issuerID, id)
	}
	return nil
}

func (r *quotationRepo) List(ctx context.Context, issuerID uuid.UUID, filters *models.DocumentFilters) ([]*models.Quotation, int, error) {
	if filters == nil {
		filters = &models.DocumentFilters{}
	}
	fb := documentFilters(issuerID, filters)

	var total int
	countQuery := `SELECT COUNT(*) FROM quotations` + fb.clause()
	if err := r.db.QueryRow(ctx, countQuery, fb.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count quotations: %w", err)
	}

	query := `SELECT ` + quotationColumns + ` FROM quotations` + fb.clause() + ` ORDER BY created_at DESC` + fb.page(filters.Limit, filters.Offset)
	rows, err := r.db.Query(ctx, query, fb.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quotations: %w", err)
	}
	defer rows.Close()

	var quotations []*models.Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		quotations = append(quotations, q)
	}
	return quotations, total, rows.Err()
}

// ExpireStale expires draft and sent quotations whose validity ended before asOf.
func (r *quotationRepo) ExpireStale(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE quotations
		SET status = 'expired', updated_at = NOW()
		WHERE status IN ('draft', 'sent') AND converted_to_invoice = false AND valid_until < $1
	`
	tag, err := r.db.Exec(ctx, query, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to expire quotations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *quotationRepo) ConvertToInvoice(ctx context.Context, issuerID, quotationID uuid.UUID, invoice *models.Invoice) error {
	return WithTx(ctx, r.db, func(tx pgx.Tx) error {
		claim := `
			UPDATE quotations
			SET status = 'accepted', converted_to_invoice = true, converted_invoice_id = $3, updated_at = NOW()
			WHERE id = $1 AND issuer_id = $2 AND converted_to_invoice = false AND status IN ('draft', 'sent')
		`
		tag, err := tx.Exec(ctx, claim, quotationID, issuerID, invoice.ID)
		if err != nil {
			return fmt.Errorf("failed to claim quotation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return &common.ConversionConflictError{QuotationID: quotationID.String()}
		}
		return NewInvoiceRepo(tx).Create(ctx, invoice)
	})
}
