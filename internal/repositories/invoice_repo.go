package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gstbill/internal/billing"
	"gstbill/internal/models"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error
	UpdateStatus(ctx context.Context, issuerID, id uuid.UUID, status models.DocumentStatus) error
	Delete(ctx context.Context, issuerID, id uuid.UUID) error
	List(ctx context.Context, issuerID uuid.UUID, filters *models.DocumentFilters) ([]*models.Invoice, int, error)
	GetStats(ctx context.Context, issuerID uuid.UUID, createdBy *uuid.UUID, startDate, endDate time.Time) (*models.InvoiceStats, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type invoiceRepo struct {
	db DBTX
}

func NewInvoiceRepo(db DBTX) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, issuer_id, number, customer_id, created_by, department, items,
	subtotal, total_cgst, total_sgst, total_igst, round_off, total, status, due_date, notes,
	payment_terms, transport_mode, vehicle_number, place_of_supply, is_reverse_charge,
	eway_bill_number, source_quotation_id, created_at, updated_at`

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	inv := &models.Invoice{}
	var items []byte
	err := row.Scan(
		&inv.ID, &inv.IssuerID, &inv.Number, &inv.CustomerID, &inv.CreatedBy, &inv.Department, &items,
		&inv.Subtotal, &inv.TotalCGST, &inv.TotalSGST, &inv.TotalIGST, &inv.RoundOff, &inv.GrandTotal,
		&inv.Status, &inv.DueDate, &inv.Notes, &inv.PaymentTerms, &inv.TransportMode, &inv.VehicleNumber,
		&inv.PlaceOfSupply, &inv.IsReverseCharge, &inv.EWayBillNumber, &inv.SourceQuotationID,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB("items", items, &inv.Items); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	items, err := marshalJSONB("items", invoice.Items)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO invoices (id, issuer_id, number, customer_id, created_by, department, items,
			subtotal, total_cgst, total_sgst, total_igst, round_off, total, status, due_date, notes,
			payment_terms, transport_mode, vehicle_number, place_of_supply, is_reverse_charge,
			eway_bill_number, source_quotation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $24)
	`
	_, err = r.db.Exec(ctx, query,
		invoice.ID, invoice.IssuerID, invoice.Number, invoice.CustomerID, invoice.CreatedBy, invoice.Department, items,
		invoice.Subtotal, invoice.TotalCGST, invoice.TotalSGST, invoice.TotalIGST, invoice.RoundOff, invoice.GrandTotal,
		invoice.Status, invoice.DueDate, invoice.Notes, invoice.PaymentTerms, invoice.TransportMode, invoice.VehicleNumber,
		invoice.PlaceOfSupply, invoice.IsReverseCharge, invoice.EWayBillNumber, invoice.SourceQuotationID,
		invoice.CreatedAt,
	)
	return translateError(err, "invoice", invoice.Number)
}

func (r *invoiceRepo) GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE issuer_id = $1 AND id = $2`
	inv, err := scanInvoice(r.db.QueryRow(ctx, query, issuerID, id))
	if err != nil {
		return nil, translateError(err, "invoice", id.String())
	}
	return inv, nil
}

// Update rewrites the editable fields. Number, issuer, creator and status are not touched.
func (r *invoiceRepo) Update(ctx context.Context, invoice *models.Invoice) error {
	items, err := marshalJSONB("items", invoice.Items)
	if err != nil {
		return err
	}

	query := `
		UPDATE invoices
		SET customer_id = $1, department = $2, items = $3, subtotal = $4, total_cgst = $5, total_sgst = $6,
			total_igst = $7, round_off = $8, total = $9, due_date = $10, notes = $11, payment_terms = $12,
			transport_mode = $13, vehicle_number = $14, place_of_supply = $15, is_reverse_charge = $16,
			eway_bill_number = $17, updated_at = NOW()
		WHERE issuer_id = $18 AND id = $19 AND NOT (status = ANY($20))
	`
	tag, err := r.db.Exec(ctx, query,
		invoice.CustomerID, invoice.Department, items, invoice.Subtotal, invoice.TotalCGST, invoice.TotalSGST,
		invoice.TotalIGST, invoice.RoundOff, invoice.GrandTotal, invoice.DueDate, invoice.Notes, invoice.PaymentTerms,
		invoice.TransportMode, invoice.VehicleNumber, invoice.PlaceOfSupply, invoice.IsReverseCharge,
		invoice.EWayBillNumber, invoice.IssuerID, invoice.ID, billing.InvoiceMachine.FrozenStatuses(),
	)
	if err != nil {
		return translateError(err, "invoice", invoice.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return explainWriteMiss(ctx, r.db, "invoices", "invoice", "update", invoice.IssuerID, invoice.ID)
	}
	return nil
}

// UpdateStatus updates invoice status
func (r *invoiceRepo) UpdateStatus(ctx context.Context, issuerID, id uuid.UUID, status models.DocumentStatus) error {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE issuer_id = $2 AND id = $3
	`
	tag, err := r.db.Exec(ctx, query, status, issuerID, id)
	if err != nil {
		return translateError(err, "invoice", id.String())
	}
	if tag.RowsAffected() == 0 {
		return translateError(errNoRowsAffected, "invoice", id.String())
	}
	return nil
}

func (r *invoiceRepo) Delete(ctx context.Context, issuerID, id uuid.UUID) error {
	query := `DELETE FROM invoices WHERE issuer_id = $1 AND id = $2 AND NOT (status = ANY($3))`
	tag, err := r.db.Exec(ctx, query, issuerID, id, billing.InvoiceMachine.UndeletableStatuses())
	if err != nil {
		return translateError(err, "invoice", id.String())
	}
	if tag.RowsAffected() == 0 {
		return explainWriteMiss(ctx, r.db, "invoices", "invoice", "delete", issuerID, id)
	}
	return nil
}

func (r *invoiceRepo) List(ctx context.Context, issuerID uuid.UUID, filters *models.DocumentFilters) ([]*models.Invoice, int, error) {
	if filters == nil {
		filters = &models.DocumentFilters{}
	}
	fb := documentFilters(issuerID, filters)

	var total int
	countQuery := `SELECT COUNT(*) FROM invoices` + fb.clause()
	if err := r.db.QueryRow(ctx, countQuery, fb.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + fb.clause() + ` ORDER BY created_at DESC` + fb.page(filters.Limit, filters.Offset)
	rows, err := r.db.Query(ctx, query, fb.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

// GetStats totals invoice value by status and by month of creation.
func (r *invoiceRepo) GetStats(ctx context.Context, issuerID uuid.UUID, createdBy *uuid.UUID, startDate, endDate time.Time) (*models.InvoiceStats, error) {
	fb := newFilterBuilder("issuer_id = $1", issuerID)
	fb.add("created_at >= $%d", startDate)
	fb.add("created_at <= $%d", endDate)
	if createdBy != nil {
		fb.add("created_by = $%d", *createdBy)
	}

	stats := &models.InvoiceStats{}
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(total), 0),
			COALESCE(SUM(total) FILTER (WHERE status = 'paid'), 0),
			COALESCE(SUM(total) FILTER (WHERE status IN ('draft', 'sent')), 0),
			COALESCE(SUM(total) FILTER (WHERE status = 'overdue'), 0)
		FROM invoices` + fb.clause()
	err := r.db.QueryRow(ctx, query, fb.args...).Scan(
		&stats.TotalInvoices, &stats.TotalAmount, &stats.TotalPaid, &stats.TotalPending, &stats.TotalOverdue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute invoice stats: %w", err)
	}

	monthly := `
		SELECT EXTRACT(MONTH FROM created_at)::int AS month, COUNT(*), COALESCE(SUM(total), 0)
		FROM invoices` + fb.clause() + `
		GROUP BY month
		ORDER BY month`
	rows, err := r.db.Query(ctx, monthly, fb.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly invoice stats: %w", err)
	}
	defer rows.Close()

	stats.Monthly = []models.MonthlyTotal{}
	for rows.Next() {
		var m models.MonthlyTotal
		if err := rows.Scan(&m.Month, &m.Count, &m.Total); err != nil {
			return nil, err
		}
		stats.Monthly = append(stats.Monthly, m)
	}
	return stats, rows.Err()
}

// MarkOverdue moves every sent invoice whose due date has passed to overdue, across all issuers.
func (r *invoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE invoices
		SET status = 'overdue', updated_at = NOW()
		WHERE status = 'sent' AND due_date < $1
	`
	tag, err := r.db.Exec(ctx, query, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	return tag.RowsAffected(), nil
}

// documentFilters builds the shared WHERE clause for invoice and quotation listings.
func documentFilters(issuerID uuid.UUID, filters *models.DocumentFilters) *filterBuilder {
	fb := newFilterBuilder("issuer_id = $1", issuerID)
	if filters.Status != nil {
		fb.add("status = $%d", *filters.Status)
	}
	if filters.CustomerID != nil {
		fb.add("customer_id = $%d", *filters.CustomerID)
	}
	if filters.CreatedBy != nil {
		fb.add("created_by = $%d", *filters.CreatedBy)
	}
	if filters.StartDate != nil {
		fb.add("created_at >= $%d", *filters.StartDate)
	}
	if filters.EndDate != nil {
		fb.add("created_at <= $%d", *filters.EndDate)
	}
	return fb
}
