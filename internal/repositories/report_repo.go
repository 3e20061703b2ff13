package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gstbill/internal/models"
)

// ReportRepository runs read-only aggregates over an issuer's documents.
type ReportRepository interface {
	RevenueSummary(ctx context.Context, issuerID uuid.UUID, start, end time.Time) (*models.RevenueSummary, error)
	DailyRevenue(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.DailyRevenue, error)
	PaymentModes(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.PaymentModeStat, error)
	TopCustomers(ctx context.Context, issuerID uuid.UUID, start, end time.Time, limit int) ([]models.TopCustomer, error)
	CustomerSummaries(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.CustomerSummary, error)
	GSTSummary(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.GSTReportRow, error)
	InvoiceExportRows(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.InvoiceExportRow, error)
	DashboardTotals(ctx context.Context, issuerID uuid.UUID, since time.Time) (*models.DashboardStats, error)
	RecentDocuments(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, since time.Time, limit int) ([]models.RecentDocument, error)
}

type reportRepo struct {
	db DBTX
}

func NewReportRepo(db DBTX) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) RevenueSummary(ctx context.Context, issuerID uuid.UUID, start, end time.Time) (*models.RevenueSummary, error) {
	query := `
		SELECT COALESCE(SUM(total), 0), COALESCE(SUM(total_cgst), 0), COALESCE(SUM(total_sgst), 0),
			COALESCE(SUM(total_igst), 0), COUNT(*), COALESCE(ROUND(AVG(total), 2), 0)
		FROM invoices
		WHERE issuer_id = $1 AND status = 'paid' AND created_at >= $2 AND created_at < $3
	`
	s := &models.RevenueSummary{}
	err := r.db.QueryRow(ctx, query, issuerID, start, end).Scan(
		&s.TotalRevenue, &s.TotalCGST, &s.TotalSGST, &s.TotalIGST, &s.InvoiceCount, &s.AverageInvoiceValue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue summary: %w", err)
	}
	return s, nil
}

func (r *reportRepo) DailyRevenue(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.DailyRevenue, error) {
	query := `
		SELECT EXTRACT(DAY FROM created_at)::int AS day, COALESCE(SUM(total), 0), COUNT(*)
		FROM invoices
		WHERE issuer_id = $1 AND status = 'paid' AND created_at >= $2 AND created_at < $3
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.Query(ctx, query, issuerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily revenue: %w", err)
	}
	defer rows.Close()

	out := []models.DailyRevenue{}
	for rows.Next() {
		var d models.DailyRevenue
		if err := rows.Scan(&d.Day, &d.Revenue, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *reportRepo) PaymentModes(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.PaymentModeStat, error) {
	query := `
		SELECT payment_mode, COALESCE(SUM(amount_paid), 0), COUNT(*)
		FROM payments
		WHERE issuer_id = $1 AND status = 'completed' AND date >= $2 AND date < $3
		GROUP BY payment_mode
		ORDER BY SUM(amount_paid) DESC
	`
	rows, err := r.db.Query(ctx, query, issuerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to compute payment modes: %w", err)
	}
	defer rows.Close()

	out := []models.PaymentModeStat{}
	for rows.Next() {
		var p models.PaymentModeStat
		if err := rows.Scan(&p.Mode, &p.Amount, &p.Count); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *reportRepo) TopCustomers(ctx context.Context, issuerID uuid.UUID, start, end time.Time, limit int) ([]models.TopCustomer, error) {
	query := `
		SELECT c.id, c.name, c.gst_number, COALESCE(SUM(i.total), 0) AS total_amount, COUNT(i.id)
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.issuer_id = $1 AND i.status = 'paid' AND i.created_at >= $2 AND i.created_at < $3
		GROUP BY c.id, c.name, c.gst_number
		ORDER BY total_amount DESC
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, issuerID, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to compute top customers: %w", err)
	}
	defer rows.Close()

	out := []models.TopCustomer{}
	for rows.Next() {
		var c models.TopCustomer
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.GSTNumber, &c.TotalAmount, &c.InvoiceCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CustomerSummaries totals non-cancelled invoices per customer. Paid amounts come
// from recorded payments so partially settled invoices count toward both columns.
func (r *reportRepo) CustomerSummaries(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.CustomerSummary, error) {
	query := `
		WITH paid AS (
			SELECT invoice_id, SUM(amount_paid) AS amount
			FROM payments
			WHERE issuer_id = $1 AND status = 'completed'
			GROUP BY invoice_id
		)
		SELECT c.id, c.name, c.gst_number, COUNT(i.id),
			COALESCE(SUM(i.total), 0) AS total_amount,
			COALESCE(SUM(CASE WHEN i.status = 'paid' THEN i.total ELSE LEAST(COALESCE(p.amount, 0), i.total) END), 0),
			COALESCE(SUM(CASE WHEN i.status IN ('sent', 'overdue') THEN GREATEST(i.total - COALESCE(p.amount, 0), 0) ELSE 0 END), 0)
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		LEFT JOIN paid p ON p.invoice_id = i.id
		WHERE i.issuer_id = $1 AND i.status <> 'cancelled' AND i.created_at >= $2 AND i.created_at < $3
		GROUP BY c.id, c.name, c.gst_number
		ORDER BY total_amount DESC, c.name
	`
	rows, err := r.db.Query(ctx, query, issuerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to compute customer summaries: %w", err)
	}
	defer rows.Close()

	out := []models.CustomerSummary{}
	for rows.Next() {
		var c models.CustomerSummary
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.GSTNumber, &c.InvoiceCount,
			&c.TotalAmount, &c.TotalPaid, &c.TotalPending); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GSTSummary groups non-cancelled invoices by place of supply.
func (r *reportRepo) GSTSummary(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.GSTReportRow, error) {
	query := `
		SELECT place_of_supply, COUNT(*), COALESCE(SUM(subtotal), 0), COALESCE(SUM(total_cgst), 0),
			COALESCE(SUM(total_sgst), 0), COALESCE(SUM(total_igst), 0)
		FROM invoices
		WHERE issuer_id = $1 AND status <> 'cancelled' AND created_at >= $2 AND created_at < $3
		GROUP BY place_of_supply
		ORDER BY place_of_supply
	`
	rows, err := r.db.Query(ctx, query, issuerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to compute GST summary: %w", err)
	}
	defer rows.Close()

	out := []models.GSTReportRow{}
	for rows.Next() {
		var g models.GSTReportRow
		if err := rows.Scan(&g.PlaceOfSupply, &g.InvoiceCount, &g.TaxableValue, &g.TotalCGST, &g.TotalSGST, &g.TotalIGST); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *reportRepo) InvoiceExportRows(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.InvoiceExportRow, error) {
	query := `
		SELECT i.number, i.created_at, c.name, c.gst_number, i.place_of_supply, i.subtotal,
			i.total_cgst, i.total_sgst, i.total_igst, i.total, i.status, u.name, s.tax_id
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		JOIN users u ON u.id = i.created_by
		JOIN issuers s ON s.id = i.issuer_id
		WHERE i.issuer_id = $1 AND i.created_at >= $2 AND i.created_at < $3
		ORDER BY i.created_at
	`
	rows, err := r.db.Query(ctx, query, issuerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices for export: %w", err)
	}
	defer rows.Close()

	out := []models.InvoiceExportRow{}
	for rows.Next() {
		var e models.InvoiceExportRow
		if err := rows.Scan(&e.Number, &e.CreatedAt, &e.CustomerName, &e.CustomerGST, &e.PlaceOfSupply, &e.Subtotal,
			&e.TotalCGST, &e.TotalSGST, &e.TotalIGST, &e.GrandTotal, &e.Status, &e.CreatedByName, &e.IssuerTaxID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *reportRepo) DashboardTotals(ctx context.Context, issuerID uuid.UUID, since time.Time) (*models.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM invoices WHERE issuer_id = $1 AND created_at >= $2),
			(SELECT COUNT(*) FROM quotations WHERE issuer_id = $1 AND created_at >= $2),
			(SELECT COUNT(*) FROM challans WHERE issuer_id = $1 AND created_at >= $2),
			COALESCE(SUM(total) FILTER (WHERE status <> 'cancelled'), 0),
			COALESCE(SUM(total) FILTER (WHERE status = 'paid'), 0),
			COALESCE(SUM(total) FILTER (WHERE status IN ('draft', 'sent')), 0),
			COALESCE(SUM(total) FILTER (WHERE status = 'overdue'), 0)
		FROM invoices
		WHERE issuer_id = $1 AND created_at >= $2
	`
	s := &models.DashboardStats{}
	err := r.db.QueryRow(ctx, query, issuerID, since).Scan(
		&s.TotalInvoices, &s.TotalQuotations, &s.TotalChallans,
		&s.TotalRevenue, &s.TotalPaid, &s.TotalPending, &s.TotalOverdue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard totals: %w", err)
	}
	return s, nil
}

// RecentDocuments lists the newest documents of one type with the customer name.
// Challans carry no money total and report zero.
func (r *reportRepo) RecentDocuments(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, since time.Time, limit int) ([]models.RecentDocument, error) {
	table, ok := documentTables[docType]
	if !ok {
		return nil, fmt.Errorf("unknown document type %q", docType)
	}
	total := "d.total"
	if docType == models.DocumentTypeChallan {
		total = "0::numeric"
	}

	query := fmt.Sprintf(`
		SELECT d.id, d.number, c.name, d.status, %s, d.created_at
		FROM %s d
		JOIN customers c ON c.id = d.customer_id
		WHERE d.issuer_id = $1 AND d.created_at >= $2
		ORDER BY d.created_at DESC
		LIMIT $3
	`, total, table)
	rows, err := r.db.Query(ctx, query, issuerID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent %s documents: %w", docType, err)
	}
	defer rows.Close()

	out := []models.RecentDocument{}
	for rows.Next() {
		var d models.RecentDocument
		if err := rows.Scan(&d.ID, &d.Number, &d.CustomerName, &d.Status, &d.Total, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
