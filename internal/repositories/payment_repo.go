package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"gstbill/internal/models"
)

type PaymentRepository interface {
	// CreateAndSettle records the payment and marks the invoice paid once completed
	// payments cover grandTotal. It reports whether the invoice was settled.
	CreateAndSettle(ctx context.Context, payment *models.Payment, grandTotal decimal.Decimal) (bool, error)
	List(ctx context.Context, issuerID uuid.UUID, customerID *uuid.UUID, limit, offset int) ([]*models.Payment, int, error)
	TotalPaid(ctx context.Context, issuerID, invoiceID uuid.UUID) (decimal.Decimal, error)
}

type paymentRepo struct {
	db DBTX
}

func NewPaymentRepo(db DBTX) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) CreateAndSettle(ctx context.Context, payment *models.Payment, grandTotal decimal.Decimal) (bool, error) {
	settled := false
	err := WithTx(ctx, r.db, func(tx pgx.Tx) error {
		insert := `
			INSERT INTO payments (id, issuer_id, customer_id, invoice_id, amount_paid, payment_mode, reference_number, date, notes, status, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		`
		_, err := tx.Exec(ctx, insert, payment.ID, payment.IssuerID, payment.CustomerID, payment.InvoiceID,
			payment.AmountPaid, payment.PaymentMode, payment.ReferenceNumber, payment.Date, payment.Notes,
			payment.Status, payment.CreatedBy)
		if err != nil {
			return translateError(err, "payment", payment.ID.String())
		}

		paid, err := NewPaymentRepo(tx).TotalPaid(ctx, payment.IssuerID, payment.InvoiceID)
		if err != nil {
			return err
		}
		if paid.LessThan(grandTotal) {
			return nil
		}

		settle := `
			UPDATE invoices
			SET status = 'paid', updated_at = NOW()
			WHERE issuer_id = $1 AND id = $2 AND status IN ('sent', 'overdue')
		`
		tag, err := tx.Exec(ctx, settle, payment.IssuerID, payment.InvoiceID)
		if err != nil {
			return fmt.Errorf("failed to settle invoice: %w", err)
		}
		settled = tag.RowsAffected() > 0
		return nil
	})
	return settled, err
}

func (r *paymentRepo) TotalPaid(ctx context.Context, issuerID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount_paid), 0)
		FROM payments
		WHERE issuer_id = $1 AND invoice_id = $2 AND status = 'completed'
	`
	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, query, issuerID, invoiceID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments: %w", err)
	}
	return total, nil
}

func (r *paymentRepo) List(ctx context.Context, issuerID uuid.UUID, customerID *uuid.UUID, limit, offset int) ([]*models.Payment, int, error) {
	fb := newFilterBuilder("issuer_id = $1", issuerID)
	if customerID != nil {
		fb.add("customer_id = $%d", *customerID)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+fb.clause(), fb.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	query := `
		SELECT id, issuer_id, customer_id, invoice_id, amount_paid, payment_mode, reference_number, date, notes, status, created_by, created_at
		FROM payments` + fb.clause() + ` ORDER BY date DESC, created_at DESC` + fb.page(limit, offset)
	rows, err := r.db.Query(ctx, query, fb.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.IssuerID, &p.CustomerID, &p.InvoiceID, &p.AmountPaid, &p.PaymentMode,
			&p.ReferenceNumber, &p.Date, &p.Notes, &p.Status, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		payments = append(payments, p)
	}
	return payments, total, rows.Err()
}
