package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "cash"
	PaymentModeCheque       PaymentMode = "cheque"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
	PaymentModeUPI          PaymentMode = "upi"
	PaymentModeOther        PaymentMode = "other"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

type Payment struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	IssuerID        uuid.UUID       `json:"issuer_id" db:"issuer_id"`
	CustomerID      uuid.UUID       `json:"customer_id" db:"customer_id"`
	InvoiceID       uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	AmountPaid      decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	PaymentMode     PaymentMode     `json:"payment_mode" db:"payment_mode"`
	ReferenceNumber *string         `json:"reference_number,omitempty" db:"reference_number"`
	Date            time.Time       `json:"date" db:"date"`
	Notes           *string         `json:"notes,omitempty" db:"notes"`
	Status          string          `json:"status" db:"status"`
	CreatedBy       uuid.UUID       `json:"created_by" db:"created_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// ValidPaymentMode reports whether mode is one of the accepted payment modes.
func ValidPaymentMode(mode PaymentMode) bool {
	switch mode {
	case PaymentModeCash, PaymentModeCheque, PaymentModeBankTransfer, PaymentModeUPI, PaymentModeOther:
		return true
	}
	return false
}
