package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	QuotationStatusDraft    DocumentStatus = "draft"
	QuotationStatusSent     DocumentStatus = "sent"
	QuotationStatusAccepted DocumentStatus = "accepted"
	QuotationStatusRejected DocumentStatus = "rejected"
	QuotationStatusExpired  DocumentStatus = "expired"
)

type Quotation struct {
	Document
	Status             DocumentStatus `json:"status" db:"status"`
	ValidUntil         time.Time      `json:"valid_until" db:"valid_until"`
	TermsAndConditions *string        `json:"terms_and_conditions,omitempty" db:"terms_and_conditions"`
	ConvertedToInvoice bool           `json:"converted_to_invoice" db:"converted_to_invoice"`
	ConvertedInvoiceID *uuid.UUID     `json:"converted_invoice_id,omitempty" db:"converted_invoice_id"`
}
