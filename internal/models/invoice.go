package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusDraft     DocumentStatus = "draft"
	InvoiceStatusSent      DocumentStatus = "sent"
	InvoiceStatusPaid      DocumentStatus = "paid"
	InvoiceStatusOverdue   DocumentStatus = "overdue"
	InvoiceStatusCancelled DocumentStatus = "cancelled"
)

type Invoice struct {
	Document
	Status            DocumentStatus `json:"status" db:"status"`
	DueDate           time.Time      `json:"due_date" db:"due_date"`
	PaymentTerms      *string        `json:"payment_terms,omitempty" db:"payment_terms"`
	TransportMode     *string        `json:"transport_mode,omitempty" db:"transport_mode"`
	VehicleNumber     *string        `json:"vehicle_number,omitempty" db:"vehicle_number"`
	EWayBillNumber    *string        `json:"eway_bill_number,omitempty" db:"eway_bill_number"`
	SourceQuotationID *uuid.UUID     `json:"source_quotation_id,omitempty" db:"source_quotation_id"`
}

// InvoiceStats summarises invoice value by status over a period.
type InvoiceStats struct {
	TotalInvoices int             `json:"total_invoices"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalPending  decimal.Decimal `json:"total_pending"`
	TotalOverdue  decimal.Decimal `json:"total_overdue"`
	Monthly       []MonthlyTotal  `json:"monthly"`
}

type MonthlyTotal struct {
	Month int             `json:"month"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}
