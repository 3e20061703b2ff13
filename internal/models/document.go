package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType identifies the kind of numbered document an issuer produces.
type DocumentType string

const (
	DocumentTypeInvoice   DocumentType = "invoice"
	DocumentTypeQuotation DocumentType = "quotation"
	DocumentTypeChallan   DocumentType = "challan"
)

// DocumentStatus is the lifecycle state of an invoice, quotation or challan.
type DocumentStatus string

// TaxComponent is one GST head (CGST, SGST or IGST) on a line item.
type TaxComponent struct {
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// LineItem is a single billed row. Amount is always recomputed as Quantity x Price.
type LineItem struct {
	Description string          `json:"description" validate:"required"`
	HSNCode     string          `json:"hsn_code" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Amount      decimal.Decimal `json:"amount"`
	CGST        TaxComponent    `json:"cgst"`
	SGST        TaxComponent    `json:"sgst"`
	IGST        TaxComponent    `json:"igst"`
}

// Totals are the aggregate money fields of a taxed document.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal" db:"subtotal"`
	TotalCGST  decimal.Decimal `json:"total_cgst" db:"total_cgst"`
	TotalSGST  decimal.Decimal `json:"total_sgst" db:"total_sgst"`
	TotalIGST  decimal.Decimal `json:"total_igst" db:"total_igst"`
	RoundOff   decimal.Decimal `json:"round_off" db:"round_off"`
	GrandTotal decimal.Decimal `json:"total" db:"total"`
}

// Document holds the fields shared by invoices and quotations.
type Document struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	IssuerID        uuid.UUID  `json:"issuer_id" db:"issuer_id"`
	CreatedBy       uuid.UUID  `json:"created_by" db:"created_by"`
	CustomerID      uuid.UUID  `json:"customer_id" db:"customer_id"`
	Number          string     `json:"number" db:"number"`
	Department      *string    `json:"department,omitempty" db:"department"`
	Items           []LineItem `json:"items" db:"items"`
	Totals
	PlaceOfSupply   string    `json:"place_of_supply" db:"place_of_supply"`
	IsReverseCharge bool      `json:"is_reverse_charge" db:"is_reverse_charge"`
	Notes           *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// DocumentFilters narrows document listings. Nil fields are ignored.
type DocumentFilters struct {
	Status     *string    `json:"status"`
	CustomerID *uuid.UUID `json:"customer_id"`
	CreatedBy  *uuid.UUID `json:"created_by"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}

// Page is a listing result with the total row count before pagination.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
	TotalPages int `json:"total_pages"`
}

// NewPage builds a Page and derives TotalPages from limit.
func NewPage[T any](items []T, total, limit, offset int) Page[T] {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Limit: limit, Offset: offset, TotalPages: pages}
}
