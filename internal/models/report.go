package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RevenueSummary struct {
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TotalCGST           decimal.Decimal `json:"total_cgst"`
	TotalSGST           decimal.Decimal `json:"total_sgst"`
	TotalIGST           decimal.Decimal `json:"total_igst"`
	InvoiceCount        int             `json:"invoice_count"`
	AverageInvoiceValue decimal.Decimal `json:"average_invoice_value"`
}

type DailyRevenue struct {
	Day     int             `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int             `json:"count"`
}

type PaymentModeStat struct {
	Mode   PaymentMode     `json:"mode"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

type TopCustomer struct {
	CustomerID   uuid.UUID       `json:"customer_id"`
	Name         string          `json:"name"`
	GSTNumber    string          `json:"gst_number"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	InvoiceCount int             `json:"invoice_count"`
}

// CustomerSummary is one customer's invoicing position over a period.
// Pending is the unpaid balance of sent and overdue invoices.
type CustomerSummary struct {
	CustomerID   uuid.UUID       `json:"customer_id"`
	Name         string          `json:"name"`
	GSTNumber    string          `json:"gst_number"`
	InvoiceCount int             `json:"invoice_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalPending decimal.Decimal `json:"total_pending"`
}

type CustomerReport struct {
	StartDate time.Time         `json:"start_date"`
	EndDate   time.Time         `json:"end_date"`
	Customers []CustomerSummary `json:"customers"`
}

// MonthlyRevenueReport covers paid invoices created within one calendar month.
type MonthlyRevenueReport struct {
	Year         int               `json:"year"`
	Month        int               `json:"month"`
	Summary      RevenueSummary    `json:"summary"`
	DailyRevenue []DailyRevenue    `json:"daily_revenue"`
	PaymentModes []PaymentModeStat `json:"payment_modes"`
	TopCustomers []TopCustomer     `json:"top_customers"`
}

type GSTReportRow struct {
	PlaceOfSupply string          `json:"place_of_supply"`
	InvoiceCount  int             `json:"invoice_count"`
	TaxableValue  decimal.Decimal `json:"taxable_value"`
	TotalCGST     decimal.Decimal `json:"total_cgst"`
	TotalSGST     decimal.Decimal `json:"total_sgst"`
	TotalIGST     decimal.Decimal `json:"total_igst"`
}

type GSTReport struct {
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	Rows      []GSTReportRow  `json:"rows"`
	TotalTax  decimal.Decimal `json:"total_tax"`
}

// InvoiceExportRow is one invoice flattened with its customer for spreadsheet export.
type InvoiceExportRow struct {
	Number        string          `json:"number"`
	CreatedAt     time.Time       `json:"created_at"`
	CustomerName  string          `json:"customer_name"`
	CustomerGST   string          `json:"customer_gst"`
	PlaceOfSupply string          `json:"place_of_supply"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalCGST     decimal.Decimal `json:"total_cgst"`
	TotalSGST     decimal.Decimal `json:"total_sgst"`
	TotalIGST     decimal.Decimal `json:"total_igst"`
	GrandTotal    decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	CreatedByName string          `json:"created_by_name"`
	IssuerTaxID   string          `json:"issuer_tax_id"`
}

// RecentDocument is the compact form shown on the dashboard.
type RecentDocument struct {
	ID           uuid.UUID       `json:"id"`
	Number       string          `json:"number"`
	CustomerName string          `json:"customer_name"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
}

type DashboardStats struct {
	TotalInvoices    int              `json:"total_invoices"`
	TotalQuotations  int              `json:"total_quotations"`
	TotalChallans    int              `json:"total_challans"`
	TotalRevenue     decimal.Decimal  `json:"total_revenue"`
	TotalPaid        decimal.Decimal  `json:"total_paid"`
	TotalPending     decimal.Decimal  `json:"total_pending"`
	TotalOverdue     decimal.Decimal  `json:"total_overdue"`
	RecentInvoices   []RecentDocument `json:"recent_invoices"`
	RecentQuotations []RecentDocument `json:"recent_quotations"`
	RecentChallans   []RecentDocument `json:"recent_challans"`
	GeneratedAt      time.Time        `json:"generated_at"`
}
