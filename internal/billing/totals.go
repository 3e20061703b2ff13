package billing

import (
	"github.com/shopspring/decimal"

	"gstbill/internal/models"
)

// AggregateTotals sums line amounts and taxes and rounds the grand total half away from zero.
// RoundOff is the signed difference between the rounded and the exact total.
func AggregateTotals(items []models.LineItem) models.Totals {
	t := models.Totals{
		Subtotal:  decimal.Zero,
		TotalCGST: decimal.Zero,
		TotalSGST: decimal.Zero,
		TotalIGST: decimal.Zero,
	}
	for _, item := range items {
		t.Subtotal = t.Subtotal.Add(item.Amount)
		t.TotalCGST = t.TotalCGST.Add(item.CGST.Amount)
		t.TotalSGST = t.TotalSGST.Add(item.SGST.Amount)
		t.TotalIGST = t.TotalIGST.Add(item.IGST.Amount)
	}

	exact := t.Subtotal.Add(t.TotalCGST).Add(t.TotalSGST).Add(t.TotalIGST)
	t.GrandTotal = exact.Round(0)
	t.RoundOff = t.GrandTotal.Sub(exact)
	return t
}

// TotalTax is the sum of the three tax heads.
func TotalTax(t models.Totals) decimal.Decimal {
	return t.TotalCGST.Add(t.TotalSGST).Add(t.TotalIGST)
}
