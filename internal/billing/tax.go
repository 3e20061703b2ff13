// Package billing holds the GST arithmetic, document numbering and status
// machines shared by invoices, quotations and challans. It does no I/O.
package billing

import (
	"strings"

	"github.com/shopspring/decimal"

	"gstbill/internal/models"
)

var hundred = decimal.NewFromInt(100)

// CustomerState returns the state component of an address: the text after the last comma, trimmed.
func CustomerState(address string) string {
	idx := strings.LastIndex(address, ",")
	if idx < 0 {
		return strings.TrimSpace(address)
	}
	return strings.TrimSpace(address[idx+1:])
}

// IsIntraState reports whether CGST+SGST applies. The comparison is exact and case-sensitive.
func IsIntraState(placeOfSupply, customerState string) bool {
	return placeOfSupply == customerState
}

// ComputeLineTax recomputes the line amount and fills the tax components for one regime.
// Rates are taken from the input; the opposite regime is zeroed.
func ComputeLineTax(item models.LineItem, placeOfSupply, customerState string) models.LineItem {
	item.Amount = item.Quantity.Mul(item.Price)

	if IsIntraState(placeOfSupply, customerState) {
		item.CGST.Amount = item.Amount.Mul(item.CGST.Rate).Div(hundred)
		item.SGST.Amount = item.Amount.Mul(item.SGST.Rate).Div(hundred)
		item.IGST = models.TaxComponent{Rate: decimal.Zero, Amount: decimal.Zero}
		return item
	}

	item.IGST.Amount = item.Amount.Mul(item.IGST.Rate).Div(hundred)
	item.CGST = models.TaxComponent{Rate: decimal.Zero, Amount: decimal.Zero}
	item.SGST = models.TaxComponent{Rate: decimal.Zero, Amount: decimal.Zero}
	return item
}

// ComputeItems applies ComputeLineTax to every line, returning a new slice.
func ComputeItems(items []models.LineItem, placeOfSupply, customerState string) []models.LineItem {
	out := make([]models.LineItem, len(items))
	for i, item := range items {
		out[i] = ComputeLineTax(item, placeOfSupply, customerState)
	}
	return out
}
