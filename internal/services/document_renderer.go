package services

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"gstbill/internal/billing"
	"gstbill/internal/models"
)

// DocumentRenderer turns documents into printable PDFs.
type DocumentRenderer interface {
	RenderInvoice(invoice *models.Invoice, customer *models.Customer, issuer *models.Issuer) ([]byte, error)
}

type pdfRenderer struct{}

func NewPDFRenderer() DocumentRenderer {
	return &pdfRenderer{}
}

const (
	marginX = 12.0
	marginY = 15.0
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (r *pdfRenderer) RenderInvoice(invoice *models.Invoice, customer *models.Customer, issuer *models.Issuer) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Issuer header
	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 9, tr(issuer.CompanyName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(0, 5, tr(issuer.Address), "", "L", false)
	pdf.CellFormat(0, 5, fmt.Sprintf("GSTIN: %s   Phone: %s", issuer.TaxID, issuer.ContactNumber), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "TAX INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 6, "Invoice No: "+invoice.Number, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+invoice.CreatedAt.Format("02-Jan-2006"), "", 1, "R", false, 0, "")
	pdf.CellFormat(95, 6, "Place of Supply: "+tr(invoice.PlaceOfSupply), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Due Date: "+invoice.DueDate.Format("02-Jan-2006"), "", 1, "R", false, 0, "")
	if invoice.IsReverseCharge {
		pdf.CellFormat(0, 6, "Tax payable on reverse charge: Yes", "", 1, "L", false, 0, "")
	}
	if invoice.EWayBillNumber != nil {
		pdf.CellFormat(0, 6, "E-Way Bill: "+*invoice.EWayBillNumber, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// Bill to
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "BILL TO:", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, tr(customer.Name), "", 1, "L", false, 0, "")
	pdf.MultiCell(0, 5, tr(customer.Address), "", "L", false)
	pdf.CellFormat(0, 5, "GSTIN: "+customer.GSTNumber, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	intra := billing.IsIntraState(invoice.PlaceOfSupply, billing.CustomerState(customer.Address))
	headers := []string{"#", "Description", "HSN", "Qty", "Rate", "Amount", "CGST", "SGST"}
	if !intra {
		headers = []string{"#", "Description", "HSN", "Qty", "Rate", "Amount", "IGST", ""}
	}
	colWidths := []float64{8, 58, 18, 14, 22, 24, 21, 21}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, item := range invoice.Items {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			tr(item.Description),
			item.HSNCode,
			item.Quantity.String(),
			money(item.Price),
			money(item.Amount),
		}
		if intra {
			cells = append(cells,
				fmt.Sprintf("%s (%s%%)", money(item.CGST.Amount), item.CGST.Rate.String()),
				fmt.Sprintf("%s (%s%%)", money(item.SGST.Amount), item.SGST.Rate.String()))
		} else {
			cells = append(cells, fmt.Sprintf("%s (%s%%)", money(item.IGST.Amount), item.IGST.Rate.String()), "")
		}
		for j, cell := range cells {
			align := "R"
			if j == 1 {
				align = "L"
			}
			pdf.CellFormat(colWidths[j], 7, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	totalRow := func(label string, value decimal.Decimal) {
		pdf.CellFormat(144, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(42, 6, money(value), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "", 10)
	totalRow("Subtotal:", invoice.Subtotal)
	if intra {
		totalRow("CGST:", invoice.TotalCGST)
		totalRow("SGST:", invoice.TotalSGST)
	} else {
		totalRow("IGST:", invoice.TotalIGST)
	}
	totalRow("Round Off:", invoice.RoundOff)
	pdf.SetFont("Arial", "B", 11)
	totalRow("TOTAL (Rs.):", invoice.GrandTotal)
	pdf.Ln(6)

	if invoice.Notes != nil || invoice.PaymentTerms != nil {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 6, "Notes:", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		if invoice.PaymentTerms != nil {
			pdf.MultiCell(0, 5, tr("Payment terms: "+*invoice.PaymentTerms), "", "L", false)
		}
		if invoice.Notes != nil {
			pdf.MultiCell(0, 5, tr(*invoice.Notes), "", "L", false)
		}
		pdf.Ln(3)
	}

	bank := issuer.BankDetails
	if bank.AccountNumber != "" {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 6, "Bank Details:", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s  A/C %s  IFSC %s", bank.BankName, bank.AccountNumber, bank.IFSCCode)), "", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 5, "This is a computer generated invoice.", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, tr("For "+issuer.CompanyName), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
