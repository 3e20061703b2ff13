package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"gstbill/internal/models"
	"gstbill/internal/repositories"
)

const exportSheet = "Invoices"

var exportHeaders = []string{
	"Invoice Number", "Date", "Customer Name", "Customer GST", "Place of Supply",
	"Subtotal", "CGST", "SGST", "IGST", "Total", "Status", "Created By", "Company GSTIN",
}

// Money columns F through J are summed in the totals row.
const (
	firstMoneyCol = 6
	lastMoneyCol  = 10
)

type InvoiceExporter struct {
	reports repositories.ReportRepository
}

type ExportResult struct {
	FileName        string
	Content         []byte
	RecordsExported int
}

func NewInvoiceExporter(reports repositories.ReportRepository) *InvoiceExporter {
	return &InvoiceExporter{reports: reports}
}

// ExportInvoices writes every invoice created in [start, end) to an xlsx workbook.
func (e *InvoiceExporter) ExportInvoices(ctx context.Context, issuerID uuid.UUID, start, end time.Time) (*ExportResult, error) {
	rows, err := e.reports.InvoiceExportRows(ctx, issuerID, start, end)
	if err != nil {
		return nil, err
	}

	content, err := BuildInvoiceWorkbook(rows)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("issuer_id", issuerID.String()).
		Int("rows", len(rows)).
		Msg("invoice export generated")

	return &ExportResult{
		FileName:        fmt.Sprintf("invoices_%s_%s.xlsx", start.Format("2006-01-02"), end.Format("2006-01-02")),
		Content:         content,
		RecordsExported: len(rows),
	}, nil
}

// BuildInvoiceWorkbook lays out one row per invoice under a bold header, followed by
// a totals row with SUM formulas over the money columns.
func BuildInvoiceWorkbook(rows []models.InvoiceExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("export: header style: %w", err)
	}
	moneyFmt := "#,##0.00"
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, fmt.Errorf("export: number style: %w", err)
	}

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheet, "A1", lastHeader, bold); err != nil {
		return nil, err
	}

	for i, row := range rows {
		r := i + 2
		values := []any{
			row.Number,
			row.CreatedAt.Format("2006-01-02"),
			row.CustomerName,
			row.CustomerGST,
			row.PlaceOfSupply,
			row.Subtotal.InexactFloat64(),
			row.TotalCGST.InexactFloat64(),
			row.TotalSGST.InexactFloat64(),
			row.TotalIGST.InexactFloat64(),
			row.GrandTotal.InexactFloat64(),
			row.Status,
			row.CreatedByName,
			row.IssuerTaxID,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	totalsRow := len(rows) + 2
	labelCell, _ := excelize.CoordinatesToCellName(firstMoneyCol-1, totalsRow)
	if err := f.SetCellValue(exportSheet, labelCell, "Total"); err != nil {
		return nil, err
	}
	for c := firstMoneyCol; c <= lastMoneyCol; c++ {
		col, _ := excelize.ColumnNumberToName(c)
		cell := fmt.Sprintf("%s%d", col, totalsRow)
		formula := fmt.Sprintf("SUM(%s2:%s%d)", col, col, max(totalsRow-1, 2))
		if err := f.SetCellFormula(exportSheet, cell, formula); err != nil {
			return nil, err
		}
	}

	firstMoney, _ := excelize.CoordinatesToCellName(firstMoneyCol, 2)
	lastMoney, _ := excelize.CoordinatesToCellName(lastMoneyCol, totalsRow)
	if err := f.SetCellStyle(exportSheet, firstMoney, lastMoney, money); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, labelCell, labelCell, bold); err != nil {
		return nil, err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	if err := f.SetColWidth(exportSheet, "A", lastCol, 18); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
