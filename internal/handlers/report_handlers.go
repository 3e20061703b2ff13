package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"gstbill/internal/common"
	"gstbill/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandlers handles revenue, GST and export reports
type ReportHandlers struct {
	reportService services.ReportService
}

func NewReportHandlers(reportService services.ReportService) *ReportHandlers {
	return &ReportHandlers{reportService: reportService}
}

// MonthlyRevenue handles GET /reports/monthly-revenue?year=&month=
func (h *ReportHandlers) MonthlyRevenue(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil {
		return common.NewValidationError("year", "must be an integer")
	}
	month, err := strconv.Atoi(c.QueryParam("month"))
	if err != nil {
		return common.NewValidationError("month", "must be an integer")
	}

	report, err := h.reportService.MonthlyRevenue(c.Request().Context(), actor, year, month)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// GSTReport handles GET /reports/gst?start_date=&end_date=
func (h *ReportHandlers) GSTReport(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	start, end, err := requiredRange(c)
	if err != nil {
		return err
	}

	report, err := h.reportService.GSTReport(c.Request().Context(), actor, start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// CustomerReport handles GET /reports/customers?start_date=&end_date=
func (h *ReportHandlers) CustomerReport(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	start, end, err := requiredRange(c)
	if err != nil {
		return err
	}

	report, err := h.reportService.CustomerReport(c.Request().Context(), actor, start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// ExportInvoices handles GET /reports/invoices/export and streams an xlsx workbook.
func (h *ReportHandlers) ExportInvoices(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	start, end, err := requiredRange(c)
	if err != nil {
		return err
	}

	result, err := h.reportService.ExportInvoices(c.Request().Context(), actor, start, end)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Response().Header().Set("X-Records-Exported", strconv.Itoa(result.RecordsExported))
	return c.Blob(http.StatusOK, xlsxContentType, result.Content)
}
