package services

import (
	"context"
	"time"

	"gstbill/internal/billing"
	"gstbill/internal/common"
	"gstbill/internal/jobs"
	"gstbill/internal/models"
	"gstbill/internal/repositories"
)

const topCustomerLimit = 5

// ReportService builds issuer-wide financial reports. Plain users have no access.
type ReportService interface {
	MonthlyRevenue(ctx context.Context, actor models.Actor, year, month int) (*models.MonthlyRevenueReport, error)
	GSTReport(ctx context.Context, actor models.Actor, start, end time.Time) (*models.GSTReport, error)
	CustomerReport(ctx context.Context, actor models.Actor, start, end time.Time) (*models.CustomerReport, error)
	ExportInvoices(ctx context.Context, actor models.Actor, start, end time.Time) (*jobs.ExportResult, error)
}

type reportService struct {
	reports  repositories.ReportRepository
	exporter *jobs.InvoiceExporter
}

func NewReportService(reports repositories.ReportRepository, exporter *jobs.InvoiceExporter) ReportService {
	return &reportService{reports: reports, exporter: exporter}
}

func authorizeReports(actor models.Actor) error {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleManager {
		return &common.AuthorizationError{Action: "view reports"}
	}
	return nil
}

// MonthRange returns the half-open interval covering one calendar month in UTC.
func MonthRange(year, month int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, common.NewValidationError("month", "must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return time.Time{}, time.Time{}, common.NewValidationError("year", "must be between 2000 and 2100")
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

func (s *reportService) MonthlyRevenue(ctx context.Context, actor models.Actor, year, month int) (*models.MonthlyRevenueReport, error) {
	if err := authorizeReports(actor); err != nil {
		return nil, err
	}
	start, end, err := MonthRange(year, month)
	if err != nil {
		return nil, err
	}

	summary, err := s.reports.RevenueSummary(ctx, actor.IssuerID, start, end)
	if err != nil {
		return nil, err
	}
	daily, err := s.reports.DailyRevenue(ctx, actor.IssuerID, start, end)
	if err != nil {
		return nil, err
	}
	modes, err := s.reports.PaymentModes(ctx, actor.IssuerID, start, end)
	if err != nil {
		return nil, err
	}
	top, err := s.reports.TopCustomers(ctx, actor.IssuerID, start, end, topCustomerLimit)
	if err != nil {
		return nil, err
	}

	return &models.MonthlyRevenueReport{
		Year:         year,
		Month:        month,
		Summary:      *summary,
		DailyRevenue: daily,
		PaymentModes: modes,
		TopCustomers: top,
	}, nil
}

func (s *reportService) GSTReport(ctx context.Context, actor models.Actor, start, end time.Time) (*models.GSTReport, error) {
	if err := authorizeReports(actor); err != nil {
		return nil, err
	}
	if err := common.ValidateDateRange(start, end); err != nil {
		return nil, err
	}

	rows, err := s.reports.GSTSummary(ctx, actor.IssuerID, start, end)
	if err != nil {
		return nil, err
	}
	var heads models.Totals
	for _, row := range rows {
		heads.TotalCGST = heads.TotalCGST.Add(row.TotalCGST)
		heads.TotalSGST = heads.TotalSGST.Add(row.TotalSGST)
		heads.TotalIGST = heads.TotalIGST.Add(row.TotalIGST)
	}
	return &models.GSTReport{StartDate: start, EndDate: end, Rows: rows, TotalTax: billing.TotalTax(heads)}, nil
}

func (s *reportService) CustomerReport(ctx context.Context, actor models.Actor, start, end time.Time) (*models.CustomerReport, error) {
	if err := authorizeReports(actor); err != nil {
		return nil, err
	}
	if err := common.ValidateDateRange(start, end); err != nil {
		return nil, err
	}

	customers, err := s.reports.CustomerSummaries(ctx, actor.IssuerID, start, end)
	if err != nil {
		return nil, err
	}
	return &models.CustomerReport{StartDate: start, EndDate: end, Customers: customers}, nil
}

func (s *reportService) ExportInvoices(ctx context.Context, actor models.Actor, start, end time.Time) (*jobs.ExportResult, error) {
	if err := authorizeReports(actor); err != nil {
		return nil, err
	}
	if err := common.ValidateDateRange(start, end); err != nil {
		return nil, err
	}
	return s.exporter.ExportInvoices(ctx, actor.IssuerID, start, end)
}
