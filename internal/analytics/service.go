package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gstbill/internal/caching"
	"gstbill/internal/models"
	"gstbill/internal/repositories"
)

// RecentLimit is the number of recent documents of each kind shown on the dashboard.
const RecentLimit = 5

// AnalyticsService handles calculation and caching of dashboard data
type AnalyticsService struct {
	reports      repositories.ReportRepository
	cacheService caching.CacheService
	cacheTTL     time.Duration
	now          func() time.Time
}

func NewAnalyticsService(reports repositories.ReportRepository, cacheService caching.CacheService, cacheTTL time.Duration) *AnalyticsService {
	return &AnalyticsService{
		reports:      reports,
		cacheService: cacheService,
		cacheTTL:     cacheTTL,
		now:          time.Now,
	}
}

// Dashboard returns the cached snapshot for an issuer, computing and caching it on a miss.
// Cache failures fall back to a fresh calculation.
func (a *AnalyticsService) Dashboard(ctx context.Context, issuerID uuid.UUID) (*models.DashboardStats, error) {
	cached, err := a.cacheService.GetDashboard(ctx, issuerID)
	if err != nil {
		log.Warn().Err(err).Str("issuer_id", issuerID.String()).Msg("dashboard cache read failed")
	}
	if cached != nil {
		return cached, nil
	}
	return a.RefreshDashboard(ctx, issuerID)
}

// RefreshDashboard recalculates the snapshot and replaces the cached copy.
func (a *AnalyticsService) RefreshDashboard(ctx context.Context, issuerID uuid.UUID) (*models.DashboardStats, error) {
	stats, err := a.CalculateDashboard(ctx, issuerID)
	if err != nil {
		return nil, err
	}
	if err := a.cacheService.SetDashboard(ctx, issuerID, stats, a.cacheTTL); err != nil {
		log.Warn().Err(err).Str("issuer_id", issuerID.String()).Msg("dashboard cache write failed")
	}
	return stats, nil
}

// CalculateDashboard aggregates the last month of documents for an issuer.
func (a *AnalyticsService) CalculateDashboard(ctx context.Context, issuerID uuid.UUID) (*models.DashboardStats, error) {
	now := a.now()
	since := now.AddDate(0, -1, 0)

	stats, err := a.reports.DashboardTotals(ctx, issuerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard totals: %w", err)
	}

	recent := []struct {
		docType models.DocumentType
		dest    *[]models.RecentDocument
	}{
		{models.DocumentTypeInvoice, &stats.RecentInvoices},
		{models.DocumentTypeQuotation, &stats.RecentQuotations},
		{models.DocumentTypeChallan, &stats.RecentChallans},
	}
	for _, r := range recent {
		docs, err := a.reports.RecentDocuments(ctx, issuerID, r.docType, since, RecentLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load recent %ss: %w", r.docType, err)
		}
		if docs == nil {
			docs = []models.RecentDocument{}
		}
		*r.dest = docs
	}

	stats.GeneratedAt = now
	return stats, nil
}
