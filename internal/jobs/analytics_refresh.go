package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gstbill/internal/models"
	"gstbill/internal/repositories"
)

// DashboardRefresher is the part of the analytics service the refresh job drives.
type DashboardRefresher interface {
	RefreshDashboard(ctx context.Context, issuerID uuid.UUID) (*models.DashboardStats, error)
}

type AnalyticsRefreshService struct {
	analyticsService DashboardRefresher
	issuers          repositories.IssuerRepository
}

type AnalyticsRefreshResult struct {
	IssuersProcessed int
	IssuersFailed    int
	LastRefreshAt    time.Time
}

func NewAnalyticsRefreshService(analyticsService DashboardRefresher, issuers repositories.IssuerRepository) *AnalyticsRefreshService {
	return &AnalyticsRefreshService{
		analyticsService: analyticsService,
		issuers:          issuers,
	}
}

func (a *AnalyticsRefreshService) RefreshAnalyticsForIssuer(ctx context.Context, issuerID uuid.UUID) error {
	stats, err := a.analyticsService.RefreshDashboard(ctx, issuerID)
	if err != nil {
		log.Error().Err(err).Str("issuer_id", issuerID.String()).Msg("failed to refresh dashboard")
		return err
	}

	log.Debug().
		Str("issuer_id", issuerID.String()).
		Int("invoices", stats.TotalInvoices).
		Str("revenue", stats.TotalRevenue.StringFixed(2)).
		Msg("dashboard refreshed")
	return nil
}

// RefreshAllIssuersAnalytics refreshes every issuer's dashboard. One issuer failing
// does not stop the others.
func (a *AnalyticsRefreshService) RefreshAllIssuersAnalytics(ctx context.Context) (*AnalyticsRefreshResult, error) {
	ids, err := a.issuers.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	result := &AnalyticsRefreshResult{}
	for _, id := range ids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if err := a.RefreshAnalyticsForIssuer(ctx, id); err != nil {
			result.IssuersFailed++
			continue
		}
		result.IssuersProcessed++
	}
	result.LastRefreshAt = time.Now()
	return result, nil
}

// Scheduled job for dashboard refresh
func (a *AnalyticsRefreshService) ScheduledAnalyticsRefresh(ctx context.Context) error {
	start := time.Now()

	result, err := a.RefreshAllIssuersAnalytics(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduled dashboard refresh failed")
		return err
	}

	log.Info().
		Int("processed", result.IssuersProcessed).
		Int("failed", result.IssuersFailed).
		Dur("took", time.Since(start)).
		Msg("scheduled dashboard refresh completed")
	return nil
}
