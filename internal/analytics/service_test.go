package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gstbill/internal/models"
)

type mockReports struct {
	mock.Mock
}

func (m *mockReports) RevenueSummary(ctx context.Context, issuerID uuid.UUID, start, end time.Time) (*models.RevenueSummary, error) {
	panic("not used")
}

func (m *mockReports) DailyRevenue(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.DailyRevenue, error) {
	panic("not used")
}

func (m *mockReports) PaymentModes(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.PaymentModeStat, error) {
	panic("not used")
}

func (m *mockReports) TopCustomers(ctx context.Context, issuerID uuid.UUID, start, end time.Time, limit int) ([]models.TopCustomer, error) {
	panic("not used")
}

func (m *mockReports) CustomerSummaries(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.CustomerSummary, error) {
	panic("not used")
}

func (m *mockReports) GSTSummary(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.GSTReportRow, error) {
	panic("not used")
}

func (m *mockReports) InvoiceExportRows(ctx context.Context, issuerID uuid.UUID, start, end time.Time) ([]models.InvoiceExportRow, error) {
	panic("not used")
}

func (m *mockReports) DashboardTotals(ctx context.Context, issuerID uuid.UUID, since time.Time) (*models.DashboardStats, error) {
	args := m.Called(ctx, issuerID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *mockReports) RecentDocuments(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, since time.Time, limit int) ([]models.RecentDocument, error) {
	args := m.Called(ctx, issuerID, docType, since, limit)
	return args.Get(0).([]models.RecentDocument), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetDashboard(ctx context.Context, issuerID uuid.UUID) (*models.DashboardStats, error) {
	args := m.Called(ctx, issuerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *mockCache) SetDashboard(ctx context.Context, issuerID uuid.UUID, stats *models.DashboardStats, ttl time.Duration) error {
	return m.Called(ctx, issuerID, stats, ttl).Error(0)
}

func (m *mockCache) InvalidateDashboard(ctx context.Context, issuerID uuid.UUID) error {
	return m.Called(ctx, issuerID).Error(0)
}

func (m *mockCache) InvalidateIssuerCache(ctx context.Context, issuerID uuid.UUID) error {
	return m.Called(ctx, issuerID).Error(0)
}

func (m *mockCache) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockCache) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockCache) Close() error {
	return m.Called().Error(0)
}

var now = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func newTestService() (*AnalyticsService, *mockReports, *mockCache) {
	reports := &mockReports{}
	cache := &mockCache{}
	svc := NewAnalyticsService(reports, cache, 5*time.Minute)
	svc.now = func() time.Time { return now }
	return svc, reports, cache
}

func TestDashboard_CacheHit(t *testing.T) {
	svc, reports, cache := newTestService()
	issuerID := uuid.New()
	cached := &models.DashboardStats{TotalInvoices: 7}
	cache.On("GetDashboard", mock.Anything, issuerID).Return(cached, nil)

	stats, err := svc.Dashboard(context.Background(), issuerID)

	require.NoError(t, err)
	assert.Same(t, cached, stats)
	reports.AssertNotCalled(t, "DashboardTotals", mock.Anything, mock.Anything, mock.Anything)
}

func TestDashboard_MissCalculatesAndCaches(t *testing.T) {
	svc, reports, cache := newTestService()
	issuerID := uuid.New()
	since := now.AddDate(0, -1, 0)
	recent := []models.RecentDocument{{ID: uuid.New(), Number: "INV/27AAPFU0939F1ZV/2024/0001", Total: decimal.NewFromInt(118)}}

	cache.On("GetDashboard", mock.Anything, issuerID).Return(nil, nil)
	reports.On("DashboardTotals", mock.Anything, issuerID, since).
		Return(&models.DashboardStats{TotalInvoices: 1, TotalRevenue: decimal.NewFromInt(118)}, nil)
	reports.On("RecentDocuments", mock.Anything, issuerID, models.DocumentTypeInvoice, since, RecentLimit).Return(recent, nil)
	reports.On("RecentDocuments", mock.Anything, issuerID, models.DocumentTypeQuotation, since, RecentLimit).Return([]models.RecentDocument(nil), nil)
	reports.On("RecentDocuments", mock.Anything, issuerID, models.DocumentTypeChallan, since, RecentLimit).Return([]models.RecentDocument(nil), nil)
	cache.On("SetDashboard", mock.Anything, issuerID, mock.AnythingOfType("*models.DashboardStats"), 5*time.Minute).Return(nil)

	stats, err := svc.Dashboard(context.Background(), issuerID)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalInvoices)
	assert.Len(t, stats.RecentInvoices, 1)
	assert.NotNil(t, stats.RecentQuotations)
	assert.Empty(t, stats.RecentChallans)
	assert.Equal(t, now, stats.GeneratedAt)
	reports.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestDashboard_CacheErrorsDoNotFailRequest(t *testing.T) {
	svc, reports, cache := newTestService()
	issuerID := uuid.New()

	cache.On("GetDashboard", mock.Anything, issuerID).Return(nil, errors.New("redis unavailable"))
	reports.On("DashboardTotals", mock.Anything, issuerID, mock.Anything).Return(&models.DashboardStats{}, nil)
	reports.On("RecentDocuments", mock.Anything, issuerID, mock.Anything, mock.Anything, RecentLimit).Return([]models.RecentDocument{}, nil)
	cache.On("SetDashboard", mock.Anything, issuerID, mock.Anything, mock.Anything).Return(errors.New("redis unavailable"))

	stats, err := svc.Dashboard(context.Background(), issuerID)

	require.NoError(t, err)
	assert.NotNil(t, stats)
}

func TestCalculateDashboard_TotalsError(t *testing.T) {
	svc, reports, _ := newTestService()
	issuerID := uuid.New()
	reports.On("DashboardTotals", mock.Anything, issuerID, mock.Anything).Return(nil, errors.New("timeout"))

	_, err := svc.CalculateDashboard(context.Background(), issuerID)

	assert.ErrorContains(t, err, "dashboard totals")
}
