package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gstbill/internal/common"
	"gstbill/internal/handlers"
	"gstbill/internal/middleware"
	"gstbill/internal/models"
)

type limitedCache struct {
	mock.Mock
}

func (m *limitedCache) GetDashboard(ctx context.Context, issuerID uuid.UUID) (*models.DashboardStats, error) {
	panic("not used")
}

func (m *limitedCache) SetDashboard(ctx context.Context, issuerID uuid.UUID, stats *models.DashboardStats, ttl time.Duration) error {
	panic("not used")
}

func (m *limitedCache) InvalidateDashboard(ctx context.Context, issuerID uuid.UUID) error {
	panic("not used")
}

func (m *limitedCache) InvalidateIssuerCache(ctx context.Context, issuerID uuid.UUID) error {
	panic("not used")
}

func (m *limitedCache) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *limitedCache) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	panic("not used")
}

func (m *limitedCache) GetString(ctx context.Context, key string) (string, error) {
	panic("not used")
}

func (m *limitedCache) Delete(ctx context.Context, key string) error {
	panic("not used")
}

func (m *limitedCache) Ping(ctx context.Context) error {
	panic("not used")
}

func (m *limitedCache) Close() error {
	panic("not used")
}

func TestAuthRoutes_OnlyCredentialEndpointsUseAuthLimit(t *testing.T) {
	cache := &limitedCache{}
	cache.On("IsRateLimited", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, middleware.AuthRateLimit.Name+":")
	}), middleware.AuthRateLimit.Limit, middleware.AuthRateLimit.Window).Return(true, nil)

	e := echo.New()
	e.HTTPErrorHandler = common.HTTPErrorHandler
	e.Validator = common.NewRequestValidator()
	registerAuthRoutes(e.Group("/v1"), handlers.NewAuthHandlers(nil), middleware.NewRateLimiter(cache))

	tests := []struct {
		path   string
		status int
	}{
		{"/v1/auth/signup", http.StatusTooManyRequests},
		{"/v1/auth/login", http.StatusTooManyRequests},
		{"/v1/auth/refresh", http.StatusBadRequest},
		{"/v1/auth/logout", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(`{}`))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
	cache.AssertNumberOfCalls(t, "IsRateLimited", 2)
}
