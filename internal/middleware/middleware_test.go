package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gstbill/internal/common"
	"gstbill/internal/models"
	"gstbill/internal/services"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetDashboard(ctx context.Context, issuerID uuid.UUID) (*models.DashboardStats, error) {
	panic("not used")
}

func (m *mockCache) SetDashboard(ctx context.Context, issuerID uuid.UUID, stats *models.DashboardStats, ttl time.Duration) error {
	panic("not used")
}

func (m *mockCache) InvalidateDashboard(ctx context.Context, issuerID uuid.UUID) error {
	panic("not used")
}

func (m *mockCache) InvalidateIssuerCache(ctx context.Context, issuerID uuid.UUID) error {
	panic("not used")
}

func (m *mockCache) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	panic("not used")
}

func (m *mockCache) GetString(ctx context.Context, key string) (string, error) {
	panic("not used")
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	panic("not used")
}

func (m *mockCache) Ping(ctx context.Context) error {
	panic("not used")
}

func (m *mockCache) Close() error {
	panic("not used")
}

func newContext(e *echo.Echo, actor *models.Actor) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/v1/invoices", nil)
	if actor != nil {
		req = req.WithContext(common.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	guard := RequireRole(models.RoleAdmin, models.RoleManager)(ok)

	manager := &models.Actor{UserID: uuid.New(), IssuerID: uuid.New(), Role: models.RoleManager}
	c, rec := newContext(e, manager)
	require.NoError(t, guard(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	user := &models.Actor{UserID: uuid.New(), IssuerID: uuid.New(), Role: models.RoleUser}
	c, _ = newContext(e, user)
	var authErr *common.AuthorizationError
	assert.ErrorAs(t, guard(c), &authErr)

	c, _ = newContext(e, nil)
	assert.ErrorIs(t, guard(c), common.ErrUnauthenticated)
}

func TestRateLimiter_KeysByUser(t *testing.T) {
	e := echo.New()
	cache := &mockCache{}
	limiter := NewRateLimiter(cache)
	actor := &models.Actor{UserID: uuid.New(), IssuerID: uuid.New(), Role: models.RoleUser}

	cache.On("IsRateLimited", mock.Anything, "pdf:user:"+actor.UserID.String(), 10, 5*time.Minute).Return(true, nil).Once()

	c, _ := newContext(e, actor)
	err := limiter.Limit(PDFRateLimit)(ok)(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusTooManyRequests, he.Code)
	assert.Equal(t, "300", c.Response().Header().Get("Retry-After"))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	e := echo.New()
	cache := &mockCache{}
	limiter := NewRateLimiter(cache)
	cache.On("IsRateLimited", mock.Anything, mock.MatchedBy(func(key string) bool { return len(key) > len("auth:ip:") }), 5, time.Hour).
		Return(false, errors.New("redis down"))

	c, rec := newContext(e, nil)
	require.NoError(t, limiter.Limit(AuthRateLimit)(ok)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func signToken(t *testing.T, secret string, claims services.TokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTMiddleware(t *testing.T) {
	const secret = "test-secret-with-enough-entropy!"
	auth := services.NewAuthService(nil, nil, nil, secret, 3600, 7200)
	e := echo.New()
	e.HTTPErrorHandler = common.HTTPErrorHandler

	actor := models.Actor{UserID: uuid.New(), IssuerID: uuid.New(), Role: models.RoleManager}
	var seen models.Actor
	e.GET("/v1/me", func(c echo.Context) error {
		seen, _ = common.ActorFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}, JWTMiddleware(auth, nil), RequireActor())

	now := time.Now()
	valid := signToken(t, secret, services.TokenClaims{
		UserID:   actor.UserID.String(),
		IssuerID: actor.IssuerID.String(),
		Role:     actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"gstbill-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+valid)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, actor, seen)

	forged := signToken(t, "some-other-secret-value-123456789", services.TokenClaims{
		UserID:           actor.UserID.String(),
		IssuerID:         actor.IssuerID.String(),
		Role:             models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Audience: jwt.ClaimStrings{"gstbill-api"}},
	})
	req = httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+forged)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
