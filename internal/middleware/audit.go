package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"gstbill/internal/common"
	"gstbill/internal/models"
	"gstbill/internal/services"
)

type Sensitivity int

const (
	// SensitivityLow records mutating requests and failures.
	SensitivityLow Sensitivity = iota
	// SensitivityHigh records every request with sanitized headers.
	SensitivityHigh
)

// AuditMiddleware provides automatic audit logging for HTTP requests
type AuditMiddleware struct {
	auditService services.AuditLogsService
}

// NewAuditMiddleware creates a new audit middleware instance
func NewAuditMiddleware(auditService services.AuditLogsService) *AuditMiddleware {
	return &AuditMiddleware{
		auditService: auditService,
	}
}

// AuditRequest writes an http_requests audit entry after the handler returns.
// Requests without an authenticated issuer are not audited.
func (m *AuditMiddleware) AuditRequest(level Sensitivity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqErr := next(c)

			actor, ok := common.ActorFromContext(c.Request().Context())
			if !ok {
				return reqErr
			}

			method := c.Request().Method
			if level == SensitivityLow && !shouldAudit(method, reqErr) {
				return reqErr
			}

			table := "http_requests"
			data := models.JSONB{
				"method":     method,
				"path":       c.Path(),
				"status":     c.Response().Status,
				"user_agent": c.Request().UserAgent(),
				"ip":         c.RealIP(),
				"timestamp":  time.Now().UTC().Format(time.RFC3339),
			}
			if level == SensitivityHigh {
				table = "http_requests_sensitive"
				data["query_params"] = c.QueryParams()
				data["headers"] = sanitizeHeaders(c.Request().Header)
			}
			if reqErr != nil {
				status, code := common.StatusFor(reqErr)
				data["status"] = status
				data["error"] = code
			}

			userID := actor.UserID
			recordID := c.Param("id")
			if recordID == "" {
				recordID = c.Path()
			}
			if err := m.auditService.LogActivity(c.Request().Context(), actor.IssuerID, table, recordID, method+" "+c.Path(), &userID, nil, data); err != nil {
				log.Error().Err(err).Str("path", c.Path()).Msg("failed to log audit activity")
			}
			return reqErr
		}
	}
}

// shouldAudit keeps writes and failed requests.
func shouldAudit(method string, reqErr error) bool {
	if reqErr != nil {
		return true
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

var sensitiveHeaders = []string{
	"authorization",
	"cookie",
	"x-api-key",
	"x-auth-token",
	"proxy-authorization",
}

// sanitizeHeaders removes sensitive headers before logging
func sanitizeHeaders(headers http.Header) map[string]interface{} {
	sanitized := make(map[string]interface{}, len(headers))
	for key, values := range headers {
		if isSensitiveHeader(key) {
			sanitized[key] = "[REDACTED]"
			continue
		}
		sanitized[key] = values
	}
	return sanitized
}

func isSensitiveHeader(header string) bool {
	lower := strings.ToLower(header)
	for _, sensitive := range sensitiveHeaders {
		if lower == sensitive {
			return true
		}
	}
	return false
}

