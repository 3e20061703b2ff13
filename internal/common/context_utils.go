package common

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"gstbill/internal/models"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	IssuerIDKey contextKey = "issuer_id"
	RoleKey     contextKey = "role"
)

var (
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// ValidateUUID parses a path or query identifier.
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, NewValidationError(fieldName, "is required")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, NewValidationError(fieldName, "must be a valid UUID")
	}
	return id, nil
}

// ValidateGSTIN checks the 15 character GST identification number format.
func ValidateGSTIN(gstin, fieldName string) error {
	if !gstinPattern.MatchString(gstin) {
		return NewValidationError(fieldName, "has invalid GSTIN format")
	}
	return nil
}

// ValidatePhone accepts exactly 10 digits.
func ValidatePhone(phone, fieldName string) error {
	if !phonePattern.MatchString(phone) {
		return NewValidationError(fieldName, "must be a 10 digit number")
	}
	return nil
}

func ValidateEmail(email, fieldName string) error {
	if !emailPattern.MatchString(email) {
		return NewValidationError(fieldName, "must be a valid email address")
	}
	return nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(fieldName, "is required")
	}
	return nil
}

// ValidateOptionalString trims the value in place and enforces maxLength.
func ValidateOptionalString(value *string, fieldName string, maxLength int) error {
	if value != nil {
		*value = strings.TrimSpace(*value)
		if len(*value) > maxLength {
			return NewValidationError(fieldName, fmt.Sprintf("cannot exceed %d characters", maxLength))
		}
	}
	return nil
}

// SanitizeHTMLField escapes free text that ends up in rendered documents.
func SanitizeHTMLField(field *string, fieldName string) error {
	if field != nil && *field != "" {
		sanitized := html.EscapeString(*field)
		if len(sanitized) > 1000 {
			return NewValidationError(fieldName, "content exceeds maximum allowed length")
		}
		*field = sanitized
	}
	return nil
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetIssuerIDFromContext extracts the issuer ID from the request context
func GetIssuerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	issuerID, ok := ctx.Value(IssuerIDKey).(uuid.UUID)
	return issuerID, ok
}

func GetRoleFromContext(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(RoleKey).(models.Role)
	return role, ok
}

// WithActor stores the caller identity on ctx.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, actor.UserID)
	ctx = context.WithValue(ctx, IssuerIDKey, actor.IssuerID)
	return context.WithValue(ctx, RoleKey, actor.Role)
}

// ActorFromContext rebuilds the caller identity set by the JWT middleware.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		return models.Actor{}, false
	}
	issuerID, ok := GetIssuerIDFromContext(ctx)
	if !ok {
		return models.Actor{}, false
	}
	role, ok := GetRoleFromContext(ctx)
	if !ok {
		return models.Actor{}, false
	}
	return models.Actor{UserID: userID, IssuerID: issuerID, Role: role}, true
}

// ValidatePaginationParams validates pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = 50 // Default
	}
	if limit > 1000 {
		limit = 1000 // Maximum
	}
	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, NewValidationError("offset", "cannot exceed 1,000,000")
	}
	return limit, offset, nil
}

// ValidateDateRange validates date ranges to prevent abuse
func ValidateDateRange(startDate, endDate time.Time) error {
	if endDate.Before(startDate) {
		return NewValidationError("end_date", "cannot be before start date")
	}
	if endDate.Sub(startDate) > time.Hour*24*365*10 {
		return NewValidationError("end_date", "date range cannot exceed 10 years")
	}
	return nil
}
