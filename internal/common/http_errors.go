package common

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CodedError is implemented by errors from other packages that carry their own response code.
type CodedError interface {
	error
	ErrorCode() string
	HTTPStatus() int
}

// StatusFor maps an error from the service layer onto an HTTP status and error code.
func StatusFor(err error) (int, string) {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		conversion *ConversionConflictError
		state      *StateConflictError
		authz      *AuthorizationError
		numbering  *NumberingConflictError
		coded      CodedError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &conversion):
		return http.StatusConflict, "CONVERSION_CONFLICT"
	case errors.As(err, &state):
		return http.StatusConflict, "STATE_CONFLICT"
	case errors.As(err, &authz):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.As(err, &numbering):
		return http.StatusConflict, "NUMBERING_CONFLICT"
	case errors.As(err, &coded):
		return coded.HTTPStatus(), coded.ErrorCode()
	}
	return http.StatusInternalServerError, "SERVER_ERROR"
}

// HTTPErrorHandler renders every error returned by a handler in the ErrorResponse envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, CreateErrorResponse(httpErrorCode(he.Code), msg, nil))
		return
	}

	status, code := StatusFor(err)
	message := err.Error()
	var details map[string]string

	var validation *ValidationError
	if errors.As(err, &validation) {
		message = "Validation failed"
		details = map[string]string{validation.Field: validation.Message}
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("request failed")
		if code == "SERVER_ERROR" {
			message = "internal server error"
		}
	}

	_ = c.JSON(status, CreateErrorResponse(code, message, details))
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "CLIENT_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= http.StatusInternalServerError {
		return "SERVER_ERROR"
	}
	return "CLIENT_ERROR"
}
