package common

import (
	"errors"
	"fmt"
)

var (
	ErrNumberingConflict = errors.New("document number already taken")
	ErrAlreadyConverted  = errors.New("quotation already converted")
	ErrUnauthenticated   = errors.New("invalid credentials")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// StateConflictError reports an action the current lifecycle status does not allow.
type StateConflictError struct {
	Resource string
	Status   string
	Action   string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %q", e.Action, e.Resource, e.Status)
}

type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to %s", e.Action)
}

// NumberingConflictError is returned when an allocated document number collides with an existing one.
type NumberingConflictError struct {
	Number string
}

func (e *NumberingConflictError) Error() string {
	return fmt.Sprintf("document number %s already exists", e.Number)
}

func (e *NumberingConflictError) Is(target error) bool { return target == ErrNumberingConflict }

// ConversionConflictError is returned when a quotation was converted by someone else first.
type ConversionConflictError struct {
	QuotationID string
}

func (e *ConversionConflictError) Error() string {
	return fmt.Sprintf("quotation %s has already been converted to an invoice", e.QuotationID)
}

func (e *ConversionConflictError) Is(target error) bool { return target == ErrAlreadyConverted }

// As lets a conversion conflict be handled as a state conflict.
func (e *ConversionConflictError) As(target interface{}) bool {
	if sc, ok := target.(**StateConflictError); ok {
		*sc = &StateConflictError{Resource: "quotation", Status: "converted", Action: "convert"}
		return true
	}
	return false
}
