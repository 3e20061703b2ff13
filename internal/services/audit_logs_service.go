package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gstbill/internal/common"
	"gstbill/internal/models"
	"gstbill/internal/repositories"
)

type AuditLogsService interface {
	// Create audit log entry
	LogActivity(ctx context.Context, issuerID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error

	// Query audit logs
	ListAuditLogs(ctx context.Context, actor models.Actor, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
	GetEntityHistory(ctx context.Context, actor models.Actor, tableName, recordID string, limit, offset int) ([]*models.AuditLog, error)

	// Helper methods for common audit scenarios
	LogEntityCreate(ctx context.Context, actor models.Actor, tableName string, recordID uuid.UUID, entity any)
	LogEntityUpdate(ctx context.Context, actor models.Actor, tableName string, recordID uuid.UUID, before, after any)
	LogEntityDelete(ctx context.Context, actor models.Actor, tableName string, recordID uuid.UUID, entity any)
	LogStatusChange(ctx context.Context, actor models.Actor, tableName string, recordID uuid.UUID, from, to models.DocumentStatus)
	LogConversion(ctx context.Context, actor models.Actor, quotationID, invoiceID uuid.UUID, invoiceNumber string)

	// Validation methods
	ValidateAuditFilters(filters *models.AuditLogFilters) error
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{
		auditLogsRepo: auditLogsRepo,
	}
}

// LogActivity creates a new audit log entry with validation
func (s *auditLogsService) LogActivity(ctx context.Context, issuerID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, oldValues, newValues models.JSONB) error {
	if tableName == "" {
		return errors.New("table_name is required")
	}
	if action == "" {
		return errors.New("action is required")
	}

	auditLog := &models.AuditLog{
		ID:        uuid.New(),
		IssuerID:  issuerID,
		TableName: tableName,
		RecordID:  recordID,
		Action:    action,
		NewValues: newValues,
		OldValues: oldValues,
		ChangedBy: changedBy,
	}

	return s.auditLogsRepo.Create(ctx, auditLog)
}

// ListAuditLogs is restricted to administrators of the issuer.
func (s *auditLogsService) ListAuditLogs(ctx context.Context, actor models.Actor, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if !actor.IsAdmin() {
		return nil, &common.AuthorizationError{Action: "view audit logs"}
	}
	if filters == nil {
		filters = &models.AuditLogFilters{Limit: 50}
	}
	if err := s.ValidateAuditFilters(filters); err != nil {
		return nil, err
	}
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	return s.auditLogsRepo.List(ctx, actor.IssuerID, filters)
}

// GetEntityHistory retrieves audit history for a specific entity
func (s *auditLogsService) GetEntityHistory(ctx context.Context, actor models.Actor, tableName, recordID string, limit, offset int) ([]*models.AuditLog, error) {
	if !actor.IsAdmin() {
		return nil, &common.AuthorizationError{Action: "view audit logs"}
	}
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.auditLogsRepo.GetByTableAndRecord(ctx, actor.IssuerID, tableName, recordID, limit, offset)
}

// The Log* helpers never fail the calling operation. A lost audit row is logged instead.

func (s *auditLogsService) LogEntityCreate(ctx context.Context, actor models.Actor, tableName string, recordID uuid.UUID, entity any) {
	s.record(ctx, actor, tableName, recordID, models.ActionInsert, nil, CreateEntityValues(entity))
}

func (s *auditLogsService) LogEntityUpdate(ctx context.Context, actor models.Actor, tableName string, recordID uuid.UUID, before, after any) {
	s.record(ctx, actor, tableName, recordID, models.ActionUpdate, CreateEntityValues(before), CreateEntityValues(after))
}

func (s *auditLogsService) LogEntityDelete(ctx context.Context, actor models.Actor, tableName string, recordID uuid.UUID, entity any) {
	s.record(ctx, actor, tableName, recordID, models.ActionDelete, CreateEntityValues(entity), nil)
}

func (s *auditLogsService) LogStatusChange(ctx context.Context, actor models.Actor, tableName string, recordID uuid.UUID, from, to models.DocumentStatus) {
	s.record(ctx, actor, tableName, recordID, models.ActionStatus,
		models.JSONB{"status": string(from)},
		models.JSONB{"status": string(to)})
}

func (s *auditLogsService) LogConversion(ctx context.Context, actor models.Actor, quotationID, invoiceID uuid.UUID, invoiceNumber string) {
	s.record(ctx, actor, "quotations", quotationID, models.ActionConvert,
		models.JSONB{"converted_to_invoice": false},
		models.JSONB{
			"converted_to_invoice": true,
			"converted_invoice_id": invoiceID.String(),
			"invoice_number":       invoiceNumber,
		})
}

func (s *auditLogsService) record(ctx context.Context, actor models.Actor, tableName string, recordID uuid.UUID, action string, oldValues, newValues models.JSONB) {
	changedBy := actor.UserID
	if err := s.LogActivity(ctx, actor.IssuerID, tableName, recordID.String(), action, &changedBy, oldValues, newValues); err != nil {
		log.Error().Err(err).
			Str("table", tableName).
			Str("record_id", recordID.String()).
			Str("action", action).
			Msg("failed to write audit log")
	}
}

// CreateEntityValues flattens an entity into its JSON form for audit storage.
// Fields tagged json:"-", such as password hashes, are left out.
func CreateEntityValues(entity any) models.JSONB {
	if entity == nil {
		return nil
	}
	data, err := json.Marshal(entity)
	if err != nil {
		log.Warn().Err(err).Msg("audit values could not be marshalled")
		return nil
	}
	var values models.JSONB
	if err := json.Unmarshal(data, &values); err != nil {
		return nil
	}
	return values
}

// ValidateAuditFilters performs security and performance validation on audit filters
func (s *auditLogsService) ValidateAuditFilters(filters *models.AuditLogFilters) error {
	if filters == nil {
		return nil
	}

	if filters.StartDate != nil && filters.EndDate != nil {
		if filters.EndDate.Before(*filters.StartDate) {
			return common.NewValidationError("end_date", "cannot be before start date")
		}
		if filters.EndDate.Sub(*filters.StartDate) > 365*24*time.Hour {
			return common.NewValidationError("end_date", "date range cannot exceed 1 year")
		}
	}

	if filters.Limit > 1000 {
		return common.NewValidationError("limit", "maximum limit is 1000 records")
	}

	return nil
}
