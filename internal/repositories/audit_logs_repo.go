package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gstbill/internal/models"
)

type AuditLogsRepository interface {
	// Create a new audit log entry
	Create(ctx context.Context, auditLog *models.AuditLog) error

	// List audit logs with filtering options
	List(ctx context.Context, issuerID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)

	// Get audit logs for a specific table and record
	GetByTableAndRecord(ctx context.Context, issuerID uuid.UUID, tableName, recordID string, limit, offset int) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db DBTX
}

func NewAuditLogsRepo(db DBTX) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	auditLog.CreatedAt = time.Now()
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}

	query := `
		INSERT INTO audit_logs (id, issuer_id, table_name, record_id, action, new_values, old_values, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	// Marshal JSONB fields
	var newValuesBytes, oldValuesBytes []byte
	var err error

	if auditLog.NewValues != nil {
		if newValuesBytes, err = marshalJSONB("new_values", auditLog.NewValues); err != nil {
			return err
		}
	}
	if auditLog.OldValues != nil {
		if oldValuesBytes, err = marshalJSONB("old_values", auditLog.OldValues); err != nil {
			return err
		}
	}

	_, err = r.db.Exec(ctx, query,
		auditLog.ID,
		auditLog.IssuerID,
		auditLog.TableName,
		auditLog.RecordID,
		auditLog.Action,
		newValuesBytes,
		oldValuesBytes,
		auditLog.ChangedBy,
		auditLog.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

func scanAuditLog(row rowScanner) (*models.AuditLog, error) {
	entry := &models.AuditLog{}
	var newValues, oldValues []byte
	if err := row.Scan(&entry.ID, &entry.IssuerID, &entry.TableName, &entry.RecordID, &entry.Action,
		&newValues, &oldValues, &entry.ChangedBy, &entry.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan audit log: %w", err)
	}
	if err := unmarshalJSONB("new_values", newValues, &entry.NewValues); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB("old_values", oldValues, &entry.OldValues); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *auditLogsRepo) List(ctx context.Context, issuerID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}

	fb := newFilterBuilder("issuer_id = $1", issuerID)
	if filters.TableName != nil {
		fb.add("table_name = $%d", *filters.TableName)
	}
	if filters.RecordID != nil {
		fb.add("record_id = $%d", *filters.RecordID)
	}
	if filters.Action != nil {
		fb.add("action = $%d", *filters.Action)
	}
	if filters.ChangedBy != nil {
		fb.add("changed_by = $%d", *filters.ChangedBy)
	}
	if filters.StartDate != nil {
		fb.add("created_at >= $%d", *filters.StartDate)
	}
	if filters.EndDate != nil {
		fb.add("created_at <= $%d", *filters.EndDate)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, issuer_id, table_name, record_id, action, new_values, old_values, changed_by, created_at
		FROM audit_logs` + fb.clause() + ` ORDER BY created_at DESC` + fb.page(limit, filters.Offset)

	rows, err := r.db.Query(ctx, query, fb.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var auditLogs []*models.AuditLog
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		auditLogs = append(auditLogs, entry)
	}
	return auditLogs, rows.Err()
}

func (r *auditLogsRepo) GetByTableAndRecord(ctx context.Context, issuerID uuid.UUID, tableName, recordID string, limit, offset int) ([]*models.AuditLog, error) {
	filters := &models.AuditLogFilters{
		TableName: &tableName,
		RecordID:  &recordID,
		Limit:     limit,
		Offset:    offset,
	}
	return r.List(ctx, issuerID, filters)
}
