package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"gstbill/internal/models"
	"gstbill/internal/services"
)

// AuditLogsHandlers handles audit logs related HTTP requests
type AuditLogsHandlers struct {
	auditLogsService services.AuditLogsService
}

// NewAuditLogsHandlers creates a new audit logs handlers instance
func NewAuditLogsHandlers(auditLogsService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditLogsService: auditLogsService}
}

// ListAuditLogs retrieves audit logs with filtering and pagination
func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	filters := &models.AuditLogFilters{}
	if table := strings.TrimSpace(c.QueryParam("table")); table != "" {
		filters.TableName = &table
	}
	if recordID := strings.TrimSpace(c.QueryParam("record_id")); recordID != "" {
		filters.RecordID = &recordID
	}
	if action := strings.TrimSpace(c.QueryParam("action")); action != "" {
		filters.Action = &action
	}
	if filters.ChangedBy, err = optionalUUID(c, "user_id"); err != nil {
		return err
	}
	if filters.StartDate, err = optionalDate(c, "start_date"); err != nil {
		return err
	}
	if filters.EndDate, err = optionalDate(c, "end_date"); err != nil {
		return err
	}
	if filters.Limit, filters.Offset, err = paginationParams(c); err != nil {
		return err
	}

	logs, err := h.auditLogsService.ListAuditLogs(c.Request().Context(), actor, filters)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   logs,
		"total":  len(logs),
		"limit":  filters.Limit,
		"offset": filters.Offset,
	})
}

// GetEntityHistory handles GET /audit-logs/:table/:id
func (h *AuditLogsHandlers) GetEntityHistory(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := paginationParams(c)
	if err != nil {
		return err
	}

	history, err := h.auditLogsService.GetEntityHistory(c.Request().Context(), actor, c.Param("table"), c.Param("id"), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"table_name": c.Param("table"),
		"record_id":  c.Param("id"),
		"history":    history,
	})
}
