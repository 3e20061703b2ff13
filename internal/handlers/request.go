package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"gstbill/internal/common"
	"gstbill/internal/models"
)

const dateLayout = "2006-01-02"

// actorFrom returns the caller identity placed on the request by the JWT middleware.
func actorFrom(c echo.Context) (models.Actor, error) {
	actor, ok := common.ActorFromContext(c.Request().Context())
	if !ok {
		return models.Actor{}, common.ErrUnauthenticated
	}
	return actor, nil
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	return common.ValidateUUID(c.Param(name), name)
}

// bindAndValidate decodes the JSON body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return common.NewValidationError("body", "invalid request format")
	}
	return c.Validate(req)
}

func paginationParams(c echo.Context) (int, int, error) {
	limit, err := optionalInt(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := optionalInt(c, "offset")
	if err != nil {
		return 0, 0, err
	}
	return common.ValidatePaginationParams(limit, offset)
}

func optionalInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.NewValidationError(name, "must be an integer")
	}
	return v, nil
}

// optionalDate accepts YYYY-MM-DD or RFC 3339.
func optionalDate(c echo.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, common.NewValidationError(name, "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

func optionalUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	id, err := common.ValidateUUID(raw, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// requiredRange reads start_date and end_date. end_date is inclusive, so the
// returned end is the start of the following day.
func requiredRange(c echo.Context) (time.Time, time.Time, error) {
	start, err := optionalDate(c, "start_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start == nil {
		return time.Time{}, time.Time{}, common.NewValidationError("start_date", "is required")
	}
	end, err := optionalDate(c, "end_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end == nil {
		return time.Time{}, time.Time{}, common.NewValidationError("end_date", "is required")
	}
	return *start, end.AddDate(0, 0, 1), nil
}

// documentFilters parses the query string shared by document listings.
// mine=true restricts the listing to documents the caller created.
func documentFilters(c echo.Context, actor models.Actor) (*models.DocumentFilters, error) {
	filters := &models.DocumentFilters{}
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		filters.Status = &status
	}

	var err error
	if filters.CustomerID, err = optionalUUID(c, "customer_id"); err != nil {
		return nil, err
	}
	if filters.StartDate, err = optionalDate(c, "start_date"); err != nil {
		return nil, err
	}
	if filters.EndDate, err = optionalDate(c, "end_date"); err != nil {
		return nil, err
	}
	if filters.StartDate != nil && filters.EndDate != nil {
		if err := common.ValidateDateRange(*filters.StartDate, *filters.EndDate); err != nil {
			return nil, err
		}
	}
	if c.QueryParam("mine") == "true" {
		createdBy := actor.UserID
		filters.CreatedBy = &createdBy
	}

	if filters.Limit, filters.Offset, err = paginationParams(c); err != nil {
		return nil, err
	}
	return filters, nil
}

type statusRequest struct {
	Status models.DocumentStatus `json:"status" validate:"required"`
}
