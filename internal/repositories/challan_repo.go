package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gstbill/internal/billing"
	"gstbill/internal/models"
)

type ChallanRepository interface {
	Create(ctx context.Context, challan *models.Challan) error
	GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.Challan, error)
	Update(ctx context.Context, challan *models.Challan) error
	UpdateDelivery(ctx context.Context, challan *models.Challan) error
	Delete(ctx context.Context, issuerID, id uuid.UUID) error
	List(ctx context.Context, issuerID uuid.UUID, filters *models.DocumentFilters) ([]*models.Challan, int, error)
	GetStats(ctx context.Context, issuerID uuid.UUID, createdBy *uuid.UUID, startDate, endDate time.Time) (*models.DeliveryStats, error)
}

type challanRepo struct {
	db DBTX
}

func NewChallanRepo(db DBTX) ChallanRepository {
	return &challanRepo{db: db}
}

const challanColumns = `id, issuer_id, number, customer_id, created_by, department, items, status,
	delivery_date, vehicle_number, transporter_name, transport_mode, delivery_address,
	contact_person, notes, delivered_at, delivery_notes, created_at, updated_at`

func scanChallan(row rowScanner) (*models.Challan, error) {
	ch := &models.Challan{}
	var items, contact []byte
	err := row.Scan(
		&ch.ID, &ch.IssuerID, &ch.Number, &ch.CustomerID, &ch.CreatedBy, &ch.Department, &items, &ch.Status,
		&ch.DeliveryDate, &ch.VehicleNumber, &ch.TransporterName, &ch.TransportMode, &ch.DeliveryAddress,
		&contact, &ch.Notes, &ch.DeliveredAt, &ch.DeliveryNotes, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB("items", items, &ch.Items); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB("contact_person", contact, &ch.ContactPerson); err != nil {
		return nil, err
	}
	return ch, nil
}

func (r *challanRepo) Create(ctx context.Context, challan *models.Challan) error {
	items, err := marshalJSONB("items", challan.Items)
	if err != nil {
		return err
	}
	contact, err := marshalJSONB("contact_person", challan.ContactPerson)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO challans (id, issuer_id, number, customer_id, created_by, department, items, status,
			delivery_date, vehicle_number, transporter_name, transport_mode, delivery_address,
			contact_person, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
	`
	_, err = r.db.Exec(ctx, query,
		challan.ID, challan.IssuerID, challan.Number, challan.CustomerID, challan.CreatedBy, challan.Department, items,
		challan.Status, challan.DeliveryDate, challan.VehicleNumber, challan.TransporterName, challan.TransportMode,
		challan.DeliveryAddress, contact, challan.Notes, challan.CreatedAt,
	)
	return translateError(err, "challan", challan.Number)
}

func (r *challanRepo) GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.Challan, error) {
	query := `SELECT ` + challanColumns + ` FROM challans WHERE issuer_id = $1 AND id = $2`
	ch, err := scanChallan(r.db.QueryRow(ctx, query, issuerID, id))
	if err != nil {
		return nil, translateError(err, "challan", id.String())
	}
	return ch, nil
}

func (r *challanRepo) Update(ctx context.Context, challan *models.Challan) error {
	items, err := marshalJSONB("items", challan.Items)
	if err != nil {
		return err
	}
	contact, err := marshalJSONB("contact_person", challan.ContactPerson)
	if err != nil {
		return err
	}

	query := `
		UPDATE challans
		SET customer_id = $1, department = $2, items = $3, delivery_date = $4, vehicle_number = $5,
			transporter_name = $6, transport_mode = $7, delivery_address = $8, contact_person = $9,
			notes = $10, updated_at = NOW()
		WHERE issuer_id = $11 AND id = $12 AND NOT (status = ANY($13))
	`
	tag, err := r.db.Exec(ctx, query,
		challan.CustomerID, challan.Department, items, challan.DeliveryDate, challan.VehicleNumber,
		challan.TransporterName, challan.TransportMode, challan.DeliveryAddress, contact,
		challan.Notes, challan.IssuerID, challan.ID, billing.ChallanMachine.FrozenStatuses(),
	)
	if err != nil {
		return translateError(err, "challan", challan.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return explainWriteMiss(ctx, r.db, "challans", "challan", "update", challan.IssuerID, challan.ID)
	}
	return nil
}

// UpdateDelivery persists status, delivered_at and delivery_notes.
func (r *challanRepo) UpdateDelivery(ctx context.Context, challan *models.Challan) error {
	query := `
		UPDATE challans
		SET status = $1, delivered_at = $2, delivery_notes = $3, updated_at = NOW()
		WHERE issuer_id = $4 AND id = $5
	`
	tag, err := r.db.Exec(ctx, query, challan.Status, challan.DeliveredAt, challan.DeliveryNotes, challan.IssuerID, challan.ID)
	if err != nil {
		return translateError(err, "challan", challan.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return translateError(errNoRowsAffected, "challan", challan.ID.String())
	}
	return nil
}

func (r *challanRepo) Delete(ctx context.Context, issuerID, id uuid.UUID) error {
	query := `DELETE FROM challans WHERE issuer_id = $1 AND id = $2 AND NOT (status = ANY($3))`
	tag, err := r.db.Exec(ctx, query, issuerID, id, billing.ChallanMachine.UndeletableStatuses())
	if err != nil {
		return translateError(err, "challan", id.String())
	}
	if tag.RowsAffected() == 0 {
		return explainWriteMiss(ctx, r.db, "challans", "challan", "delete", issuerID, id)
	}
	return nil
}

func (r *challanRepo) List(ctx context.Context, issuerID uuid.UUID, filters *models.DocumentFilters) ([]*models.Challan, int, error) {
	if filters == nil {
		filters = &models.DocumentFilters{}
	}
	fb := documentFilters(issuerID, filters)

	var total int
	countQuery := `SELECT COUNT(*) FROM challans` + fb.clause()
	if err := r.db.QueryRow(ctx, countQuery, fb.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count challans: %w", err)
	}

	query := `SELECT ` + challanColumns + ` FROM challans` + fb.clause() + ` ORDER BY created_at DESC` + fb.page(filters.Limit, filters.Offset)
	rows, err := r.db.Query(ctx, query, fb.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list challans: %w", err)
	}
	defer rows.Close()

	var challans []*models.Challan
	for rows.Next() {
		ch, err := scanChallan(rows)
		if err != nil {
			return nil, 0, err
		}
		challans = append(challans, ch)
	}
	return challans, total, rows.Err()
}

func (r *challanRepo) GetStats(ctx context.Context, issuerID uuid.UUID, createdBy *uuid.UUID, startDate, endDate time.Time) (*models.DeliveryStats, error) {
	fb := newFilterBuilder("issuer_id = $1", issuerID)
	fb.add("created_at >= $%d", startDate)
	fb.add("created_at <= $%d", endDate)
	if createdBy != nil {
		fb.add("created_by = $%d", *createdBy)
	}

	stats := &models.DeliveryStats{}
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'delivered'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(AVG(EXTRACT(EPOCH FROM (delivered_at - created_at)) / 86400) FILTER (WHERE delivered_at IS NOT NULL), 0)::float8
		FROM challans` + fb.clause()
	err := r.db.QueryRow(ctx, query, fb.args...).Scan(
		&stats.TotalChallans, &stats.Delivered, &stats.Pending, &stats.Cancelled, &stats.AvgDeliveryTimeDays,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute challan stats: %w", err)
	}

	monthly := `
		SELECT EXTRACT(MONTH FROM created_at)::int AS month, COUNT(*), COUNT(*) FILTER (WHERE status = 'delivered')
		FROM challans` + fb.clause() + `
		GROUP BY month
		ORDER BY month`
	rows, err := r.db.Query(ctx, monthly, fb.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly challan stats: %w", err)
	}
	defer rows.Close()

	stats.Monthly = []models.MonthlyCount{}
	for rows.Next() {
		var m models.MonthlyCount
		if err := rows.Scan(&m.Month, &m.Count, &m.Delivered); err != nil {
			return nil, err
		}
		stats.Monthly = append(stats.Monthly, m)
	}
	return stats, rows.Err()
}
