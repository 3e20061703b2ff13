package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gstbill/internal/models"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	List(ctx context.Context, issuerID uuid.UUID, search string, limit, offset int) ([]*models.Customer, int, error)
}

type customerRepo struct {
	db DBTX
}

func NewCustomerRepo(db DBTX) CustomerRepository {
	return &customerRepo{db: db}
}

const customerColumns = `id, issuer_id, name, gst_number, address, contact_number, email, created_by, created_at, updated_at`

func scanCustomer(row rowScanner) (*models.Customer, error) {
	c := &models.Customer{}
	err := row.Scan(&c.ID, &c.IssuerID, &c.Name, &c.GSTNumber, &c.Address, &c.ContactNumber, &c.Email,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *customerRepo) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, issuer_id, name, gst_number, address, contact_number, email, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, customer.ID, customer.IssuerID, customer.Name, customer.GSTNumber,
		customer.Address, customer.ContactNumber, customer.Email, customer.CreatedBy)
	return translateError(err, "customer", customer.GSTNumber)
}

func (r *customerRepo) GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE issuer_id = $1 AND id = $2`
	c, err := scanCustomer(r.db.QueryRow(ctx, query, issuerID, id))
	if err != nil {
		return nil, translateError(err, "customer", id.String())
	}
	return c, nil
}

func (r *customerRepo) Update(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, gst_number = $2, address = $3, contact_number = $4, email = $5, updated_at = NOW()
		WHERE issuer_id = $6 AND id = $7
	`
	tag, err := r.db.Exec(ctx, query, customer.Name, customer.GSTNumber, customer.Address,
		customer.ContactNumber, customer.Email, customer.IssuerID, customer.ID)
	if err != nil {
		return translateError(err, "customer", customer.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return translateError(errNoRowsAffected, "customer", customer.ID.String())
	}
	return nil
}

// List returns customers ordered by name. search matches name or GSTIN case-insensitively.
func (r *customerRepo) List(ctx context.Context, issuerID uuid.UUID, search string, limit, offset int) ([]*models.Customer, int, error) {
	fb := newFilterBuilder("issuer_id = $1", issuerID)
	if search != "" {
		fb.add("(name ILIKE '%%' || $%[1]d || '%%' OR gst_number ILIKE '%%' || $%[1]d || '%%')", search)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+fb.clause(), fb.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + fb.clause() + ` ORDER BY name` + fb.page(limit, offset)
	rows, err := r.db.Query(ctx, query, fb.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}
