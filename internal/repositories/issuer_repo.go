package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gstbill/internal/models"
)

type IssuerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Issuer, error)
	Update(ctx context.Context, issuer *models.Issuer) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// CreateWithAdmin inserts an issuer and its first administrator atomically.
	CreateWithAdmin(ctx context.Context, issuer *models.Issuer, admin *models.User) error
}

type issuerRepo struct {
	db DBTX
}

func NewIssuerRepo(db DBTX) IssuerRepository {
	return &issuerRepo{db: db}
}

func (r *issuerRepo) CreateWithAdmin(ctx context.Context, issuer *models.Issuer, admin *models.User) error {
	return WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO issuers (id, company_name, address, tax_id, contact_number, bank_name, account_number, ifsc_code, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		`
		_, err := tx.Exec(ctx, query, issuer.ID, issuer.CompanyName, issuer.Address, issuer.TaxID, issuer.ContactNumber,
			issuer.BankDetails.BankName, issuer.BankDetails.AccountNumber, issuer.BankDetails.IFSCCode)
		if err != nil {
			return translateError(err, "issuer", issuer.TaxID)
		}
		return NewUserRepo(tx).Create(ctx, admin)
	})
}

func (r *issuerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Issuer, error) {
	issuer := &models.Issuer{}
	query := `
		SELECT id, company_name, address, tax_id, contact_number, bank_name, account_number, ifsc_code, created_at, updated_at
		FROM issuers
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&issuer.ID, &issuer.CompanyName, &issuer.Address, &issuer.TaxID,
		&issuer.ContactNumber, &issuer.BankDetails.BankName, &issuer.BankDetails.AccountNumber,
		&issuer.BankDetails.IFSCCode, &issuer.CreatedAt, &issuer.UpdatedAt)
	if err != nil {
		return nil, translateError(err, "issuer", id.String())
	}
	return issuer, nil
}

func (r *issuerRepo) Update(ctx context.Context, issuer *models.Issuer) error {
	query := `
		UPDATE issuers
		SET company_name = $1, address = $2, contact_number = $3, bank_name = $4, account_number = $5, ifsc_code = $6, updated_at = NOW()
		WHERE id = $7
	`
	tag, err := r.db.Exec(ctx, query, issuer.CompanyName, issuer.Address, issuer.ContactNumber,
		issuer.BankDetails.BankName, issuer.BankDetails.AccountNumber, issuer.BankDetails.IFSCCode, issuer.ID)
	if err != nil {
		return translateError(err, "issuer", issuer.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return translateError(errNoRowsAffected, "issuer", issuer.ID.String())
	}
	return nil
}

func (r *issuerRepo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM issuers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list issuers: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
