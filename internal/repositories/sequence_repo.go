package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gstbill/internal/models"
)

type SequenceRepository interface {
	// Next atomically increments and returns the counter for (issuer, type, year).
	// The first call for a key returns 1.
	Next(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, year int) (int, error)

	// Seed raises the counter to at least last. It never lowers it.
	Seed(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, year, last int) error

	// FindLatestByIssuerAndType returns the number of the most recently created document
	// of a type, or "" when the issuer has none. A year of 0 spans all years.
	FindLatestByIssuerAndType(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, year int) (string, error)
}

type sequenceRepo struct {
	db DBTX
}

func NewSequenceRepo(db DBTX) SequenceRepository {
	return &sequenceRepo{db: db}
}

var documentTables = map[models.DocumentType]string{
	models.DocumentTypeInvoice:   "invoices",
	models.DocumentTypeQuotation: "quotations",
	models.DocumentTypeChallan:   "challans",
}

func (r *sequenceRepo) Next(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, year int) (int, error) {
	query := `
		INSERT INTO document_sequences (issuer_id, doc_type, year, last_number, updated_at)
		VALUES ($1, $2, $3, 1, NOW())
		ON CONFLICT (issuer_id, doc_type, year)
		DO UPDATE SET
			last_number = document_sequences.last_number + 1,
			updated_at = NOW()
		RETURNING last_number
	`

	var seq int
	if err := r.db.QueryRow(ctx, query, issuerID, string(docType), year).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to allocate %s sequence: %w", docType, err)
	}
	return seq, nil
}

func (r *sequenceRepo) Seed(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, year, last int) error {
	query := `
		INSERT INTO document_sequences (issuer_id, doc_type, year, last_number, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (issuer_id, doc_type, year)
		DO UPDATE SET
			last_number = GREATEST(document_sequences.last_number, EXCLUDED.last_number),
			updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, issuerID, string(docType), year, last); err != nil {
		return fmt.Errorf("failed to seed %s sequence: %w", docType, err)
	}
	return nil
}

func (r *sequenceRepo) FindLatestByIssuerAndType(ctx context.Context, issuerID uuid.UUID, docType models.DocumentType, year int) (string, error) {
	table, ok := documentTables[docType]
	if !ok {
		return "", fmt.Errorf("unknown document type %q", docType)
	}

	query := fmt.Sprintf(`
		SELECT number FROM %s
		WHERE issuer_id = $1 AND ($2::int = 0 OR EXTRACT(YEAR FROM created_at)::int = $2::int)
		ORDER BY created_at DESC, number DESC
		LIMIT 1
	`, table)

	var number string
	err := r.db.QueryRow(ctx, query, issuerID, year).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find latest %s number: %w", docType, err)
	}
	return number, nil
}
