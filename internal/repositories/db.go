package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"gstbill/internal/common"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools, so every repository
// can run either standalone or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// errNoRowsAffected marks an UPDATE or DELETE that matched nothing.
var errNoRowsAffected = pgx.ErrNoRows

// WithTx runs fn inside a transaction, committing on success and rolling back on error.
func WithTx(ctx context.Context, db DBTX, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Error().Err(rbErr).Msg("failed to roll back transaction")
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// translateError maps driver errors onto the common error taxonomy.
func translateError(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return common.NewNotFoundError(resource, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "number") {
			return &common.NumberingConflictError{Number: id}
		}
		return common.NewValidationError(uniqueField(pgErr.ConstraintName), "already exists")
	}
	return fmt.Errorf("%s query failed: %w", resource, err)
}

// explainWriteMiss resolves a guarded UPDATE or DELETE that affected no rows:
// the row is either gone or sits in a status that forbids the action.
func explainWriteMiss(ctx context.Context, db DBTX, table, resource, action string, issuerID, id uuid.UUID) error {
	var status string
	query := `SELECT status FROM ` + table + ` WHERE issuer_id = $1 AND id = $2`
	if err := db.QueryRow(ctx, query, issuerID, id).Scan(&status); err != nil {
		return translateError(err, resource, id.String())
	}
	return &common.StateConflictError{Resource: resource, Status: status, Action: action}
}

func uniqueField(constraint string) string {
	switch {
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "tax_id"):
		return "tax_id"
	case strings.Contains(constraint, "gst"):
		return "gst_number"
	}
	return constraint
}

func marshalJSONB(field string, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", field, err)
	}
	return b, nil
}

func unmarshalJSONB(field string, data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", field, err)
	}
	return nil
}

// filterBuilder appends numbered placeholders to a WHERE clause.
type filterBuilder struct {
	where []string
	args  []any
}

func newFilterBuilder(base string, args ...any) *filterBuilder {
	return &filterBuilder{where: []string{base}, args: args}
}

func (f *filterBuilder) add(clause string, arg any) {
	f.args = append(f.args, arg)
	f.where = append(f.where, fmt.Sprintf(clause, len(f.args)))
}

func (f *filterBuilder) clause() string {
	return " WHERE " + strings.Join(f.where, " AND ")
}

// page appends LIMIT and OFFSET placeholders and returns the suffix.
func (f *filterBuilder) page(limit, offset int) string {
	f.args = append(f.args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(f.args)-1, len(f.args))
}
