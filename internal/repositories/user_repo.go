package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"gstbill/internal/common"
	"gstbill/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, issuerID uuid.UUID, limit, offset int) ([]*models.User, error)
	UpdatePassword(ctx context.Context, issuerID, id uuid.UUID, passwordHash string) error
	UpdateRole(ctx context.Context, issuerID, id uuid.UUID, role models.Role) error
	Delete(ctx context.Context, issuerID, id uuid.UUID) error
}

type userRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) UserRepository {
	return &userRepo{db: db}
}

// Create inserts a user. Emails are unique across issuers.
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, issuer_id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.IssuerID, user.Name, user.Email, user.PasswordHash, user.Role)
	return translateError(err, "user", user.Email)
}

func (r *userRepo) GetByID(ctx context.Context, issuerID, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, issuer_id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE issuer_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, issuerID, id).Scan(&user.ID, &user.IssuerID, &user.Name, &user.Email,
		&user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translateError(err, "user", id.String())
	}
	return user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, issuer_id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	err := r.db.QueryRow(ctx, query, email).Scan(&user.ID, &user.IssuerID, &user.Name, &user.Email,
		&user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translateError(err, "user", email)
	}
	return user, nil
}

func (r *userRepo) List(ctx context.Context, issuerID uuid.UUID, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT id, issuer_id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE issuer_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, issuerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.IssuerID, &user.Name, &user.Email, &user.PasswordHash,
			&user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepo) UpdatePassword(ctx context.Context, issuerID, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE issuer_id = $2 AND id = $3`
	tag, err := r.db.Exec(ctx, query, passwordHash, issuerID, id)
	if err != nil {
		return translateError(err, "user", id.String())
	}
	if tag.RowsAffected() == 0 {
		return translateError(errNoRowsAffected, "user", id.String())
	}
	return nil
}

func (r *userRepo) UpdateRole(ctx context.Context, issuerID, id uuid.UUID, role models.Role) error {
	query := `UPDATE users SET role = $1, updated_at = NOW() WHERE issuer_id = $2 AND id = $3`
	tag, err := r.db.Exec(ctx, query, role, issuerID, id)
	if err != nil {
		return translateError(err, "user", id.String())
	}
	if tag.RowsAffected() == 0 {
		return translateError(errNoRowsAffected, "user", id.String())
	}
	return nil
}

// Delete removes a user. A user still recorded as the creator of customers or
// documents is reported as a state conflict.
func (r *userRepo) Delete(ctx context.Context, issuerID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE issuer_id = $1 AND id = $2`, issuerID, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return &common.StateConflictError{Resource: "user", Status: "referenced", Action: "delete"}
		}
		return translateError(err, "user", id.String())
	}
	if tag.RowsAffected() == 0 {
		return translateError(errNoRowsAffected, "user", id.String())
	}
	return nil
}
