package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	IssuerID     uuid.UUID `json:"issuer_id" db:"issuer_id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize in JSON
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID   uuid.UUID
	IssuerID uuid.UUID
	Role     Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanRead reports whether the actor may view a document created by ownerID.
func (a Actor) CanRead(ownerID uuid.UUID) bool {
	return a.Role == RoleAdmin || a.Role == RoleManager || a.UserID == ownerID
}

// CanModify reports whether the actor may change or delete a document created by ownerID.
func (a Actor) CanModify(ownerID uuid.UUID) bool {
	return a.Role == RoleAdmin || a.UserID == ownerID
}
