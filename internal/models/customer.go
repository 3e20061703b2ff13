package models

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID            uuid.UUID `json:"id" db:"id"`
	IssuerID      uuid.UUID `json:"issuer_id" db:"issuer_id"`
	Name          string    `json:"name" db:"name"`
	GSTNumber     string    `json:"gst_number" db:"gst_number"`
	Address       string    `json:"address" db:"address"`
	ContactNumber *string   `json:"contact_number,omitempty" db:"contact_number"`
	Email         *string   `json:"email,omitempty" db:"email"`
	CreatedBy     uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
