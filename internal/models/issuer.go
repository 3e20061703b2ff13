package models

import (
	"time"

	"github.com/google/uuid"
)

type BankDetails struct {
	BankName      string `json:"bank_name" db:"bank_name"`
	AccountNumber string `json:"account_number" db:"account_number"`
	IFSCCode      string `json:"ifsc_code" db:"ifsc_code"`
}

// Issuer is the billing account whose tax registration appears on every document it issues.
type Issuer struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	CompanyName   string      `json:"company_name" db:"company_name"`
	Address       string      `json:"address" db:"address"`
	TaxID         string      `json:"tax_id" db:"tax_id"`
	ContactNumber string      `json:"contact_number" db:"contact_number"`
	BankDetails   BankDetails `json:"bank_details"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}
