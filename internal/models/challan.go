package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ChallanStatusPending   DocumentStatus = "pending"
	ChallanStatusDelivered DocumentStatus = "delivered"
	ChallanStatusCancelled DocumentStatus = "cancelled"
)

// ChallanItem is an untaxed delivery line.
type ChallanItem struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit" validate:"required"`
}

type ContactPerson struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

// Challan is a delivery challan: goods movement without tax fields.
type Challan struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	IssuerID        uuid.UUID      `json:"issuer_id" db:"issuer_id"`
	CreatedBy       uuid.UUID      `json:"created_by" db:"created_by"`
	CustomerID      uuid.UUID      `json:"customer_id" db:"customer_id"`
	Number          string         `json:"number" db:"number"`
	Department      *string        `json:"department,omitempty" db:"department"`
	Items           []ChallanItem  `json:"items" db:"items"`
	Status          DocumentStatus `json:"status" db:"status"`
	DeliveryDate    time.Time      `json:"delivery_date" db:"delivery_date"`
	VehicleNumber   *string        `json:"vehicle_number,omitempty" db:"vehicle_number"`
	TransporterName *string        `json:"transporter_name,omitempty" db:"transporter_name"`
	TransportMode   *string        `json:"transport_mode,omitempty" db:"transport_mode"`
	DeliveryAddress string         `json:"delivery_address" db:"delivery_address"`
	ContactPerson   ContactPerson  `json:"contact_person" db:"contact_person"`
	Notes           *string        `json:"notes,omitempty" db:"notes"`
	DeliveredAt     *time.Time     `json:"delivered_at,omitempty" db:"delivered_at"`
	DeliveryNotes   *string        `json:"delivery_notes,omitempty" db:"delivery_notes"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// DeliveryStats summarises challans over a period.
type DeliveryStats struct {
	TotalChallans       int            `json:"total_challans"`
	Delivered           int            `json:"delivered"`
	Pending             int            `json:"pending"`
	Cancelled           int            `json:"cancelled"`
	AvgDeliveryTimeDays float64        `json:"avg_delivery_time_days"`
	Monthly             []MonthlyCount `json:"monthly"`
}

type MonthlyCount struct {
	Month     int `json:"month"`
	Count     int `json:"count"`
	Delivered int `json:"delivered"`
}
