package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pharmadesk/pharmacy-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Invoice is a committed sale record. Its line snapshots (Items) are
// immutable once created: returns reference them, they never rewrite them.
type Invoice struct {
	ID                uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceNo         string             `gorm:"size:100;unique;not null" json:"invoice_no"`
	SaleDate          time.Time          `gorm:"type:date;not null" json:"sale_date"`
	CustomerID        *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	PaymentMethod     string             `gorm:"size:50" json:"payment_method"`
	PaymentStatus     enum.PaymentStatus `gorm:"default:0;index" json:"payment_status"`
	SubTotal          int64              `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	GSTAmount         int64              `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	Total             int64              `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	OutstandingCredit int64              `gorm:"default:0" json:"-"` // Non-zero only for Credit sales
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	DeletedAt         gorm.DeletedAt     `gorm:"index" json:"-"`

	// Relationships
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []Sale    `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (i Invoice) MarshalJSON() ([]byte, error) {
	type Alias Invoice
	return json.Marshal(&struct {
		Alias
		SubTotal          float64 `json:"sub_total"`
		GSTAmount         float64 `json:"gst_amount"`
		Total             float64 `json:"total"`
		OutstandingCredit float64 `json:"outstanding_credit"`
	}{
		Alias:             Alias(i),
		SubTotal:          float64(i.SubTotal) / 100,
		GSTAmount:         float64(i.GSTAmount) / 100,
		Total:             float64(i.Total) / 100,
		OutstandingCredit: float64(i.OutstandingCredit) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// CustomerName returns the customer name, defaulting to walk-in
func (i *Invoice) CustomerName() string {
	if i.Customer != nil && i.Customer.Name != "" {
		return i.Customer.Name
	}
	return "Walk-in Customer"
}

// Sale is a single line snapshot on an invoice: the medicine, quantity and
// unit price at the time of sale. Returns reference sales by ID.
type Sale struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key" json:"sale_id"`
	InvoiceID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"invoice_id"`
	MedicineID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"medicine_id"`
	QuantitySold    int            `gorm:"not null" json:"quantity_sold"`
	UnitPriceAtSale int64          `gorm:"not null" json:"-"` // Stored in cents, excluded from JSON
	TotalAmount     int64          `gorm:"not null" json:"-"` // Stored in cents, excluded from JSON
	CreatedAt       time.Time      `json:"created_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Invoice  Invoice  `gorm:"foreignKey:InvoiceID" json:"-"`
	Medicine Medicine `gorm:"foreignKey:MedicineID" json:"medicine,omitempty"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (s Sale) MarshalJSON() ([]byte, error) {
	type Alias Sale
	return json.Marshal(&struct {
		Alias
		UnitPriceAtSale float64 `json:"unit_price_at_sale"`
		TotalAmount     float64 `json:"total_amount"`
	}{
		Alias:           Alias(s),
		UnitPriceAtSale: float64(s.UnitPriceAtSale) / 100,
		TotalAmount:     float64(s.TotalAmount) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new sale line
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}
