package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MedicineReturn records that a specific quantity of a previously sold line
// was returned. Immutable once created: corrections happen via new records.
// Invariant: the sum of QuantityReturned across all returns referencing a
// sale must never exceed that sale's QuantitySold.
type MedicineReturn struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key" json:"return_id"`
	SaleID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"sale_id"`
	CustomerID       *uuid.UUID     `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	MedicineID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"medicine_id"`
	QuantityReturned int            `gorm:"not null" json:"quantity_returned"`
	Reason           string         `gorm:"type:text" json:"reason_for_return"`
	RefundAmount     int64          `gorm:"not null" json:"-"` // Stored in cents, excluded from JSON
	ProcessedBy      uuid.UUID      `gorm:"type:uuid" json:"processed_by"`
	ReturnDate       time.Time      `gorm:"type:date;not null" json:"return_date"`
	CreatedAt        time.Time      `json:"created_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Sale     Sale      `gorm:"foreignKey:SaleID" json:"-"`
	Medicine Medicine  `gorm:"foreignKey:MedicineID" json:"medicine,omitempty"`
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (r MedicineReturn) MarshalJSON() ([]byte, error) {
	type Alias MedicineReturn
	return json.Marshal(&struct {
		Alias
		RefundAmount float64 `json:"refund_amount"`
	}{
		Alias:        Alias(r),
		RefundAmount: float64(r.RefundAmount) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new return
func (r *MedicineReturn) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the MedicineReturn model
func (MedicineReturn) TableName() string {
	return "medicine_returns"
}

// Refund records money returned to a customer for exactly one return.
// A failed refund never undoes its return; the two are linked but
// independent records.
type Refund struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"refund_id"`
	ReturnID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"return_id"`
	CustomerID    *uuid.UUID     `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	PaymentMethod string         `gorm:"size:50" json:"payment_method"`
	Amount        int64          `gorm:"not null" json:"-"` // Stored in cents, excluded from JSON
	Reason        string         `gorm:"type:text" json:"refund_reason"`
	ApprovedBy    uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	RefundDate    time.Time      `gorm:"type:date;not null" json:"refund_date"`
	CreatedAt     time.Time      `json:"created_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Return   MedicineReturn `gorm:"foreignKey:ReturnID" json:"-"`
	Customer *Customer      `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (r Refund) MarshalJSON() ([]byte, error) {
	type Alias Refund
	return json.Marshal(&struct {
		Alias
		Amount float64 `json:"refund_amount"`
	}{
		Alias:  Alias(r),
		Amount: float64(r.Amount) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new refund
func (r *Refund) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Refund model
func (Refund) TableName() string {
	return "refunds"
}

// ReturnableLine is the derived eligibility view for one invoice line:
// how much of it may still be returned given the returns recorded so far.
// RemainingQuantity is clamped at zero; a concurrent session may have
// recorded a return after this view was computed, and negative remainders
// must never be shown.
type ReturnableLine struct {
	SaleID           uuid.UUID `json:"sale_id"`
	MedicineID       uuid.UUID `json:"medicine_id"`
	MedicineName     string    `json:"medicine_name"`
	GenericName      string    `json:"generic_name"`
	Brand            string    `json:"brand"`
	QuantitySold     int       `json:"quantity_sold"`
	QuantityReturned int       `json:"quantity_returned"`
	Remaining        int       `json:"remaining_quantity"`
	UnitPriceAtSale  float64   `json:"unit_price_at_sale"`
	FullyReturned    bool      `json:"fully_returned"`
	PartiallyReturned bool     `json:"partially_returned"`
}

// NewReturnableLine derives the eligibility view for a sale line given the
// total quantity already returned against it.
func NewReturnableLine(sale *Sale, returned int) ReturnableLine {
	remaining := sale.QuantitySold - returned
	if remaining < 0 {
		remaining = 0
	}
	return ReturnableLine{
		SaleID:            sale.ID,
		MedicineID:        sale.MedicineID,
		MedicineName:      sale.Medicine.Name,
		GenericName:       sale.Medicine.GenericName,
		Brand:             sale.Medicine.Brand,
		QuantitySold:      sale.QuantitySold,
		QuantityReturned:  returned,
		Remaining:         remaining,
		UnitPriceAtSale:   float64(sale.UnitPriceAtSale) / 100,
		FullyReturned:     remaining == 0,
		PartiallyReturned: returned > 0 && remaining > 0,
	}
}
