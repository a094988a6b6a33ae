package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Medicine represents a stocked medicine in the pharmacy inventory
type Medicine struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name                 string         `gorm:"size:255;not null;index" json:"name"`
	GenericName          string         `gorm:"size:255;index" json:"generic_name"`
	Brand                string         `gorm:"size:255;index" json:"brand"`
	DosageForm           string         `gorm:"size:100" json:"dosage_form"`
	Strength             string         `gorm:"size:100" json:"strength"`
	Category             string         `gorm:"size:100" json:"category"`
	PrescriptionRequired bool           `gorm:"default:false" json:"prescription_required"`
	Quantity             int            `gorm:"default:0" json:"quantity"`
	QuantityAlert        int            `gorm:"default:0" json:"quantity_alert"`
	SellingPrice         int64          `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	BatchNumber          string         `gorm:"size:100" json:"batch_number"`
	ExpiryDate           *time.Time     `gorm:"type:date" json:"expiry_date,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (m Medicine) MarshalJSON() ([]byte, error) {
	type Alias Medicine
	return json.Marshal(&struct {
		Alias
		SellingPrice float64 `json:"selling_price"`
	}{
		Alias:        Alias(m),
		SellingPrice: float64(m.SellingPrice) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new medicine
func (m *Medicine) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Medicine model
func (Medicine) TableName() string {
	return "medicines"
}

// GetSellingPriceDecimal returns the selling price as a decimal
func (m *Medicine) GetSellingPriceDecimal() float64 {
	return float64(m.SellingPrice) / 100
}

// MedicineSearchResult is the read view returned by catalog search.
// It is composed at query time and is safe to round-trip through the
// search cache as plain JSON.
type MedicineSearchResult struct {
	MedicineID           uuid.UUID `json:"medicine_id"`
	Name                 string    `json:"medicine_name"`
	GenericName          string    `json:"generic_name"`
	Brand                string    `json:"brand"`
	DosageForm           string    `json:"dosage_form"`
	Strength             string    `json:"strength"`
	Category             string    `json:"category"`
	PrescriptionRequired bool      `json:"prescription_required"`
	TotalStock           int       `json:"total_stock"`
	UnitPrice            float64   `json:"unit_price"`
}
