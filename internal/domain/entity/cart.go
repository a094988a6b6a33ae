package entity

import (
	"encoding/json"

	"github.com/google/uuid"
)

// DefaultPaymentMethod is the payment method a fresh cart starts with.
const DefaultPaymentMethod = "Cash"

// CartLine is one in-progress billing line, unique by medicine within a cart.
// It exists only inside a cart; invoices snapshot it into a Sale.
type CartLine struct {
	MedicineID  uuid.UUID `json:"medicine_id"`
	Name        string    `json:"medicine_name"`
	GenericName string    `json:"generic_name,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	UnitPrice   int64     `json:"-"` // cents
	Quantity    int       `json:"quantity"`
	Total       int64     `json:"-"` // cents, always UnitPrice * Quantity
}

// MarshalJSON converts cents to decimal for API responses
func (l CartLine) MarshalJSON() ([]byte, error) {
	type Alias CartLine
	return json.Marshal(&struct {
		Alias
		UnitPrice float64 `json:"unit_price"`
		Total     float64 `json:"total"`
	}{
		Alias:     Alias(l),
		UnitPrice: float64(l.UnitPrice) / 100,
		Total:     float64(l.Total) / 100,
	})
}

// Cart is the in-progress, unsaved collection of lines an operator is
// billing, plus the selected customer and payment method. It performs no
// I/O; callers own synchronization.
type Cart struct {
	Lines         []CartLine `json:"lines"`
	CustomerID    *uuid.UUID `json:"customer_id,omitempty"`
	PaymentMethod string     `json:"payment_method"`
}

// NewCart returns an empty cart with defaults applied.
func NewCart() Cart {
	return Cart{PaymentMethod: DefaultPaymentMethod}
}

// line returns a pointer to the line for the given medicine, if present.
func (c *Cart) line(medicineID uuid.UUID) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].MedicineID == medicineID {
			return &c.Lines[i]
		}
	}
	return nil
}

// Line returns a copy of the line for the given medicine.
func (c *Cart) Line(medicineID uuid.UUID) (CartLine, bool) {
	if l := c.line(medicineID); l != nil {
		return *l, true
	}
	return CartLine{}, false
}

// AddLine adds one unit of the given medicine at priceHint (cents). If a
// line for the medicine already exists its quantity is incremented instead;
// the existing unit price is kept so repeated adds cannot reprice a line.
// No stock check happens here: that is the catalog's responsibility at add
// time.
func (c *Cart) AddLine(m *Medicine, priceHint int64) {
	if l := c.line(m.ID); l != nil {
		l.Quantity++
		l.Total = l.UnitPrice * int64(l.Quantity)
		return
	}
	c.Lines = append(c.Lines, CartLine{
		MedicineID:  m.ID,
		Name:        m.Name,
		GenericName: m.GenericName,
		Brand:       m.Brand,
		UnitPrice:   priceHint,
		Quantity:    1,
		Total:       priceHint,
	})
}

// SetQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line: zero quantity is deletion, not an error. The line
// total is recomputed from the unit price rather than adjusted
// incrementally, so repeated edits cannot drift.
func (c *Cart) SetQuantity(medicineID uuid.UUID, qty int) {
	if qty <= 0 {
		c.RemoveLine(medicineID)
		return
	}
	if l := c.line(medicineID); l != nil {
		l.Quantity = qty
		l.Total = l.UnitPrice * int64(qty)
	}
}

// RemoveLine deletes the line for the given medicine; no-op if absent.
func (c *Cart) RemoveLine(medicineID uuid.UUID) {
	for i := range c.Lines {
		if c.Lines[i].MedicineID == medicineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart and resets the selected customer and payment
// method to their defaults.
func (c *Cart) Clear() {
	c.Lines = nil
	c.CustomerID = nil
	c.PaymentMethod = DefaultPaymentMethod
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// SubTotal returns the sum of all line totals in cents.
func (c *Cart) SubTotal() int64 {
	var sum int64
	for i := range c.Lines {
		sum += c.Lines[i].Total
	}
	return sum
}

// InvoiceTotals is the derived totals value for a cart at a given tax rate.
// It is recomputed on every read and never cached, so it cannot go stale
// against the cart it was derived from.
type InvoiceTotals struct {
	SubTotal       int64 `json:"-"`
	GSTRatePercent int64 `json:"gst_rate_percent"`
	GSTAmount      int64 `json:"-"`
	Total          int64 `json:"-"`
}

// MarshalJSON converts cents to decimal for API responses
func (t InvoiceTotals) MarshalJSON() ([]byte, error) {
	type Alias InvoiceTotals
	return json.Marshal(&struct {
		Alias
		SubTotal  float64 `json:"sub_total"`
		GSTAmount float64 `json:"gst_amount"`
		Total     float64 `json:"total"`
	}{
		Alias:     Alias(t),
		SubTotal:  float64(t.SubTotal) / 100,
		GSTAmount: float64(t.GSTAmount) / 100,
		Total:     float64(t.Total) / 100,
	})
}

// ComputeTotals derives the invoice totals for a cart. Pure and
// deterministic: an empty cart yields all zeroes.
func ComputeTotals(c *Cart, gstRatePercent int64) InvoiceTotals {
	sub := c.SubTotal()
	gst := sub * gstRatePercent / 100
	return InvoiceTotals{
		SubTotal:       sub,
		GSTRatePercent: gstRatePercent,
		GSTAmount:      gst,
		Total:          sub + gst,
	}
}
