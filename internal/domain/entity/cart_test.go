package entity

import (
	"testing"

	"github.com/google/uuid"
)

func testMedicine(name string, price int64) *Medicine {
	return &Medicine{
		ID:           uuid.New(),
		Name:         name,
		SellingPrice: price,
		Quantity:     100,
	}
}

func TestAddLineIncrementsExistingLine(t *testing.T) {
	cart := NewCart()
	med := testMedicine("Paracetamol 500mg", 1000)

	cart.AddLine(med, med.SellingPrice)
	cart.AddLine(med, med.SellingPrice)

	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	line, _ := cart.Line(med.ID)
	if line.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", line.Quantity)
	}
	if line.Total != 2000 {
		t.Fatalf("expected line total 2000, got %d", line.Total)
	}
}

func TestAddLineKeepsOriginalPrice(t *testing.T) {
	cart := NewCart()
	med := testMedicine("Amoxicillin 250mg", 1500)

	cart.AddLine(med, 1500)
	// Second add with a different price hint must not reprice the line
	cart.AddLine(med, 9999)

	line, _ := cart.Line(med.ID)
	if line.UnitPrice != 1500 {
		t.Fatalf("expected unit price 1500, got %d", line.UnitPrice)
	}
	if line.Total != 3000 {
		t.Fatalf("expected total 3000, got %d", line.Total)
	}
}

func TestSetQuantityRecomputesTotal(t *testing.T) {
	cart := NewCart()
	med := testMedicine("Cetirizine 10mg", 500)
	cart.AddLine(med, med.SellingPrice)

	cart.SetQuantity(med.ID, 7)

	line, _ := cart.Line(med.ID)
	if line.Quantity != 7 || line.Total != 3500 {
		t.Fatalf("expected qty 7 total 3500, got qty %d total %d", line.Quantity, line.Total)
	}
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	cart := NewCart()
	med := testMedicine("Ibuprofen 400mg", 800)
	cart.AddLine(med, med.SellingPrice)

	cart.SetQuantity(med.ID, 0)

	if !cart.IsEmpty() {
		t.Fatal("expected cart to be empty after setting quantity to zero")
	}
}

func TestSetQuantityZeroMatchesRemoveLine(t *testing.T) {
	medA := testMedicine("Medicine A", 1200)
	medB := testMedicine("Medicine B", 700)

	viaSet := NewCart()
	viaSet.AddLine(medA, medA.SellingPrice)
	viaSet.AddLine(medB, medB.SellingPrice)
	viaSet.SetQuantity(medA.ID, 0)

	viaRemove := NewCart()
	viaRemove.AddLine(medA, medA.SellingPrice)
	viaRemove.AddLine(medB, medB.SellingPrice)
	viaRemove.RemoveLine(medA.ID)

	if len(viaSet.Lines) != len(viaRemove.Lines) {
		t.Fatalf("line counts differ: %d vs %d", len(viaSet.Lines), len(viaRemove.Lines))
	}
	if viaSet.SubTotal() != viaRemove.SubTotal() {
		t.Fatalf("subtotals differ: %d vs %d", viaSet.SubTotal(), viaRemove.SubTotal())
	}
}

func TestClearResetsCustomerAndPaymentMethod(t *testing.T) {
	cart := NewCart()
	med := testMedicine("Azithromycin 500mg", 2000)
	customerID := uuid.New()

	cart.AddLine(med, med.SellingPrice)
	cart.CustomerID = &customerID
	cart.PaymentMethod = "Card"

	cart.Clear()

	if !cart.IsEmpty() {
		t.Fatal("expected empty cart after clear")
	}
	if cart.CustomerID != nil {
		t.Fatal("expected customer to be detached after clear")
	}
	if cart.PaymentMethod != DefaultPaymentMethod {
		t.Fatalf("expected payment method %q, got %q", DefaultPaymentMethod, cart.PaymentMethod)
	}
}

func TestComputeTotals(t *testing.T) {
	cart := NewCart()
	medA := testMedicine("Medicine A", 1000)
	medB := testMedicine("Medicine B", 500)

	cart.AddLine(medA, medA.SellingPrice)
	cart.SetQuantity(medA.ID, 2) // 20.00
	cart.AddLine(medB, medB.SellingPrice)
	// subtotal 25.00

	totals := ComputeTotals(&cart, 18)

	if totals.SubTotal != 2500 {
		t.Fatalf("expected subtotal 2500, got %d", totals.SubTotal)
	}
	if totals.GSTAmount != 450 {
		t.Fatalf("expected GST 450, got %d", totals.GSTAmount)
	}
	if totals.Total != 2950 {
		t.Fatalf("expected total 2950, got %d", totals.Total)
	}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	cart := NewCart()
	totals := ComputeTotals(&cart, 18)

	if totals.SubTotal != 0 || totals.GSTAmount != 0 || totals.Total != 0 {
		t.Fatalf("expected all-zero totals for empty cart, got %+v", totals)
	}
}

func TestComputeTotalsDeterministic(t *testing.T) {
	cart := NewCart()
	med := testMedicine("Medicine", 333)
	cart.AddLine(med, med.SellingPrice)
	cart.SetQuantity(med.ID, 3)

	first := ComputeTotals(&cart, 18)
	second := ComputeTotals(&cart, 18)

	if first != second {
		t.Fatalf("totals not deterministic: %+v vs %+v", first, second)
	}
}

func TestNewReturnableLineClampsAtZero(t *testing.T) {
	sale := &Sale{
		ID:              uuid.New(),
		MedicineID:      uuid.New(),
		QuantitySold:    5,
		UnitPriceAtSale: 1000,
		Medicine:        Medicine{Name: "Paracetamol 500mg"},
	}

	// More returned than sold can be observed under concurrent sessions
	line := NewReturnableLine(sale, 7)

	if line.Remaining != 0 {
		t.Fatalf("expected remaining clamped to 0, got %d", line.Remaining)
	}
	if !line.FullyReturned {
		t.Fatal("expected line to report fully returned")
	}
}

func TestNewReturnableLinePartialReturn(t *testing.T) {
	sale := &Sale{
		ID:              uuid.New(),
		MedicineID:      uuid.New(),
		QuantitySold:    10,
		UnitPriceAtSale: 250,
	}

	line := NewReturnableLine(sale, 4)

	if line.Remaining != 6 {
		t.Fatalf("expected remaining 6, got %d", line.Remaining)
	}
	if !line.PartiallyReturned || line.FullyReturned {
		t.Fatalf("expected partial return flags, got partial=%v full=%v", line.PartiallyReturned, line.FullyReturned)
	}
}
