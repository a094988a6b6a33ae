package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/pharmadesk/pharmacy-api/internal/cache"
	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
	"github.com/pharmadesk/pharmacy-api/internal/domain/enum"
	"github.com/pharmadesk/pharmacy-api/internal/infrastructure/repository/memory"
	"github.com/pharmadesk/pharmacy-api/pkg/apperror"
)

// recordingReceiptQueue captures enqueued invoice IDs instead of printing.
type recordingReceiptQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (q *recordingReceiptQueue) EnqueueInvoice(invoiceID uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, invoiceID)
}

func (q *recordingReceiptQueue) Close() {}

func (q *recordingReceiptQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

type billingFixture struct {
	store       *memory.Store
	svc         *BillingService
	queue       *recordingReceiptQueue
	paracetamol *entity.Medicine
	amoxicillin *entity.Medicine
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	paracetamol := &entity.Medicine{
		Name:         "Paracetamol 500mg",
		GenericName:  "Paracetamol",
		Brand:        "Calpol",
		Quantity:     10,
		SellingPrice: 1000,
	}
	amoxicillin := &entity.Medicine{
		Name:         "Amoxicillin 250mg",
		GenericName:  "Amoxicillin",
		Brand:        "Mox",
		Quantity:     3,
		SellingPrice: 500,
	}
	for _, m := range []*entity.Medicine{paracetamol, amoxicillin} {
		if err := store.Medicines().Create(ctx, m); err != nil {
			t.Fatalf("seed medicine: %v", err)
		}
	}

	queue := &recordingReceiptQueue{}
	svc := NewBillingService(
		store.Medicines(), store.Invoices(), store.Customers(),
		NewSessionManager(), cache.NewNoopCache(), queue, 18)

	return &billingFixture{
		store:       store,
		svc:         svc,
		queue:       queue,
		paracetamol: paracetamol,
		amoxicillin: amoxicillin,
	}
}

func TestCheckoutCreatesInvoice(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	session := f.svc.StartSession()
	if _, err := f.svc.AddToCart(ctx, session.ID, f.paracetamol.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if _, err := f.svc.UpdateCartQuantity(ctx, session.ID, f.paracetamol.ID, 2); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if _, err := f.svc.AddToCart(ctx, session.ID, f.amoxicillin.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	invoice, err := f.svc.Checkout(ctx, session.ID, enum.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if invoice.SubTotal != 2500 || invoice.GSTAmount != 450 || invoice.Total != 2950 {
		t.Fatalf("unexpected totals: sub=%d gst=%d total=%d", invoice.SubTotal, invoice.GSTAmount, invoice.Total)
	}
	if invoice.PaymentStatus != enum.PaymentStatusPaid {
		t.Fatalf("expected Paid, got %s", invoice.PaymentStatus)
	}
	if invoice.InvoiceNo == "" {
		t.Fatal("expected invoice number to be assigned")
	}

	// Stock decremented
	m, _ := f.store.Medicines().GetByID(ctx, f.paracetamol.ID)
	if m.Quantity != 8 {
		t.Fatalf("expected paracetamol stock 8, got %d", m.Quantity)
	}

	// Receipt scheduled for the paid invoice
	if f.queue.count() != 1 {
		t.Fatalf("expected 1 receipt enqueued, got %d", f.queue.count())
	}

	// Cart cleared only after success
	view, err := f.svc.GetSession(session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !view.Cart.IsEmpty() {
		t.Fatal("expected cart to be cleared after checkout")
	}
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	f := newBillingFixture(t)
	session := f.svc.StartSession()

	_, err := f.svc.Checkout(context.Background(), session.ID, enum.PaymentStatusPaid)
	if err == nil {
		t.Fatal("expected error for empty cart")
	}
	if apperror.GetAppError(err).Code != 400 {
		t.Fatalf("expected 400, got %d", apperror.GetAppError(err).Code)
	}
}

func TestPendingInvoiceListedAndFinalizedOnce(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	session := f.svc.StartSession()
	if _, err := f.svc.AddToCart(ctx, session.ID, f.paracetamol.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	invoice, err := f.svc.Checkout(ctx, session.ID, enum.PaymentStatusPending)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if f.queue.count() != 0 {
		t.Fatal("pending invoice must not schedule a receipt")
	}

	pending, err := f.svc.ListPendingInvoices(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != invoice.ID {
		t.Fatalf("expected the pending invoice to be listed, got %d invoices", len(pending))
	}

	finalized, err := f.svc.FinalizeInvoice(ctx, invoice.ID, "Card")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if finalized.PaymentStatus != enum.PaymentStatusPaid {
		t.Fatalf("expected Paid after finalize, got %s", finalized.PaymentStatus)
	}
	if f.queue.count() != 1 {
		t.Fatalf("expected receipt after finalize, got %d", f.queue.count())
	}

	// Second finalize must conflict, never silently succeed
	_, err = f.svc.FinalizeInvoice(ctx, invoice.ID, "Cash")
	if !apperror.IsConflict(err) {
		t.Fatalf("expected conflict on double finalize, got %v", err)
	}

	pending, _ = f.svc.ListPendingInvoices(ctx)
	if len(pending) != 0 {
		t.Fatalf("expected no pending invoices, got %d", len(pending))
	}
}

func TestFinalizeUnknownInvoice(t *testing.T) {
	f := newBillingFixture(t)

	_, err := f.svc.FinalizeInvoice(context.Background(), uuid.New(), "Cash")
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCheckoutInsufficientStockLeavesCartIntact(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	// Two sessions race for the 3 units of amoxicillin
	first := f.svc.StartSession()
	second := f.svc.StartSession()
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		if _, err := f.svc.AddToCart(ctx, id, f.amoxicillin.ID); err != nil {
			t.Fatalf("add to cart: %v", err)
		}
		if _, err := f.svc.UpdateCartQuantity(ctx, id, f.amoxicillin.ID, 3); err != nil {
			t.Fatalf("update quantity: %v", err)
		}
	}

	if _, err := f.svc.Checkout(ctx, first.ID, enum.PaymentStatusPaid); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	_, err := f.svc.Checkout(ctx, second.ID, enum.PaymentStatusPaid)
	if !apperror.IsConflict(err) {
		t.Fatalf("expected conflict on insufficient stock, got %v", err)
	}

	// Failed checkout leaves the cart untouched for correction
	view, err := f.svc.GetSession(second.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if line, ok := view.Cart.Line(f.amoxicillin.ID); !ok || line.Quantity != 3 {
		t.Fatal("expected cart line preserved after failed checkout")
	}
}

func TestAddToCartStockCeiling(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	session := f.svc.StartSession()

	for i := 0; i < 3; i++ {
		if _, err := f.svc.AddToCart(ctx, session.ID, f.amoxicillin.ID); err != nil {
			t.Fatalf("add %d: %v", i+1, err)
		}
	}

	_, err := f.svc.AddToCart(ctx, session.ID, f.amoxicillin.ID)
	if !apperror.IsConflict(err) {
		t.Fatalf("expected conflict beyond stock, got %v", err)
	}
}

func TestAddToCartUnknownMedicine(t *testing.T) {
	f := newBillingFixture(t)
	session := f.svc.StartSession()

	_, err := f.svc.AddToCart(context.Background(), session.ID, uuid.New())
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreditSaleRequiresCustomer(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	session := f.svc.StartSession()

	if _, err := f.svc.AddToCart(ctx, session.ID, f.paracetamol.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if _, err := f.svc.SetPaymentMethod(session.ID, "Credit"); err != nil {
		t.Fatalf("set payment method: %v", err)
	}

	_, err := f.svc.Checkout(ctx, session.ID, enum.PaymentStatusPaid)
	if err == nil || apperror.GetAppError(err).Code != 400 {
		t.Fatalf("expected 400 for credit sale without customer, got %v", err)
	}
}

func TestCreditSaleTracksOutstandingCredit(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	customer := &entity.Customer{Name: "Asha Patel"}
	if err := f.store.Customers().Create(ctx, customer); err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	session := f.svc.StartSession()
	if _, err := f.svc.AddToCart(ctx, session.ID, f.paracetamol.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if _, err := f.svc.SetCustomer(ctx, session.ID, &customer.ID); err != nil {
		t.Fatalf("set customer: %v", err)
	}
	if _, err := f.svc.SetPaymentMethod(session.ID, "Credit"); err != nil {
		t.Fatalf("set payment method: %v", err)
	}

	invoice, err := f.svc.Checkout(ctx, session.ID, enum.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// Credit sales stay pending until settled, regardless of requested status
	if invoice.PaymentStatus != enum.PaymentStatusPending {
		t.Fatalf("expected credit sale to stay Pending, got %s", invoice.PaymentStatus)
	}
	if invoice.OutstandingCredit != invoice.Total {
		t.Fatalf("expected outstanding credit %d, got %d", invoice.Total, invoice.OutstandingCredit)
	}

	c, _ := f.store.Customers().GetByID(ctx, customer.ID)
	if c.OutstandingCredit != invoice.Total {
		t.Fatalf("expected customer credit %d, got %d", invoice.Total, c.OutstandingCredit)
	}

	// Settling the invoice clears the balance
	if _, err := f.svc.FinalizeInvoice(ctx, invoice.ID, "Cash"); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	c, _ = f.store.Customers().GetByID(ctx, customer.ID)
	if c.OutstandingCredit != 0 {
		t.Fatalf("expected cleared credit, got %d", c.OutstandingCredit)
	}
}

func TestSearchMedicines(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	results, err := f.svc.SearchMedicines(ctx, "para")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Paracetamol 500mg" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].UnitPrice != 10.0 {
		t.Fatalf("expected unit price 10.00, got %v", results[0].UnitPrice)
	}

	if _, err := f.svc.SearchMedicines(ctx, "   "); err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestSearchExcludesOutOfStock(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	out := &entity.Medicine{Name: "Paracetamol 650mg", GenericName: "Paracetamol", Quantity: 0, SellingPrice: 1200}
	if err := f.store.Medicines().Create(ctx, out); err != nil {
		t.Fatalf("seed: %v", err)
	}

	results, err := f.svc.SearchMedicines(ctx, "paracetamol")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range results {
		if r.MedicineID == out.ID {
			t.Fatal("out-of-stock medicine must not appear in search results")
		}
	}
}
