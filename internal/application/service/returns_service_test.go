package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/pharmadesk/pharmacy-api/internal/cache"
	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
	"github.com/pharmadesk/pharmacy-api/internal/domain/enum"
	"github.com/pharmadesk/pharmacy-api/internal/infrastructure/repository/memory"
	"github.com/pharmadesk/pharmacy-api/pkg/apperror"
	"github.com/pharmadesk/pharmacy-api/pkg/pagination"
)

type returnsFixture struct {
	store       *memory.Store
	billing     *BillingService
	returns     *ReturnsService
	operator    uuid.UUID
	paracetamol *entity.Medicine
	amoxicillin *entity.Medicine
}

func newReturnsFixture(t *testing.T) *returnsFixture {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	paracetamol := &entity.Medicine{
		Name:         "Paracetamol 500mg",
		GenericName:  "Paracetamol",
		Quantity:     50,
		SellingPrice: 1000,
	}
	amoxicillin := &entity.Medicine{
		Name:         "Amoxicillin 250mg",
		GenericName:  "Amoxicillin",
		Quantity:     50,
		SellingPrice: 500,
	}
	for _, m := range []*entity.Medicine{paracetamol, amoxicillin} {
		if err := store.Medicines().Create(ctx, m); err != nil {
			t.Fatalf("seed medicine: %v", err)
		}
	}

	noop := cache.NewNoopCache()
	billing := NewBillingService(
		store.Medicines(), store.Invoices(), store.Customers(),
		NewSessionManager(), noop, &recordingReceiptQueue{}, 18)
	returns := NewReturnsService(
		store.Invoices(), store.Returns(), store.Medicines(), store.Customers(), noop)

	return &returnsFixture{
		store:       store,
		billing:     billing,
		returns:     returns,
		operator:    uuid.New(),
		paracetamol: paracetamol,
		amoxicillin: amoxicillin,
	}
}

// sellPaid checks out a paid invoice with the given line quantities and
// returns it with sale IDs assigned.
func (f *returnsFixture) sellPaid(t *testing.T, quantities map[uuid.UUID]int) *entity.Invoice {
	t.Helper()
	ctx := context.Background()

	session := f.billing.StartSession()
	for medicineID, qty := range quantities {
		if _, err := f.billing.AddToCart(ctx, session.ID, medicineID); err != nil {
			t.Fatalf("add to cart: %v", err)
		}
		if _, err := f.billing.UpdateCartQuantity(ctx, session.ID, medicineID, qty); err != nil {
			t.Fatalf("update quantity: %v", err)
		}
	}
	invoice, err := f.billing.Checkout(ctx, session.ID, enum.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return invoice
}

func (f *returnsFixture) saleID(t *testing.T, invoice *entity.Invoice, medicineID uuid.UUID) uuid.UUID {
	t.Helper()
	for _, item := range invoice.Items {
		if item.MedicineID == medicineID {
			return item.ID
		}
	}
	t.Fatalf("no sale line for medicine %s", medicineID)
	return uuid.Nil
}

func TestReturnSequenceEnforcesCeiling(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	invoice := f.sellPaid(t, map[uuid.UUID]int{f.paracetamol.ID: 10})
	saleID := f.saleID(t, invoice, f.paracetamol.ID)

	first, err := f.returns.RecordReturn(ctx, ReturnInput{SaleID: saleID, Quantity: 4, Reason: "damaged strip"}, f.operator)
	if err != nil {
		t.Fatalf("first return: %v", err)
	}
	if first.RefundAmount != 4000 {
		t.Fatalf("expected refund 4000, got %d", first.RefundAmount)
	}

	// 7 more would exceed the 10 sold
	_, err = f.returns.RecordReturn(ctx, ReturnInput{SaleID: saleID, Quantity: 7}, f.operator)
	if !apperror.IsConflict(err) {
		t.Fatalf("expected conflict for over-return, got %v", err)
	}

	// 6 exactly exhausts the line
	second, err := f.returns.RecordReturn(ctx, ReturnInput{SaleID: saleID, Quantity: 6}, f.operator)
	if err != nil {
		t.Fatalf("second return: %v", err)
	}
	if second.RefundAmount != 6000 {
		t.Fatalf("expected refund 6000, got %d", second.RefundAmount)
	}

	view, err := f.returns.GetReturnableInvoice(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("returnable invoice: %v", err)
	}
	line := view.Lines[0]
	if line.Remaining != 0 || !line.FullyReturned {
		t.Fatalf("expected fully returned line, got %+v", line)
	}
}

func TestReturnRestocksMedicine(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	invoice := f.sellPaid(t, map[uuid.UUID]int{f.paracetamol.ID: 10})
	saleID := f.saleID(t, invoice, f.paracetamol.ID)

	before, _ := f.store.Medicines().GetByID(ctx, f.paracetamol.ID)
	if _, err := f.returns.RecordReturn(ctx, ReturnInput{SaleID: saleID, Quantity: 4}, f.operator); err != nil {
		t.Fatalf("return: %v", err)
	}
	after, _ := f.store.Medicines().GetByID(ctx, f.paracetamol.ID)

	if after.Quantity != before.Quantity+4 {
		t.Fatalf("expected stock %d after restock, got %d", before.Quantity+4, after.Quantity)
	}
}

func TestReturnQuantityMustBePositive(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	invoice := f.sellPaid(t, map[uuid.UUID]int{f.paracetamol.ID: 2})
	saleID := f.saleID(t, invoice, f.paracetamol.ID)

	for _, qty := range []int{0, -3} {
		_, err := f.returns.RecordReturn(ctx, ReturnInput{SaleID: saleID, Quantity: qty}, f.operator)
		if err == nil || apperror.GetAppError(err).Code != 400 {
			t.Fatalf("expected 400 for quantity %d, got %v", qty, err)
		}
	}
}

func TestReturnUnknownSale(t *testing.T) {
	f := newReturnsFixture(t)

	_, err := f.returns.RecordReturn(context.Background(), ReturnInput{SaleID: uuid.New(), Quantity: 1}, f.operator)
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReturnAgainstPendingInvoiceRejected(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	session := f.billing.StartSession()
	if _, err := f.billing.AddToCart(ctx, session.ID, f.paracetamol.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	invoice, err := f.billing.Checkout(ctx, session.ID, enum.PaymentStatusPending)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	_, err = f.returns.RecordReturn(ctx, ReturnInput{SaleID: invoice.Items[0].ID, Quantity: 1}, f.operator)
	if !apperror.IsConflict(err) {
		t.Fatalf("expected conflict for pending invoice, got %v", err)
	}
}

func TestBatchReturnStopsAtFirstFailure(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	invoice := f.sellPaid(t, map[uuid.UUID]int{f.paracetamol.ID: 5, f.amoxicillin.ID: 3})
	paraSale := f.saleID(t, invoice, f.paracetamol.ID)
	amoxSale := f.saleID(t, invoice, f.amoxicillin.ID)

	result, err := f.returns.RecordReturnBatch(ctx, []ReturnInput{
		{SaleID: paraSale, Quantity: 2, Reason: "expired"},
		{SaleID: amoxSale, Quantity: 99}, // exceeds sold quantity
		{SaleID: paraSale, Quantity: 1},
	}, f.operator)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	if len(result.Committed) != 1 || result.Committed[0].SaleID != paraSale {
		t.Fatalf("expected only the first item committed, got %+v", result.Committed)
	}
	if len(result.Failed) != 1 || result.Failed[0].SaleID != amoxSale {
		t.Fatalf("expected 1 failure for amoxicillin line, got %+v", result.Failed)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != paraSale {
		t.Fatalf("expected item after the failure to be skipped, got %+v", result.Skipped)
	}

	// The item committed before the failure stays committed; the one after
	// the failure was never attempted
	sum, err := f.store.Returns().SumReturnedBySaleID(ctx, paraSale)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 2 {
		t.Fatalf("expected 2 units returned on paracetamol line, got %d", sum)
	}
}

func TestBatchReturnFailingFirstItemCommitsNothing(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	invoice := f.sellPaid(t, map[uuid.UUID]int{f.paracetamol.ID: 5})
	paraSale := f.saleID(t, invoice, f.paracetamol.ID)

	result, err := f.returns.RecordReturnBatch(ctx, []ReturnInput{
		{SaleID: uuid.New(), Quantity: 1},
		{SaleID: paraSale, Quantity: 2},
	}, f.operator)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	if len(result.Committed) != 0 {
		t.Fatalf("expected nothing committed, got %+v", result.Committed)
	}
	if len(result.Failed) != 1 || len(result.Skipped) != 1 || result.Skipped[0] != paraSale {
		t.Fatalf("expected the valid item skipped after the failure, got failed=%+v skipped=%+v", result.Failed, result.Skipped)
	}

	sum, err := f.store.Returns().SumReturnedBySaleID(ctx, paraSale)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 0 {
		t.Fatalf("expected no units returned after leading failure, got %d", sum)
	}
}

func TestBatchReturnEmptyRejected(t *testing.T) {
	f := newReturnsFixture(t)

	_, err := f.returns.RecordReturnBatch(context.Background(), nil, f.operator)
	if err == nil || apperror.GetAppError(err).Code != 400 {
		t.Fatalf("expected 400 for empty batch, got %v", err)
	}
}

func TestRefundIssuedOncePerReturn(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	invoice := f.sellPaid(t, map[uuid.UUID]int{f.paracetamol.ID: 5})
	saleID := f.saleID(t, invoice, f.paracetamol.ID)
	ret, err := f.returns.RecordReturn(ctx, ReturnInput{SaleID: saleID, Quantity: 2}, f.operator)
	if err != nil {
		t.Fatalf("return: %v", err)
	}

	refund, err := f.returns.RecordRefund(ctx, RefundInput{ReturnID: ret.ID, PaymentMethod: "Cash", Reason: "customer request"}, f.operator)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refund.Amount != ret.RefundAmount {
		t.Fatalf("expected refund amount %d, got %d", ret.RefundAmount, refund.Amount)
	}

	_, err = f.returns.RecordRefund(ctx, RefundInput{ReturnID: ret.ID, PaymentMethod: "Cash"}, f.operator)
	if !apperror.IsConflict(err) {
		t.Fatalf("expected conflict for double refund, got %v", err)
	}

	// A failed refund never undoes its return; the return is still recorded
	kept, _, err := f.returns.GetReturnDetails(ctx, ret.ID)
	if err != nil {
		t.Fatalf("return details: %v", err)
	}
	if kept.QuantityReturned != 2 {
		t.Fatalf("expected return intact, got %+v", kept)
	}
}

func TestRefundUnknownReturn(t *testing.T) {
	f := newReturnsFixture(t)

	_, err := f.returns.RecordRefund(context.Background(), RefundInput{ReturnID: uuid.New()}, f.operator)
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSearchInvoicesByNumber(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	invoice := f.sellPaid(t, map[uuid.UUID]int{f.paracetamol.ID: 1})

	found, err := f.returns.SearchInvoices(ctx, invoice.InvoiceNo)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != invoice.ID {
		t.Fatalf("expected to find invoice %s, got %d results", invoice.InvoiceNo, len(found))
	}

	if _, err := f.returns.SearchInvoices(ctx, ""); err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestReturnAndRefundHistory(t *testing.T) {
	f := newReturnsFixture(t)
	ctx := context.Background()

	invoice := f.sellPaid(t, map[uuid.UUID]int{f.paracetamol.ID: 5})
	saleID := f.saleID(t, invoice, f.paracetamol.ID)

	ret, err := f.returns.RecordReturn(ctx, ReturnInput{SaleID: saleID, Quantity: 1}, f.operator)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if _, err := f.returns.RecordRefund(ctx, RefundInput{ReturnID: ret.ID, PaymentMethod: "Cash"}, f.operator); err != nil {
		t.Fatalf("refund: %v", err)
	}

	returns, pag, err := f.returns.ListReturnHistory(ctx, nil, pagination.DefaultPagination())
	if err != nil {
		t.Fatalf("return history: %v", err)
	}
	if len(returns) != 1 || pag.Total != 1 {
		t.Fatalf("expected 1 return in history, got %d (total %d)", len(returns), pag.Total)
	}

	refunds, pag, err := f.returns.ListRefundHistory(ctx, nil, pagination.DefaultPagination())
	if err != nil {
		t.Fatalf("refund history: %v", err)
	}
	if len(refunds) != 1 || pag.Total != 1 {
		t.Fatalf("expected 1 refund in history, got %d (total %d)", len(refunds), pag.Total)
	}
}
