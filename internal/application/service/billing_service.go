package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pharmadesk/pharmacy-api/internal/cache"
	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
	"github.com/pharmadesk/pharmacy-api/internal/domain/enum"
	"github.com/pharmadesk/pharmacy-api/internal/domain/repository"
	"github.com/pharmadesk/pharmacy-api/pkg/apperror"
	"github.com/pharmadesk/pharmacy-api/pkg/utils"
)

const searchResultLimit = 20

var allowedPaymentMethods = map[string]bool{
	"Cash":   true,
	"Card":   true,
	"UPI":    true,
	"Credit": true,
}

// SessionView is a billing session snapshot with its derived totals. Totals
// are recomputed on every read so they can never drift from the cart.
type SessionView struct {
	BillingSession
	Totals entity.InvoiceTotals `json:"totals"`
}

// BillingService handles catalog search, billing sessions and the invoice
// lifecycle.
type BillingService struct {
	medicineRepo repository.MedicineRepository
	invoiceRepo  repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	sessions     *SessionManager
	searchCache  cache.MedicineSearchCache
	receipts     ReceiptQueue
	gstRate      int64
}

// NewBillingService creates a new billing service
func NewBillingService(
	medicineRepo repository.MedicineRepository,
	invoiceRepo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	sessions *SessionManager,
	searchCache cache.MedicineSearchCache,
	receipts ReceiptQueue,
	gstRatePercent int64,
) *BillingService {
	return &BillingService{
		medicineRepo: medicineRepo,
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		sessions:     sessions,
		searchCache:  searchCache,
		receipts:     receipts,
		gstRate:      gstRatePercent,
	}
}

// SearchMedicines searches the in-stock catalog by name, generic name or
// brand. Results pass through the search cache.
func (s *BillingService) SearchMedicines(ctx context.Context, query string) ([]entity.MedicineSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.NewBadRequestError("Search query is required")
	}

	if cached, hit, err := s.searchCache.Get(ctx, query); err == nil && hit {
		return cached, nil
	}

	medicines, err := s.medicineRepo.Search(ctx, query, searchResultLimit)
	if err != nil {
		return nil, err
	}

	results := make([]entity.MedicineSearchResult, 0, len(medicines))
	for _, m := range medicines {
		results = append(results, entity.MedicineSearchResult{
			MedicineID:           m.ID,
			Name:                 m.Name,
			GenericName:          m.GenericName,
			Brand:                m.Brand,
			DosageForm:           m.DosageForm,
			Strength:             m.Strength,
			Category:             m.Category,
			PrescriptionRequired: m.PrescriptionRequired,
			TotalStock:           m.Quantity,
			UnitPrice:            m.GetSellingPriceDecimal(),
		})
	}

	if err := s.searchCache.Set(ctx, query, results); err != nil {
		log.Printf("search cache set failed: %v", err)
	}
	return results, nil
}

// StartSession opens a new billing session with an empty cart.
func (s *BillingService) StartSession() SessionView {
	return s.view(s.sessions.Create())
}

// GetSession returns the session with its current totals.
func (s *BillingService) GetSession(sessionID uuid.UUID) (SessionView, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return s.view(session), nil
}

// CloseSession discards a session and its cart.
func (s *BillingService) CloseSession(sessionID uuid.UUID) {
	s.sessions.Delete(sessionID)
}

// AddToCart adds one unit of a medicine to the session cart. Adding the
// same medicine again increments its quantity at the original price.
func (s *BillingService) AddToCart(ctx context.Context, sessionID, medicineID uuid.UUID) (SessionView, error) {
	medicine, err := s.medicineRepo.GetByID(ctx, medicineID)
	if err != nil {
		return SessionView{}, err
	}
	if medicine == nil {
		return SessionView{}, apperror.NewNotFoundError("Medicine")
	}

	session, err := s.sessions.WithSession(sessionID, func(session *BillingSession) error {
		current := 0
		if line, ok := session.Cart.Line(medicineID); ok {
			current = line.Quantity
		}
		if current+1 > medicine.Quantity {
			return apperror.NewConflictError(fmt.Sprintf("Only %d units of %s in stock", medicine.Quantity, medicine.Name))
		}
		session.Cart.AddLine(medicine, medicine.SellingPrice)
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}
	return s.view(session), nil
}

// UpdateCartQuantity sets the quantity for a cart line. Zero removes the
// line; that is an edit, not an error.
func (s *BillingService) UpdateCartQuantity(ctx context.Context, sessionID, medicineID uuid.UUID, quantity int) (SessionView, error) {
	if quantity < 0 {
		return SessionView{}, apperror.NewBadRequestError("Quantity cannot be negative")
	}

	var medicine *entity.Medicine
	if quantity > 0 {
		var err error
		medicine, err = s.medicineRepo.GetByID(ctx, medicineID)
		if err != nil {
			return SessionView{}, err
		}
		if medicine == nil {
			return SessionView{}, apperror.NewNotFoundError("Medicine")
		}
		if quantity > medicine.Quantity {
			return SessionView{}, apperror.NewConflictError(fmt.Sprintf("Only %d units of %s in stock", medicine.Quantity, medicine.Name))
		}
	}

	session, err := s.sessions.WithSession(sessionID, func(session *BillingSession) error {
		if quantity > 0 {
			if _, ok := session.Cart.Line(medicineID); !ok {
				return apperror.NewNotFoundError("Cart line")
			}
		}
		session.Cart.SetQuantity(medicineID, quantity)
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}
	return s.view(session), nil
}

// RemoveFromCart deletes a cart line.
func (s *BillingService) RemoveFromCart(sessionID, medicineID uuid.UUID) (SessionView, error) {
	session, err := s.sessions.WithSession(sessionID, func(session *BillingSession) error {
		session.Cart.RemoveLine(medicineID)
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}
	return s.view(session), nil
}

// ClearCart empties the session cart and resets customer and payment method.
func (s *BillingService) ClearCart(sessionID uuid.UUID) (SessionView, error) {
	session, err := s.sessions.WithSession(sessionID, func(session *BillingSession) error {
		session.Cart.Clear()
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}
	return s.view(session), nil
}

// SetCustomer attaches a customer to the session, or detaches with nil for
// a walk-in sale.
func (s *BillingService) SetCustomer(ctx context.Context, sessionID uuid.UUID, customerID *uuid.UUID) (SessionView, error) {
	if customerID != nil {
		customer, err := s.customerRepo.GetByID(ctx, *customerID)
		if err != nil {
			return SessionView{}, err
		}
		if customer == nil {
			return SessionView{}, apperror.NewNotFoundError("Customer")
		}
	}

	session, err := s.sessions.WithSession(sessionID, func(session *BillingSession) error {
		session.Cart.CustomerID = customerID
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}
	return s.view(session), nil
}

// SetPaymentMethod selects the payment method for the session.
func (s *BillingService) SetPaymentMethod(sessionID uuid.UUID, method string) (SessionView, error) {
	if !allowedPaymentMethods[method] {
		return SessionView{}, apperror.NewBadRequestError("Unknown payment method: " + method)
	}

	session, err := s.sessions.WithSession(sessionID, func(session *BillingSession) error {
		session.Cart.PaymentMethod = method
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}
	return s.view(session), nil
}

// Checkout creates an invoice from the session cart. The cart is cleared
// only after the invoice is committed; a failed checkout leaves the cart
// untouched for correction. Runs under the session lock so a double submit
// cannot create two invoices from one cart.
func (s *BillingService) Checkout(ctx context.Context, sessionID uuid.UUID, status enum.PaymentStatus) (*entity.Invoice, error) {
	var invoice *entity.Invoice
	_, err := s.sessions.WithSession(sessionID, func(session *BillingSession) error {
		created, err := s.CreateInvoice(ctx, &session.Cart, status)
		if err != nil {
			return err
		}
		invoice = created
		session.Cart.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// CreateInvoice commits a cart as an invoice: decrements stock atomically,
// snapshots the lines and records totals at the configured GST rate.
// A Credit sale stays Pending and adds its total to the customer's
// outstanding credit.
func (s *BillingService) CreateInvoice(ctx context.Context, cart *entity.Cart, status enum.PaymentStatus) (*entity.Invoice, error) {
	if cart.IsEmpty() {
		return nil, apperror.NewBadRequestError("Cannot create an invoice from an empty cart")
	}
	method := cart.PaymentMethod
	if method == "" {
		method = entity.DefaultPaymentMethod
	}
	if !allowedPaymentMethods[method] {
		return nil, apperror.NewBadRequestError("Unknown payment method: " + method)
	}
	if method == "Credit" {
		if cart.CustomerID == nil {
			return nil, apperror.NewBadRequestError("Credit sales require a customer")
		}
		// Credit sales are settled later via finalize
		status = enum.PaymentStatusPending
	}

	totals := entity.ComputeTotals(cart, s.gstRate)

	decrements := make(map[uuid.UUID]int, len(cart.Lines))
	for _, line := range cart.Lines {
		decrements[line.MedicineID] = line.Quantity
	}
	failed, err := s.medicineRepo.AtomicDecrementBatch(ctx, decrements)
	if err != nil {
		return nil, err
	}
	if len(failed) > 0 {
		names := s.medicineNames(ctx, cart, failed)
		return nil, apperror.NewConflictError("Insufficient stock for: " + strings.Join(names, ", "))
	}

	invoice := &entity.Invoice{
		InvoiceNo:     utils.GenerateInvoiceNo(),
		SaleDate:      time.Now(),
		CustomerID:    cart.CustomerID,
		PaymentMethod: method,
		PaymentStatus: status,
		SubTotal:      totals.SubTotal,
		GSTAmount:     totals.GSTAmount,
		Total:         totals.Total,
	}
	if method == "Credit" {
		invoice.OutstandingCredit = totals.Total
	}
	for _, line := range cart.Lines {
		invoice.Items = append(invoice.Items, entity.Sale{
			MedicineID:      line.MedicineID,
			QuantitySold:    line.Quantity,
			UnitPriceAtSale: line.UnitPrice,
			TotalAmount:     line.Total,
		})
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		// Put the stock back; the sale did not happen
		increments := make(map[uuid.UUID]int, len(decrements))
		for id, qty := range decrements {
			increments[id] = qty
		}
		if restockErr := s.medicineRepo.AtomicIncrementBatch(ctx, increments); restockErr != nil {
			log.Printf("failed to restore stock after invoice create failure: %v", restockErr)
		}
		return nil, err
	}

	if invoice.OutstandingCredit > 0 {
		if err := s.customerRepo.AddCredit(ctx, *invoice.CustomerID, invoice.OutstandingCredit); err != nil {
			log.Printf("failed to record outstanding credit for invoice %s: %v", invoice.InvoiceNo, err)
		}
	}

	if err := s.searchCache.Invalidate(ctx); err != nil {
		log.Printf("search cache invalidate failed: %v", err)
	}

	if invoice.PaymentStatus == enum.PaymentStatusPaid {
		s.receipts.EnqueueInvoice(invoice.ID)
	}
	return invoice, nil
}

// FinalizeInvoice transitions a Pending invoice to Paid. The transition is
// one-way: finalizing an already paid invoice is a conflict, never a
// silent success.
func (s *BillingService) FinalizeInvoice(ctx context.Context, id uuid.UUID, paymentMethod string) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}

	if paymentMethod == "" {
		paymentMethod = invoice.PaymentMethod
	} else if !allowedPaymentMethods[paymentMethod] {
		return nil, apperror.NewBadRequestError("Unknown payment method: " + paymentMethod)
	}

	ok, err := s.invoiceRepo.MarkPaid(ctx, id, paymentMethod)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewConflictError("Invoice is already finalized")
	}

	// Settling a credit sale clears the customer's outstanding balance
	if invoice.OutstandingCredit > 0 && invoice.CustomerID != nil {
		if err := s.customerRepo.AddCredit(ctx, *invoice.CustomerID, -invoice.OutstandingCredit); err != nil {
			log.Printf("failed to clear outstanding credit for invoice %s: %v", invoice.InvoiceNo, err)
		}
	}

	s.receipts.EnqueueInvoice(id)
	return s.invoiceRepo.GetWithItems(ctx, id)
}

// ListPendingInvoices returns all invoices still awaiting payment, newest
// first.
func (s *BillingService) ListPendingInvoices(ctx context.Context) ([]entity.Invoice, error) {
	return s.invoiceRepo.ListPending(ctx)
}

// GetInvoiceDetails returns an invoice with its line items.
func (s *BillingService) GetInvoiceDetails(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return invoice, nil
}

// ReprintReceipt queues receipt delivery for an already finalized invoice.
func (s *BillingService) ReprintReceipt(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if invoice == nil {
		return apperror.NewNotFoundError("Invoice")
	}
	if invoice.PaymentStatus != enum.PaymentStatusPaid {
		return apperror.NewConflictError("Receipts are only printed for finalized invoices")
	}
	s.receipts.EnqueueInvoice(id)
	return nil
}

func (s *BillingService) view(session BillingSession) SessionView {
	return SessionView{
		BillingSession: session,
		Totals:         entity.ComputeTotals(&session.Cart, s.gstRate),
	}
}

func (s *BillingService) medicineNames(ctx context.Context, cart *entity.Cart, ids []uuid.UUID) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if line, ok := cart.Line(id); ok {
			names = append(names, line.Name)
		} else {
			names = append(names, id.String())
		}
	}
	return names
}
