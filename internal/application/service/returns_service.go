package service

import (
	"context"
	"errors"
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
	"github.com/pharmadesk/pharmacy-api/pkg/pagination"
)

const invoiceSearchLimit = 10

// ReturnInput describes one requested return against a sale line.
type ReturnInput struct {
	SaleID   uuid.UUID `json:"sale_id"`
	Quantity int       `json:"quantity"`
	Reason   string    `json:"reason"`
}

// RefundInput describes a refund issued for a recorded return.
type RefundInput struct {
	ReturnID      uuid.UUID `json:"return_id"`
	PaymentMethod string    `json:"payment_method"`
	Reason        string    `json:"reason"`
}

// BatchReturnFailure is one rejected item from a batch return request.
type BatchReturnFailure struct {
	SaleID uuid.UUID `json:"sale_id"`
	Error  string    `json:"error"`
}

// BatchReturnResult reports the outcome of a batch return. Items committed
// before a failure stay committed; the failing item is reported in Failed
// and everything after it is skipped without being attempted.
type BatchReturnResult struct {
	Committed []entity.MedicineReturn `json:"committed"`
	Failed    []BatchReturnFailure    `json:"failed"`
	Skipped   []uuid.UUID             `json:"skipped,omitempty"`
}

// ReturnableInvoice is an invoice with the per-line return eligibility view.
type ReturnableInvoice struct {
	Invoice *entity.Invoice         `json:"invoice"`
	Lines   []entity.ReturnableLine `json:"lines"`
}

// ReturnsService handles return eligibility, return recording and refunds.
type ReturnsService struct {
	invoiceRepo  repository.InvoiceRepository
	returnRepo   repository.ReturnRepository
	medicineRepo repository.MedicineRepository
	customerRepo repository.CustomerRepository
	searchCache  cache.MedicineSearchCache
}

// NewReturnsService creates a new returns service
func NewReturnsService(
	invoiceRepo repository.InvoiceRepository,
	returnRepo repository.ReturnRepository,
	medicineRepo repository.MedicineRepository,
	customerRepo repository.CustomerRepository,
	searchCache cache.MedicineSearchCache,
) *ReturnsService {
	return &ReturnsService{
		invoiceRepo:  invoiceRepo,
		returnRepo:   returnRepo,
		medicineRepo: medicineRepo,
		customerRepo: customerRepo,
		searchCache:  searchCache,
	}
}

// SearchInvoices finds invoices by invoice number, customer name or phone
// for return processing.
func (s *ReturnsService) SearchInvoices(ctx context.Context, query string) ([]entity.Invoice, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.NewBadRequestError("Search query is required")
	}
	return s.invoiceRepo.Search(ctx, query, invoiceSearchLimit)
}

// GetReturnableInvoice returns an invoice with the remaining returnable
// quantity derived for every line. Remaining quantities are clamped at
// zero; the authoritative ceiling is still enforced when the return is
// recorded.
func (s *ReturnsService) GetReturnableInvoice(ctx context.Context, invoiceID uuid.UUID) (*ReturnableInvoice, error) {
	invoice, err := s.invoiceRepo.GetWithItems(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if invoice.PaymentStatus != enum.PaymentStatusPaid {
		return nil, apperror.NewConflictError("Returns are only accepted against finalized invoices")
	}

	saleIDs := make([]uuid.UUID, 0, len(invoice.Items))
	for _, sale := range invoice.Items {
		saleIDs = append(saleIDs, sale.ID)
	}
	sums, err := s.returnRepo.SumReturnedBySaleIDs(ctx, saleIDs)
	if err != nil {
		return nil, err
	}

	lines := make([]entity.ReturnableLine, 0, len(invoice.Items))
	for i := range invoice.Items {
		sale := &invoice.Items[i]
		lines = append(lines, entity.NewReturnableLine(sale, sums[sale.ID]))
	}

	return &ReturnableInvoice{Invoice: invoice, Lines: lines}, nil
}

// RecordReturn records a single return against a sale line, restocks the
// medicine and computes the refund amount from the price paid at sale time.
func (s *ReturnsService) RecordReturn(ctx context.Context, input ReturnInput, processedBy uuid.UUID) (*entity.MedicineReturn, error) {
	if input.Quantity <= 0 {
		return nil, apperror.NewBadRequestError("Return quantity must be positive")
	}

	sale, err := s.invoiceRepo.GetSale(ctx, input.SaleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, sale.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if invoice.PaymentStatus != enum.PaymentStatusPaid {
		return nil, apperror.NewConflictError("Returns are only accepted against finalized invoices")
	}

	// Advisory fast path; the repository re-checks atomically on insert
	returned, err := s.returnRepo.SumReturnedBySaleID(ctx, input.SaleID)
	if err != nil {
		return nil, err
	}
	remaining := sale.QuantitySold - returned
	if remaining < 0 {
		remaining = 0
	}
	if input.Quantity > remaining {
		return nil, apperror.NewConflictError(fmt.Sprintf("Only %d of %d units remain returnable", remaining, sale.QuantitySold))
	}

	ret := &entity.MedicineReturn{
		SaleID:           sale.ID,
		CustomerID:       invoice.CustomerID,
		MedicineID:       sale.MedicineID,
		QuantityReturned: input.Quantity,
		Reason:           input.Reason,
		RefundAmount:     sale.UnitPriceAtSale * int64(input.Quantity),
		ProcessedBy:      processedBy,
		ReturnDate:       time.Now(),
	}
	if err := s.returnRepo.Create(ctx, ret); err != nil {
		if errors.Is(err, repository.ErrOverReturn) {
			return nil, apperror.NewConflictError("Quantity returned would exceed quantity sold")
		}
		return nil, err
	}

	if err := s.medicineRepo.AtomicIncrementBatch(ctx, map[uuid.UUID]int{sale.MedicineID: input.Quantity}); err != nil {
		log.Printf("failed to restock medicine %s after return %s: %v", sale.MedicineID, ret.ID, err)
	}
	if err := s.searchCache.Invalidate(ctx); err != nil {
		log.Printf("search cache invalidate failed: %v", err)
	}

	ret.Medicine = sale.Medicine
	return ret, nil
}

// RecordReturnBatch processes returns sequentially and stops at the first
// item that fails. A failure never rolls back the items committed before
// it; the items after it are not attempted and come back as skipped.
func (s *ReturnsService) RecordReturnBatch(ctx context.Context, items []ReturnInput, processedBy uuid.UUID) (*BatchReturnResult, error) {
	if len(items) == 0 {
		return nil, apperror.NewBadRequestError("Batch must contain at least one return")
	}

	result := &BatchReturnResult{}
	for i, item := range items {
		ret, err := s.RecordReturn(ctx, item, processedBy)
		if err != nil {
			result.Failed = append(result.Failed, BatchReturnFailure{
				SaleID: item.SaleID,
				Error:  apperror.GetAppError(err).Message,
			})
			for _, rest := range items[i+1:] {
				result.Skipped = append(result.Skipped, rest.SaleID)
			}
			break
		}
		result.Committed = append(result.Committed, *ret)
	}
	return result, nil
}

// RecordRefund issues the refund for a recorded return. Each return is
// refunded at most once, for exactly the amount derived at return time.
func (s *ReturnsService) RecordRefund(ctx context.Context, input RefundInput, approvedBy uuid.UUID) (*entity.Refund, error) {
	ret, err := s.returnRepo.GetByID(ctx, input.ReturnID)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, apperror.NewNotFoundError("Return")
	}

	existing, err := s.returnRepo.GetRefundByReturnID(ctx, input.ReturnID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("This return has already been refunded")
	}

	method := input.PaymentMethod
	if method == "" {
		method = entity.DefaultPaymentMethod
	}
	if !allowedPaymentMethods[method] {
		return nil, apperror.NewBadRequestError("Unknown payment method: " + method)
	}

	refund := &entity.Refund{
		ReturnID:      ret.ID,
		CustomerID:    ret.CustomerID,
		PaymentMethod: method,
		Amount:        ret.RefundAmount,
		Reason:        input.Reason,
		ApprovedBy:    approvedBy,
		RefundDate:    time.Now(),
	}
	if err := s.returnRepo.CreateRefund(ctx, refund); err != nil {
		return nil, err
	}
	return refund, nil
}

// GetReturnDetails returns a recorded return together with its refund, if
// one has been issued.
func (s *ReturnsService) GetReturnDetails(ctx context.Context, returnID uuid.UUID) (*entity.MedicineReturn, *entity.Refund, error) {
	ret, err := s.returnRepo.GetByID(ctx, returnID)
	if err != nil {
		return nil, nil, err
	}
	if ret == nil {
		return nil, nil, apperror.NewNotFoundError("Return")
	}
	refund, err := s.returnRepo.GetRefundByReturnID(ctx, returnID)
	if err != nil {
		return nil, nil, err
	}
	return ret, refund, nil
}

// ListReturnHistory lists recorded returns, optionally filtered by customer.
func (s *ReturnsService) ListReturnHistory(ctx context.Context, customerID *uuid.UUID, params *pagination.PaginationParams) ([]entity.MedicineReturn, *pagination.Pagination, error) {
	params.Validate()
	returns, total, err := s.returnRepo.ListReturns(ctx, customerID, params)
	if err != nil {
		return nil, nil, err
	}
	return returns, pagination.NewPagination(params.Page, params.PerPage, total), nil
}

// ListRefundHistory lists issued refunds, optionally filtered by customer.
func (s *ReturnsService) ListRefundHistory(ctx context.Context, customerID *uuid.UUID, params *pagination.PaginationParams) ([]entity.Refund, *pagination.Pagination, error) {
	params.Validate()
	refunds, total, err := s.returnRepo.ListRefunds(ctx, customerID, params)
	if err != nil {
		return nil, nil, err
	}
	return refunds, pagination.NewPagination(params.Page, params.PerPage, total), nil
}
