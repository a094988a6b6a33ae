package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
)

// InvoiceRepository defines the interface for the invoice ledger.
// Sale line snapshots are created together with their invoice and are never
// updated afterwards.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	// ListPending returns all invoices awaiting finalization, newest first.
	ListPending(ctx context.Context) ([]entity.Invoice, error)
	// MarkPaid transitions a Pending invoice to Paid. Returns false when no
	// pending invoice with the given ID exists (unknown ID or already paid);
	// callers distinguish the two with GetByID.
	MarkPaid(ctx context.Context, id uuid.UUID, paymentMethod string) (bool, error)
	// Search matches invoices by invoice number, customer name or phone for
	// return processing, capped at limit, with line items loaded.
	Search(ctx context.Context, query string, limit int) ([]entity.Invoice, error)
	GetSale(ctx context.Context, saleID uuid.UUID) (*entity.Sale, error)
}
