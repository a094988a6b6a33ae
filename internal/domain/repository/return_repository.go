package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
	"github.com/pharmadesk/pharmacy-api/pkg/pagination"
)

// ErrOverReturn is returned by Create when the new return would push the
// total quantity returned for a sale past its quantity sold. Implementations
// must perform this check atomically with the insert; the service layer's
// remaining-quantity check is only an advisory fast path.
var ErrOverReturn = errors.New("quantity returned exceeds quantity sold")

// ReturnRepository defines the interface for returns and refunds
type ReturnRepository interface {
	// Create persists a return, enforcing the remaining-quantity invariant
	// atomically. Returns ErrOverReturn when the invariant would be violated.
	Create(ctx context.Context, ret *entity.MedicineReturn) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.MedicineReturn, error)
	SumReturnedBySaleID(ctx context.Context, saleID uuid.UUID) (int, error)
	SumReturnedBySaleIDs(ctx context.Context, saleIDs []uuid.UUID) (map[uuid.UUID]int, error)
	ListReturns(ctx context.Context, customerID *uuid.UUID, params *pagination.PaginationParams) ([]entity.MedicineReturn, int64, error)

	CreateRefund(ctx context.Context, refund *entity.Refund) error
	GetRefundByReturnID(ctx context.Context, returnID uuid.UUID) (*entity.Refund, error)
	ListRefunds(ctx context.Context, customerID *uuid.UUID, params *pagination.PaginationParams) ([]entity.Refund, int64, error)
}
