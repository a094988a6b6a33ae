package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	// AddCredit atomically adds amount (cents, may be negative) to the
	// customer's outstanding credit.
	AddCredit(ctx context.Context, id uuid.UUID, amount int64) error
}
