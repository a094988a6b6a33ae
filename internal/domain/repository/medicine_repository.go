package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
)

// MedicineRepository defines the interface for medicine catalog operations
type MedicineRepository interface {
	Create(ctx context.Context, medicine *entity.Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Medicine, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Medicine, error)
	// Search returns in-stock medicines matching the query against name,
	// generic name or brand, capped at limit.
	Search(ctx context.Context, query string, limit int) ([]entity.Medicine, error)
	// AtomicDecrementBatch decrements stock for multiple medicines in a
	// single transaction. Medicines with insufficient stock are returned as
	// failed IDs and nothing is committed.
	AtomicDecrementBatch(ctx context.Context, decrements map[uuid.UUID]int) ([]uuid.UUID, error)
	// AtomicIncrementBatch restores stock (for returns and rolled-back sales).
	AtomicIncrementBatch(ctx context.Context, increments map[uuid.UUID]int) error
}
