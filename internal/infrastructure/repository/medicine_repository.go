package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
	domainRepo "github.com/pharmadesk/pharmacy-api/internal/domain/repository"
)

var errInsufficientStock = errors.New("insufficient stock")

type medicineRepository struct {
	db *gorm.DB
}

// NewMedicineRepository creates a new medicine repository
func NewMedicineRepository(db *gorm.DB) domainRepo.MedicineRepository {
	return &medicineRepository{db: db}
}

func (r *medicineRepository) Create(ctx context.Context, medicine *entity.Medicine) error {
	return r.db.WithContext(ctx).Create(medicine).Error
}

func (r *medicineRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Medicine, error) {
	var medicine entity.Medicine
	err := r.db.WithContext(ctx).First(&medicine, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &medicine, nil
}

func (r *medicineRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Medicine, error) {
	var medicines []entity.Medicine
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&medicines).Error
	return medicines, err
}

func (r *medicineRepository) Search(ctx context.Context, query string, limit int) ([]entity.Medicine, error) {
	var medicines []entity.Medicine
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("quantity > 0").
		Where("name ILIKE ? OR generic_name ILIKE ? OR brand ILIKE ?", pattern, pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&medicines).Error
	return medicines, err
}

func (r *medicineRepository) AtomicDecrementBatch(ctx context.Context, decrements map[uuid.UUID]int) ([]uuid.UUID, error) {
	var failed []uuid.UUID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, qty := range decrements {
			result := tx.Model(&entity.Medicine{}).
				Where("id = ? AND quantity >= ?", id, qty).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				failed = append(failed, id)
			}
		}
		if len(failed) > 0 {
			// Roll back the whole batch; a sale is all-or-nothing
			return errInsufficientStock
		}
		return nil
	})

	if errors.Is(err, errInsufficientStock) {
		return failed, nil
	}
	return nil, err
}

func (r *medicineRepository) AtomicIncrementBatch(ctx context.Context, increments map[uuid.UUID]int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, qty := range increments {
			result := tx.Model(&entity.Medicine{}).
				Where("id = ?", id).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
			if result.Error != nil {
				return result.Error
			}
		}
		return nil
	})
}
