package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
	domainRepo "github.com/pharmadesk/pharmacy-api/internal/domain/repository"
	"github.com/pharmadesk/pharmacy-api/pkg/pagination"
)

type returnRepository struct {
	db *gorm.DB
}

// NewReturnRepository creates a new return repository
func NewReturnRepository(db *gorm.DB) domainRepo.ReturnRepository {
	return &returnRepository{db: db}
}

// Create inserts the return inside a transaction that locks the sale row,
// so the quantity-sold ceiling holds even when two operators submit returns
// for the same line at the same time.
func (r *returnRepository) Create(ctx context.Context, ret *entity.MedicineReturn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sale entity.Sale
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&sale, "id = ?", ret.SaleID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainRepo.ErrOverReturn
		}
		if err != nil {
			return err
		}

		var returned int64
		err = tx.Model(&entity.MedicineReturn{}).
			Where("sale_id = ?", ret.SaleID).
			Select("COALESCE(SUM(quantity_returned), 0)").
			Scan(&returned).Error
		if err != nil {
			return err
		}

		if int(returned)+ret.QuantityReturned > sale.QuantitySold {
			return domainRepo.ErrOverReturn
		}

		return tx.Create(ret).Error
	})
}

func (r *returnRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.MedicineReturn, error) {
	var ret entity.MedicineReturn
	err := r.db.WithContext(ctx).
		Preload("Medicine").
		Preload("Customer").
		First(&ret, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *returnRepository) SumReturnedBySaleID(ctx context.Context, saleID uuid.UUID) (int, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&entity.MedicineReturn{}).
		Where("sale_id = ?", saleID).
		Select("COALESCE(SUM(quantity_returned), 0)").
		Scan(&sum).Error
	return int(sum), err
}

func (r *returnRepository) SumReturnedBySaleIDs(ctx context.Context, saleIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	sums := make(map[uuid.UUID]int, len(saleIDs))
	if len(saleIDs) == 0 {
		return sums, nil
	}

	type row struct {
		SaleID uuid.UUID
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&entity.MedicineReturn{}).
		Select("sale_id, COALESCE(SUM(quantity_returned), 0) AS total").
		Where("sale_id IN ?", saleIDs).
		Group("sale_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		sums[r.SaleID] = int(r.Total)
	}
	return sums, nil
}

func (r *returnRepository) ListReturns(ctx context.Context, customerID *uuid.UUID, params *pagination.PaginationParams) ([]entity.MedicineReturn, int64, error) {
	var returns []entity.MedicineReturn
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.MedicineReturn{})
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Medicine").
		Preload("Customer").
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&returns).Error
	return returns, total, err
}

func (r *returnRepository) CreateRefund(ctx context.Context, refund *entity.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *returnRepository) GetRefundByReturnID(ctx context.Context, returnID uuid.UUID) (*entity.Refund, error) {
	var refund entity.Refund
	err := r.db.WithContext(ctx).First(&refund, "return_id = ?", returnID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *returnRepository) ListRefunds(ctx context.Context, customerID *uuid.UUID, params *pagination.PaginationParams) ([]entity.Refund, int64, error) {
	var refunds []entity.Refund
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Refund{})
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Customer").
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&refunds).Error
	return refunds, total, err
}
