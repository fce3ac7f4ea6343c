package repository

import (
	"context"
	"errors"
	"fmt"

	"alrater/internal/apperr"
	"alrater/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalculationRepository is the append-only store of rating results.
type CalculationRepository interface {
	Create(ctx context.Context, rec *model.CalculationRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CalculationRecord, error)
	List(ctx context.Context, page, limit int) ([]model.CalculationRecord, int64, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type calculationRepository struct {
	db *gorm.DB
}

func NewCalculationRepository(db *gorm.DB) CalculationRepository {
	return &calculationRepository{db: db}
}

func (r *calculationRepository) Create(ctx context.Context, rec *model.CalculationRecord) error {
	if err := GetDB(ctx, r.db).Create(rec).Error; err != nil {
		return fmt.Errorf("%w: failed to save calculation: %w", apperr.ErrStorage, err)
	}
	return nil
}

func (r *calculationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CalculationRecord, error) {
	var rec model.CalculationRecord
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: calculation %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: failed to load calculation %s: %w", apperr.ErrStorage, id, err)
	}
	return &rec, nil
}

// List returns one page of records, newest first.
func (r *calculationRepository) List(ctx context.Context, page, limit int) ([]model.CalculationRecord, int64, error) {
	var records []model.CalculationRecord
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.CalculationRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count calculations: %w", apperr.ErrStorage, err)
	}

	offset := (page - 1) * limit
	if err := db.Order("timestamp desc").Order("created_at desc").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: failed to list calculations: %w", apperr.ErrStorage, err)
	}
	return records, total, nil
}

func (r *calculationRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := GetDB(ctx, r.db).Model(&model.CalculationRecord{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("%w: failed to count calculations: %w", apperr.ErrStorage, err)
	}
	return total, nil
}

func (r *calculationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.CalculationRecord{})
	if res.Error != nil {
		return fmt.Errorf("%w: failed to delete calculation %s: %w", apperr.ErrStorage, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: calculation %s", apperr.ErrNotFound, id)
	}
	return nil
}
