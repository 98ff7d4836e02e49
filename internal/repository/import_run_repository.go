package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"gorm.io/gorm"
)

type ImportRunRepository struct {
	db *gorm.DB
}

func NewImportRunRepository(db *gorm.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

func (r *ImportRunRepository) Create(ctx context.Context, run *domain.ImportRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *ImportRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	var run domain.ImportRun
	err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns one page of import runs, newest first, without their reports
func (r *ImportRunRepository) List(ctx context.Context, page, pageSize int, kind domain.ImportKind) ([]domain.ImportRun, int64, error) {
	var runs []domain.ImportRun
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.ImportRun{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Omit("report").
		Offset(offset).Limit(pageSize).
		Order("started_at DESC").
		Find(&runs).Error

	return runs, total, err
}
