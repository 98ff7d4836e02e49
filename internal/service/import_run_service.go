package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/mapper"
	"github.com/straye-as/sds-catalog-api/internal/repository"
)

// ImportRunService reads back the reports of earlier bulk imports
type ImportRunService struct {
	importRunRepo *repository.ImportRunRepository
}

func NewImportRunService(importRunRepo *repository.ImportRunRepository) *ImportRunService {
	return &ImportRunService{importRunRepo: importRunRepo}
}

func (s *ImportRunService) List(ctx context.Context, page, pageSize int, kind domain.ImportKind) (*domain.PaginatedResponse, error) {
	if kind != "" && kind != domain.ImportKindArtikelenCSV && kind != domain.ImportKindVeiligheidsbladenZip {
		return nil, fmt.Errorf("%w: unknown import kind %s", ErrInvalidInput, kind)
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	if page < 1 {
		page = 1
	}

	runs, total, err := s.importRunRepo.List(ctx, page, pageSize, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list import runs: %w", err)
	}

	dtos := make([]domain.ImportRunDTO, len(runs))
	for i := range runs {
		dtos[i] = mapper.ToImportRunDTO(&runs[i], false)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetByID returns one run including its full report
func (s *ImportRunService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportRunDTO, error) {
	run, err := s.importRunRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapRepoError(err, "get import run")
	}
	dto := mapper.ToImportRunDTO(run, true)
	return &dto, nil
}
