package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/mapper"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"go.uber.org/zap"
)

type ArtikelService struct {
	artikelRepo *repository.ArtikelRepository
	bladRepo    *repository.VeiligheidsbladRepository
	logger      *zap.Logger
}

func NewArtikelService(
	artikelRepo *repository.ArtikelRepository,
	bladRepo *repository.VeiligheidsbladRepository,
	logger *zap.Logger,
) *ArtikelService {
	return &ArtikelService{
		artikelRepo: artikelRepo,
		bladRepo:    bladRepo,
		logger:      logger,
	}
}

// ValidateUniekeID checks a business id before it is stored. The id becomes a
// filename prefix and a storage path segment, so separators are not allowed.
func ValidateUniekeID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: unieke_id is required", ErrInvalidInput)
	case strings.ContainsAny(id, `/\`):
		return fmt.Errorf("%w: unieke_id may not contain slashes", ErrInvalidInput)
	case id == "." || id == "..":
		return fmt.Errorf("%w: unieke_id %q is not allowed", ErrInvalidInput, id)
	}
	return nil
}

func (s *ArtikelService) Create(ctx context.Context, req *domain.CreateArtikelRequest) (*domain.ArtikelDTO, error) {
	uniekeID := strings.TrimSpace(req.UniekeID)
	naam := strings.TrimSpace(req.Naam)

	if naam == "" {
		return nil, fmt.Errorf("%w: naam is required", ErrInvalidInput)
	}
	if err := ValidateUniekeID(uniekeID); err != nil {
		return nil, err
	}

	if existing, err := s.artikelRepo.GetByUniekeID(ctx, uniekeID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: artikel with unieke_id %s already exists", ErrConflict, uniekeID)
	}

	artikel := &domain.Artikel{
		UniekeID:            uniekeID,
		Naam:                naam,
		ReferentieRubix:     trimmedOrNil(req.ReferentieRubix),
		ReferentieFabrikant: trimmedOrNil(req.ReferentieFabrikant),
		EAN:                 trimmedOrNil(req.EAN),
		Leverancier:         trimmedOrNil(req.Leverancier),
		Omschrijving:        trimmedOrNil(req.Omschrijving),
	}

	if err := s.artikelRepo.Create(ctx, artikel); err != nil {
		return nil, wrapRepoError(err, "create artikel")
	}

	s.logger.Info("artikel created",
		zap.String("artikel_id", artikel.ID.String()),
		zap.String("unieke_id", artikel.UniekeID),
	)

	dto := mapper.ToArtikelDTO(artikel)
	return &dto, nil
}

func (s *ArtikelService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ArtikelDTO, error) {
	artikel, err := s.artikelRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapRepoError(err, "get artikel")
	}
	dto := mapper.ToArtikelDTO(artikel)
	return &dto, nil
}

func (s *ArtikelService) GetByUniekeID(ctx context.Context, uniekeID string) (*domain.ArtikelDTO, error) {
	artikel, err := s.artikelRepo.GetByUniekeID(ctx, uniekeID)
	if err != nil {
		return nil, wrapRepoError(err, "get artikel")
	}
	dto := mapper.ToArtikelDTO(artikel)
	return &dto, nil
}

// GetWithSheets returns an article with every sheet version and the current sheet per language
func (s *ArtikelService) GetWithSheets(ctx context.Context, id uuid.UUID) (*domain.ArtikelDetailDTO, error) {
	artikel, err := s.artikelRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapRepoError(err, "get artikel")
	}

	bladen, err := s.bladRepo.ListByArtikel(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list veiligheidsbladen: %w", err)
	}

	current, err := s.bladRepo.LatestPerTaal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest veiligheidsbladen: %w", err)
	}

	latest := make(map[domain.Taal]domain.Veiligheidsblad, len(current))
	for _, blad := range current {
		latest[blad.Taal] = blad
	}

	dto := mapper.ToArtikelDetailDTO(artikel, bladen, latest)
	return &dto, nil
}

func (s *ArtikelService) List(ctx context.Context, page, pageSize int, search string) (*domain.PaginatedResponse, error) {
	// Clamp page size
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	if page < 1 {
		page = 1
	}

	artikelen, total, err := s.artikelRepo.List(ctx, page, pageSize, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("failed to list artikelen: %w", err)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       mapper.ToArtikelDTOs(artikelen),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func stringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
