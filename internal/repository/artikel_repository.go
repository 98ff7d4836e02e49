package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"gorm.io/gorm"
)

// lookupChunkSize bounds the number of bind parameters in IN queries
const lookupChunkSize = 500

type ArtikelRepository struct {
	db *gorm.DB
}

func NewArtikelRepository(db *gorm.DB) *ArtikelRepository {
	return &ArtikelRepository{db: db}
}

func (r *ArtikelRepository) Create(ctx context.Context, artikel *domain.Artikel) error {
	return r.db.WithContext(ctx).Omit("Veiligheidsbladen").Create(artikel).Error
}

func (r *ArtikelRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artikel, error) {
	var artikel domain.Artikel
	err := r.db.WithContext(ctx).First(&artikel, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &artikel, nil
}

func (r *ArtikelRepository) GetByUniekeID(ctx context.Context, uniekeID string) (*domain.Artikel, error) {
	var artikel domain.Artikel
	err := r.db.WithContext(ctx).First(&artikel, "unieke_id = ?", uniekeID).Error
	if err != nil {
		return nil, err
	}
	return &artikel, nil
}

// List returns one page of articles, newest first. search matches name, business id
// and both references case-insensitively.
func (r *ArtikelRepository) List(ctx context.Context, page, pageSize int, search string) ([]domain.Artikel, int64, error) {
	var artikelen []domain.Artikel
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Artikel{})

	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(naam) LIKE ? OR LOWER(unieke_id) LIKE ? OR LOWER(referentie_rubix) LIKE ? OR LOWER(referentie_fabrikant) LIKE ? OR ean LIKE ?",
			searchPattern, searchPattern, searchPattern, searchPattern, searchPattern,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Order("id").Find(&artikelen).Error

	return artikelen, total, err
}

// ListAll returns every article ordered by creation date, newest first
func (r *ArtikelRepository) ListAll(ctx context.Context) ([]domain.Artikel, error) {
	var artikelen []domain.Artikel
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id").Find(&artikelen).Error
	return artikelen, err
}

// ExistingUniekeIDs returns the subset of ids that belong to a stored article
func (r *ArtikelRepository) ExistingUniekeIDs(ctx context.Context, ids []string) ([]string, error) {
	existing := make([]string, 0, len(ids))
	for start := 0; start < len(ids); start += lookupChunkSize {
		end := start + lookupChunkSize
		if end > len(ids) {
			end = len(ids)
		}

		var chunk []string
		err := r.db.WithContext(ctx).Model(&domain.Artikel{}).
			Where("unieke_id IN ?", ids[start:end]).
			Pluck("unieke_id", &chunk).Error
		if err != nil {
			return nil, err
		}
		existing = append(existing, chunk...)
	}
	return existing, nil
}

// MapByUniekeID loads the articles for the given business ids keyed by unieke_id
func (r *ArtikelRepository) MapByUniekeID(ctx context.Context, ids []string) (map[string]domain.Artikel, error) {
	result := make(map[string]domain.Artikel, len(ids))
	for start := 0; start < len(ids); start += lookupChunkSize {
		end := start + lookupChunkSize
		if end > len(ids) {
			end = len(ids)
		}

		var artikelen []domain.Artikel
		if err := r.db.WithContext(ctx).Where("unieke_id IN ?", ids[start:end]).Find(&artikelen).Error; err != nil {
			return nil, err
		}
		for _, a := range artikelen {
			result[a.UniekeID] = a
		}
	}
	return result, nil
}

func (r *ArtikelRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Artikel{}).Count(&count).Error
	return count, err
}
