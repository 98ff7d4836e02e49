package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"gorm.io/gorm"
)

// newerSheetExists matches when another row of the same (artikel, taal) is
// newer than v: a later upload, or the same upload time with a higher id.
// Rows without a newer sibling are the current versions.
const newerSheetExists = `NOT EXISTS (
	SELECT 1 FROM veiligheidsbladen w
	WHERE w.artikel_id = veiligheidsbladen.artikel_id
	  AND w.taal = veiligheidsbladen.taal
	  AND (w.geupload_op > veiligheidsbladen.geupload_op
	       OR (w.geupload_op = veiligheidsbladen.geupload_op AND w.id > veiligheidsbladen.id))
)`

type VeiligheidsbladRepository struct {
	db *gorm.DB
}

func NewVeiligheidsbladRepository(db *gorm.DB) *VeiligheidsbladRepository {
	return &VeiligheidsbladRepository{db: db}
}

func (r *VeiligheidsbladRepository) Create(ctx context.Context, blad *domain.Veiligheidsblad) error {
	return r.db.WithContext(ctx).Omit("Artikel").Create(blad).Error
}

func (r *VeiligheidsbladRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Veiligheidsblad{}, "id = ?", id).Error
}

// GetByID returns a sheet with its article loaded
func (r *VeiligheidsbladRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Veiligheidsblad, error) {
	var blad domain.Veiligheidsblad
	err := r.db.WithContext(ctx).Preload("Artikel").First(&blad, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &blad, nil
}

// ListByArtikel returns every version of every language for an article, newest first
func (r *VeiligheidsbladRepository) ListByArtikel(ctx context.Context, artikelID uuid.UUID) ([]domain.Veiligheidsblad, error) {
	var bladen []domain.Veiligheidsblad
	err := r.db.WithContext(ctx).
		Where("artikel_id = ?", artikelID).
		Order("geupload_op DESC").
		Order("id DESC").
		Find(&bladen).Error
	return bladen, err
}

// Latest returns the current sheet for one article and language
func (r *VeiligheidsbladRepository) Latest(ctx context.Context, artikelID uuid.UUID, taal domain.Taal) (*domain.Veiligheidsblad, error) {
	var blad domain.Veiligheidsblad
	err := r.db.WithContext(ctx).
		Where("artikel_id = ? AND taal = ?", artikelID, taal).
		Order("geupload_op DESC").
		Order("id DESC").
		First(&blad).Error
	if err != nil {
		return nil, err
	}
	return &blad, nil
}

// LatestPerTaal returns the current sheet of each language that has one
func (r *VeiligheidsbladRepository) LatestPerTaal(ctx context.Context, artikelID uuid.UUID) ([]domain.Veiligheidsblad, error) {
	var bladen []domain.Veiligheidsblad
	err := r.db.WithContext(ctx).
		Where("artikel_id = ?", artikelID).
		Where(newerSheetExists).
		Order("taal").
		Find(&bladen).Error
	return bladen, err
}

// LatestAll returns the current sheet of every (artikel, taal) pair with articles loaded
func (r *VeiligheidsbladRepository) LatestAll(ctx context.Context) ([]domain.Veiligheidsblad, error) {
	var bladen []domain.Veiligheidsblad
	err := r.db.WithContext(ctx).
		Preload("Artikel").
		Where(newerSheetExists).
		Order("artikel_id").
		Order("taal").
		Find(&bladen).Error
	return bladen, err
}

// ListAllWithArtikel returns every sheet with its article, newest upload first
func (r *VeiligheidsbladRepository) ListAllWithArtikel(ctx context.Context) ([]domain.Veiligheidsblad, error) {
	var bladen []domain.Veiligheidsblad
	err := r.db.WithContext(ctx).
		Preload("Artikel").
		Order("geupload_op DESC").
		Order("id DESC").
		Find(&bladen).Error
	return bladen, err
}

// VersionsFor returns the stored version labels of one article and language
func (r *VeiligheidsbladRepository) VersionsFor(ctx context.Context, artikelID uuid.UUID, taal domain.Taal) ([]string, error) {
	var versies []string
	err := r.db.WithContext(ctx).Model(&domain.Veiligheidsblad{}).
		Where("artikel_id = ? AND taal = ?", artikelID, taal).
		Pluck("versie", &versies).Error
	return versies, err
}

func (r *VeiligheidsbladRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Veiligheidsblad{}).Count(&count).Error
	return count, err
}
