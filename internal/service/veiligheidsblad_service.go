package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/bulk"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/mapper"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"github.com/straye-as/sds-catalog-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSignedURLTTL is how long download links stay valid
const DefaultSignedURLTTL = time.Hour

// SheetUpload is a single safety sheet file posted for an article
type SheetUpload struct {
	Taal     string
	Versie   string
	FileName string
	Data     io.Reader
}

// VeiligheidsbladService manages safety sheet versions and their stored files
type VeiligheidsbladService struct {
	artikelRepo *repository.ArtikelRepository
	bladRepo    *repository.VeiligheidsbladRepository
	storage     storage.Storage
	maxSize     int64
	urlTTL      time.Duration
	logger      *zap.Logger
}

func NewVeiligheidsbladService(
	artikelRepo *repository.ArtikelRepository,
	bladRepo *repository.VeiligheidsbladRepository,
	store storage.Storage,
	maxSize int64,
	urlTTL time.Duration,
	logger *zap.Logger,
) *VeiligheidsbladService {
	if urlTTL <= 0 {
		urlTTL = DefaultSignedURLTTL
	}
	return &VeiligheidsbladService{
		artikelRepo: artikelRepo,
		bladRepo:    bladRepo,
		storage:     store,
		maxSize:     maxSize,
		urlTTL:      urlTTL,
		logger:      logger,
	}
}

// NextVersion returns the version that follows current: the integer part plus
// one, formatted "N.0". An empty or non-numeric current version yields "1.0".
func NextVersion(current string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(current), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return "1.0"
	}
	return fmt.Sprintf("%d.0", int64(math.Floor(v))+1)
}

// normalizeVersie strips a leading V from user supplied version labels
func normalizeVersie(versie string) string {
	versie = strings.TrimSpace(versie)
	if len(versie) > 1 && (versie[0] == 'V' || versie[0] == 'v') {
		versie = versie[1:]
	}
	return versie
}

// Upload stores a new sheet version for an article. The versioned object is
// written first and must not exist yet; the latest object is then overwritten.
// A failed latest write is logged and does not fail the upload.
func (s *VeiligheidsbladService) Upload(ctx context.Context, artikelID uuid.UUID, upload *SheetUpload, uploadedBy *uuid.UUID) (*domain.VeiligheidsbladDTO, error) {
	taal := domain.Taal(strings.ToUpper(strings.TrimSpace(upload.Taal)))
	if !taal.IsValid() {
		return nil, fmt.Errorf("%w: taal must be one of NL, EN, FR, DE", ErrInvalidInput)
	}

	fileName := path.Base(strings.ReplaceAll(upload.FileName, "\\", "/"))
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	if !bulk.IsAllowedExtension(ext) {
		return nil, fmt.Errorf("%w: only PDF, DOC and DOCX files are allowed", ErrUnsupportedFileType)
	}

	data, err := readLimited(upload.Data, s.maxSize)
	if err != nil {
		return nil, err
	}

	artikel, err := s.artikelRepo.GetByID(ctx, artikelID)
	if err != nil {
		return nil, wrapRepoError(err, "get artikel")
	}

	versie := normalizeVersie(upload.Versie)
	if strings.ContainsAny(versie, `/\_ `) || versie == "." || versie == ".." {
		return nil, fmt.Errorf("%w: invalid versie %q", ErrInvalidInput, versie)
	}
	if versie == "" {
		current := ""
		latest, err := s.bladRepo.Latest(ctx, artikel.ID, taal)
		switch {
		case err == nil:
			current = latest.Versie
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to get latest version: %w", err)
		}
		versie = NextVersion(current)
	}

	versies, err := s.bladRepo.VersionsFor(ctx, artikel.ID, taal)
	if err != nil {
		return nil, fmt.Errorf("failed to check versions: %w", err)
	}
	for _, existing := range versies {
		if existing == versie {
			return nil, fmt.Errorf("%w: version %s already exists for %s", ErrConflict, versie, taal)
		}
	}

	contentType := bulk.ContentType(ext)
	versionedPath := storage.VersionedSheetPath(artikel.UniekeID, taal, versie, ext)
	if err := s.storage.Put(ctx, versionedPath, contentType, bytes.NewReader(data), int64(len(data)), false); err != nil {
		if errors.Is(err, storage.ErrObjectExists) {
			return nil, fmt.Errorf("%w: %s already exists in storage", ErrConflict, versionedPath)
		}
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	blad := &domain.Veiligheidsblad{
		ArtikelID:    artikel.ID,
		Taal:         taal,
		Versie:       versie,
		StoragePath:  versionedPath,
		Bestandsnaam: fileName,
		ContentType:  contentType,
		Size:         int64(len(data)),
		GeuploadOp:   time.Now().UTC(),
		GeuploadDoor: uploadedBy,
	}
	if err := s.bladRepo.Create(ctx, blad); err != nil {
		// Try to delete from storage (best effort cleanup)
		if delErr := s.storage.Delete(ctx, versionedPath); delErr != nil {
			s.logger.Warn("failed to cleanup file from storage after DB error",
				zap.Error(delErr),
				zap.String("storagePath", versionedPath),
			)
		}
		return nil, wrapRepoError(err, "create veiligheidsblad")
	}

	// A stale latest copy is removed so latest-sync restores it from this version
	latestPath := storage.LatestSheetPath(artikel.UniekeID, taal, ext)
	if err := s.storage.Put(ctx, latestPath, contentType, bytes.NewReader(data), int64(len(data)), true); err != nil {
		s.logger.Warn("failed to update latest sheet copy",
			zap.Error(err),
			zap.String("storagePath", latestPath),
		)
		if delErr := s.storage.Delete(ctx, latestPath); delErr != nil && !errors.Is(delErr, storage.ErrObjectNotFound) {
			s.logger.Warn("failed to remove stale latest sheet copy",
				zap.Error(delErr),
				zap.String("storagePath", latestPath),
			)
		}
	}

	s.logger.Info("veiligheidsblad uploaded",
		zap.String("unieke_id", artikel.UniekeID),
		zap.String("taal", string(taal)),
		zap.String("versie", versie),
		zap.Int64("size", blad.Size),
	)

	dto := mapper.ToVeiligheidsbladDTO(blad)
	return &dto, nil
}

// ListForArtikel returns all versions of all languages, newest first
func (s *VeiligheidsbladService) ListForArtikel(ctx context.Context, artikelID uuid.UUID) ([]domain.VeiligheidsbladDTO, error) {
	if _, err := s.artikelRepo.GetByID(ctx, artikelID); err != nil {
		return nil, wrapRepoError(err, "get artikel")
	}

	bladen, err := s.bladRepo.ListByArtikel(ctx, artikelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list veiligheidsbladen: %w", err)
	}
	return mapper.ToVeiligheidsbladDTOs(bladen), nil
}

// Latest returns the current sheet of one language
func (s *VeiligheidsbladService) Latest(ctx context.Context, artikelID uuid.UUID, taal domain.Taal) (*domain.VeiligheidsbladDTO, error) {
	if !taal.IsValid() {
		return nil, fmt.Errorf("%w: unknown taal %s", ErrInvalidInput, taal)
	}

	blad, err := s.bladRepo.Latest(ctx, artikelID, taal)
	if err != nil {
		return nil, wrapRepoError(err, "get latest veiligheidsblad")
	}
	dto := mapper.ToVeiligheidsbladDTO(blad)
	return &dto, nil
}

// LatestPerLanguage returns the current sheet of every language that has one
func (s *VeiligheidsbladService) LatestPerLanguage(ctx context.Context, artikelID uuid.UUID) ([]domain.VeiligheidsbladDTO, error) {
	if _, err := s.artikelRepo.GetByID(ctx, artikelID); err != nil {
		return nil, wrapRepoError(err, "get artikel")
	}

	bladen, err := s.bladRepo.LatestPerTaal(ctx, artikelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest veiligheidsbladen: %w", err)
	}
	return mapper.ToVeiligheidsbladDTOs(bladen), nil
}

// DownloadURL returns a signed link to the sheet, or the public link when signing fails
func (s *VeiligheidsbladService) DownloadURL(ctx context.Context, id uuid.UUID) (*domain.DownloadURLDTO, error) {
	blad, err := s.bladRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapRepoError(err, "get veiligheidsblad")
	}

	signed, err := s.storage.SignedURL(ctx, blad.StoragePath, s.urlTTL)
	if err != nil {
		s.logger.Warn("failed to sign download url, falling back to public url",
			zap.Error(err),
			zap.String("storagePath", blad.StoragePath),
		)
		return &domain.DownloadURLDTO{URL: s.storage.PublicURL(blad.StoragePath)}, nil
	}

	expiresAt := time.Now().Add(s.urlTTL).UTC()
	return &domain.DownloadURLDTO{URL: signed, Signed: true, ExpiresAt: &expiresAt}, nil
}

// Download opens the stored file of a sheet; the caller closes the reader
func (s *VeiligheidsbladService) Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, *domain.VeiligheidsbladDTO, error) {
	blad, err := s.bladRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, wrapRepoError(err, "get veiligheidsblad")
	}

	rc, err := s.storage.Get(ctx, blad.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, fmt.Errorf("file %s: %w", blad.StoragePath, ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to download file: %w", err)
	}

	dto := mapper.ToVeiligheidsbladDTO(blad)
	return rc, &dto, nil
}

// SyncLatestCopies restores the latest/ object of every (artikel, taal) whose
// copy is missing, using the stored versioned object of the current sheet
func (s *VeiligheidsbladService) SyncLatestCopies(ctx context.Context) (synced int, failed int, err error) {
	bladen, err := s.bladRepo.LatestAll(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list latest veiligheidsbladen: %w", err)
	}

	for _, blad := range bladen {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		if blad.Artikel == nil {
			continue
		}

		ext := strings.TrimPrefix(path.Ext(blad.StoragePath), ".")
		latestPath := storage.LatestSheetPath(blad.Artikel.UniekeID, blad.Taal, ext)

		exists, err := s.storage.Exists(ctx, latestPath)
		if err != nil {
			s.logger.Warn("failed to check latest sheet copy", zap.Error(err), zap.String("storagePath", latestPath))
			failed++
			continue
		}
		if exists {
			continue
		}

		if err := s.storage.Copy(ctx, blad.StoragePath, latestPath); err != nil {
			s.logger.Warn("failed to restore latest sheet copy",
				zap.Error(err),
				zap.String("source", blad.StoragePath),
				zap.String("storagePath", latestPath),
			)
			failed++
			continue
		}
		synced++
	}

	return synced, failed, nil
}

// readLimited reads r fully, failing with ErrFileTooLarge past limit bytes
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no file provided", ErrInvalidInput)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: maximum size is %d MB", ErrFileTooLarge, limit>>20)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	return data, nil
}
