package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/bulk"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	applog "github.com/straye-as/sds-catalog-api/internal/logger"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"github.com/straye-as/sds-catalog-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// BulkDocument is one archive entry on its way through validation and upload
type BulkDocument struct {
	bulk.Document
	Status  domain.DocumentStatus
	Message string
}

func (d *BulkDocument) fail(message string) {
	d.Status = domain.DocumentStatusError
	d.Message = message
}

// DTO returns the report line of the document
func (d *BulkDocument) DTO() domain.BulkDocumentDTO {
	return domain.BulkDocumentDTO{
		Bestandsnaam: d.Parsed.FileName,
		ArtikelID:    d.Parsed.ArticleID,
		Taal:         d.Parsed.Taal,
		Versie:       d.Parsed.Versie,
		Extensie:     d.Parsed.Extensie,
		Size:         d.Size,
		Status:       d.Status,
		Message:      d.Message,
	}
}

// maxExpansion bounds the decompressed size of an archive relative to its
// upload limit
const maxExpansion = 4

// BulkDocumentService uploads safety sheets from a ZIP archive
type BulkDocumentService struct {
	artikelRepo   *repository.ArtikelRepository
	bladRepo      *repository.VeiligheidsbladRepository
	importRunRepo *repository.ImportRunRepository
	storage       storage.Storage
	maxZipSize    int64
	maxSheetSize  int64
	logger        *zap.Logger
}

func NewBulkDocumentService(
	artikelRepo *repository.ArtikelRepository,
	bladRepo *repository.VeiligheidsbladRepository,
	importRunRepo *repository.ImportRunRepository,
	store storage.Storage,
	maxZipSize int64,
	maxSheetSize int64,
	logger *zap.Logger,
) *BulkDocumentService {
	return &BulkDocumentService{
		artikelRepo:   artikelRepo,
		bladRepo:      bladRepo,
		importRunRepo: importRunRepo,
		storage:       store,
		maxZipSize:    maxZipSize,
		maxSheetSize:  maxSheetSize,
		logger:        logger,
	}
}

// Parse reads the archive and parses every filename. Entries with an invalid
// name come back with status error; all others are pending.
func (s *BulkDocumentService) Parse(archiveName string, r io.Reader) ([]BulkDocument, error) {
	if !strings.EqualFold(path.Ext(archiveName), ".zip") {
		return nil, fmt.Errorf("%w: only ZIP archives are accepted", ErrUnsupportedFileType)
	}

	data, err := readLimited(r, s.maxZipSize)
	if err != nil {
		return nil, err
	}

	entries, err := bulk.ReadArchive(data, bulk.Limits{
		MaxEntrySize: s.maxSheetSize,
		MaxTotalSize: maxExpansion * s.maxZipSize,
	})
	if err != nil {
		if errors.Is(err, bulk.ErrInvalidArchive) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: archive contains no files", ErrInvalidInput)
	}

	docs := make([]BulkDocument, len(entries))
	for i, entry := range entries {
		docs[i] = BulkDocument{Document: entry, Status: domain.DocumentStatusPending}
		if entry.Err != nil {
			docs[i].fail(entry.Err.Error())
			continue
		}
		if !entry.Parsed.Valid() {
			docs[i].fail(entry.Parsed.Message())
		}
	}
	return docs, nil
}

// Validate marks pending documents whose article does not exist. The
// article ids are checked with one lookup.
func (s *BulkDocumentService) Validate(ctx context.Context, docs []BulkDocument) error {
	ids := mapset.NewSet[string]()
	for i := range docs {
		if docs[i].Status == domain.DocumentStatusPending {
			ids.Add(docs[i].Parsed.ArticleID)
		}
	}
	if ids.Cardinality() == 0 {
		return nil
	}

	lookup := ids.ToSlice()
	sort.Strings(lookup)
	found, err := s.artikelRepo.ExistingUniekeIDs(ctx, lookup)
	if err != nil {
		return fmt.Errorf("failed to look up artikelen: %w", err)
	}
	existing := mapset.NewSet(found...)

	for i := range docs {
		if docs[i].Status != domain.DocumentStatusPending {
			continue
		}
		if !existing.Contains(docs[i].Parsed.ArticleID) {
			docs[i].fail(fmt.Sprintf("Article %s does not exist", docs[i].Parsed.ArticleID))
		}
	}
	return nil
}

// ValidateArchive parses and validates an archive without storing anything
func (s *BulkDocumentService) ValidateArchive(ctx context.Context, archiveName string, r io.Reader) (*domain.BulkValidationResult, error) {
	docs, err := s.Parse(archiveName, r)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(ctx, docs); err != nil {
		return nil, err
	}

	result := &domain.BulkValidationResult{Documents: make([]domain.BulkDocumentDTO, len(docs))}
	for i := range docs {
		result.Documents[i] = docs[i].DTO()
		if docs[i].Status == domain.DocumentStatusError {
			result.ErrorCount++
		} else {
			result.ValidCount++
		}
	}
	return result, nil
}

// Upload stores every pending document, one after the other. A failing
// document is marked with the failed step and the loop moves on.
func (s *BulkDocumentService) Upload(ctx context.Context, archiveName string, docs []BulkDocument, uploadedBy *uuid.UUID) (*domain.BulkUploadResult, error) {
	startedAt := time.Now().UTC()

	ids := mapset.NewSet[string]()
	for i := range docs {
		if docs[i].Status == domain.DocumentStatusPending {
			ids.Add(docs[i].Parsed.ArticleID)
		}
	}
	artikelen, err := s.artikelRepo.MapByUniekeID(ctx, ids.ToSlice())
	if err != nil {
		return nil, fmt.Errorf("failed to look up artikelen: %w", err)
	}

	for i := range docs {
		doc := &docs[i]
		if doc.Status != domain.DocumentStatusPending {
			continue
		}
		if err := ctx.Err(); err != nil {
			doc.fail("Cancelled: " + err.Error())
			continue
		}

		artikel, ok := artikelen[doc.Parsed.ArticleID]
		if !ok {
			doc.fail(fmt.Sprintf("Article %s does not exist", doc.Parsed.ArticleID))
			continue
		}

		doc.Status = domain.DocumentStatusUploading
		s.uploadOne(ctx, doc, &artikel, uploadedBy)
	}

	result := &domain.BulkUploadResult{Documents: make([]domain.BulkDocumentDTO, len(docs))}
	for i := range docs {
		result.Documents[i] = docs[i].DTO()
		switch docs[i].Status {
		case domain.DocumentStatusSuccess:
			result.SuccessCount++
		case domain.DocumentStatusError:
			result.ErrorCount++
		}
	}

	applog.WithBulkRun(s.logger, string(domain.ImportKindVeiligheidsbladenZip), archiveName).Info("bulk document upload finished",
		zap.Int("documents", len(docs)),
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount),
		zap.Duration("duration", time.Since(startedAt)),
	)

	s.recordRun(ctx, archiveName, result, uploadedBy, startedAt)
	return result, nil
}

// UploadArchive parses, validates and uploads an archive in one go
func (s *BulkDocumentService) UploadArchive(ctx context.Context, archiveName string, r io.Reader, uploadedBy *uuid.UUID) (*domain.BulkUploadResult, error) {
	docs, err := s.Parse(archiveName, r)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(ctx, docs); err != nil {
		return nil, err
	}
	return s.Upload(ctx, archiveName, docs, uploadedBy)
}

// uploadOne writes the versioned object, inserts the row and then replaces
// the latest copy. A failed step undoes the earlier ones so the file can be
// uploaded again.
func (s *BulkDocumentService) uploadOne(ctx context.Context, doc *BulkDocument, artikel *domain.Artikel, uploadedBy *uuid.UUID) {
	p := doc.Parsed
	contentType := bulk.ContentType(p.Extensie)

	versionedPath := storage.VersionedSheetPath(artikel.UniekeID, p.Taal, p.Versie, p.Extensie)
	if err := s.storage.Put(ctx, versionedPath, contentType, doc.Reader(), doc.Size, false); err != nil {
		doc.fail("Version upload: " + err.Error())
		return
	}

	blad := &domain.Veiligheidsblad{
		ArtikelID:    artikel.ID,
		Taal:         p.Taal,
		Versie:       p.Versie,
		StoragePath:  versionedPath,
		Bestandsnaam: p.FileName,
		ContentType:  contentType,
		Size:         doc.Size,
		GeuploadOp:   time.Now().UTC(),
		GeuploadDoor: uploadedBy,
	}
	if err := s.bladRepo.Create(ctx, blad); err != nil {
		s.removeObject(ctx, versionedPath)
		doc.fail("Database: " + err.Error())
		return
	}

	latestPath := storage.LatestSheetPath(artikel.UniekeID, p.Taal, p.Extensie)
	if err := s.storage.Put(ctx, latestPath, contentType, doc.Reader(), doc.Size, true); err != nil {
		if delErr := s.bladRepo.Delete(ctx, blad.ID); delErr != nil {
			s.logger.Warn("failed to remove veiligheidsblad after latest upload error",
				zap.Error(delErr),
				zap.String("id", blad.ID.String()),
			)
		}
		s.removeObject(ctx, versionedPath)
		doc.fail("Latest upload: " + err.Error())
		return
	}

	doc.Status = domain.DocumentStatusSuccess
	doc.Message = ""
}

// removeObject deletes an object written for a failed upload, best effort
func (s *BulkDocumentService) removeObject(ctx context.Context, path string) {
	if err := s.storage.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to cleanup file from storage after upload error",
			zap.Error(err),
			zap.String("storagePath", path),
		)
	}
}

func (s *BulkDocumentService) recordRun(ctx context.Context, archiveName string, result *domain.BulkUploadResult, startedBy *uuid.UUID, startedAt time.Time) {
	report, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("failed to encode import report", zap.Error(err))
		return
	}

	run := &domain.ImportRun{
		Kind:         domain.ImportKindVeiligheidsbladenZip,
		Bestandsnaam: archiveName,
		Total:        len(result.Documents),
		SuccessCount: result.SuccessCount,
		ErrorCount:   result.ErrorCount,
		Report:       datatypes.JSON(report),
		StartedBy:    startedBy,
		StartedAt:    startedAt,
		FinishedAt:   time.Now().UTC(),
	}
	if err := s.importRunRepo.Create(ctx, run); err != nil {
		s.logger.Warn("failed to record import run", zap.Error(err), zap.String("archive", archiveName))
		return
	}
	result.ImportRunID = &run.ID
}
