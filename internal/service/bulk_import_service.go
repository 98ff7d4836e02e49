package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/bulk"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	applog "github.com/straye-as/sds-catalog-api/internal/logger"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// BulkImportService imports articles from CSV or XLSX files
type BulkImportService struct {
	artikelRepo   *repository.ArtikelRepository
	importRunRepo *repository.ImportRunRepository
	maxSize       int64
	logger        *zap.Logger
}

func NewBulkImportService(
	artikelRepo *repository.ArtikelRepository,
	importRunRepo *repository.ImportRunRepository,
	maxSize int64,
	logger *zap.Logger,
) *BulkImportService {
	return &BulkImportService{
		artikelRepo:   artikelRepo,
		importRunRepo: importRunRepo,
		maxSize:       maxSize,
		logger:        logger,
	}
}

// importPlan splits parsed rows into rows to insert, rejected rows and duplicates
type importPlan struct {
	columns    []string
	rows       []bulk.CSVRow
	errors     []domain.CSVRowError
	duplicates []domain.CSVDuplicate
	total      int
}

// Preview reports what Import would do without writing anything
func (s *BulkImportService) Preview(ctx context.Context, fileName string, r io.Reader) (*domain.CSVPreviewResult, error) {
	plan, err := s.plan(ctx, fileName, r)
	if err != nil {
		return nil, err
	}

	result := &domain.CSVPreviewResult{
		Columns:    plan.columns,
		Rows:       make([]domain.CreateArtikelRequest, len(plan.rows)),
		Errors:     plan.errors,
		Duplicates: plan.duplicates,
	}
	for i, row := range plan.rows {
		result.Rows[i] = toCreateRequest(row.Record)
	}
	return result, nil
}

// Import inserts every valid, new row. Rows that fail to insert are reported
// and do not stop the import.
func (s *BulkImportService) Import(ctx context.Context, fileName string, r io.Reader, startedBy *uuid.UUID) (*domain.CSVImportResult, error) {
	startedAt := time.Now().UTC()

	plan, err := s.plan(ctx, fileName, r)
	if err != nil {
		return nil, err
	}

	result := &domain.CSVImportResult{
		Errors:     plan.errors,
		Duplicates: plan.duplicates,
	}

	for _, row := range plan.rows {
		req := toCreateRequest(row.Record)
		artikel := &domain.Artikel{
			UniekeID:            req.UniekeID,
			Naam:                req.Naam,
			ReferentieRubix:     req.ReferentieRubix,
			ReferentieFabrikant: req.ReferentieFabrikant,
			EAN:                 req.EAN,
			Leverancier:         req.Leverancier,
			Omschrijving:        req.Omschrijving,
		}

		if err := s.artikelRepo.Create(ctx, artikel); err != nil {
			result.Errors = append(result.Errors, domain.CSVRowError{
				Row:   row.Row,
				Error: wrapRepoError(err, "create artikel").Error(),
				Data:  row.Record.Map(),
			})
			continue
		}
		result.Success++
	}

	applog.WithBulkRun(s.logger, string(domain.ImportKindArtikelenCSV), fileName).Info("artikel import finished",
		zap.Int("rows", plan.total),
		zap.Int("success", result.Success),
		zap.Int("errors", len(result.Errors)),
		zap.Int("duplicates", len(result.Duplicates)),
	)

	s.recordRun(ctx, fileName, plan.total, result, startedBy, startedAt)
	return result, nil
}

// Template writes the CSV import template
func (s *BulkImportService) Template(w io.Writer) error {
	return bulk.WriteTemplate(w)
}

func (s *BulkImportService) parse(fileName string, r io.Reader) (*bulk.ParsedCSV, error) {
	ext := strings.ToLower(path.Ext(fileName))
	if ext != ".csv" && ext != ".xlsx" {
		return nil, fmt.Errorf("%w: only CSV and XLSX files are accepted", ErrUnsupportedFileType)
	}

	data, err := readLimited(r, s.maxSize)
	if err != nil {
		return nil, err
	}

	var parsed *bulk.ParsedCSV
	if ext == ".xlsx" {
		parsed, err = bulk.ParseArtikelXLSX(bytes.NewReader(data))
	} else {
		parsed, err = bulk.ParseArtikelCSV(bytes.NewReader(data))
	}
	if err != nil {
		if errors.Is(err, bulk.ErrMissingColumns) || errors.Is(err, bulk.ErrEmptyCSV) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: failed to read file: %v", ErrInvalidInput, err)
	}
	return parsed, nil
}

func (s *BulkImportService) plan(ctx context.Context, fileName string, r io.Reader) (*importPlan, error) {
	parsed, err := s.parse(fileName, r)
	if err != nil {
		return nil, err
	}

	plan := &importPlan{
		columns:    parsed.Columns,
		errors:     []domain.CSVRowError{},
		duplicates: []domain.CSVDuplicate{},
		total:      len(parsed.Rows),
	}

	ids := mapset.NewSet[string]()
	for _, row := range parsed.Rows {
		if row.Record.UniekeID != "" {
			ids.Add(row.Record.UniekeID)
		}
	}
	found, err := s.artikelRepo.ExistingUniekeIDs(ctx, ids.ToSlice())
	if err != nil {
		return nil, fmt.Errorf("failed to look up artikelen: %w", err)
	}
	existing := mapset.NewSet(found...)

	seen := mapset.NewSet[string]()
	for _, row := range parsed.Rows {
		if msg := rowProblem(row.Record); msg != "" {
			plan.errors = append(plan.errors, domain.CSVRowError{Row: row.Row, Error: msg, Data: row.Record.Map()})
			continue
		}

		id := row.Record.UniekeID
		if existing.Contains(id) || seen.Contains(id) {
			plan.duplicates = append(plan.duplicates, domain.CSVDuplicate{Row: row.Row, UniekeID: id})
			continue
		}
		seen.Add(id)
		plan.rows = append(plan.rows, row)
	}

	return plan, nil
}

// rowProblem returns why a row cannot be imported, or "" when it can
func rowProblem(rec bulk.ArtikelRecord) string {
	var missing []string
	if rec.Naam == "" {
		missing = append(missing, "naam")
	}
	if rec.UniekeID == "" {
		missing = append(missing, "unieke_id")
	}
	if len(missing) > 0 {
		return "missing required fields: " + strings.Join(missing, ", ")
	}
	if err := ValidateUniekeID(rec.UniekeID); err != nil {
		return strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": ")
	}
	return ""
}

func toCreateRequest(rec bulk.ArtikelRecord) domain.CreateArtikelRequest {
	return domain.CreateArtikelRequest{
		UniekeID:            rec.UniekeID,
		Naam:                rec.Naam,
		ReferentieRubix:     stringOrNil(rec.ReferentieRubix),
		ReferentieFabrikant: stringOrNil(rec.ReferentieFabrikant),
		EAN:                 stringOrNil(rec.EAN),
		Leverancier:         stringOrNil(rec.Leverancier),
		Omschrijving:        stringOrNil(rec.Omschrijving),
	}
}

func (s *BulkImportService) recordRun(ctx context.Context, fileName string, total int, result *domain.CSVImportResult, startedBy *uuid.UUID, startedAt time.Time) {
	report, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("failed to encode import report", zap.Error(err))
		return
	}

	run := &domain.ImportRun{
		Kind:           domain.ImportKindArtikelenCSV,
		Bestandsnaam:   fileName,
		Total:          total,
		SuccessCount:   result.Success,
		ErrorCount:     len(result.Errors),
		DuplicateCount: len(result.Duplicates),
		Report:         datatypes.JSON(report),
		StartedBy:      startedBy,
		StartedAt:      startedAt,
		FinishedAt:     time.Now().UTC(),
	}
	if err := s.importRunRepo.Create(ctx, run); err != nil {
		s.logger.Warn("failed to record import run", zap.Error(err), zap.String("file", fileName))
		return
	}
	result.ImportRunID = &run.ID
}
