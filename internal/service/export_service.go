package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/straye-as/sds-catalog-api/internal/bulk"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"go.uber.org/zap"
)

// Export types and formats accepted by ExportService.Export
const (
	ExportArtikelen         = "artikelen"
	ExportVeiligheidsbladen = "veiligheidsbladen"
	ExportAlles             = "alles"

	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	csvContentType = "text/csv; charset=utf-8"
	zipContentType = "application/zip"
)

// ExportFile is a generated download
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders the catalogue as CSV, ZIP or XLSX downloads
type ExportService struct {
	artikelRepo *repository.ArtikelRepository
	bladRepo    *repository.VeiligheidsbladRepository
	logger      *zap.Logger
	now         func() time.Time
}

func NewExportService(
	artikelRepo *repository.ArtikelRepository,
	bladRepo *repository.VeiligheidsbladRepository,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		artikelRepo: artikelRepo,
		bladRepo:    bladRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Export builds the requested download. "alles" as CSV is a ZIP holding both
// CSV files; as XLSX it is one workbook with a sheet per dataset.
func (s *ExportService) Export(ctx context.Context, exportType, format string) (*ExportFile, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, fmt.Errorf("%w: format must be csv or xlsx", ErrInvalidInput)
	}

	var (
		artikelen []bulk.ArtikelExportRow
		bladen    []bulk.VeiligheidsbladExportRow
		err       error
	)

	switch exportType {
	case ExportArtikelen:
		artikelen, err = s.artikelRows(ctx)
	case ExportVeiligheidsbladen:
		bladen, err = s.bladRows(ctx)
	case ExportAlles:
		if artikelen, err = s.artikelRows(ctx); err == nil {
			bladen, err = s.bladRows(ctx)
		}
	default:
		return nil, fmt.Errorf("%w: type must be artikelen, veiligheidsbladen or alles", ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}

	date := s.now().UTC().Format("2006-01-02")
	file := &ExportFile{Rows: len(artikelen) + len(bladen)}
	var buf bytes.Buffer

	switch {
	case format == FormatXLSX:
		var sheets []bulk.Sheet
		if exportType != ExportVeiligheidsbladen {
			sheets = append(sheets, bulk.ArtikelenSheet(artikelen))
		}
		if exportType != ExportArtikelen {
			sheets = append(sheets, bulk.VeiligheidsbladenSheet(bladen))
		}
		if err := bulk.WriteWorkbook(&buf, sheets...); err != nil {
			return nil, fmt.Errorf("failed to write workbook: %w", err)
		}
		file.FileName = fmt.Sprintf("%s_export_%s.xlsx", exportType, date)
		file.ContentType = bulk.XLSXContentType

	case exportType == ExportArtikelen:
		if err := bulk.WriteCSV(&buf, artikelen); err != nil {
			return nil, err
		}
		file.FileName = fmt.Sprintf("artikelen_export_%s.csv", date)
		file.ContentType = csvContentType

	case exportType == ExportVeiligheidsbladen:
		if err := bulk.WriteCSV(&buf, bladen); err != nil {
			return nil, err
		}
		file.FileName = fmt.Sprintf("veiligheidsbladen_export_%s.csv", date)
		file.ContentType = csvContentType

	default:
		var artikelCSV, bladCSV bytes.Buffer
		if err := bulk.WriteCSV(&artikelCSV, artikelen); err != nil {
			return nil, err
		}
		if err := bulk.WriteCSV(&bladCSV, bladen); err != nil {
			return nil, err
		}
		if err := bulk.WriteArchive(&buf, []bulk.ArchiveFile{
			{Name: fmt.Sprintf("artikelen_export_%s.csv", date), Content: artikelCSV.Bytes()},
			{Name: fmt.Sprintf("veiligheidsbladen_export_%s.csv", date), Content: bladCSV.Bytes()},
		}); err != nil {
			return nil, fmt.Errorf("failed to write archive: %w", err)
		}
		file.FileName = fmt.Sprintf("alles_export_%s.zip", date)
		file.ContentType = zipContentType
	}

	file.Data = buf.Bytes()

	s.logger.Info("export generated",
		zap.String("type", exportType),
		zap.String("format", format),
		zap.Int("rows", file.Rows),
		zap.Int("bytes", len(file.Data)),
	)
	return file, nil
}

func (s *ExportService) artikelRows(ctx context.Context) ([]bulk.ArtikelExportRow, error) {
	artikelen, err := s.artikelRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list artikelen: %w", err)
	}

	rows := make([]bulk.ArtikelExportRow, len(artikelen))
	for i, a := range artikelen {
		rows[i] = bulk.ArtikelExportRow{
			UniekeID:            a.UniekeID,
			Naam:                a.Naam,
			ReferentieRubix:     derefString(a.ReferentieRubix),
			ReferentieFabrikant: derefString(a.ReferentieFabrikant),
			EAN:                 derefString(a.EAN),
			Leverancier:         derefString(a.Leverancier),
			Omschrijving:        derefString(a.Omschrijving),
			CreatedAt:           a.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:           a.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}
	return rows, nil
}

func (s *ExportService) bladRows(ctx context.Context) ([]bulk.VeiligheidsbladExportRow, error) {
	bladen, err := s.bladRepo.ListAllWithArtikel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list veiligheidsbladen: %w", err)
	}

	rows := make([]bulk.VeiligheidsbladExportRow, len(bladen))
	for i, b := range bladen {
		row := bulk.VeiligheidsbladExportRow{
			VeiligheidsbladID: b.ID.String(),
			Taal:              string(b.Taal),
			Versie:            b.Versie,
			Bestandsnaam:      b.Bestandsnaam,
			StoragePath:       b.StoragePath,
			GeuploadOp:        b.GeuploadOp.UTC().Format(time.RFC3339),
		}
		if b.Artikel != nil {
			row.ArtikelUniekeID = b.Artikel.UniekeID
			row.ArtikelNaam = b.Artikel.Naam
		}
		rows[i] = row
	}
	return rows, nil
}

// ExampleArchive returns the downloadable example ZIP for bulk sheet uploads
func ExampleArchive(maxZipSizeMB int64) ([]byte, error) {
	var buf bytes.Buffer
	if err := bulk.WriteArchive(&buf, bulk.ExampleArchiveFiles(maxZipSizeMB)); err != nil {
		return nil, fmt.Errorf("failed to write example archive: %w", err)
	}
	return buf.Bytes(), nil
}
