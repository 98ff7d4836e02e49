package bulk

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of workbook downloads
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is one worksheet of an export workbook
type Sheet struct {
	Name      string
	Header    []string
	Rows      [][]any
	ColWidths []float64
}

// ArtikelenSheet builds the article worksheet
func ArtikelenSheet(rows []ArtikelExportRow) Sheet {
	sheet := Sheet{
		Name:      "Artikelen",
		Header:    []string{"unieke_id", "naam", "referentie_rubix", "referentie_fabrikant", "ean", "leverancier", "omschrijving", "created_at", "updated_at"},
		ColWidths: []float64{16, 32, 18, 20, 16, 20, 40, 22, 22},
	}
	for _, r := range rows {
		sheet.Rows = append(sheet.Rows, []any{
			r.UniekeID, r.Naam, r.ReferentieRubix, r.ReferentieFabrikant, r.EAN,
			r.Leverancier, r.Omschrijving, r.CreatedAt, r.UpdatedAt,
		})
	}
	return sheet
}

// VeiligheidsbladenSheet builds the safety sheet worksheet
func VeiligheidsbladenSheet(rows []VeiligheidsbladExportRow) Sheet {
	sheet := Sheet{
		Name:      "Veiligheidsbladen",
		Header:    []string{"veiligheidsblad_id", "artikel_unieke_id", "artikel_naam", "taal", "versie", "bestandsnaam", "storage_path", "geupload_op"},
		ColWidths: []float64{38, 18, 32, 6, 8, 28, 60, 22},
	}
	for _, r := range rows {
		sheet.Rows = append(sheet.Rows, []any{
			r.VeiligheidsbladID, r.ArtikelUniekeID, r.ArtikelNaam, r.Taal, r.Versie,
			r.Bestandsnaam, r.StoragePath, r.GeuploadOp,
		})
	}
	return sheet
}

// WriteWorkbook writes the sheets as an XLSX workbook with a styled header row
func WriteWorkbook(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet.Name, err)
		}

		for col, h := range sheet.Header {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(sheet.Name, cell, h)
		}
		if len(sheet.Header) > 0 {
			last, _ := excelize.CoordinatesToCellName(len(sheet.Header), 1)
			f.SetCellStyle(sheet.Name, "A1", last, headerStyle)
		}

		for r, row := range sheet.Rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
				return fmt.Errorf("failed to write row %d of %s: %w", r+2, sheet.Name, err)
			}
		}

		for col, width := range sheet.ColWidths {
			name, _ := excelize.ColumnNumberToName(col + 1)
			f.SetColWidth(sheet.Name, name, name, width)
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

// ReadWorkbookRows returns all rows of the first worksheet of an XLSX file
func ReadWorkbookRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}
