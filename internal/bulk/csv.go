package bulk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// BOM is written in front of exported CSV files so spreadsheet tools detect UTF-8
const BOM = "\uFEFF"

// RequiredColumns must be present in an article import header
var RequiredColumns = []string{"naam", "unieke_id"}

var (
	ErrEmptyCSV       = errors.New("csv must contain a header row and at least one data row")
	ErrMissingColumns = errors.New("missing required columns")
)

// ArtikelRecord is one article row of an import file
type ArtikelRecord struct {
	Naam                string `csv:"naam"`
	UniekeID            string `csv:"unieke_id"`
	ReferentieRubix     string `csv:"referentie_rubix,omitempty"`
	ReferentieFabrikant string `csv:"referentie_fabrikant,omitempty"`
	EAN                 string `csv:"ean,omitempty"`
	Leverancier         string `csv:"leverancier,omitempty"`
	Omschrijving        string `csv:"omschrijving,omitempty"`
}

func (r *ArtikelRecord) trim() {
	r.Naam = strings.TrimSpace(r.Naam)
	r.UniekeID = strings.TrimSpace(r.UniekeID)
	r.ReferentieRubix = strings.TrimSpace(r.ReferentieRubix)
	r.ReferentieFabrikant = strings.TrimSpace(r.ReferentieFabrikant)
	r.EAN = strings.TrimSpace(r.EAN)
	r.Leverancier = strings.TrimSpace(r.Leverancier)
	r.Omschrijving = strings.TrimSpace(r.Omschrijving)
}

// Map returns the record as column/value pairs for error reports
func (r ArtikelRecord) Map() map[string]string {
	m := map[string]string{
		"naam":      r.Naam,
		"unieke_id": r.UniekeID,
	}
	optional := map[string]string{
		"referentie_rubix":     r.ReferentieRubix,
		"referentie_fabrikant": r.ReferentieFabrikant,
		"ean":                  r.EAN,
		"leverancier":          r.Leverancier,
		"omschrijving":         r.Omschrijving,
	}
	for k, v := range optional {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// CSVRow is a decoded data row; Row is the 1-based line number counting the header as row 1
type CSVRow struct {
	Row    int
	Record ArtikelRecord
}

// ParsedCSV is the decoded content of an article import file
type ParsedCSV struct {
	Columns []string
	Rows    []CSVRow
}

type recordReader interface {
	Read() ([]string, error)
}

// alignedReader pads short records and truncates long ones to the header width
type alignedReader struct {
	r     recordReader
	width int
}

func (a *alignedReader) Read() ([]string, error) {
	record, err := a.r.Read()
	if err != nil {
		return nil, err
	}
	switch {
	case len(record) < a.width:
		padded := make([]string, a.width)
		copy(padded, record)
		return padded, nil
	case len(record) > a.width:
		return record[:a.width], nil
	}
	return record, nil
}

// ParseArtikelCSV decodes an article import file. Header names are matched
// case-insensitively, a leading BOM is ignored and ragged rows are aligned to
// the header. Rows are returned as-is; required-field checks belong to the caller.
func ParseArtikelCSV(r io.Reader) (*ParsedCSV, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	return decodeRecords(header, cr)
}

// ParseArtikelXLSX decodes an article import workbook; the first worksheet is
// read with the same header and row rules as ParseArtikelCSV.
func ParseArtikelXLSX(r io.Reader) (*ParsedCSV, error) {
	rows, err := ReadWorkbookRows(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyCSV
	}
	return decodeRecords(rows[0], &sliceReader{rows: rows[1:]})
}

type sliceReader struct {
	rows [][]string
}

func (s *sliceReader) Read() ([]string, error) {
	if len(s.rows) == 0 {
		return nil, io.EOF
	}
	row := s.rows[0]
	s.rows = s.rows[1:]
	return row, nil
}

func decodeRecords(header []string, rr recordReader) (*ParsedCSV, error) {
	columns := normalizeHeader(header)
	if missing := missingColumns(columns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	dec, err := csvutil.NewDecoder(&alignedReader{r: rr, width: len(columns)}, columns...)
	if err != nil {
		return nil, fmt.Errorf("failed to create csv decoder: %w", err)
	}

	parsed := &ParsedCSV{Columns: columns}
	for i := 0; ; i++ {
		var record ArtikelRecord
		if err := dec.Decode(&record); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to decode row %d: %w", i+2, err)
		}
		record.trim()
		if record == (ArtikelRecord{}) {
			continue
		}
		parsed.Rows = append(parsed.Rows, CSVRow{Row: i + 2, Record: record})
	}

	if len(parsed.Rows) == 0 {
		return nil, ErrEmptyCSV
	}

	return parsed, nil
}

func normalizeHeader(header []string) []string {
	seen := make(map[string]bool, len(header))
	columns := make([]string, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.Trim(strings.TrimSpace(h), `"`))
		if name == "" || seen[name] {
			// csvutil rejects duplicate header names; later copies are ignored
			name = fmt.Sprintf("_ignored_%d", i)
		}
		seen[name] = true
		columns[i] = name
	}
	return columns
}

func missingColumns(columns []string) []string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var missing []string
	for _, required := range RequiredColumns {
		if !present[required] {
			missing = append(missing, required)
		}
	}
	return missing
}

// ArtikelExportRow is one line of the article export
type ArtikelExportRow struct {
	UniekeID            string `csv:"unieke_id"`
	Naam                string `csv:"naam"`
	ReferentieRubix     string `csv:"referentie_rubix"`
	ReferentieFabrikant string `csv:"referentie_fabrikant"`
	EAN                 string `csv:"ean"`
	Leverancier         string `csv:"leverancier"`
	Omschrijving        string `csv:"omschrijving"`
	CreatedAt           string `csv:"created_at"`
	UpdatedAt           string `csv:"updated_at"`
}

// VeiligheidsbladExportRow is one line of the safety sheet export
type VeiligheidsbladExportRow struct {
	VeiligheidsbladID string `csv:"veiligheidsblad_id"`
	ArtikelUniekeID   string `csv:"artikel_unieke_id"`
	ArtikelNaam       string `csv:"artikel_naam"`
	Taal              string `csv:"taal"`
	Versie            string `csv:"versie"`
	Bestandsnaam      string `csv:"bestandsnaam"`
	StoragePath       string `csv:"storage_path"`
	GeuploadOp        string `csv:"geupload_op"`
}

// WriteCSV writes rows (a slice of export structs) as a BOM-prefixed CSV file.
// The header is written even when there are no rows.
func WriteCSV[T any](w io.Writer, rows []T) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return fmt.Errorf("failed to write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	var zero T
	if err := enc.EncodeHeader(zero); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// TemplateRows are the sample rows of the downloadable import template
var TemplateRows = []ArtikelRecord{
	{Naam: "Veiligheidshelm Standaard", UniekeID: "VH-001", ReferentieRubix: "RUB-VH-001", ReferentieFabrikant: "FAB-VH-STD", EAN: "1234567890123"},
	{Naam: "Werkhandschoenen Latex", UniekeID: "WH-002", ReferentieRubix: "RUB-WH-002", ReferentieFabrikant: "FAB-WH-LAT", EAN: "2345678901234"},
	{Naam: "Veiligheidsbril Helder", UniekeID: "VB-003", ReferentieRubix: "RUB-VB-003", ReferentieFabrikant: "FAB-VB-HLD", EAN: "3456789012345"},
}

// templateRow limits the template to the columns users normally fill in
type templateRow struct {
	Naam                string `csv:"naam"`
	UniekeID            string `csv:"unieke_id"`
	ReferentieRubix     string `csv:"referentie_rubix"`
	ReferentieFabrikant string `csv:"referentie_fabrikant"`
	EAN                 string `csv:"ean"`
}

// WriteTemplate writes the import template with its sample rows
func WriteTemplate(w io.Writer) error {
	rows := make([]templateRow, len(TemplateRows))
	for i, r := range TemplateRows {
		rows[i] = templateRow{
			Naam:                r.Naam,
			UniekeID:            r.UniekeID,
			ReferentieRubix:     r.ReferentieRubix,
			ReferentieFabrikant: r.ReferentieFabrikant,
			EAN:                 r.EAN,
		}
	}
	return WriteCSV(w, rows)
}
