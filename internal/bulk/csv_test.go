package bulk_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/straye-as/sds-catalog-api/internal/bulk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArtikelCSV_CaseInsensitiveHeaderAndBOM(t *testing.T) {
	input := bulk.BOM + "Naam, UNIEKE_ID ,Referentie_Rubix,ean,onbekend\n" +
		"Helm,VH-001,RUB-1,123,x\n" +
		"Bril,VB-002,,456,y\n"

	parsed, err := bulk.ParseArtikelCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"naam", "unieke_id", "referentie_rubix", "ean", "onbekend"}, parsed.Columns)
	require.Len(t, parsed.Rows, 2)
	assert.Equal(t, 2, parsed.Rows[0].Row)
	assert.Equal(t, "Helm", parsed.Rows[0].Record.Naam)
	assert.Equal(t, "VH-001", parsed.Rows[0].Record.UniekeID)
	assert.Equal(t, "RUB-1", parsed.Rows[0].Record.ReferentieRubix)
	assert.Equal(t, "123", parsed.Rows[0].Record.EAN)
	assert.Equal(t, 3, parsed.Rows[1].Row)
	assert.Empty(t, parsed.Rows[1].Record.ReferentieRubix)
}

func TestParseArtikelCSV_RaggedRows(t *testing.T) {
	input := "naam,unieke_id,referentie_rubix,referentie_fabrikant\n" +
		"Helm,VH-001\n" +
		"Bril,VB-002,RUB,FAB,extra,values\n" +
		",WH-003\n"

	parsed, err := bulk.ParseArtikelCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 3)

	assert.Equal(t, "VH-001", parsed.Rows[0].Record.UniekeID)
	assert.Empty(t, parsed.Rows[0].Record.ReferentieFabrikant)
	assert.Equal(t, "FAB", parsed.Rows[1].Record.ReferentieFabrikant)
	assert.Empty(t, parsed.Rows[2].Record.Naam)
	assert.Equal(t, 4, parsed.Rows[2].Row)
}

func TestParseArtikelCSV_QuotedValues(t *testing.T) {
	input := "naam,unieke_id\n\"Handschoen, maat L\",\"WH-\"\"9\"\"\"\n"

	parsed, err := bulk.ParseArtikelCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, "Handschoen, maat L", parsed.Rows[0].Record.Naam)
	assert.Equal(t, `WH-"9"`, parsed.Rows[0].Record.UniekeID)
}

func TestParseArtikelCSV_MissingRequiredColumns(t *testing.T) {
	_, err := bulk.ParseArtikelCSV(strings.NewReader("naam,ean\nHelm,123\n"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, bulk.ErrMissingColumns))
	assert.Contains(t, err.Error(), "unieke_id")
}

func TestParseArtikelCSV_HeaderOnly(t *testing.T) {
	_, err := bulk.ParseArtikelCSV(strings.NewReader("naam,unieke_id\n"))
	assert.ErrorIs(t, err, bulk.ErrEmptyCSV)

	_, err = bulk.ParseArtikelCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, bulk.ErrEmptyCSV)
}

func TestWriteCSV_QuotesAndBOM(t *testing.T) {
	var buf bytes.Buffer
	err := bulk.WriteCSV(&buf, []bulk.ArtikelExportRow{
		{UniekeID: "VH-001", Naam: `Helm "Pro", wit`, EAN: "123"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, bulk.BOM))
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, bulk.BOM), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "unieke_id,naam,referentie_rubix,referentie_fabrikant,ean,leverancier,omschrijving,created_at,updated_at", lines[0])
	assert.Equal(t, `VH-001,"Helm ""Pro"", wit",,,123,,,,`, lines[1])
}

func TestWriteCSV_EmptyStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bulk.WriteCSV(&buf, []bulk.VeiligheidsbladExportRow{}))

	assert.Equal(t, bulk.BOM+"veiligheidsblad_id,artikel_unieke_id,artikel_naam,taal,versie,bestandsnaam,storage_path,geupload_op\n", buf.String())
}

func TestCSV_ExportImportRoundTrip(t *testing.T) {
	rows := []bulk.ArtikelExportRow{
		{UniekeID: "VH-001", Naam: "Veiligheidshelm, standaard", ReferentieRubix: "RUB-1", ReferentieFabrikant: `FAB "X"`, EAN: "1234567890123", CreatedAt: "2024-01-01T00:00:00Z"},
		{UniekeID: "WH-002", Naam: "Werkhandschoenen", ReferentieRubix: "", ReferentieFabrikant: "FAB-2", EAN: ""},
		{UniekeID: "VB-003", Naam: "  Bril  ", EAN: "0001"},
	}

	var buf bytes.Buffer
	require.NoError(t, bulk.WriteCSV(&buf, rows))

	parsed, err := bulk.ParseArtikelCSV(&buf)
	require.NoError(t, err)
	require.Len(t, parsed.Rows, len(rows))

	for i, row := range rows {
		got := parsed.Rows[i].Record
		assert.Equal(t, strings.TrimSpace(row.Naam), got.Naam)
		assert.Equal(t, row.UniekeID, got.UniekeID)
		assert.Equal(t, row.ReferentieRubix, got.ReferentieRubix)
		assert.Equal(t, row.ReferentieFabrikant, got.ReferentieFabrikant)
		assert.Equal(t, row.EAN, got.EAN)
	}
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bulk.WriteTemplate(&buf))

	parsed, err := bulk.ParseArtikelCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"naam", "unieke_id", "referentie_rubix", "referentie_fabrikant", "ean"}, parsed.Columns)
	require.Len(t, parsed.Rows, 3)
	assert.Equal(t, "VH-001", parsed.Rows[0].Record.UniekeID)
}

func TestArtikelRecord_Map(t *testing.T) {
	m := bulk.ArtikelRecord{Naam: "Helm", UniekeID: "VH-001", EAN: "1"}.Map()

	assert.Equal(t, map[string]string{"naam": "Helm", "unieke_id": "VH-001", "ean": "1"}, m)
}
