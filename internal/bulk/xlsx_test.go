package bulk_test

import (
	"bytes"
	"testing"

	"github.com/straye-as/sds-catalog-api/internal/bulk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkbook_ArticleSheetCanBeImported(t *testing.T) {
	rows := []bulk.ArtikelExportRow{
		{UniekeID: "VH-001", Naam: "Helm", ReferentieRubix: "RUB-1", EAN: "123"},
		{UniekeID: "WH-002", Naam: "Handschoen, latex"},
	}

	var buf bytes.Buffer
	require.NoError(t, bulk.WriteWorkbook(&buf,
		bulk.ArtikelenSheet(rows),
		bulk.VeiligheidsbladenSheet(nil),
	))

	parsed, err := bulk.ParseArtikelXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 2)
	assert.Equal(t, "VH-001", parsed.Rows[0].Record.UniekeID)
	assert.Equal(t, "RUB-1", parsed.Rows[0].Record.ReferentieRubix)
	assert.Equal(t, "Handschoen, latex", parsed.Rows[1].Record.Naam)
	assert.Equal(t, 3, parsed.Rows[1].Row)
}

func TestWriteWorkbook_RequiresSheet(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, bulk.WriteWorkbook(&buf))
}
