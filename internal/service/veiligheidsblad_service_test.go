package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/service"
	"github.com/straye-as/sds-catalog-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const maxSheetSize = 1 << 20

func newBladService(f *fixture) *service.VeiligheidsbladService {
	return service.NewVeiligheidsbladService(f.artikelRepo, f.bladRepo, f.store, maxSheetSize, time.Hour, f.logger)
}

func sheetUpload(taal, versie, name, content string) *service.SheetUpload {
	return &service.SheetUpload{Taal: taal, Versie: versie, FileName: name, Data: strings.NewReader(content)}
}

func TestNextVersion(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{"", "1.0"},
		{"1.0", "2.0"},
		{"2", "3.0"},
		{"2.7", "3.0"},
		{"abc", "1.0"},
		{" 4 ", "5.0"},
		{"-3", "1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			assert.Equal(t, tt.want, service.NextVersion(tt.current))
		})
	}
}

// ============================================================================
// Upload
// ============================================================================

func TestVeiligheidsbladService_Upload_AutoVersion(t *testing.T) {
	f := newFixture(t)
	svc := newBladService(f)
	ctx := context.Background()
	artikel := testutil.CreateTestArtikel(t, f.db, "ART001", "Ontvetter")
	uploader := uuid.New()

	first, err := svc.Upload(ctx, artikel.ID, sheetUpload("nl", "", "blad.pdf", "eerste"), &uploader)
	require.NoError(t, err)
	assert.Equal(t, "1.0", first.Versie)
	assert.Equal(t, domain.TaalNL, first.Taal)
	assert.Equal(t, "veiligheidsbladen/ART001/NL/V1.0/veiligheidsblad.pdf", first.StoragePath)
	assert.Equal(t, "blad.pdf", first.Bestandsnaam)
	assert.Equal(t, int64(len("eerste")), first.Size)

	second, err := svc.Upload(ctx, artikel.ID, sheetUpload("NL", "", "blad-v2.pdf", "tweede"), &uploader)
	require.NoError(t, err)
	assert.Equal(t, "2.0", second.Versie)

	assert.Equal(t, "eerste", f.readObject(t, first.StoragePath))
	assert.Equal(t, "tweede", f.readObject(t, second.StoragePath))
	assert.Equal(t, "tweede", f.readObject(t, "veiligheidsbladen/ART001/NL/latest/veiligheidsblad.pdf"))

	latest, err := svc.Latest(ctx, artikel.ID, domain.TaalNL)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestVeiligheidsbladService_Upload_ExplicitVersion(t *testing.T) {
	f := newFixture(t)
	svc := newBladService(f)
	ctx := context.Background()
	artikel := testutil.CreateTestArtikel(t, f.db, "ART001", "Ontvetter")

	dto, err := svc.Upload(ctx, artikel.ID, sheetUpload("EN", "V3", "sheet.docx", "v3"), nil)
	require.NoError(t, err)
	assert.Equal(t, "3", dto.Versie)

	_, err = svc.Upload(ctx, artikel.ID, sheetUpload("EN", "3", "sheet.docx", "again"), nil)
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.Equal(t, "v3", f.readObject(t, dto.StoragePath), "existing version is never replaced")
}

func TestVeiligheidsbladService_Upload_Rejects(t *testing.T) {
	f := newFixture(t)
	svc := newBladService(f)
	ctx := context.Background()
	artikel := testutil.CreateTestArtikel(t, f.db, "ART001", "Ontvetter")

	tests := []struct {
		name      string
		artikelID uuid.UUID
		upload    *service.SheetUpload
		wantErr   error
	}{
		{"unknown language", artikel.ID, sheetUpload("ES", "", "a.pdf", "x"), service.ErrInvalidInput},
		{"wrong extension", artikel.ID, sheetUpload("NL", "", "a.exe", "x"), service.ErrUnsupportedFileType},
		{"too large", artikel.ID, sheetUpload("NL", "", "a.pdf", strings.Repeat("x", maxSheetSize+1)), service.ErrFileTooLarge},
		{"empty file", artikel.ID, sheetUpload("NL", "", "a.pdf", ""), service.ErrInvalidInput},
		{"bad version", artikel.ID, sheetUpload("NL", "1/2", "a.pdf", "x"), service.ErrInvalidInput},
		{"unknown article", uuid.New(), sheetUpload("NL", "", "a.pdf", "x"), service.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.artikelID, tt.upload, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVeiligheidsbladService_Upload_ToleratesLatestFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failPut = func(path string, overwrite bool) error {
		if overwrite {
			return errors.New("latest copy unavailable")
		}
		return nil
	}
	svc := newBladService(f)
	artikel := testutil.CreateTestArtikel(t, f.db, "ART001", "Ontvetter")

	dto, err := svc.Upload(context.Background(), artikel.ID, sheetUpload("NL", "", "a.pdf", "inhoud"), nil)
	require.NoError(t, err)

	assert.True(t, f.objectExists(t, dto.StoragePath))
	assert.False(t, f.objectExists(t, "veiligheidsbladen/ART001/NL/latest/veiligheidsblad.pdf"))
}

func TestVeiligheidsbladService_SyncLatestCopies(t *testing.T) {
	f := newFixture(t)
	f.store.failPut = func(path string, overwrite bool) error {
		if overwrite {
			return errors.New("latest copy unavailable")
		}
		return nil
	}
	svc := newBladService(f)
	ctx := context.Background()
	artikel := testutil.CreateTestArtikel(t, f.db, "ART001", "Ontvetter")

	_, err := svc.Upload(ctx, artikel.ID, sheetUpload("NL", "", "a.pdf", "inhoud"), nil)
	require.NoError(t, err)
	f.store.failPut = nil

	synced, failed, err := svc.SyncLatestCopies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
	assert.Zero(t, failed)
	assert.Equal(t, "inhoud", f.readObject(t, "veiligheidsbladen/ART001/NL/latest/veiligheidsblad.pdf"))

	synced, failed, err = svc.SyncLatestCopies(ctx)
	require.NoError(t, err)
	assert.Zero(t, synced)
	assert.Zero(t, failed)
}

func TestVeiligheidsbladService_Upload_VersionedFailureFails(t *testing.T) {
	f := newFixture(t)
	f.store.failPut = func(path string, overwrite bool) error {
		return errors.New("bucket offline")
	}
	svc := newBladService(f)
	artikel := testutil.CreateTestArtikel(t, f.db, "ART001", "Ontvetter")

	_, err := svc.Upload(context.Background(), artikel.ID, sheetUpload("NL", "", "a.pdf", "inhoud"), nil)
	require.Error(t, err)

	count, err := f.bladRepo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVeiligheidsbladService_Upload_LatestFailureDropsStaleCopy(t *testing.T) {
	f := newFixture(t)
	svc := newBladService(f)
	ctx := context.Background()
	artikel := testutil.CreateTestArtikel(t, f.db, "ART001", "Ontvetter")

	_, err := svc.Upload(ctx, artikel.ID, sheetUpload("NL", "", "a.pdf", "een"), nil)
	require.NoError(t, err)

	f.store.failPut = func(path string, overwrite bool) error {
		if overwrite {
			return errors.New("latest copy unavailable")
		}
		return nil
	}
	_, err = svc.Upload(ctx, artikel.ID, sheetUpload("NL", "", "b.pdf", "twee"), nil)
	require.NoError(t, err)
	assert.False(t, f.objectExists(t, "veiligheidsbladen/ART001/NL/latest/veiligheidsblad.pdf"))

	f.store.failPut = nil
	synced, _, err := svc.SyncLatestCopies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
	assert.Equal(t, "twee", f.readObject(t, "veiligheidsbladen/ART001/NL/latest/veiligheidsblad.pdf"))
}

func TestVeiligheidsbladService_Upload_DatabaseFailureKeepsLatest(t *testing.T) {
	f := newFixture(t)
	svc := newBladService(f)
	ctx := context.Background()
	artikel := testutil.CreateTestArtikel(t, f.db, "ART001", "Ontvetter")

	_, err := svc.Upload(ctx, artikel.ID, sheetUpload("NL", "1", "a.pdf", "een"), nil)
	require.NoError(t, err)

	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:refuse_insert", func(db *gorm.DB) {
		db.AddError(errors.New("insert refused"))
	}))

	_, err = svc.Upload(ctx, artikel.ID, sheetUpload("NL", "2", "b.pdf", "twee"), nil)
	require.Error(t, err)

	assert.Equal(t, "een", f.readObject(t, "veiligheidsbladen/ART001/NL/latest/veiligheidsblad.pdf"))
	assert.False(t, f.objectExists(t, "veiligheidsbladen/ART001/NL/V2/veiligheidsblad.pdf"))
}

func TestVeiligheidsbladService_Upload_LatestLookupFailure(t *testing.T) {
	f := newFixture(t)
	svc := newBladService(f)
	artikel := testutil.CreateTestArtikel(t, f.db, "ART001", "Ontvetter")

	require.NoError(t, f.db.Callback().Query().Before("gorm:query").Register("test:refuse_sheets", func(db *gorm.DB) {
		if db.Statement.Table == "veiligheidsbladen" {
			db.AddError(errors.New("connection reset"))
		}
	}))

	_, err := svc.Upload(context.Background(), artikel.ID, sheetUpload("NL", "", "a.pdf", "inhoud"), nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
	assert.False(t, f.objectExists(t, "veiligheidsbladen/ART001/NL/V1.0/veiligheidsblad.pdf"))
}

// ============================================================================
// Reads and downloads
// ============================================================================

func TestVeiligheidsbladService_LatestPerLanguage(t *testing.T) {
	f := newFixture(t)
	svc := newBladService(f)
	ctx := context.Background()
	artikel := testutil.CreateTestArtikel(t, f.db, "ART001", "Ontvetter")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	testutil.CreateTestVeiligheidsblad(t, f.db, artikel, domain.TaalDE, "1", base)
	de2 := testutil.CreateTestVeiligheidsblad(t, f.db, artikel, domain.TaalDE, "2", base.Add(time.Minute))
	fr1 := testutil.CreateTestVeiligheidsblad(t, f.db, artikel, domain.TaalFR, "1", base)

	latest, err := svc.LatestPerLanguage(ctx, artikel.ID)
	require.NoError(t, err)
	require.Len(t, latest, 2)

	byTaal := map[domain.Taal]uuid.UUID{}
	for _, b := range latest {
		byTaal[b.Taal] = b.ID
	}
	assert.Equal(t, de2.ID, byTaal[domain.TaalDE])
	assert.Equal(t, fr1.ID, byTaal[domain.TaalFR])

	all, err := svc.ListForArtikel(ctx, artikel.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.Latest(ctx, artikel.ID, domain.TaalNL)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.ListForArtikel(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestVeiligheidsbladService_DownloadURL(t *testing.T) {
	f := newFixture(t)
	svc := newBladService(f)
	ctx := context.Background()
	artikel := testutil.CreateTestArtikel(t, f.db, "ART001", "Ontvetter")

	dto, err := svc.Upload(ctx, artikel.ID, sheetUpload("NL", "", "a.pdf", "inhoud"), nil)
	require.NoError(t, err)

	t.Run("signed", func(t *testing.T) {
		link, err := svc.DownloadURL(ctx, dto.ID)
		require.NoError(t, err)
		assert.True(t, link.Signed)
		assert.Contains(t, link.URL, "token=")
		require.NotNil(t, link.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(time.Hour), *link.ExpiresAt, time.Minute)
	})

	t.Run("falls back to public url", func(t *testing.T) {
		f.store.signErr = errors.New("signing unavailable")
		defer func() { f.store.signErr = nil }()

		link, err := svc.DownloadURL(ctx, dto.ID)
		require.NoError(t, err)
		assert.False(t, link.Signed)
		assert.Nil(t, link.ExpiresAt)
		assert.Equal(t, f.local.PublicURL(dto.StoragePath), link.URL)
	})

	t.Run("unknown sheet", func(t *testing.T) {
		_, err := svc.DownloadURL(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestVeiligheidsbladService_Download(t *testing.T) {
	f := newFixture(t)
	svc := newBladService(f)
	ctx := context.Background()
	artikel := testutil.CreateTestArtikel(t, f.db, "ART001", "Ontvetter")

	dto, err := svc.Upload(ctx, artikel.ID, sheetUpload("NL", "", "a.pdf", "inhoud"), nil)
	require.NoError(t, err)

	rc, meta, err := svc.Download(ctx, dto.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "inhoud", string(data))
	assert.Equal(t, "a.pdf", meta.Bestandsnaam)

	require.NoError(t, f.local.Delete(ctx, dto.StoragePath))
	_, _, err = svc.Download(ctx, dto.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
