package service_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/straye-as/sds-catalog-api/internal/repository"
	"github.com/straye-as/sds-catalog-api/internal/storage"
	"github.com/straye-as/sds-catalog-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// flakyStorage wraps a real storage and fails selected calls
type flakyStorage struct {
	storage.Storage
	// failPut returns an error for matching Put calls, nil lets them through
	failPut    func(path string, overwrite bool) error
	failDelete bool
	signErr    error
}

func (f *flakyStorage) Put(ctx context.Context, path, contentType string, data io.Reader, size int64, overwrite bool) error {
	if f.failPut != nil {
		if err := f.failPut(path, overwrite); err != nil {
			return err
		}
	}
	return f.Storage.Put(ctx, path, contentType, data, size, overwrite)
}

func (f *flakyStorage) Delete(ctx context.Context, path string) error {
	if f.failDelete {
		return errors.New("delete refused")
	}
	return f.Storage.Delete(ctx, path)
}

func (f *flakyStorage) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return f.Storage.SignedURL(ctx, path, ttl)
}

// fixture bundles a test database, repositories and local storage
type fixture struct {
	db            *gorm.DB
	artikelRepo   *repository.ArtikelRepository
	bladRepo      *repository.VeiligheidsbladRepository
	importRunRepo *repository.ImportRunRepository
	userRepo      *repository.UserRepository
	local         *storage.LocalStorage
	store         *flakyStorage
	logger        *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)

	local, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080", "test-signing-key")
	require.NoError(t, err)

	return &fixture{
		db:            db,
		artikelRepo:   repository.NewArtikelRepository(db),
		bladRepo:      repository.NewVeiligheidsbladRepository(db),
		importRunRepo: repository.NewImportRunRepository(db),
		userRepo:      repository.NewUserRepository(db),
		local:         local,
		store:         &flakyStorage{Storage: local},
		logger:        zap.NewNop(),
	}
}

// readObject returns the stored content of path
func (f *fixture) readObject(t *testing.T, path string) string {
	t.Helper()
	rc, err := f.local.Get(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) objectExists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := f.local.Exists(context.Background(), path)
	require.NoError(t, err)
	return ok
}

// buildZip creates an in-memory archive; entries are written in the given order
func buildZip(t *testing.T, entries ...[2]string) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		require.NoError(t, err)
		_, err = io.Copy(w, strings.NewReader(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

// entry is shorthand for a zip entry
func entry(name, content string) [2]string {
	return [2]string{name, content}
}
