package handler_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/repository"
	"github.com/straye-as/sds-catalog-api/internal/service"
	"github.com/straye-as/sds-catalog-api/internal/storage"
	"github.com/straye-as/sds-catalog-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testMaxSheetSize = 1 << 10
	testMaxZipSize   = 1 << 20
	testMaxCSVSize   = 1 << 20
)

// handlerEnv wires the real services over an in-memory database and local storage
type handlerEnv struct {
	db     *gorm.DB
	local  *storage.LocalStorage
	logger *zap.Logger

	artikelService   *service.ArtikelService
	bladService      *service.VeiligheidsbladService
	documentService  *service.BulkDocumentService
	importService    *service.BulkImportService
	exportService    *service.ExportService
	importRunService *service.ImportRunService
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	local, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080", "test-signing-key")
	require.NoError(t, err)

	artikelRepo := repository.NewArtikelRepository(db)
	bladRepo := repository.NewVeiligheidsbladRepository(db)
	importRunRepo := repository.NewImportRunRepository(db)

	return &handlerEnv{
		db:               db,
		local:            local,
		logger:           logger,
		artikelService:   service.NewArtikelService(artikelRepo, bladRepo, logger),
		bladService:      service.NewVeiligheidsbladService(artikelRepo, bladRepo, local, testMaxSheetSize, 0, logger),
		documentService:  service.NewBulkDocumentService(artikelRepo, bladRepo, importRunRepo, local, testMaxZipSize, testMaxSheetSize, logger),
		importService:    service.NewBulkImportService(artikelRepo, importRunRepo, testMaxCSVSize, logger),
		exportService:    service.NewExportService(artikelRepo, bladRepo, logger),
		importRunService: service.NewImportRunService(importRunRepo),
	}
}

// adminRequest attaches an admin user that exists in the database
func (e *handlerEnv) adminRequest(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	user := testutil.CreateTestUser(t, e.db, domain.RoleAdmin)
	return req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.Naam,
		Role:        user.Role,
	}))
}

// withURLParams sets chi path parameters on a request built outside a router
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// multipartBody builds a form with one file part and optional plain fields
func multipartBody(t *testing.T, fileName string, content []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func multipartRequest(t *testing.T, target, fileName string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, fileName, content, fields)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	return req
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
