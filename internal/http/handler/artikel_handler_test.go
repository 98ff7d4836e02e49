package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/http/handler"
	"github.com/straye-as/sds-catalog-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type artikelPage struct {
	Data       []domain.ArtikelDTO `json:"data"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

func TestArtikelHandler_Create(t *testing.T) {
	env := newHandlerEnv(t)
	h := handler.NewArtikelHandler(env.artikelService, env.logger)

	body := []byte(`{"unieke_id":"ART001","naam":"Ontvetter","ean":"8712345678901"}`)
	req := httptest.NewRequest(http.MethodPost, "/artikelen", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Create(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeJSON[domain.ArtikelDTO](t, w)
	assert.Equal(t, "ART001", created.UniekeID)
	assert.Equal(t, "Ontvetter", created.Naam)
	require.NotNil(t, created.EAN)
	assert.Equal(t, "8712345678901", *created.EAN)
	assert.Equal(t, "/api/v1/artikelen/"+created.ID.String(), w.Header().Get("Location"))
}

func TestArtikelHandler_Create_ValidationError(t *testing.T) {
	env := newHandlerEnv(t)
	h := handler.NewArtikelHandler(env.artikelService, env.logger)

	req := httptest.NewRequest(http.MethodPost, "/artikelen", bytes.NewReader([]byte(`{"unieke_id":"ART001"}`)))
	w := httptest.NewRecorder()

	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	problem := decodeJSON[domain.APIError](t, w)
	assert.Equal(t, domain.ErrorTypeValidation, problem.Type)
	assert.Contains(t, problem.Errors, "naam")
}

func TestArtikelHandler_Create_InvalidBody(t *testing.T) {
	env := newHandlerEnv(t)
	h := handler.NewArtikelHandler(env.artikelService, env.logger)

	req := httptest.NewRequest(http.MethodPost, "/artikelen", bytes.NewReader([]byte(`{not json`)))
	w := httptest.NewRecorder()

	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArtikelHandler_Create_Conflict(t *testing.T) {
	env := newHandlerEnv(t)
	h := handler.NewArtikelHandler(env.artikelService, env.logger)
	testutil.CreateTestArtikel(t, env.db, "ART001", "Bestaand")

	req := httptest.NewRequest(http.MethodPost, "/artikelen", bytes.NewReader([]byte(`{"unieke_id":"ART001","naam":"Nieuw"}`)))
	w := httptest.NewRecorder()

	h.Create(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	problem := decodeJSON[domain.APIError](t, w)
	assert.Equal(t, domain.ErrorTypeConflict, problem.Type)
}

func TestArtikelHandler_List(t *testing.T) {
	env := newHandlerEnv(t)
	h := handler.NewArtikelHandler(env.artikelService, env.logger)
	testutil.CreateTestArtikel(t, env.db, "ART001", "Ontvetter")
	testutil.CreateTestArtikel(t, env.db, "ART002", "Kitverwijderaar")
	testutil.CreateTestArtikel(t, env.db, "VH-100", "Ontvetter extra")

	t.Run("all", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest(http.MethodGet, "/artikelen", nil))

		require.Equal(t, http.StatusOK, w.Code)
		page := decodeJSON[artikelPage](t, w)
		assert.Equal(t, int64(3), page.Total)
		assert.Len(t, page.Data, 3)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.PageSize)
	})

	t.Run("search", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest(http.MethodGet, "/artikelen?search=ontvet", nil))

		require.Equal(t, http.StatusOK, w.Code)
		page := decodeJSON[artikelPage](t, w)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("paged", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest(http.MethodGet, "/artikelen?page=2&pageSize=2", nil))

		require.Equal(t, http.StatusOK, w.Code)
		page := decodeJSON[artikelPage](t, w)
		assert.Len(t, page.Data, 1)
		assert.Equal(t, 2, page.TotalPages)
	})
}

func TestArtikelHandler_GetByID(t *testing.T) {
	env := newHandlerEnv(t)
	h := handler.NewArtikelHandler(env.artikelService, env.logger)
	artikel := testutil.CreateTestArtikel(t, env.db, "ART001", "Ontvetter")
	now := time.Now().UTC()
	testutil.CreateTestVeiligheidsblad(t, env.db, artikel, domain.TaalNL, "1.0", now.Add(-time.Hour))
	testutil.CreateTestVeiligheidsblad(t, env.db, artikel, domain.TaalNL, "2.0", now)

	for name, id := range map[string]string{"uuid": artikel.ID.String(), "unieke_id": "ART001"} {
		t.Run(name, func(t *testing.T) {
			req := withURLParams(httptest.NewRequest(http.MethodGet, "/artikelen/"+id, nil), map[string]string{"id": id})
			w := httptest.NewRecorder()

			h.GetByID(w, req)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			detail := decodeJSON[domain.ArtikelDetailDTO](t, w)
			assert.Equal(t, artikel.ID, detail.ID)
			assert.Len(t, detail.Veiligheidsbladen, 2)
			assert.Equal(t, "2.0", detail.Latest[domain.TaalNL].Versie)
		})
	}
}

func TestArtikelHandler_GetByID_NotFound(t *testing.T) {
	env := newHandlerEnv(t)
	h := handler.NewArtikelHandler(env.artikelService, env.logger)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/artikelen/ONBEKEND", nil), map[string]string{"id": "ONBEKEND"})
	w := httptest.NewRecorder()

	h.GetByID(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
