package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/service"
	"go.uber.org/zap"
)

type VeiligheidsbladHandler struct {
	bladService    *service.VeiligheidsbladService
	artikelService *service.ArtikelService
	maxSheetSize   int64
	logger         *zap.Logger
}

func NewVeiligheidsbladHandler(
	bladService *service.VeiligheidsbladService,
	artikelService *service.ArtikelService,
	maxSheetSize int64,
	logger *zap.Logger,
) *VeiligheidsbladHandler {
	return &VeiligheidsbladHandler{
		bladService:    bladService,
		artikelService: artikelService,
		maxSheetSize:   maxSheetSize,
		logger:         logger,
	}
}

// ListForArtikel godoc
// @Summary List veiligheidsbladen of an artikel
// @Description Every stored version in every language, newest first
// @Tags Veiligheidsbladen
// @Produce json
// @Param id path string true "Article UUID or unieke_id"
// @Success 200 {array} domain.VeiligheidsbladDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /artikelen/{id}/veiligheidsbladen [get]
func (h *VeiligheidsbladHandler) ListForArtikel(w http.ResponseWriter, r *http.Request) {
	artikelID, ok := resolveArtikelID(w, r, h.artikelService, h.logger)
	if !ok {
		return
	}

	bladen, err := h.bladService.ListForArtikel(r.Context(), artikelID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list veiligheidsbladen")
		return
	}

	respondJSON(w, http.StatusOK, bladen)
}

// Upload godoc
// @Summary Upload a veiligheidsblad
// @Description Stores a new version for one language. Without versie the next version is derived from the latest one.
// @Tags Veiligheidsbladen
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Article UUID or unieke_id"
// @Param file formData file true "PDF, DOC or DOCX file"
// @Param taal formData string true "Language" Enums(NL, EN, FR, DE)
// @Param versie formData string false "Version label, for example 2 or 2.0"
// @Success 201 {object} domain.VeiligheidsbladDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Version already exists"
// @Failure 413 {object} domain.APIError
// @Failure 415 {object} domain.APIError
// @Security BearerAuth
// @Router /artikelen/{id}/veiligheidsbladen [post]
func (h *VeiligheidsbladHandler) Upload(w http.ResponseWriter, r *http.Request) {
	artikelID, ok := resolveArtikelID(w, r, h.artikelService, h.logger)
	if !ok {
		return
	}

	file, header, ok := formFile(w, r, "file", h.maxSheetSize)
	if !ok {
		return
	}
	defer file.Close()

	blad, err := h.bladService.Upload(r.Context(), artikelID, &service.SheetUpload{
		Taal:     r.FormValue("taal"),
		Versie:   r.FormValue("versie"),
		FileName: header.Filename,
		Data:     file,
	}, auth.ActorID(r.Context()))
	if err != nil {
		respondServiceError(w, h.logger, err, "upload veiligheidsblad")
		return
	}

	respondJSON(w, http.StatusCreated, blad)
}

// Latest godoc
// @Summary Current veiligheidsbladen of an artikel
// @Description The newest sheet per language, or of one language when taal is given
// @Tags Veiligheidsbladen
// @Produce json
// @Param id path string true "Article UUID or unieke_id"
// @Param taal query string false "Language" Enums(NL, EN, FR, DE)
// @Success 200 {array} domain.VeiligheidsbladDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /artikelen/{id}/veiligheidsbladen/latest [get]
func (h *VeiligheidsbladHandler) Latest(w http.ResponseWriter, r *http.Request) {
	artikelID, ok := resolveArtikelID(w, r, h.artikelService, h.logger)
	if !ok {
		return
	}

	if taal := r.URL.Query().Get("taal"); taal != "" {
		blad, err := h.bladService.Latest(r.Context(), artikelID, domain.Taal(strings.ToUpper(taal)))
		if err != nil {
			respondServiceError(w, h.logger, err, "get latest veiligheidsblad")
			return
		}
		respondJSON(w, http.StatusOK, blad)
		return
	}

	bladen, err := h.bladService.LatestPerLanguage(r.Context(), artikelID)
	if err != nil {
		respondServiceError(w, h.logger, err, "get latest veiligheidsbladen")
		return
	}

	respondJSON(w, http.StatusOK, bladen)
}

// DownloadURL godoc
// @Summary Get a download link
// @Description Signed link valid for a limited time; falls back to the public link with signed=false
// @Tags Veiligheidsbladen
// @Produce json
// @Param id path string true "Veiligheidsblad ID" format(uuid)
// @Success 200 {object} domain.DownloadURLDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /veiligheidsbladen/{id}/url [get]
func (h *VeiligheidsbladHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid veiligheidsblad ID: must be a valid UUID")
		return
	}

	link, err := h.bladService.DownloadURL(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get download url")
		return
	}

	respondJSON(w, http.StatusOK, link)
}

// Download godoc
// @Summary Download a veiligheidsblad
// @Tags Veiligheidsbladen
// @Produce application/octet-stream
// @Param id path string true "Veiligheidsblad ID" format(uuid)
// @Success 200
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /veiligheidsbladen/{id}/download [get]
func (h *VeiligheidsbladHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid veiligheidsblad ID: must be a valid UUID")
		return
	}

	reader, blad, err := h.bladService.Download(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "download veiligheidsblad")
		return
	}
	defer reader.Close()

	contentType := blad.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", blad.Bestandsnaam))
	if blad.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blad.Size, 10))
	}

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("failed to stream veiligheidsblad", zap.Error(err), zap.String("veiligheidsblad_id", id.String()))
	}
}
