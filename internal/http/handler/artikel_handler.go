package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/service"
	"go.uber.org/zap"
)

type ArtikelHandler struct {
	artikelService *service.ArtikelService
	logger         *zap.Logger
}

func NewArtikelHandler(artikelService *service.ArtikelService, logger *zap.Logger) *ArtikelHandler {
	return &ArtikelHandler{
		artikelService: artikelService,
		logger:         logger,
	}
}

// List godoc
// @Summary List artikelen
// @Description Paginated article list, optionally filtered by name or unieke_id
// @Tags Artikelen
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search in naam and unieke_id"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ArtikelDTO}
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /artikelen [get]
func (h *ArtikelHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	result, err := h.artikelService.List(r.Context(), page, pageSize, strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		respondServiceError(w, h.logger, err, "list artikelen")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create artikel
// @Tags Artikelen
// @Accept json
// @Produce json
// @Param request body domain.CreateArtikelRequest true "Article data"
// @Success 201 {object} domain.ArtikelDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "unieke_id already exists"
// @Security BearerAuth
// @Router /artikelen [post]
func (h *ArtikelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateArtikelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	artikel, err := h.artikelService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create artikel")
		return
	}

	w.Header().Set("Location", "/api/v1/artikelen/"+artikel.ID.String())
	respondJSON(w, http.StatusCreated, artikel)
}

// GetByID godoc
// @Summary Get artikel
// @Description Article with every sheet version and the current sheet per language. The id may be the UUID or the unieke_id.
// @Tags Artikelen
// @Produce json
// @Param id path string true "Article UUID or unieke_id"
// @Success 200 {object} domain.ArtikelDetailDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /artikelen/{id} [get]
func (h *ArtikelHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := resolveArtikelID(w, r, h.artikelService, h.logger)
	if !ok {
		return
	}

	artikel, err := h.artikelService.GetWithSheets(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get artikel")
		return
	}

	respondJSON(w, http.StatusOK, artikel)
}

// resolveArtikelID turns the {id} path parameter into an article UUID, looking
// up business ids when the parameter is not a UUID
func resolveArtikelID(w http.ResponseWriter, r *http.Request, artikelService *service.ArtikelService, logger *zap.Logger) (uuid.UUID, bool) {
	param := chi.URLParam(r, "id")
	if id, err := uuid.Parse(param); err == nil {
		return id, true
	}

	artikel, err := artikelService.GetByUniekeID(r.Context(), param)
	if err != nil {
		respondServiceError(w, logger, err, "get artikel")
		return uuid.Nil, false
	}
	return artikel.ID, true
}
