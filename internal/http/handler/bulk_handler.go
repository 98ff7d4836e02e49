package handler

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/service"
	"go.uber.org/zap"
)

// BulkLimits are the upload limits of the bulk endpoints in bytes
type BulkLimits struct {
	MaxZipSize int64
	MaxCSVSize int64
}

type BulkHandler struct {
	documentService  *service.BulkDocumentService
	importService    *service.BulkImportService
	exportService    *service.ExportService
	importRunService *service.ImportRunService
	limits           BulkLimits
	logger           *zap.Logger
}

func NewBulkHandler(
	documentService *service.BulkDocumentService,
	importService *service.BulkImportService,
	exportService *service.ExportService,
	importRunService *service.ImportRunService,
	limits BulkLimits,
	logger *zap.Logger,
) *BulkHandler {
	return &BulkHandler{
		documentService:  documentService,
		importService:    importService,
		exportService:    exportService,
		importRunService: importRunService,
		limits:           limits,
		logger:           logger,
	}
}

// ValidateDocuments godoc
// @Summary Validate a safety sheet archive
// @Description Parses every filename of the ZIP and checks that the articles exist. Nothing is stored.
// @Tags Bulk
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "ZIP archive"
// @Success 200 {object} domain.BulkValidationResult
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Router /bulk/documents/validate [post]
func (h *BulkHandler) ValidateDocuments(w http.ResponseWriter, r *http.Request) {
	file, header, ok := formFile(w, r, "file", h.limits.MaxZipSize)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.documentService.ValidateArchive(r.Context(), header.Filename, file)
	if err != nil {
		respondServiceError(w, h.logger, err, "validate archive")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// UploadDocuments godoc
// @Summary Upload a safety sheet archive
// @Description Stores every valid file of the ZIP as a new sheet version. Failing files are reported per file and do not stop the upload.
// @Tags Bulk
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "ZIP archive"
// @Success 200 {object} domain.BulkUploadResult
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Router /bulk/documents [post]
func (h *BulkHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	file, header, ok := formFile(w, r, "file", h.limits.MaxZipSize)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.documentService.UploadArchive(r.Context(), header.Filename, file, auth.ActorID(r.Context()))
	if err != nil {
		respondServiceError(w, h.logger, err, "upload archive")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ExampleZip godoc
// @Summary Download an example archive
// @Tags Bulk
// @Produce application/zip
// @Success 200
// @Security BearerAuth
// @Router /bulk/example-zip [get]
func (h *BulkHandler) ExampleZip(w http.ResponseWriter, r *http.Request) {
	data, err := service.ExampleArchive(h.limits.MaxZipSize >> 20)
	if err != nil {
		respondServiceError(w, h.logger, err, "build example archive")
		return
	}

	attachment(w, "veiligheidsbladen_voorbeeld.zip", "application/zip", len(data))
	_, _ = w.Write(data)
}

// ImportPreview godoc
// @Summary Preview an article import
// @Description Lists the rows that would be imported, rejected rows and duplicates. Nothing is stored.
// @Tags Bulk
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} domain.CSVPreviewResult
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 415 {object} domain.APIError
// @Security BearerAuth
// @Router /bulk/import/preview [post]
func (h *BulkHandler) ImportPreview(w http.ResponseWriter, r *http.Request) {
	file, header, ok := formFile(w, r, "file", h.limits.MaxCSVSize)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.importService.Preview(r.Context(), header.Filename, file)
	if err != nil {
		respondServiceError(w, h.logger, err, "preview import")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Import godoc
// @Summary Import articles
// @Description Inserts every valid new row of a CSV or XLSX file
// @Tags Bulk
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} domain.CSVImportResult
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 415 {object} domain.APIError
// @Security BearerAuth
// @Router /bulk/import [post]
func (h *BulkHandler) Import(w http.ResponseWriter, r *http.Request) {
	file, header, ok := formFile(w, r, "file", h.limits.MaxCSVSize)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.importService.Import(r.Context(), header.Filename, file, auth.ActorID(r.Context()))
	if err != nil {
		respondServiceError(w, h.logger, err, "import artikelen")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ImportTemplate godoc
// @Summary Download the import template
// @Tags Bulk
// @Produce text/csv
// @Success 200
// @Security BearerAuth
// @Router /bulk/import/template [get]
func (h *BulkHandler) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.importService.Template(&buf); err != nil {
		respondServiceError(w, h.logger, err, "build import template")
		return
	}

	attachment(w, "artikelen_import_template.csv", "text/csv; charset=utf-8", buf.Len())
	_, _ = w.Write(buf.Bytes())
}

// Export godoc
// @Summary Export the catalogue
// @Description artikelen or veiligheidsbladen as CSV or XLSX; alles as a ZIP of both CSV files or one workbook
// @Tags Bulk
// @Produce application/octet-stream
// @Param type query string true "Dataset" Enums(artikelen, veiligheidsbladen, alles)
// @Param format query string false "File format" Enums(csv, xlsx) default(csv)
// @Success 200
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /bulk/export [get]
func (h *BulkHandler) Export(w http.ResponseWriter, r *http.Request) {
	file, err := h.exportService.Export(r.Context(), r.URL.Query().Get("type"), r.URL.Query().Get("format"))
	if err != nil {
		respondServiceError(w, h.logger, err, "export")
		return
	}

	attachment(w, file.FileName, file.ContentType, len(file.Data))
	_, _ = w.Write(file.Data)
}

// ListRuns godoc
// @Summary List import runs
// @Tags Bulk
// @Produce json
// @Param kind query string false "Run kind" Enums(artikelen_csv, veiligheidsbladen_zip)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ImportRunDTO}
// @Security BearerAuth
// @Router /bulk/runs [get]
func (h *BulkHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	result, err := h.importRunService.List(r.Context(), page, pageSize, domain.ImportKind(r.URL.Query().Get("kind")))
	if err != nil {
		respondServiceError(w, h.logger, err, "list import runs")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetRun godoc
// @Summary Get an import run with its report
// @Tags Bulk
// @Produce json
// @Param id path string true "Import run ID" format(uuid)
// @Success 200 {object} domain.ImportRunDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /bulk/runs/{id} [get]
func (h *BulkHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid import run ID: must be a valid UUID")
		return
	}

	run, err := h.importRunService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get import run")
		return
	}

	respondJSON(w, http.StatusOK, run)
}
