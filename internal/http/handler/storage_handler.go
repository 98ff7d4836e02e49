package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/sds-catalog-api/internal/bulk"
	"github.com/straye-as/sds-catalog-api/internal/storage"
	"go.uber.org/zap"
)

// StorageHandler serves objects of the local storage backend. Cloud backends
// hand out their own URLs and do not use it.
type StorageHandler struct {
	local  *storage.LocalStorage
	logger *zap.Logger
}

func NewStorageHandler(local *storage.LocalStorage, logger *zap.Logger) *StorageHandler {
	return &StorageHandler{local: local, logger: logger}
}

// ServeSigned streams an object when the token query parameter was signed for its path
func (h *StorageHandler) ServeSigned(w http.ResponseWriter, r *http.Request) {
	objectPath, ok := h.objectPath(w, r)
	if !ok {
		return
	}

	if err := h.local.VerifySignedToken(objectPath, r.URL.Query().Get("token")); err != nil {
		h.logger.Debug("rejected signed download", zap.Error(err), zap.String("path", objectPath))
		respondWithError(w, http.StatusForbidden, "Invalid or expired download link")
		return
	}

	h.serve(w, r, objectPath)
}

// ServeAuthenticated streams an object to a signed-in user
func (h *StorageHandler) ServeAuthenticated(w http.ResponseWriter, r *http.Request) {
	objectPath, ok := h.objectPath(w, r)
	if !ok {
		return
	}
	h.serve(w, r, objectPath)
}

func (h *StorageHandler) objectPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid object path")
		return "", false
	}
	clean, err := storage.CleanPath(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid object path")
		return "", false
	}
	return clean, true
}

func (h *StorageHandler) serve(w http.ResponseWriter, r *http.Request, objectPath string) {
	reader, err := h.local.Get(r.Context(), objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			respondWithError(w, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error("failed to open stored file", zap.Error(err), zap.String("path", objectPath))
		respondWithError(w, http.StatusInternalServerError, "Failed to open file")
		return
	}
	defer reader.Close()

	ext := strings.TrimPrefix(path.Ext(objectPath), ".")
	w.Header().Set("Content-Type", bulk.ContentType(ext))
	w.Header().Set("Content-Disposition", "inline; filename=\""+path.Base(objectPath)+"\"")

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("failed to stream stored file", zap.Error(err), zap.String("path", objectPath))
	}
}
