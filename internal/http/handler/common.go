package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/straye-as/sds-catalog-api/internal/auth"
	"github.com/straye-as/sds-catalog-api/internal/domain"
	"github.com/straye-as/sds-catalog-api/internal/http/middleware"
	"github.com/straye-as/sds-catalog-api/internal/service"
	"go.uber.org/zap"
)

var validate = newValidator()

// newValidator reports fields by their JSON names and knows the taal tag
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("taal", func(fl validator.FieldLevel) bool {
		return domain.Taal(strings.ToUpper(fl.Field().String())).IsValid()
	})
	return v
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondProblem writes an RFC 7807 problem document
func respondProblem(w http.ResponseWriter, problem domain.APIError) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = formatValidationError(fe)
		}
	}

	respondProblem(w, domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: fields,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "uuid":
		return "Must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// respondWithError sends a standardized problem response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondProblem(w, domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusRequestEntityTooLarge:
		return domain.ErrorTypeTooLarge
	case http.StatusUnsupportedMediaType:
		return domain.ErrorTypeUnsupported
	default:
		return domain.ErrorTypeInternal
	}
}

// respondServiceError maps service and store errors to problem responses.
// Unexpected errors are logged with action and answered with a 500.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	status := 0
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrSessionNotFound):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUnsupportedFileType):
		status = http.StatusUnsupportedMediaType
	}
	if status != 0 {
		respondWithError(w, status, err.Error())
		return
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		logger.Warn("database rejected request", zap.String("action", action), zap.String("code", pgErr.Code), zap.Error(err))
		respondProblem(w, pgProblem(pgErr))
		return
	}

	logger.Error("request failed", zap.String("action", action), zap.Error(err))
	respondWithError(w, http.StatusInternalServerError, "Failed to "+action)
}

// pgProblem translates a PostgreSQL error into a problem document keeping its SQLSTATE and hint
func pgProblem(pgErr *pgconn.PgError) domain.APIError {
	status := http.StatusInternalServerError
	switch {
	case pgErr.Code == "23505":
		status = http.StatusConflict
	case pgErr.Code == "23503", pgErr.Code == "23502", pgErr.Code == "23514":
		status = http.StatusBadRequest
	case strings.HasPrefix(pgErr.Code, "22"):
		status = http.StatusBadRequest
	}

	detail := pgErr.Message
	if status == http.StatusInternalServerError {
		detail = "database error"
	}
	return domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Code:   pgErr.Code,
		Hint:   pgErr.Hint,
	}
}

// pagination reads page and pageSize; the services clamp the values
func pagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}

// clientInfo describes the caller for new sessions
func clientInfo(r *http.Request) service.ClientInfo {
	return service.ClientInfo{UserAgent: r.UserAgent(), IPAddress: middleware.ClientIP(r)}
}

// attachment sets the download headers of a generated file
func attachment(w http.ResponseWriter, fileName, contentType string, size int) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if size >= 0 {
		w.Header().Set("Content-Length", strconv.Itoa(size))
	}
}

// multipartOverhead is the slack allowed on top of a file limit for form boundaries and fields
const multipartOverhead = 1 << 20

// formFile parses a multipart upload capped at maxBytes and returns the named file.
// It writes the error response itself and returns ok=false when the upload is unusable.
func formFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", maxBytes>>20))
			return nil, nil, false
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return nil, nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid file upload: %s field is required", field))
		return nil, nil, false
	}
	return file, header, true
}
