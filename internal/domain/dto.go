package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs use the column names of the artikelen/veiligheidsbladen tables

type ArtikelDTO struct {
	ID                  uuid.UUID `json:"id"`
	UniekeID            string    `json:"unieke_id"`
	Naam                string    `json:"naam"`
	ReferentieRubix     *string   `json:"referentie_rubix,omitempty"`
	ReferentieFabrikant *string   `json:"referentie_fabrikant,omitempty"`
	EAN                 *string   `json:"ean,omitempty"`
	Leverancier         *string   `json:"leverancier,omitempty"`
	Omschrijving        *string   `json:"omschrijving,omitempty"`
	CreatedAt           string    `json:"created_at"` // ISO 8601
	UpdatedAt           string    `json:"updated_at"` // ISO 8601
}

// ArtikelDetailDTO is an article with all its sheet versions and the current one per language
type ArtikelDetailDTO struct {
	ArtikelDTO
	Veiligheidsbladen []VeiligheidsbladDTO        `json:"veiligheidsbladen"`
	Latest            map[Taal]VeiligheidsbladDTO `json:"latest"`
}

type VeiligheidsbladDTO struct {
	ID           uuid.UUID `json:"id"`
	ArtikelID    uuid.UUID `json:"artikel_id"`
	Taal         Taal      `json:"taal"`
	TaalNaam     string    `json:"taal_naam"`
	Versie       string    `json:"versie"`
	StoragePath  string    `json:"storage_path"`
	Bestandsnaam string    `json:"bestandsnaam"`
	ContentType  string    `json:"content_type,omitempty"`
	Size         int64     `json:"size"`
	GeuploadOp   string    `json:"geupload_op"` // ISO 8601
}

type LanguageDTO struct {
	Code Taal   `json:"code"`
	Naam string `json:"naam"`
}

// DownloadURLDTO is a link to a stored sheet. Signed is false when the public URL was returned as fallback.
type DownloadURLDTO struct {
	URL       string     `json:"url"`
	Signed    bool       `json:"signed"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type CreateArtikelRequest struct {
	UniekeID            string  `json:"unieke_id" validate:"required,max=100"`
	Naam                string  `json:"naam" validate:"required,max=255"`
	ReferentieRubix     *string `json:"referentie_rubix,omitempty" validate:"omitempty,max=100"`
	ReferentieFabrikant *string `json:"referentie_fabrikant,omitempty" validate:"omitempty,max=100"`
	EAN                 *string `json:"ean,omitempty" validate:"omitempty,max=50"`
	Leverancier         *string `json:"leverancier,omitempty" validate:"omitempty,max=255"`
	Omschrijving        *string `json:"omschrijving,omitempty"`
}

// CSVRowError is an import row that could not be imported
type CSVRowError struct {
	Row   int               `json:"row"`
	Error string            `json:"error"`
	Data  map[string]string `json:"data"`
}

// CSVDuplicate is an import row whose unieke_id already exists
type CSVDuplicate struct {
	Row      int    `json:"row"`
	UniekeID string `json:"unieke_id"`
}

// CSVImportResult is the report of an article CSV import
type CSVImportResult struct {
	Success     int            `json:"success"`
	Errors      []CSVRowError  `json:"errors"`
	Duplicates  []CSVDuplicate `json:"duplicates"`
	ImportRunID *uuid.UUID     `json:"import_run_id,omitempty"`
}

// CSVPreviewResult lists what an import would do without writing anything
type CSVPreviewResult struct {
	Columns    []string               `json:"columns"`
	Rows       []CreateArtikelRequest `json:"rows"`
	Errors     []CSVRowError          `json:"errors"`
	Duplicates []CSVDuplicate         `json:"duplicates"`
}

// DocumentStatus tracks a file through a bulk document upload
type DocumentStatus string

const (
	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusUploading DocumentStatus = "uploading"
	DocumentStatusSuccess   DocumentStatus = "success"
	DocumentStatusError     DocumentStatus = "error"
)

type BulkDocumentDTO struct {
	Bestandsnaam string         `json:"bestandsnaam"`
	ArtikelID    string         `json:"artikel_id,omitempty"`
	Taal         Taal           `json:"taal,omitempty"`
	Versie       string         `json:"versie,omitempty"`
	Extensie     string         `json:"extensie,omitempty"`
	Size         int64          `json:"size"`
	Status       DocumentStatus `json:"status"`
	Message      string         `json:"message,omitempty"`
}

type BulkUploadResult struct {
	Documents    []BulkDocumentDTO `json:"documents"`
	SuccessCount int               `json:"success_count"`
	ErrorCount   int               `json:"error_count"`
	ImportRunID  *uuid.UUID        `json:"import_run_id,omitempty"`
}

// BulkValidationResult is the dry-run outcome of a document archive
type BulkValidationResult struct {
	Documents  []BulkDocumentDTO `json:"documents"`
	ValidCount int               `json:"valid_count"`
	ErrorCount int               `json:"error_count"`
}

type ImportRunDTO struct {
	ID             uuid.UUID  `json:"id"`
	Kind           ImportKind `json:"kind"`
	Bestandsnaam   string     `json:"bestandsnaam"`
	Total          int        `json:"total"`
	SuccessCount   int        `json:"success_count"`
	ErrorCount     int        `json:"error_count"`
	DuplicateCount int        `json:"duplicate_count"`
	StartedBy      *uuid.UUID `json:"started_by,omitempty"`
	StartedAt      string     `json:"started_at"`
	FinishedAt     string     `json:"finished_at"`
	Report         any        `json:"report,omitempty"`
}

type UserDTO struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Naam         string    `json:"naam,omitempty"`
	Role         UserRole  `json:"role"`
	LastSignInAt *string   `json:"last_sign_in_at,omitempty"`
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Naam     string `json:"naam" validate:"max=200"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionDTO is returned by sign-in, refresh and session lookups
type SessionDTO struct {
	AccessToken string    `json:"access_token,omitempty"`
	TokenType   string    `json:"token_type,omitempty"`
	SessionID   uuid.UUID `json:"session_id"`
	ExpiresAt   string    `json:"expires_at"`
	User        UserDTO   `json:"user"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// UpdateUserRequest changes the signed-in user's own profile
type UpdateUserRequest struct {
	Naam     *string `json:"naam,omitempty" validate:"omitempty,max=200"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
}
