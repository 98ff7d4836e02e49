package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID when the caller has not set one
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Taal is a safety sheet language code
type Taal string

const (
	TaalNL Taal = "NL"
	TaalEN Taal = "EN"
	TaalFR Taal = "FR"
	TaalDE Taal = "DE"
)

// Talen lists the supported languages in display order
var Talen = []Taal{TaalNL, TaalEN, TaalDE, TaalFR}

var taalNamen = map[Taal]string{
	TaalNL: "Nederlands",
	TaalEN: "English",
	TaalDE: "Deutsch",
	TaalFR: "Français",
}

// IsValid reports whether the code is one of the supported languages
func (t Taal) IsValid() bool {
	_, ok := taalNamen[t]
	return ok
}

// Naam returns the display name of the language
func (t Taal) Naam() string {
	return taalNamen[t]
}

// Artikel is a catalogued article keyed by its business id (unieke_id)
type Artikel struct {
	BaseModel
	UniekeID            string  `gorm:"type:varchar(100);not null;uniqueIndex;column:unieke_id"`
	Naam                string  `gorm:"type:varchar(255);not null"`
	ReferentieRubix     *string `gorm:"type:varchar(100);column:referentie_rubix"`
	ReferentieFabrikant *string `gorm:"type:varchar(100);column:referentie_fabrikant"`
	EAN                 *string `gorm:"type:varchar(50);column:ean"`
	Leverancier         *string `gorm:"type:varchar(255)"`
	Omschrijving        *string `gorm:"type:text"`

	Veiligheidsbladen []Veiligheidsblad `gorm:"foreignKey:ArtikelID"`
}

// TableName maps to the Dutch table name
func (Artikel) TableName() string {
	return "artikelen"
}

// Veiligheidsblad is one version of a safety data sheet for an article in one language.
// The current version per (artikel, taal) is the row with the newest GeuploadOp.
type Veiligheidsblad struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ArtikelID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_veiligheidsblad_versie,priority:1;index:idx_veiligheidsblad_latest,priority:1"`
	Artikel      *Artikel   `gorm:"foreignKey:ArtikelID"`
	Taal         Taal       `gorm:"type:varchar(2);not null;uniqueIndex:idx_veiligheidsblad_versie,priority:2;index:idx_veiligheidsblad_latest,priority:2"`
	Versie       string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_veiligheidsblad_versie,priority:3"`
	StoragePath  string     `gorm:"type:varchar(500);not null;column:storage_path"`
	Bestandsnaam string     `gorm:"type:varchar(255);not null"`
	ContentType  string     `gorm:"type:varchar(100)"`
	Size         int64      `gorm:"not null;default:0"`
	GeuploadOp   time.Time  `gorm:"not null;column:geupload_op;index:idx_veiligheidsblad_latest,priority:3"`
	GeuploadDoor *uuid.UUID `gorm:"type:uuid;column:geupload_door"`
}

// TableName maps to the Dutch table name
func (Veiligheidsblad) TableName() string {
	return "veiligheidsbladen"
}

// BeforeCreate assigns a UUID when the caller has not set one
func (v *Veiligheidsblad) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// UserRole controls access to write operations
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleViewer UserRole = "viewer"
)

// IsValid reports whether the role is known
func (r UserRole) IsValid() bool {
	return r == RoleAdmin || r == RoleViewer
}

// User is an account that can sign in
type User struct {
	BaseModel
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string     `gorm:"type:varchar(255);not null;column:password_hash"`
	Naam         string     `gorm:"type:varchar(200)"`
	Role         UserRole   `gorm:"type:varchar(20);not null;default:'viewer'"`
	LastSignInAt *time.Time `gorm:"column:last_sign_in_at"`
}

// Session is a signed-in session; its ID is the token's jti
type Session struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	User        *User      `gorm:"foreignKey:UserID"`
	ExpiresAt   time.Time  `gorm:"not null;index"`
	RevokedAt   *time.Time `gorm:"index"`
	RefreshedAt *time.Time
	UserAgent   string    `gorm:"type:varchar(500)"`
	IPAddress   string    `gorm:"type:varchar(64);column:ip_address"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID when the caller has not set one
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the session can still authenticate requests
func (s *Session) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// ImportKind identifies the type of bulk import
type ImportKind string

const (
	ImportKindArtikelenCSV         ImportKind = "artikelen_csv"
	ImportKindVeiligheidsbladenZip ImportKind = "veiligheidsbladen_zip"
)

// ImportRun stores the report of one bulk import
type ImportRun struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Kind           ImportKind     `gorm:"type:varchar(40);not null;index"`
	Bestandsnaam   string         `gorm:"type:varchar(255);not null"`
	Total          int            `gorm:"not null;default:0"`
	SuccessCount   int            `gorm:"not null;default:0"`
	ErrorCount     int            `gorm:"not null;default:0"`
	DuplicateCount int            `gorm:"not null;default:0"`
	Report         datatypes.JSON `gorm:"type:jsonb"`
	StartedBy      *uuid.UUID     `gorm:"type:uuid"`
	StartedAt      time.Time      `gorm:"not null"`
	FinishedAt     time.Time      `gorm:"not null"`
}

// BeforeCreate assigns a UUID when the caller has not set one
func (r *ImportRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
