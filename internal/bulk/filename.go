// Package bulk holds the file formats used by bulk import and export:
// safety sheet filenames, ZIP archives, article CSV files and XLSX workbooks.
package bulk

import (
	"fmt"
	"path"
	"strings"

	"github.com/straye-as/sds-catalog-api/internal/domain"
)

// InvalidReason explains why a filename does not follow the naming convention
type InvalidReason string

const (
	ReasonMissingExtension     InvalidReason = "missing extension"
	ReasonUnsupportedExtension InvalidReason = "unsupported extension"
	ReasonWrongFieldCount      InvalidReason = "wrong field count"
	ReasonBadVersionToken      InvalidReason = "bad version token"
	ReasonUnsupportedLanguage  InvalidReason = "unsupported language"
)

// NamingConvention is the expected safety sheet filename layout
const NamingConvention = "{artikel_id}_{taal}_V{versie}.{extensie}"

// AllowedExtensions lists the accepted safety sheet file types
var AllowedExtensions = []string{"pdf", "doc", "docx"}

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ContentType returns the MIME type for an allowed extension
func ContentType(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// IsAllowedExtension reports whether ext (without dot, any case) is a safety sheet type
func IsAllowedExtension(ext string) bool {
	_, ok := contentTypes[strings.ToLower(ext)]
	return ok
}

// ParsedFileName is the outcome of parsing one safety sheet filename.
// Reason is empty for a valid name.
type ParsedFileName struct {
	FileName  string
	ArticleID string
	Taal      domain.Taal
	Versie    string
	Extensie  string
	Reason    InvalidReason
}

// Valid reports whether the filename followed the convention
func (p ParsedFileName) Valid() bool {
	return p.Reason == ""
}

// Message describes the parse failure for reports; it is empty for valid names
func (p ParsedFileName) Message() string {
	switch p.Reason {
	case "":
		return ""
	case ReasonMissingExtension:
		return "No file extension found"
	case ReasonUnsupportedExtension:
		return fmt.Sprintf("Unsupported extension %q: only PDF, DOC and DOCX files are allowed", p.Extensie)
	case ReasonWrongFieldCount:
		return "Filename must follow " + NamingConvention
	case ReasonBadVersionToken:
		return "Version must look like V{number}, for example V1 or V2"
	case ReasonUnsupportedLanguage:
		return "Language must be one of NL, EN, FR or DE"
	default:
		return string(p.Reason)
	}
}

// ParseFileName splits a name like ART001_NL_V1.pdf into article id, language,
// version and extension. Checks run in a fixed order so that each name gets
// exactly one reason: extension presence, extension type, field count,
// version token, language.
func ParseFileName(name string) ParsedFileName {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	result := ParsedFileName{FileName: base}

	dot := strings.LastIndex(base, ".")
	if dot == -1 {
		result.Reason = ReasonMissingExtension
		return result
	}

	stem := base[:dot]
	result.Extensie = strings.ToLower(base[dot+1:])
	if !IsAllowedExtension(result.Extensie) {
		result.Reason = ReasonUnsupportedExtension
		return result
	}

	parts := strings.Split(stem, "_")
	if len(parts) != 3 || parts[0] == "" {
		result.Reason = ReasonWrongFieldCount
		return result
	}

	articleID, taal, versionToken := parts[0], parts[1], parts[2]
	result.ArticleID = articleID

	versie, ok := parseVersionToken(versionToken)
	if !ok {
		result.Reason = ReasonBadVersionToken
		return result
	}
	result.Versie = versie

	code := domain.Taal(strings.ToUpper(taal))
	if !code.IsValid() {
		result.Reason = ReasonUnsupportedLanguage
		return result
	}
	result.Taal = code

	return result
}

// parseVersionToken accepts "V" followed by one or more ASCII digits
func parseVersionToken(token string) (string, bool) {
	if len(token) < 2 || token[0] != 'V' {
		return "", false
	}
	digits := token[1:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return "", false
		}
	}
	return digits, true
}

// FileName builds a conventional safety sheet filename
func FileName(articleID string, taal domain.Taal, versie, ext string) string {
	return fmt.Sprintf("%s_%s_V%s.%s", articleID, taal, versie, strings.ToLower(ext))
}
