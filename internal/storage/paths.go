package storage

import (
	"fmt"
	"strings"

	"github.com/straye-as/sds-catalog-api/internal/domain"
)

// CategoryVeiligheidsbladen is the top-level folder for safety sheets
const CategoryVeiligheidsbladen = "veiligheidsbladen"

const sheetObjectName = "veiligheidsblad"

// VersionedSheetPath is where one version of a sheet is kept:
// veiligheidsbladen/<artikel>/<taal>/V<versie>/veiligheidsblad.<ext>
func VersionedSheetPath(artikelID string, taal domain.Taal, versie, ext string) string {
	return fmt.Sprintf("%s/%s/%s/V%s/%s.%s", CategoryVeiligheidsbladen, artikelID, taal, versie, sheetObjectName, strings.ToLower(ext))
}

// LatestSheetPath is the overwrite-in-place copy of the newest sheet:
// veiligheidsbladen/<artikel>/<taal>/latest/veiligheidsblad.<ext>
func LatestSheetPath(artikelID string, taal domain.Taal, ext string) string {
	return fmt.Sprintf("%s/%s/%s/latest/%s.%s", CategoryVeiligheidsbladen, artikelID, taal, sheetObjectName, strings.ToLower(ext))
}
