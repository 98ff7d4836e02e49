package mapper

import (
	"encoding/json"
	"time"

	"github.com/straye-as/sds-catalog-api/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// ToArtikelDTO converts Artikel to ArtikelDTO
func ToArtikelDTO(artikel *domain.Artikel) domain.ArtikelDTO {
	return domain.ArtikelDTO{
		ID:                  artikel.ID,
		UniekeID:            artikel.UniekeID,
		Naam:                artikel.Naam,
		ReferentieRubix:     artikel.ReferentieRubix,
		ReferentieFabrikant: artikel.ReferentieFabrikant,
		EAN:                 artikel.EAN,
		Leverancier:         artikel.Leverancier,
		Omschrijving:        artikel.Omschrijving,
		CreatedAt:           formatTime(artikel.CreatedAt),
		UpdatedAt:           formatTime(artikel.UpdatedAt),
	}
}

// ToArtikelDTOs converts a slice of articles
func ToArtikelDTOs(artikelen []domain.Artikel) []domain.ArtikelDTO {
	dtos := make([]domain.ArtikelDTO, len(artikelen))
	for i := range artikelen {
		dtos[i] = ToArtikelDTO(&artikelen[i])
	}
	return dtos
}

// ToVeiligheidsbladDTO converts Veiligheidsblad to VeiligheidsbladDTO
func ToVeiligheidsbladDTO(blad *domain.Veiligheidsblad) domain.VeiligheidsbladDTO {
	return domain.VeiligheidsbladDTO{
		ID:           blad.ID,
		ArtikelID:    blad.ArtikelID,
		Taal:         blad.Taal,
		TaalNaam:     blad.Taal.Naam(),
		Versie:       blad.Versie,
		StoragePath:  blad.StoragePath,
		Bestandsnaam: blad.Bestandsnaam,
		ContentType:  blad.ContentType,
		Size:         blad.Size,
		GeuploadOp:   formatTime(blad.GeuploadOp),
	}
}

// ToVeiligheidsbladDTOs converts a slice of sheets
func ToVeiligheidsbladDTOs(bladen []domain.Veiligheidsblad) []domain.VeiligheidsbladDTO {
	dtos := make([]domain.VeiligheidsbladDTO, len(bladen))
	for i := range bladen {
		dtos[i] = ToVeiligheidsbladDTO(&bladen[i])
	}
	return dtos
}

// ToArtikelDetailDTO combines an article with its sheets and the latest sheet per language
func ToArtikelDetailDTO(artikel *domain.Artikel, bladen []domain.Veiligheidsblad, latest map[domain.Taal]domain.Veiligheidsblad) domain.ArtikelDetailDTO {
	dto := domain.ArtikelDetailDTO{
		ArtikelDTO:        ToArtikelDTO(artikel),
		Veiligheidsbladen: ToVeiligheidsbladDTOs(bladen),
		Latest:            make(map[domain.Taal]domain.VeiligheidsbladDTO, len(latest)),
	}
	for taal, blad := range latest {
		dto.Latest[taal] = ToVeiligheidsbladDTO(&blad)
	}
	return dto
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	dto := domain.UserDTO{
		ID:    user.ID,
		Email: user.Email,
		Naam:  user.Naam,
		Role:  user.Role,
	}
	if user.LastSignInAt != nil {
		formatted := formatTime(*user.LastSignInAt)
		dto.LastSignInAt = &formatted
	}
	return dto
}

// ToImportRunDTO converts ImportRun to ImportRunDTO; the stored report is only included when withReport is set
func ToImportRunDTO(run *domain.ImportRun, withReport bool) domain.ImportRunDTO {
	dto := domain.ImportRunDTO{
		ID:             run.ID,
		Kind:           run.Kind,
		Bestandsnaam:   run.Bestandsnaam,
		Total:          run.Total,
		SuccessCount:   run.SuccessCount,
		ErrorCount:     run.ErrorCount,
		DuplicateCount: run.DuplicateCount,
		StartedBy:      run.StartedBy,
		StartedAt:      formatTime(run.StartedAt),
		FinishedAt:     formatTime(run.FinishedAt),
	}
	if withReport && len(run.Report) > 0 {
		dto.Report = json.RawMessage(run.Report)
	}
	return dto
}

// ToLanguageDTOs lists the supported languages
func ToLanguageDTOs() []domain.LanguageDTO {
	dtos := make([]domain.LanguageDTO, 0, len(domain.Talen))
	for _, taal := range domain.Talen {
		dtos = append(dtos, domain.LanguageDTO{Code: taal, Naam: taal.Naam()})
	}
	return dtos
}
