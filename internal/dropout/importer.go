package dropout

import (
	"math/rand"
	"time"
)

// LegacyStudent mirrors the fixed 12-column row shape of the external
// "estudiantes" flat table. The table pre-exists this service and is
// read-only here.
type LegacyStudent struct {
	ID                  int64   `bun:"id"`
	Nombre              string  `bun:"nombre"`
	Apellido            string  `bun:"apellido"`
	Edad                int     `bun:"edad"`
	Genero              string  `bun:"genero"`
	IngresoFamiliar     float64 `bun:"ingreso_familiar"`
	Ubicacion           string  `bun:"ubicacion"`
	SituacionEconomica  string  `bun:"situacion_economica"`
	TiempoEstudio       float64 `bun:"tiempo_estudio"`
	ApoyoEscolar        bool    `bun:"apoyo_escolar"`
	ApoyoFamiliar       bool    `bun:"apoyo_familiar"`
	ApoyoEducativoExtra bool    `bun:"apoyo_educativo_extra"`
}

// legacyRiskScore is the importer's own scoring formula: additive from 0 with
// its own brackets. It deliberately differs from RiskScore; historical rows
// keep the labels the legacy calibration would have produced.
func legacyRiskScore(row LegacyStudent) int {
	score := 0

	switch {
	case row.Edad >= 22:
		score += 3
	case row.Edad >= 19:
		score += 2
	default:
		score += 1
	}

	switch {
	case row.TiempoEstudio < 2:
		score += 3
	case row.TiempoEstudio < 4:
		score += 2
	}

	switch {
	case row.IngresoFamiliar < 400:
		score += 3
	case row.IngresoFamiliar < 1200:
		score += 2
	case row.IngresoFamiliar < 2500:
		score += 1
	}

	switch row.SituacionEconomica {
	case EconomicBajo:
		score += 2
	case EconomicMedio:
		score += 1
	}

	if !row.ApoyoEscolar {
		score++
	}
	if !row.ApoyoFamiliar {
		score++
	}
	if !row.ApoyoEducativoExtra {
		score++
	}

	return score
}

// legacyRiskLevel maps the legacy score to a label with the legacy cutoffs.
func legacyRiskLevel(row LegacyStudent) string {
	score := legacyRiskScore(row)
	switch {
	case score >= 8:
		return RiskAlto
	case score >= 4:
		return RiskMedio
	default:
		return RiskBajo
	}
}

// inferAttendance synthesizes the attendance flag the external data lacks,
// from its own ad hoc point system.
func inferAttendance(row LegacyStudent) bool {
	points := 0
	if row.TiempoEstudio >= 3 {
		points += 2
	}
	if row.ApoyoEscolar {
		points++
	}
	if row.ApoyoFamiliar {
		points++
	}
	if row.ApoyoEducativoExtra {
		points++
	}
	if row.SituacionEconomica != EconomicBajo {
		points++
	}
	return points >= 3
}

// synthesizeAnalysisDate spreads imported rows over the last six months so
// the date-filtered charts have something to show.
func synthesizeAnalysisDate(rng *rand.Rand) time.Time {
	daysBack := rng.Intn(180)
	return time.Now().UTC().AddDate(0, 0, -daysBack).Truncate(24 * time.Hour)
}

// validLegacyRow rejects rows the importer should skip rather than abort on.
func validLegacyRow(row LegacyStudent) bool {
	if row.Edad <= 0 {
		return false
	}
	if row.Genero == "" {
		return false
	}
	if row.IngresoFamiliar < 0 {
		return false
	}
	return true
}

// analysisFromLegacy converts one flat-table row into an Analysis with
// re-derived risk and attendance.
func analysisFromLegacy(row LegacyStudent, rng *rand.Rand) *Analysis {
	attendance := inferAttendance(row)
	return &Analysis{
		Age:                     row.Edad,
		Gender:                  row.Genero,
		FamilyIncome:            row.IngresoFamiliar,
		Location:                row.Ubicacion,
		EconomicSituation:       row.SituacionEconomica,
		StudyTime:               row.TiempoEstudio,
		SchoolSupport:           row.ApoyoEscolar,
		FamilySupport:           row.ApoyoFamiliar,
		ExtraEducationalSupport: row.ApoyoEducativoExtra,
		Attendance:              attendance,
		AnalysisDate:            synthesizeAnalysisDate(rng),
		RiskLevel:               legacyRiskLevel(row),
		Confidence:              RandomConfidence(),
	}
}
