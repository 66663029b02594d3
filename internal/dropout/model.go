package dropout

import (
	"time"

	"github.com/uptrace/bun"
)

// Risk labels. Closed set; the scorer can only produce one of these.
const (
	RiskAlto  = "Alto"
	RiskMedio = "Medio"
	RiskBajo  = "Bajo"
)

// Economic tiers, a coarse bracket label distinct from raw family income.
const (
	EconomicBajo  = "bajo"
	EconomicMedio = "medio"
	EconomicAlto  = "alto"
)

type Analysis struct {
	bun.BaseModel `bun:"table:student_dropout_analyses,alias:sda"`

	ID                      int64     `bun:"id,pk,autoincrement" json:"id"`
	Age                     int       `bun:"age,notnull" json:"age"`
	Gender                  string    `bun:"gender,notnull" json:"gender"`
	FamilyIncome            float64   `bun:"family_income,notnull" json:"family_income"`
	Location                string    `bun:"location,notnull" json:"location"`
	EconomicSituation       string    `bun:"economic_situation,notnull" json:"economic_situation"`
	StudyTime               float64   `bun:"study_time,notnull" json:"study_time"`
	SchoolSupport           bool      `bun:"school_support,notnull" json:"school_support"`
	FamilySupport           bool      `bun:"family_support,notnull" json:"family_support"`
	ExtraEducationalSupport bool      `bun:"extra_educational_support,notnull" json:"extra_educational_support"`
	Attendance              bool      `bun:"attendance,notnull" json:"attendance"`
	AnalysisDate            time.Time `bun:"analysis_date,nullzero,notnull,default:current_timestamp" json:"analysis_date"`

	RiskLevel  string  `bun:"risk_level,notnull" json:"risk_level"`
	Confidence float64 `bun:"confidence,notnull" json:"confidence"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Input carries one submitted student profile. The six required fields are
// pointers so a missing field can be told apart from a zero value; the
// handler reports every absent one in a single 400 response.
type Input struct {
	Age                     *int     `json:"age" validate:"required"`
	Gender                  *string  `json:"gender" validate:"required"`
	FamilyIncome            *float64 `json:"familyIncome" validate:"required"`
	Location                *string  `json:"location" validate:"required"`
	EconomicSituation       *string  `json:"economicSituation" validate:"required"`
	StudyTime               *float64 `json:"studyTime" validate:"required"`
	SchoolSupport           bool     `json:"schoolSupport"`
	FamilySupport           bool     `json:"familySupport"`
	ExtraEducationalSupport bool     `json:"extraEducationalSupport"`
	Attendance              bool     `json:"attendance"`
	AnalysisDate            string   `json:"analysisDate"`
}

// jsonFieldNames maps struct field names to the wire names reported in
// validation errors.
var jsonFieldNames = map[string]string{
	"Age":               "age",
	"Gender":            "gender",
	"FamilyIncome":      "familyIncome",
	"Location":          "location",
	"EconomicSituation": "economicSituation",
	"StudyTime":         "studyTime",
}
