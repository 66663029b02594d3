package wine

import (
	"time"

	"github.com/uptrace/bun"
)

// Quality labels. The set is closed: the scorer can only ever produce one of these.
const (
	QualityBaja  = "Baja"
	QualityMedia = "Media"
	QualityAlta  = "Alta"
)

// Classification type tags attached to an analysis.
const (
	ClassificationSugar     = "sugar"
	ClassificationAlcohol   = "alcohol"
	ClassificationFortified = "fortified"
	ClassificationDessert   = "dessert"
	ClassificationAcidity   = "acidity"
	ClassificationPH        = "ph"
	ClassificationDensity   = "density"
	ClassificationStyle     = "style"
)

type Analysis struct {
	bun.BaseModel `bun:"table:wine_analyses,alias:wa"`

	ID                 int64   `bun:"id,pk,autoincrement" json:"id"`
	FixedAcidity       float64 `bun:"fixed_acidity,notnull" json:"fixed_acidity"`
	VolatileAcidity    float64 `bun:"volatile_acidity,notnull" json:"volatile_acidity"`
	CitricAcid         float64 `bun:"citric_acid,notnull" json:"citric_acid"`
	ResidualSugar      float64 `bun:"residual_sugar,notnull" json:"residual_sugar"`
	Chlorides          float64 `bun:"chlorides,notnull" json:"chlorides"`
	FreeSulfurDioxide  float64 `bun:"free_sulfur_dioxide,notnull" json:"free_sulfur_dioxide"`
	TotalSulfurDioxide float64 `bun:"total_sulfur_dioxide,notnull" json:"total_sulfur_dioxide"`
	Density            float64 `bun:"density,notnull" json:"density"`
	PH                 float64 `bun:"ph,notnull" json:"ph"`
	Sulphates          float64 `bun:"sulphates,notnull" json:"sulphates"`
	Alcohol            float64 `bun:"alcohol,notnull" json:"alcohol"`

	Quality    string  `bun:"quality,notnull" json:"quality"`
	Confidence float64 `bun:"confidence,notnull" json:"confidence"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Classifications []*Classification `bun:"rel:has-many,join:id=analysis_id" json:"classifications"`
	Components      []*Component      `bun:"rel:has-many,join:id=analysis_id" json:"components"`
}

type Classification struct {
	bun.BaseModel `bun:"table:wine_classifications,alias:wc"`

	ID                 int64     `bun:"id,pk,autoincrement" json:"id"`
	AnalysisID         int64     `bun:"analysis_id,notnull" json:"-"`
	ClassificationType string    `bun:"classification_type,notnull" json:"classification_type"`
	ClassificationName string    `bun:"classification_name,notnull" json:"classification_name"`
	Confidence         float64   `bun:"confidence,notnull" json:"confidence"`
	CreatedAt          time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type Component struct {
	bun.BaseModel `bun:"table:wine_components,alias:wco"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	AnalysisID    int64     `bun:"analysis_id,notnull" json:"-"`
	ComponentName string    `bun:"component_name,notnull" json:"component_name"`
	Value         float64   `bun:"value,notnull" json:"value"`
	Unit          string    `bun:"unit,notnull" json:"unit"`
	Percentage    *float64  `bun:"percentage" json:"percentage"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Input carries the 11 measurements of one submitted sample.
// Absent fields decode to 0; the scorer does not validate physical plausibility.
type Input struct {
	FixedAcidity       float64 `json:"fixedAcidity"`
	VolatileAcidity    float64 `json:"volatileAcidity"`
	CitricAcid         float64 `json:"citricAcid"`
	ResidualSugar      float64 `json:"residualSugar"`
	Chlorides          float64 `json:"chlorides"`
	FreeSulfurDioxide  float64 `json:"freeSulfurDioxide"`
	TotalSulfurDioxide float64 `json:"totalSulfurDioxide"`
	Density            float64 `json:"density"`
	PH                 float64 `json:"pH"`
	Sulphates          float64 `json:"sulphates"`
	Alcohol            float64 `json:"alcohol"`
}
