package wine

import (
	"math/rand"
)

// qualityScore sums three independent 3-tier checks. Each check contributes
// 1-3 points, so the score is always in [3,9].
func qualityScore(in Input) int {
	score := 0

	// Alcohol: 12-14% vol is the ideal band
	switch {
	case in.Alcohol >= 12 && in.Alcohol <= 14:
		score += 3
	case in.Alcohol >= 11 && in.Alcohol <= 15:
		score += 2
	default:
		score += 1
	}

	// pH: 3.0-3.5 is the ideal band
	switch {
	case in.PH >= 3.0 && in.PH <= 3.5:
		score += 3
	case in.PH >= 2.8 && in.PH <= 3.7:
		score += 2
	default:
		score += 1
	}

	// Volatile acidity: lower is better
	switch {
	case in.VolatileAcidity < 0.3:
		score += 3
	case in.VolatileAcidity < 0.6:
		score += 2
	default:
		score += 1
	}

	return score
}

// AnalyzeQuality maps the score to a quality label. Deterministic in the
// (alcohol, pH, volatileAcidity) buckets; never fails.
func AnalyzeQuality(in Input) string {
	score := qualityScore(in)
	switch {
	case score >= 8:
		return QualityAlta
	case score >= 5:
		return QualityMedia
	default:
		return QualityBaja
	}
}

// RandomConfidence draws the reported confidence uniformly from [70,95].
// It is independent of the score and does not reflect actual certainty.
func RandomConfidence() float64 {
	return 70 + rand.Float64()*25
}

// BuildClassifications applies the per-dimension threshold ladders and returns
// the matched tags. The sugar ladder is exhaustive, so every analysis gets
// exactly one sugar tag; all other tags are optional.
func BuildClassifications(in Input, baseConfidence float64) []*Classification {
	tags := make([]*Classification, 0, 8)

	add := func(classType, name string, confidence float64) {
		tags = append(tags, &Classification{
			ClassificationType: classType,
			ClassificationName: name,
			Confidence:         confidence,
		})
	}

	// Sugar: always exactly one tag
	switch {
	case in.ResidualSugar < 4:
		add(ClassificationSugar, "Vino Seco - Sin azúcar residual", baseConfidence)
	case in.ResidualSugar < 12:
		add(ClassificationSugar, "Vino Semiseco/Abocado - Azúcar moderada", baseConfidence)
	case in.ResidualSugar < 45:
		add(ClassificationSugar, "Vino Semidulce - Azúcar notable", baseConfidence)
	default:
		add(ClassificationSugar, "Vino Dulce - Alta concentración de azúcar", baseConfidence)
	}

	// Alcohol / fortification
	if in.Alcohol > 15 {
		add(ClassificationFortified, "Vino Fortificado/Generoso - Alto contenido alcohólico", baseConfidence)
	} else if in.Alcohol > 13 {
		add(ClassificationAlcohol, "Vino de Cuerpo Completo - Alcohol elevado", baseConfidence)
	}

	// Dessert eligibility: both conditions must hold
	if in.ResidualSugar > 30 && in.Alcohol > 12 {
		add(ClassificationDessert, "Vino de Postre - Dulce y generoso", baseConfidence)
	}

	// Acidity
	if in.VolatileAcidity > 0.8 {
		// Lowered confidence for defect tags
		add(ClassificationAcidity, "Vino con Defectos - Acidez volátil alta", baseConfidence*0.8)
	} else if in.VolatileAcidity < 0.2 {
		add(ClassificationAcidity, "Vino Fresco - Acidez volátil baja", baseConfidence)
	}

	// pH extremes
	if in.PH < 3.0 {
		add(ClassificationPH, "Vino Ácido - pH muy bajo", baseConfidence*0.9)
	} else if in.PH > 3.8 {
		add(ClassificationPH, "Vino Suave - pH elevado", baseConfidence*0.9)
	}

	// Density
	if in.Density > 1.02 {
		add(ClassificationDensity, "Vino de Cuerpo Pesado - Alta densidad", baseConfidence)
	} else if in.Density < 0.995 {
		add(ClassificationDensity, "Vino Ligero - Baja densidad", baseConfidence)
	}

	// Style
	if in.Alcohol < 11 && in.ResidualSugar < 5 {
		add(ClassificationStyle, "Vino de Mesa - Estilo tradicional", baseConfidence)
	} else if in.Alcohol > 14 && in.ResidualSugar > 20 {
		add(ClassificationStyle, "Vino Premium - Características excepcionales", baseConfidence*1.1)
	}

	return tags
}

type componentSpec struct {
	name   string
	unit   string
	weight float64
	value  func(Input) float64
}

// The weight column is a hand-tuned display importance, not a physical share.
var componentSpecs = []componentSpec{
	{"Acidez Fija", "g/L", 15, func(in Input) float64 { return in.FixedAcidity }},
	{"Acidez Volátil", "g/L", 8, func(in Input) float64 { return in.VolatileAcidity }},
	{"Ácido Cítrico", "g/L", 5, func(in Input) float64 { return in.CitricAcid }},
	{"Azúcar Residual", "g/L", 12, func(in Input) float64 { return in.ResidualSugar }},
	{"Cloruros", "g/L", 3, func(in Input) float64 { return in.Chlorides }},
	{"Sulfatos", "g/L", 7, func(in Input) float64 { return in.Sulphates }},
	{"Alcohol", "% vol", 25, func(in Input) float64 { return in.Alcohol }},
	{"pH", "pH", 10, func(in Input) float64 { return in.PH }},
	{"Densidad", "g/cm³", 8, func(in Input) float64 { return in.Density }},
	{"Dióxido de Azufre", "mg/L", 7, func(in Input) float64 { return in.TotalSulfurDioxide }},
}

// BuildComponents produces the 10 fixed chart components. The percentage is a
// display heuristic: weight share scaled by the measurement magnitude, clamped
// to [2,40]. Percentages do not sum to 100.
func BuildComponents(in Input) []*Component {
	totalWeight := 0.0
	for _, spec := range componentSpecs {
		totalWeight += spec.weight
	}

	components := make([]*Component, 0, len(componentSpecs))
	for _, spec := range componentSpecs {
		value := spec.value(in)

		basePercentage := (spec.weight / totalWeight) * 100

		valueFactor := 0.5
		if value > 0 {
			valueFactor = value / 10
			if valueFactor > 2.0 {
				valueFactor = 2.0
			}
		}

		percentage := basePercentage * valueFactor
		if percentage < 2 {
			percentage = 2
		} else if percentage > 40 {
			percentage = 40
		}

		p := percentage
		components = append(components, &Component{
			ComponentName: spec.name,
			Value:         value,
			Unit:          spec.unit,
			Percentage:    &p,
		})
	}

	return components
}
