package dropout

import "math/rand"

// RiskScore computes the additive dropout risk score for an interactive
// submission. The score starts at 50, every rule below adjusts it
// independently, and the result is clamped to [0,100].
func RiskScore(in Input) int {
	score := 50

	// Age brackets
	age := valueInt(in.Age)
	switch {
	case age >= 25:
		score += 25
	case age >= 20:
		score += 15
	case age >= 15:
		score += 10
	default:
		score += 5
	}

	// Weekly study time
	studyTime := valueFloat(in.StudyTime)
	switch {
	case studyTime < 3:
		score += 30
	case studyTime < 6:
		score += 10
	default:
		score -= 10
	}

	// Family income brackets
	income := valueFloat(in.FamilyIncome)
	switch {
	case income < 500:
		score += 35
	case income < 1500:
		score += 20
	case income < 3000:
		score += 10
	}

	// Economic tier is a coarse label separate from raw income
	switch valueString(in.EconomicSituation) {
	case EconomicBajo:
		score += 30
	case EconomicMedio:
		score += 10
	}

	if in.SchoolSupport {
		score -= 10
	}
	if in.FamilySupport {
		score -= 10
	}
	if in.ExtraEducationalSupport {
		score -= 5
	}

	if in.Attendance {
		score -= 15
	} else {
		score += 25
	}

	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	return score
}

// RiskLevelForScore maps a clamped score to its ordinal label.
func RiskLevelForScore(score int) string {
	switch {
	case score >= 70:
		return RiskAlto
	case score >= 45:
		return RiskMedio
	default:
		return RiskBajo
	}
}

// RandomConfidence draws the reported confidence uniformly from [70,95],
// independent of the score.
func RandomConfidence() float64 {
	return 70 + rand.Float64()*25
}

func valueInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func valueFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func valueString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
