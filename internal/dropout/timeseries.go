package dropout

import (
	"math/rand"
	"time"
)

type TrendPoint struct {
	Day   int     `json:"day"`
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// TrendSeries is fabricated visualization data. Simulated is always true so
// no dashboard consumer can mistake it for real telemetry.
type TrendSeries struct {
	Metric    string       `json:"metric"`
	Simulated bool         `json:"simulated"`
	BaseRate  float64      `json:"base_rate"`
	Noise     float64      `json:"noise"`
	Points    []TrendPoint `json:"points"`
}

// synthesizeSeries builds a day-by-day series: base rate plus uniform noise
// in [-noise, noise], plus a linear trend term over the final trendWindow
// days. Values are clamped to [clampMin, clampMax] when clampMax > clampMin.
func synthesizeSeries(base, noise float64, days, trendWindow int, trendSlope, clampMin, clampMax float64, rng *rand.Rand) []TrendPoint {
	points := make([]TrendPoint, 0, days)
	startDate := time.Now().UTC().AddDate(0, 0, -(days - 1))

	for day := 0; day < days; day++ {
		value := base + (rng.Float64()*2-1)*noise

		if trendWindow > 0 && day >= days-trendWindow {
			value += trendSlope * float64(day-(days-trendWindow)+1)
		}

		if clampMax > clampMin {
			if value < clampMin {
				value = clampMin
			} else if value > clampMax {
				value = clampMax
			}
		}

		points = append(points, TrendPoint{
			Day:   day + 1,
			Date:  startDate.AddDate(0, 0, day).Format("2006-01-02"),
			Value: value,
		})
	}

	return points
}
