package dropout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/messaging"
)

var (
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnknownMetric    = errors.New("unknown trend metric")
)

type AgeStats struct {
	Avg float64 `json:"avg_age"`
	Min float64 `json:"min_age"`
	Max float64 `json:"max_age"`
}

type StudyTimeStats struct {
	Avg float64 `json:"avg_study_time"`
	Min float64 `json:"min_study_time"`
	Max float64 `json:"max_study_time"`
}

type IncomeStats struct {
	Avg float64 `json:"avg_income"`
	Min float64 `json:"min_income"`
	Max float64 `json:"max_income"`
}

type BucketCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type CrossTabCount struct {
	Group     string `json:"group"`
	RiskLevel string `json:"risk_level"`
	Count     int    `json:"count"`
}

type TimeSeriesPoint struct {
	Timestamp string  `json:"timestamp"`
	RiskScore int     `json:"risk_score"`
	StudyTime float64 `json:"study_time"`
	Age       int     `json:"age"`
}

type Statistics struct {
	RiskDistribution    []RiskCount       `json:"risk_distribution"`
	AgeStats            AgeStats          `json:"age_stats"`
	StudyTimeStats      StudyTimeStats    `json:"study_time_stats"`
	IncomeStats         IncomeStats       `json:"income_stats"`
	AgeRanges           []BucketCount     `json:"age_ranges"`
	IncomeRanges        []BucketCount     `json:"income_ranges"`
	StudyTimeRanges     []BucketCount     `json:"study_time_ranges"`
	LocationRisk        []CrossTabCount   `json:"location_risk"`
	GenderRisk          []CrossTabCount   `json:"gender_risk"`
	TimeSeriesData      []TimeSeriesPoint `json:"time_series_data"`
	TotalAnalyses       int               `json:"total_analyses"`
	RecentAnalysesCount int               `json:"recent_analyses_count"`
}

type ChartDatum struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

type BasicChartData struct {
	ChartData            []ChartDatum   `json:"chart_data"`
	TotalAnalyses        int            `json:"total_analyses"`
	AttendancePercentage float64        `json:"attendance_percentage"`
	AbsencePercentage    float64        `json:"absence_percentage"`
	FiltersApplied       map[string]int `json:"filters_applied"`
}

type MonthInfo struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

type AvailableDates struct {
	AvailableYears  []int       `json:"available_years"`
	AvailableMonths []MonthInfo `json:"available_months"`
	TotalAnalyses   int         `json:"total_analyses"`
}

type ImportResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Skipped int    `json:"skipped"`
	Message string `json:"message"`
}

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Trend metrics and their noise bounds.
const (
	TrendAttendance  = "attendance"
	TrendRisk        = "risk"
	TrendIncome      = "income"
	TrendStudyTime   = "study_time"
	TrendDropoutRate = "dropout_rate"
)

type trendSpec struct {
	noise      float64
	trendSlope float64
	clampMin   float64
	clampMax   float64
}

var trendSpecs = map[string]trendSpec{
	TrendAttendance:  {noise: 5, trendSlope: 0.6, clampMin: 0, clampMax: 100},
	TrendRisk:        {noise: 7, trendSlope: -0.5, clampMin: 0, clampMax: 100},
	TrendIncome:      {noise: 8, trendSlope: 0.3, clampMin: 0, clampMax: 0},
	TrendStudyTime:   {noise: 12, trendSlope: 0.4, clampMin: 0, clampMax: 100},
	TrendDropoutRate: {noise: 15, trendSlope: 1.0, clampMin: 0, clampMax: 100},
}

type Service interface {
	CreateAnalysis(ctx context.Context, in Input) (*Analysis, error)
	GetAllAnalyses(ctx context.Context) ([]Analysis, error)
	GetAnalysisByID(ctx context.Context, id int64) (*Analysis, error)
	DeleteAnalysis(ctx context.Context, id int64) error
	ClearAllAnalyses(ctx context.Context) (int64, error)
	Statistics(ctx context.Context) (*Statistics, error)
	BasicChartData(ctx context.Context, year, month int) (*BasicChartData, error)
	AvailableDates(ctx context.Context) (*AvailableDates, error)
	ImportLegacyRecords(ctx context.Context, recordsCount int) (*ImportResult, error)
	Trend(ctx context.Context, metric string, year, month int) (*TrendSeries, error)
}

type service struct {
	repo        Repository
	producer    messaging.Producer
	logger      *slog.Logger
	sourceTable string
	maxRecords  int
	rng         *rand.Rand
}

func NewService(repo Repository, producer messaging.Producer, logger *slog.Logger, sourceTable string, maxRecords int) Service {
	return &service{
		repo:        repo,
		producer:    producer,
		logger:      logger,
		sourceTable: sourceTable,
		maxRecords:  maxRecords,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *service) CreateAnalysis(ctx context.Context, in Input) (*Analysis, error) {
	score := RiskScore(in)

	analysisDate := time.Now().UTC()
	if in.AnalysisDate != "" {
		if parsed, err := time.Parse("2006-01-02", in.AnalysisDate); err == nil {
			analysisDate = parsed
		}
	}

	analysis := &Analysis{
		Age:                     valueInt(in.Age),
		Gender:                  valueString(in.Gender),
		FamilyIncome:            valueFloat(in.FamilyIncome),
		Location:                valueString(in.Location),
		EconomicSituation:       valueString(in.EconomicSituation),
		StudyTime:               valueFloat(in.StudyTime),
		SchoolSupport:           in.SchoolSupport,
		FamilySupport:           in.FamilySupport,
		ExtraEducationalSupport: in.ExtraEducationalSupport,
		Attendance:              in.Attendance,
		AnalysisDate:            analysisDate,
		RiskLevel:               RiskLevelForScore(score),
		Confidence:              RandomConfidence(),
	}

	created, err := s.repo.Create(ctx, analysis)
	if err != nil {
		return nil, err
	}

	s.publish(messaging.AnalysisCreated("dropout", created.ID))

	return created, nil
}

func (s *service) GetAllAnalyses(ctx context.Context) ([]Analysis, error) {
	return s.repo.GetAll(ctx)
}

func (s *service) GetAnalysisByID(ctx context.Context, id int64) (*Analysis, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) DeleteAnalysis(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(messaging.AnalysisDeleted("dropout", id))
	return nil
}

func (s *service) ClearAllAnalyses(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.publish(messaging.AnalysesCleared("dropout", int(deleted)))
	return deleted, nil
}

var riskScores = map[string]int{
	RiskBajo:  1,
	RiskMedio: 2,
	RiskAlto:  3,
}

func (s *service) Statistics(ctx context.Context) (*Statistics, error) {
	riskDist, err := s.repo.RiskDistribution(ctx)
	if err != nil {
		return nil, err
	}

	numeric, err := s.repo.NumericStats(ctx)
	if err != nil {
		return nil, err
	}

	profiles, err := s.repo.ProfileRows(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.CreatedSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	timeSeries := make([]TimeSeriesPoint, 0, len(recent))
	for _, a := range recent {
		timeSeries = append(timeSeries, TimeSeriesPoint{
			Timestamp: a.CreatedAt.Format(time.RFC3339),
			RiskScore: riskScores[a.RiskLevel],
			StudyTime: a.StudyTime,
			Age:       a.Age,
		})
	}

	return &Statistics{
		RiskDistribution:    riskDist,
		AgeStats:            AgeStats{Avg: numeric.AvgAge, Min: numeric.MinAge, Max: numeric.MaxAge},
		StudyTimeStats:      StudyTimeStats{Avg: numeric.AvgStudyTime, Min: numeric.MinStudyTime, Max: numeric.MaxStudyTime},
		IncomeStats:         IncomeStats{Avg: numeric.AvgIncome, Min: numeric.MinIncome, Max: numeric.MaxIncome},
		AgeRanges:           bucketAges(profiles),
		IncomeRanges:        bucketIncomes(profiles),
		StudyTimeRanges:     bucketStudyTimes(profiles),
		LocationRisk:        crossTab(profiles, func(p ProfileRow) string { return p.Location }),
		GenderRisk:          crossTab(profiles, func(p ProfileRow) string { return p.Gender }),
		TimeSeriesData:      timeSeries,
		TotalAnalyses:       total,
		RecentAnalysesCount: len(recent),
	}, nil
}

func (s *service) BasicChartData(ctx context.Context, year, month int) (*BasicChartData, error) {
	present, absent, err := s.repo.AttendanceCounts(ctx, year, month)
	if err != nil {
		return nil, err
	}

	total := present + absent
	attendancePct := 0.0
	absencePct := 0.0
	if total > 0 {
		attendancePct = round1(float64(present) / float64(total) * 100)
		absencePct = round1(float64(absent) / float64(total) * 100)
	}

	filters := map[string]int{}
	if year > 0 {
		filters["year"] = year
	}
	if month > 0 {
		filters["month"] = month
	}

	return &BasicChartData{
		ChartData: []ChartDatum{
			{Label: "Asistencia", Value: attendancePct, Color: "#4CAF50"},
			{Label: "Inasistencia", Value: absencePct, Color: "#F44336"},
		},
		TotalAnalyses:        total,
		AttendancePercentage: attendancePct,
		AbsencePercentage:    absencePct,
		FiltersApplied:       filters,
	}, nil
}

func (s *service) AvailableDates(ctx context.Context) (*AvailableDates, error) {
	years, err := s.repo.AvailableYears(ctx)
	if err != nil {
		return nil, err
	}

	months, err := s.repo.AvailableMonths(ctx)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	monthInfos := make([]MonthInfo, 0, len(months))
	for _, m := range months {
		if m < 1 || m > 12 {
			continue
		}
		monthInfos = append(monthInfos, MonthInfo{Number: m, Name: monthNames[m-1]})
	}

	return &AvailableDates{
		AvailableYears:  years,
		AvailableMonths: monthInfos,
		TotalAnalyses:   total,
	}, nil
}

// ImportLegacyRecords loads up to recordsCount rows from the external flat
// table, re-deriving risk and attendance with the legacy formulas. A bad row
// is skipped, never retried; the import runs to completion in one request.
func (s *service) ImportLegacyRecords(ctx context.Context, recordsCount int) (*ImportResult, error) {
	if recordsCount <= 0 {
		return nil, ErrInvalidInput
	}
	if recordsCount > s.maxRecords {
		recordsCount = s.maxRecords
	}

	rows, err := s.repo.LegacyRows(ctx, s.sourceTable, recordsCount)
	if err != nil {
		return nil, err
	}

	imported := 0
	skipped := 0
	for _, row := range rows {
		if !validLegacyRow(row) {
			s.logger.Warn("skipping malformed legacy row", "legacy_id", row.ID)
			skipped++
			continue
		}

		analysis := analysisFromLegacy(row, s.rng)
		if _, err := s.repo.Create(ctx, analysis); err != nil {
			s.logger.Warn("failed to insert imported record, skipping", "legacy_id", row.ID, "error", err)
			skipped++
			continue
		}
		imported++
	}

	s.publish(messaging.RecordsImported("dropout", imported))

	return &ImportResult{
		Success: true,
		Count:   imported,
		Skipped: skipped,
		Message: fmt.Sprintf("Se importaron %d registros (%d omitidos)", imported, skipped),
	}, nil
}

// Trend fabricates a 30-day series for the requested metric. The base rate
// comes from the persisted data; everything else is synthetic.
func (s *service) Trend(ctx context.Context, metric string, year, month int) (*TrendSeries, error) {
	spec, ok := trendSpecs[metric]
	if !ok {
		return nil, ErrUnknownMetric
	}

	base, err := s.trendBase(ctx, metric, year, month)
	if err != nil {
		return nil, err
	}

	return &TrendSeries{
		Metric:    metric,
		Simulated: true,
		BaseRate:  round1(base),
		Noise:     spec.noise,
		Points:    synthesizeSeries(base, spec.noise, 30, 7, spec.trendSlope, spec.clampMin, spec.clampMax, s.rng),
	}, nil
}

func (s *service) trendBase(ctx context.Context, metric string, year, month int) (float64, error) {
	switch metric {
	case TrendAttendance:
		present, absent, err := s.repo.AttendanceCounts(ctx, year, month)
		if err != nil {
			return 0, err
		}
		if present+absent == 0 {
			return 75, nil // default base for an empty data set
		}
		return float64(present) / float64(present+absent) * 100, nil

	case TrendRisk, TrendDropoutRate:
		dist, err := s.repo.RiskDistribution(ctx)
		if err != nil {
			return 0, err
		}
		total := 0
		alto := 0
		for _, rc := range dist {
			total += rc.Count
			if rc.RiskLevel == RiskAlto {
				alto = rc.Count
			}
		}
		if total == 0 {
			return 30, nil
		}
		return float64(alto) / float64(total) * 100, nil

	case TrendIncome:
		numeric, err := s.repo.NumericStats(ctx)
		if err != nil {
			return 0, err
		}
		if numeric.AvgIncome == 0 {
			return 850, nil
		}
		return numeric.AvgIncome, nil

	case TrendStudyTime:
		numeric, err := s.repo.NumericStats(ctx)
		if err != nil {
			return 0, err
		}
		if numeric.AvgStudyTime == 0 {
			return 45, nil
		}
		// hours scaled to a 0-100 chart axis
		return numeric.AvgStudyTime * 10, nil
	}

	return 0, ErrUnknownMetric
}

func bucketAges(rows []ProfileRow) []BucketCount {
	buckets := []BucketCount{
		{Label: "<15"}, {Label: "15-19"}, {Label: "20-24"}, {Label: "25+"},
	}
	for _, row := range rows {
		switch {
		case row.Age < 15:
			buckets[0].Count++
		case row.Age < 20:
			buckets[1].Count++
		case row.Age < 25:
			buckets[2].Count++
		default:
			buckets[3].Count++
		}
	}
	return buckets
}

func bucketIncomes(rows []ProfileRow) []BucketCount {
	buckets := []BucketCount{
		{Label: "<500"}, {Label: "500-1499"}, {Label: "1500-2999"}, {Label: "3000+"},
	}
	for _, row := range rows {
		switch {
		case row.FamilyIncome < 500:
			buckets[0].Count++
		case row.FamilyIncome < 1500:
			buckets[1].Count++
		case row.FamilyIncome < 3000:
			buckets[2].Count++
		default:
			buckets[3].Count++
		}
	}
	return buckets
}

func bucketStudyTimes(rows []ProfileRow) []BucketCount {
	buckets := []BucketCount{
		{Label: "<3"}, {Label: "3-5"}, {Label: "6+"},
	}
	for _, row := range rows {
		switch {
		case row.StudyTime < 3:
			buckets[0].Count++
		case row.StudyTime < 6:
			buckets[1].Count++
		default:
			buckets[2].Count++
		}
	}
	return buckets
}

func crossTab(rows []ProfileRow, groupFn func(ProfileRow) string) []CrossTabCount {
	counts := map[string]map[string]int{}
	order := []string{}
	for _, row := range rows {
		group := groupFn(row)
		if _, ok := counts[group]; !ok {
			counts[group] = map[string]int{}
			order = append(order, group)
		}
		counts[group][row.RiskLevel]++
	}

	result := []CrossTabCount{}
	for _, group := range order {
		for _, risk := range []string{RiskAlto, RiskMedio, RiskBajo} {
			if c := counts[group][risk]; c > 0 {
				result = append(result, CrossTabCount{Group: group, RiskLevel: risk, Count: c})
			}
		}
	}
	return result
}

func (s *service) publish(event messaging.Event) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(event); err != nil {
		s.logger.Warn("failed to publish event", "type", event.Type, "error", err)
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
