package wine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/messaging"
)

var (
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrInvalidInput     = errors.New("invalid input")
)

type Statistics struct {
	QualityDistribution []QualityCount        `json:"quality_distribution"`
	AlcoholStats        *AlcoholStats         `json:"alcohol_stats"`
	ComponentStats      []ComponentStat       `json:"component_stats"`
	ClassificationStats []ClassificationCount `json:"classification_stats"`
	TimeSeriesData      []TimeSeriesPoint     `json:"time_series_data"`
	TotalAnalyses       int                   `json:"total_analyses"`
	RecentAnalysesCount int                   `json:"recent_analyses_count"`
}

type TimeSeriesPoint struct {
	Timestamp    string  `json:"timestamp"`
	Alcohol      float64 `json:"alcohol"`
	QualityScore int     `json:"quality_score"`
}

// RealTimeData is a jittered snapshot of a stored analysis. The values are
// fabricated around the stored measurements, not read from sensors, and the
// payload says so.
type RealTimeData struct {
	AnalysisID     int64               `json:"analysis_id"`
	Timestamp      string              `json:"timestamp"`
	Simulated      bool                `json:"simulated"`
	CurrentAlcohol float64             `json:"current_alcohol"`
	CurrentPH      float64             `json:"current_ph"`
	CurrentDensity float64             `json:"current_density"`
	Temperature    float64             `json:"temperature"`
	Humidity       float64             `json:"humidity"`
	Components     []RealTimeComponent `json:"components"`
}

type RealTimeComponent struct {
	Name         string   `json:"name"`
	CurrentValue float64  `json:"current_value"`
	Unit         string   `json:"unit"`
	Percentage   *float64 `json:"percentage"`
}

type Service interface {
	CreateAnalysis(ctx context.Context, in Input) (*Analysis, error)
	GetAllAnalyses(ctx context.Context) ([]Analysis, error)
	GetAnalysisByID(ctx context.Context, id int64) (*Analysis, error)
	DeleteAnalysis(ctx context.Context, id int64) error
	Statistics(ctx context.Context) (*Statistics, error)
	RealTimeData(ctx context.Context, id int64) (*RealTimeData, error)
}

type service struct {
	repo     Repository
	producer messaging.Producer
	logger   *slog.Logger
}

func NewService(repo Repository, producer messaging.Producer, logger *slog.Logger) Service {
	return &service{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

func (s *service) CreateAnalysis(ctx context.Context, in Input) (*Analysis, error) {
	quality := AnalyzeQuality(in)
	confidence := RandomConfidence()

	analysis := &Analysis{
		FixedAcidity:       in.FixedAcidity,
		VolatileAcidity:    in.VolatileAcidity,
		CitricAcid:         in.CitricAcid,
		ResidualSugar:      in.ResidualSugar,
		Chlorides:          in.Chlorides,
		FreeSulfurDioxide:  in.FreeSulfurDioxide,
		TotalSulfurDioxide: in.TotalSulfurDioxide,
		Density:            in.Density,
		PH:                 in.PH,
		Sulphates:          in.Sulphates,
		Alcohol:            in.Alcohol,
		Quality:            quality,
		Confidence:         confidence,
		Classifications:    BuildClassifications(in, confidence),
		Components:         BuildComponents(in),
	}

	created, err := s.repo.Create(ctx, analysis)
	if err != nil {
		return nil, err
	}

	s.publish(messaging.AnalysisCreated("wine", created.ID))

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
	s.publish(messaging.AnalysisDeleted("wine", id))
	return nil
}

var qualityScores = map[string]int{
	QualityBaja:  1,
	QualityMedia: 2,
	QualityAlta:  3,
}

func (s *service) Statistics(ctx context.Context) (*Statistics, error) {
	qualityDist, err := s.repo.QualityDistribution(ctx)
	if err != nil {
		return nil, err
	}

	alcoholStats, err := s.repo.AlcoholStats(ctx)
	if err != nil {
		return nil, err
	}

	componentStats, err := s.repo.ComponentStats(ctx, 10)
	if err != nil {
		return nil, err
	}

	classificationStats, err := s.repo.ClassificationStats(ctx, 5)
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
			Timestamp:    a.CreatedAt.Format(time.RFC3339),
			Alcohol:      a.Alcohol,
			QualityScore: qualityScores[a.Quality],
		})
	}

	return &Statistics{
		QualityDistribution: qualityDist,
		AlcoholStats:        alcoholStats,
		ComponentStats:      componentStats,
		ClassificationStats: classificationStats,
		TimeSeriesData:      timeSeries,
		TotalAnalyses:       total,
		RecentAnalysesCount: len(recent),
	}, nil
}

func (s *service) RealTimeData(ctx context.Context, id int64) (*RealTimeData, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}

	analysis, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	data := &RealTimeData{
		AnalysisID:     analysis.ID,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Simulated:      true,
		CurrentAlcohol: analysis.Alcohol + uniform(-0.1, 0.1),
		CurrentPH:      analysis.PH + uniform(-0.05, 0.05),
		CurrentDensity: analysis.Density + uniform(-0.001, 0.001),
		Temperature:    uniform(15, 25),
		Humidity:       uniform(40, 80),
		Components:     make([]RealTimeComponent, 0, len(analysis.Components)),
	}

	for _, c := range analysis.Components {
		jitter := c.Value * 0.05
		data.Components = append(data.Components, RealTimeComponent{
			Name:         c.ComponentName,
			CurrentValue: c.Value + uniform(-jitter, jitter),
			Unit:         c.Unit,
			Percentage:   c.Percentage,
		})
	}

	return data, nil
}

func (s *service) publish(event messaging.Event) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(event); err != nil {
		s.logger.Warn("failed to publish event", "type", event.Type, "error", err)
	}
}

func uniform(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}
