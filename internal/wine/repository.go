package wine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/metrics"

	"github.com/uptrace/bun"
)

type QualityCount struct {
	Quality string `bun:"quality" json:"quality"`
	Count   int    `bun:"count" json:"count"`
}

type AlcoholStats struct {
	AvgAlcohol float64 `bun:"avg_alcohol" json:"avg_alcohol"`
	MinAlcohol float64 `bun:"min_alcohol" json:"min_alcohol"`
	MaxAlcohol float64 `bun:"max_alcohol" json:"max_alcohol"`
}

type ComponentStat struct {
	ComponentName string  `bun:"component_name" json:"component_name"`
	AvgValue      float64 `bun:"avg_value" json:"avg_value"`
	AvgPercentage float64 `bun:"avg_percentage" json:"avg_percentage"`
}

type ClassificationCount struct {
	ClassificationName string `bun:"classification_name" json:"classification_name"`
	Count              int    `bun:"count" json:"count"`
}

type Repository interface {
	Create(ctx context.Context, analysis *Analysis) (*Analysis, error)
	GetAll(ctx context.Context) ([]Analysis, error)
	GetByID(ctx context.Context, id int64) (*Analysis, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	QualityDistribution(ctx context.Context) ([]QualityCount, error)
	AlcoholStats(ctx context.Context) (*AlcoholStats, error)
	ComponentStats(ctx context.Context, limit int) ([]ComponentStat, error)
	ClassificationStats(ctx context.Context, limit int) ([]ClassificationCount, error)
	CreatedSince(ctx context.Context, since time.Time) ([]Analysis, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

// Create inserts the analysis and then its classification/component children.
// No transaction spans the three inserts: a failure after the parent insert
// leaves a valid analysis without children (children are optional).
func (r *repository) Create(ctx context.Context, analysis *Analysis) (*Analysis, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(analysis).Returning("*").Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "insert", "wine_analyses", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if len(analysis.Classifications) > 0 {
		for _, c := range analysis.Classifications {
			c.AnalysisID = analysis.ID
		}
		start = time.Now()
		_, err = r.db.NewInsert().Model(&analysis.Classifications).Exec(ctx)
		r.metrics.Database.RecordQuery(ctx, "insert", "wine_classifications", time.Since(start), err)
		if err != nil {
			return nil, err
		}
	}

	if len(analysis.Components) > 0 {
		for _, c := range analysis.Components {
			c.AnalysisID = analysis.ID
		}
		start = time.Now()
		_, err = r.db.NewInsert().Model(&analysis.Components).Exec(ctx)
		r.metrics.Database.RecordQuery(ctx, "insert", "wine_components", time.Since(start), err)
		if err != nil {
			return nil, err
		}
	}

	return analysis, nil
}

func (r *repository) GetAll(ctx context.Context) ([]Analysis, error) {
	start := time.Now()
	var analyses []Analysis
	err := r.db.NewSelect().
		Model(&analyses).
		Relation("Classifications").
		Relation("Components").
		Order("created_at DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "wine_analyses", time.Since(start), err)

	return analyses, err
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Analysis, error) {
	start := time.Now()
	analysis := new(Analysis)
	err := r.db.NewSelect().
		Model(analysis).
		Relation("Classifications").
		Relation("Components").
		Where("wa.id = ?", id).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "wine_analyses", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return analysis, nil
}

// Delete removes the analysis; classification and component rows go with it
// via ON DELETE CASCADE.
func (r *repository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	analysis := &Analysis{ID: id}
	result, err := r.db.NewDelete().Model(analysis).WherePK().Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "wine_analyses", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := r.db.NewSelect().Model((*Analysis)(nil)).Count(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "wine_analyses", time.Since(start), err)
	return count, err
}

func (r *repository) QualityDistribution(ctx context.Context) ([]QualityCount, error) {
	start := time.Now()
	var rows []QualityCount
	err := r.db.NewSelect().
		Model((*Analysis)(nil)).
		Column("quality").
		ColumnExpr("count(*) AS count").
		Group("quality").
		Order("quality").
		Scan(ctx, &rows)

	r.metrics.Database.RecordQuery(ctx, "select", "wine_analyses", time.Since(start), err)

	return rows, err
}

func (r *repository) AlcoholStats(ctx context.Context) (*AlcoholStats, error) {
	start := time.Now()
	stats := new(AlcoholStats)
	err := r.db.NewSelect().
		Model((*Analysis)(nil)).
		ColumnExpr("coalesce(avg(alcohol), 0) AS avg_alcohol").
		ColumnExpr("coalesce(min(alcohol), 0) AS min_alcohol").
		ColumnExpr("coalesce(max(alcohol), 0) AS max_alcohol").
		Scan(ctx, stats)

	r.metrics.Database.RecordQuery(ctx, "select", "wine_analyses", time.Since(start), err)

	return stats, err
}

func (r *repository) ComponentStats(ctx context.Context, limit int) ([]ComponentStat, error) {
	start := time.Now()
	var rows []ComponentStat
	err := r.db.NewSelect().
		Model((*Component)(nil)).
		Column("component_name").
		ColumnExpr("avg(value) AS avg_value").
		ColumnExpr("coalesce(avg(percentage), 0) AS avg_percentage").
		Group("component_name").
		OrderExpr("avg_percentage DESC").
		Limit(limit).
		Scan(ctx, &rows)

	r.metrics.Database.RecordQuery(ctx, "select", "wine_components", time.Since(start), err)

	return rows, err
}

func (r *repository) ClassificationStats(ctx context.Context, limit int) ([]ClassificationCount, error) {
	start := time.Now()
	var rows []ClassificationCount
	err := r.db.NewSelect().
		Model((*Classification)(nil)).
		Column("classification_name").
		ColumnExpr("count(*) AS count").
		Group("classification_name").
		OrderExpr("count DESC").
		Limit(limit).
		Scan(ctx, &rows)

	r.metrics.Database.RecordQuery(ctx, "select", "wine_classifications", time.Since(start), err)

	return rows, err
}

func (r *repository) CreatedSince(ctx context.Context, since time.Time) ([]Analysis, error) {
	start := time.Now()
	var analyses []Analysis
	err := r.db.NewSelect().
		Model(&analyses).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "wine_analyses", time.Since(start), err)

	return analyses, err
}
