package dropout

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/metrics"

	"github.com/uptrace/bun"
)

type RiskCount struct {
	RiskLevel string `bun:"risk_level" json:"risk_level"`
	Count     int    `bun:"count" json:"count"`
}

// NumericStats carries the aggregate values for the three numeric attributes
// in one row.
type NumericStats struct {
	AvgAge       float64 `bun:"avg_age"`
	MinAge       float64 `bun:"min_age"`
	MaxAge       float64 `bun:"max_age"`
	AvgStudyTime float64 `bun:"avg_study_time"`
	MinStudyTime float64 `bun:"min_study_time"`
	MaxStudyTime float64 `bun:"max_study_time"`
	AvgIncome    float64 `bun:"avg_income"`
	MinIncome    float64 `bun:"min_income"`
	MaxIncome    float64 `bun:"max_income"`
}

// ProfileRow is the narrow projection used for range bucketing and
// cross-tabulations.
type ProfileRow struct {
	Age          int     `bun:"age"`
	FamilyIncome float64 `bun:"family_income"`
	StudyTime    float64 `bun:"study_time"`
	RiskLevel    string  `bun:"risk_level"`
	Location     string  `bun:"location"`
	Gender       string  `bun:"gender"`
	Attendance   bool    `bun:"attendance"`
}

type Repository interface {
	Create(ctx context.Context, analysis *Analysis) (*Analysis, error)
	GetAll(ctx context.Context) ([]Analysis, error)
	GetByID(ctx context.Context, id int64) (*Analysis, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
	RiskDistribution(ctx context.Context) ([]RiskCount, error)
	NumericStats(ctx context.Context) (*NumericStats, error)
	ProfileRows(ctx context.Context) ([]ProfileRow, error)
	CreatedSince(ctx context.Context, since time.Time) ([]Analysis, error)
	AvailableYears(ctx context.Context) ([]int, error)
	AvailableMonths(ctx context.Context) ([]int, error)
	AttendanceCounts(ctx context.Context, year, month int) (present int, absent int, err error)
	LegacyRows(ctx context.Context, table string, limit int) ([]LegacyStudent, error)
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

func (r *repository) Create(ctx context.Context, analysis *Analysis) (*Analysis, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(analysis).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "student_dropout_analyses", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return analysis, nil
}

func (r *repository) GetAll(ctx context.Context) ([]Analysis, error) {
	start := time.Now()
	var analyses []Analysis
	err := r.db.NewSelect().
		Model(&analyses).
		Order("created_at DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "student_dropout_analyses", time.Since(start), err)

	return analyses, err
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Analysis, error) {
	start := time.Now()
	analysis := new(Analysis)
	err := r.db.NewSelect().Model(analysis).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "student_dropout_analyses", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return analysis, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	analysis := &Analysis{ID: id}
	result, err := r.db.NewDelete().Model(analysis).WherePK().Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "student_dropout_analyses", time.Since(start), err)

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

func (r *repository) DeleteAll(ctx context.Context) (int64, error) {
	start := time.Now()
	result, err := r.db.NewDelete().Model((*Analysis)(nil)).Where("1 = 1").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "student_dropout_analyses", time.Since(start), err)

	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *repository) Count(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := r.db.NewSelect().Model((*Analysis)(nil)).Count(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "student_dropout_analyses", time.Since(start), err)
	return count, err
}

func (r *repository) RiskDistribution(ctx context.Context) ([]RiskCount, error) {
	start := time.Now()
	var rows []RiskCount
	err := r.db.NewSelect().
		Model((*Analysis)(nil)).
		Column("risk_level").
		ColumnExpr("count(*) AS count").
		Group("risk_level").
		Order("risk_level").
		Scan(ctx, &rows)

	r.metrics.Database.RecordQuery(ctx, "select", "student_dropout_analyses", time.Since(start), err)

	return rows, err
}

func (r *repository) NumericStats(ctx context.Context) (*NumericStats, error) {
	start := time.Now()
	stats := new(NumericStats)
	err := r.db.NewSelect().
		Model((*Analysis)(nil)).
		ColumnExpr("coalesce(avg(age), 0) AS avg_age").
		ColumnExpr("coalesce(min(age), 0) AS min_age").
		ColumnExpr("coalesce(max(age), 0) AS max_age").
		ColumnExpr("coalesce(avg(study_time), 0) AS avg_study_time").
		ColumnExpr("coalesce(min(study_time), 0) AS min_study_time").
		ColumnExpr("coalesce(max(study_time), 0) AS max_study_time").
		ColumnExpr("coalesce(avg(family_income), 0) AS avg_income").
		ColumnExpr("coalesce(min(family_income), 0) AS min_income").
		ColumnExpr("coalesce(max(family_income), 0) AS max_income").
		Scan(ctx, stats)

	r.metrics.Database.RecordQuery(ctx, "select", "student_dropout_analyses", time.Since(start), err)

	return stats, err
}

func (r *repository) ProfileRows(ctx context.Context) ([]ProfileRow, error) {
	start := time.Now()
	var rows []ProfileRow
	err := r.db.NewSelect().
		Model((*Analysis)(nil)).
		Column("age", "family_income", "study_time", "risk_level", "location", "gender", "attendance").
		Scan(ctx, &rows)

	r.metrics.Database.RecordQuery(ctx, "select", "student_dropout_analyses", time.Since(start), err)

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

	r.metrics.Database.RecordQuery(ctx, "select", "student_dropout_analyses", time.Since(start), err)

	return analyses, err
}

func (r *repository) AvailableYears(ctx context.Context) ([]int, error) {
	start := time.Now()
	var years []int
	err := r.db.NewSelect().
		Model((*Analysis)(nil)).
		ColumnExpr("DISTINCT extract(year FROM analysis_date)::int AS year").
		OrderExpr("year DESC").
		Scan(ctx, &years)

	r.metrics.Database.RecordQuery(ctx, "select", "student_dropout_analyses", time.Since(start), err)

	return years, err
}

func (r *repository) AvailableMonths(ctx context.Context) ([]int, error) {
	start := time.Now()
	var months []int
	err := r.db.NewSelect().
		Model((*Analysis)(nil)).
		ColumnExpr("DISTINCT extract(month FROM analysis_date)::int AS month").
		OrderExpr("month ASC").
		Scan(ctx, &months)

	r.metrics.Database.RecordQuery(ctx, "select", "student_dropout_analyses", time.Since(start), err)

	return months, err
}

// AttendanceCounts returns the attendance split, optionally filtered by year
// and month of the analysis date. Zero means "no filter".
func (r *repository) AttendanceCounts(ctx context.Context, year, month int) (int, int, error) {
	var counts struct {
		Present int `bun:"present"`
		Absent  int `bun:"absent"`
	}

	q := r.db.NewSelect().
		Model((*Analysis)(nil)).
		ColumnExpr("count(*) FILTER (WHERE attendance) AS present").
		ColumnExpr("count(*) FILTER (WHERE NOT attendance) AS absent")

	if year > 0 {
		q = q.Where("extract(year FROM analysis_date) = ?", year)
	}
	if month > 0 {
		q = q.Where("extract(month FROM analysis_date) = ?", month)
	}

	start := time.Now()
	err := q.Scan(ctx, &counts)
	r.metrics.Database.RecordQuery(ctx, "select", "student_dropout_analyses", time.Since(start), err)

	return counts.Present, counts.Absent, err
}

// LegacyRows reads up to limit rows from the external flat table. The table
// is not managed by this service's migrations.
func (r *repository) LegacyRows(ctx context.Context, table string, limit int) ([]LegacyStudent, error) {
	start := time.Now()
	var rows []LegacyStudent
	err := r.db.NewSelect().
		ColumnExpr("id, nombre, apellido, edad, genero, ingreso_familiar, ubicacion, situacion_economica, tiempo_estudio, apoyo_escolar, apoyo_familiar, apoyo_educativo_extra").
		TableExpr("? AS e", bun.Ident(table)).
		OrderExpr("id ASC").
		Limit(limit).
		Scan(ctx, &rows)

	r.metrics.Database.RecordQuery(ctx, "select", table, time.Since(start), err)

	return rows, err
}
