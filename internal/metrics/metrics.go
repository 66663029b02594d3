package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Database *DatabaseMetrics

	analysesCreated metric.Int64Counter
	analysesViewed  metric.Int64Counter
	listsViewed     metric.Int64Counter
	analysesDeleted metric.Int64Counter
	recordsImported metric.Int64Counter
	eventsPublished metric.Int64Counter
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.analysesCreated, err = meter.Int64Counter(
		"analysis_service.analyses.created",
		metric.WithDescription("Total number of analyses created"),
		metric.WithUnit("{analysis}"),
	)
	if err != nil {
		return nil, err
	}

	m.analysesViewed, err = meter.Int64Counter(
		"analysis_service.analyses.viewed",
		metric.WithDescription("Total number of single analyses viewed"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.listsViewed, err = meter.Int64Counter(
		"analysis_service.analyses.list_viewed",
		metric.WithDescription("Total number of times an analysis list was viewed"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.analysesDeleted, err = meter.Int64Counter(
		"analysis_service.analyses.deleted",
		metric.WithDescription("Total number of analyses deleted"),
		metric.WithUnit("{analysis}"),
	)
	if err != nil {
		return nil, err
	}

	m.recordsImported, err = meter.Int64Counter(
		"analysis_service.legacy.records_imported",
		metric.WithDescription("Total number of records imported from the legacy table"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	m.eventsPublished, err = meter.Int64Counter(
		"analysis_service.events.published",
		metric.WithDescription("Total number of lifecycle events published"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.Database, err = NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordAnalysisCreated(ctx context.Context, domain string) {
	if m != nil && m.analysesCreated != nil {
		m.analysesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("domain", domain)))
	}
}

func (m *Metrics) RecordAnalysisViewed(ctx context.Context, domain string) {
	if m != nil && m.analysesViewed != nil {
		m.analysesViewed.Add(ctx, 1, metric.WithAttributes(attribute.String("domain", domain)))
	}
}

func (m *Metrics) RecordListViewed(ctx context.Context, domain string) {
	if m != nil && m.listsViewed != nil {
		m.listsViewed.Add(ctx, 1, metric.WithAttributes(attribute.String("domain", domain)))
	}
}

func (m *Metrics) RecordAnalysisDeleted(ctx context.Context, domain string, count int64) {
	if m != nil && m.analysesDeleted != nil {
		m.analysesDeleted.Add(ctx, count, metric.WithAttributes(attribute.String("domain", domain)))
	}
}

func (m *Metrics) RecordRecordsImported(ctx context.Context, count int64) {
	if m != nil && m.recordsImported != nil {
		m.recordsImported.Add(ctx, count)
	}
}

func (m *Metrics) RecordEventPublished(ctx context.Context) {
	if m != nil && m.eventsPublished != nil {
		m.eventsPublished.Add(ctx, 1)
	}
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{}
}
