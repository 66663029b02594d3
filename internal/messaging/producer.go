package messaging

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Chikiwuapo/Predicciones-Proyecto/internal/config"
)

// Producer publishes analysis lifecycle events. Publishing is best-effort:
// callers log failures and continue, a lost event never fails a request.
type Producer interface {
	Publish(event Event) error
	Close() error
}

// Event is the payload published on analysis lifecycle changes.
type Event struct {
	Type       string    `json:"type"`
	Domain     string    `json:"domain"`
	AnalysisID int64     `json:"analysis_id,omitempty"`
	Count      int       `json:"count,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

const (
	EventAnalysisCreated = "analysis.created"
	EventAnalysisDeleted = "analysis.deleted"
	EventAnalysesCleared = "analyses.cleared"
	EventRecordsImported = "records.imported"
)

func AnalysisCreated(domain string, id int64) Event {
	return Event{Type: EventAnalysisCreated, Domain: domain, AnalysisID: id, Timestamp: time.Now().UTC()}
}

func AnalysisDeleted(domain string, id int64) Event {
	return Event{Type: EventAnalysisDeleted, Domain: domain, AnalysisID: id, Timestamp: time.Now().UTC()}
}

func AnalysesCleared(domain string, count int) Event {
	return Event{Type: EventAnalysesCleared, Domain: domain, Count: count, Timestamp: time.Now().UTC()}
}

func RecordsImported(domain string, count int) Event {
	return Event{Type: EventRecordsImported, Domain: domain, Count: count, Timestamp: time.Now().UTC()}
}

// NewProducer builds the producer selected by messaging.driver.
// An empty driver disables event publishing.
func NewProducer(cfg *config.Config, logger *slog.Logger) (Producer, error) {
	switch cfg.Messaging.Driver {
	case "nats":
		return NewNATSProducer(cfg.NATS.URL, cfg.NATS.Subject, logger)
	case "kafka":
		return NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown messaging driver: %q", cfg.Messaging.Driver)
	}
}
