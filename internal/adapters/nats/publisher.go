package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

// Subjects published by the service.
const (
	SubjectAnalysisComputed = "aq.analysis.computed"
	SubjectExportSubmitted  = "aq.exports.submitted"
	SubjectExportCompleted  = "aq.exports.completed"
	SubjectExportFailed     = "aq.exports.failed"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "AQ_ANALYSIS",
			Subjects:  []string{"aq.analysis.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "AQ_EXPORTS",
			Subjects:  []string{"aq.exports.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishAnalysis announces a freshly computed analysis.
func (p *Publisher) PublishAnalysis(ctx context.Context, a *domain.Analysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectAnalysisComputed+"."+strings.ToLower(string(a.Selection.Pollutant)), data, nats.Context(ctx))
	return err
}

// PublishExportSubmitted announces that an export task was queued.
func (p *Publisher) PublishExportSubmitted(ctx context.Context, t *domain.ExportTicket) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectExportSubmitted, data, nats.Context(ctx))
	return err
}

// PublishExportResult announces the outcome of an export task.
func (p *Publisher) PublishExportResult(ctx context.Context, r *domain.ExportResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	subject := SubjectExportCompleted
	if !r.Succeeded() {
		subject = SubjectExportFailed
	}
	_, err = p.js.Publish(subject, data, nats.Context(ctx))
	return err
}

// Ping reports whether the connection is up.
func (p *Publisher) Ping(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats: %s", p.conn.Status())
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("aqtracker"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
