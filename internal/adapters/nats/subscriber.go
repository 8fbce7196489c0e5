package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

// Subscriber consumes export outcome events. It is an observer only: nothing
// it receives is fed back to the submitter of an export.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeExportResults delivers completed and failed export events to
// handler. A handler error naks the message for redelivery.
func (s *Subscriber) SubscribeExportResults(ctx context.Context, durable string, handler func(ctx context.Context, r *domain.ExportResult) error) error {
	for _, subject := range []string{SubjectExportCompleted, SubjectExportFailed} {
		sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
			var r domain.ExportResult
			if err := json.Unmarshal(msg.Data, &r); err != nil {
				// Malformed payloads will never decode; drop them.
				_ = msg.Term()
				return
			}
			if err := handler(ctx, &r); err != nil {
				_ = msg.Nak()
				return
			}
			_ = msg.Ack()
		},
			nats.Durable(durable+"-"+subjectSuffix(subject)),
			nats.ManualAck(),
			nats.MaxDeliver(3),
		)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
	}
	return nil
}

func subjectSuffix(subject string) string {
	switch subject {
	case SubjectExportCompleted:
		return "completed"
	case SubjectExportFailed:
		return "failed"
	default:
		return "all"
	}
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
