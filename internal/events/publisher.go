package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Store is the append-only sink behind the publisher. The postgres
// implementation is a transactional outbox; the memory implementation keeps
// the core runnable with zero infrastructure.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures the core's typed observations. Emit is fail-closed: a
// state transition whose event cannot be recorded must abort, so the outbox
// and the ledger state move together.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
}

// NewPublisher builds a publisher over the given sink.
func NewPublisher(store Store, logger *slog.Logger, metrics *Metrics) *Publisher {
	return &Publisher{store: store, logger: logger, metrics: metrics}
}

// Emit assigns identity and timestamp if missing and appends the event.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncAppendFailures()
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "event append failed",
				"type", event.Type,
				"event_id", event.ID,
				"error", err,
			)
		}
		return err
	}
	p.metrics.IncEmitted(string(event.Type))
	return nil
}
