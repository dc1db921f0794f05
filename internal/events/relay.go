package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Outbox is the relay's view of the postgres store: unpublished entries in
// creation order, marked published only after the broker acknowledged them.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]PendingEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
}

// PendingEvent is one unpublished outbox entry, payload already serialized.
type PendingEvent struct {
	ID      uuid.UUID
	Payload []byte
}

// BrokerProducer publishes one record and blocks until acknowledged.
type BrokerProducer interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Relay drains the outbox into the broker. Delivery is at-least-once: a crash
// between Publish and MarkPublished re-sends the entry, so consumers must
// upsert by event id.
type Relay struct {
	outbox   Outbox
	producer BrokerProducer
	interval time.Duration
	logger   *slog.Logger
	metrics  *Metrics
}

// NewRelay builds a relay worker polling at the given interval.
func NewRelay(outbox Outbox, producer BrokerProducer, interval time.Duration, logger *slog.Logger, metrics *Metrics) *Relay {
	return &Relay{
		outbox:   outbox,
		producer: producer,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

const relayBatchSize = 100

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				r.logger.Error("outbox drain failed", "error", err)
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	for {
		pending, err := r.outbox.FetchUnpublished(ctx, relayBatchSize)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}
		for _, entry := range pending {
			if err := r.producer.Publish(ctx, []byte(entry.ID.String()), entry.Payload); err != nil {
				r.metrics.IncRelayFailures()
				return err
			}
			if err := r.outbox.MarkPublished(ctx, entry.ID); err != nil {
				return err
			}
			r.metrics.IncRelayed()
		}
	}
}
