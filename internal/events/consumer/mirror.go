// Package consumer hosts the collaborator side of the event channel: a Kafka
// handler that mirrors ledger state into conventional relational records.
// Delivery is at-least-once, so every write is an idempotent upsert keyed by
// event id; the ledger core stays authoritative on any conflict.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"h2ledger/internal/events"
	"h2ledger/internal/platform/kafka"
)

// MirrorStore persists mirrored records. Implementations must tolerate
// replayed events.
type MirrorStore interface {
	UpsertRoleGrant(ctx context.Context, eventID uuid.UUID, account, role string, jurisdiction uint64, grantedBy string) error
	UpsertCreditBatch(ctx context.Context, eventID uuid.UUID, owner string, firstID, lastID uint64, certHash string) error
	MarkRetired(ctx context.Context, eventID uuid.UUID, creditID uint64, retiredBy string) error
	SetOwner(ctx context.Context, eventID uuid.UUID, creditID uint64, owner string) error
}

// Mirror consumes ledger events and maintains the off-chain record mirror.
type Mirror struct {
	store  MirrorStore
	logger *slog.Logger
}

// NewMirror builds the mirror handler.
func NewMirror(store MirrorStore, logger *slog.Logger) *Mirror {
	return &Mirror{store: store, logger: logger}
}

// Handle processes one event. Malformed messages are logged and committed so
// they cannot wedge the consumer group.
func (m *Mirror) Handle(ctx context.Context, msg *kafka.Message) error {
	eventID, err := uuid.Parse(string(msg.Key))
	if err != nil {
		m.logger.Error("mirror: unparseable event key, skipping",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	var event events.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		m.logger.Error("mirror: unparseable event payload, skipping",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}

	switch event.Type {
	case events.TypeRoleGranted:
		err = m.store.UpsertRoleGrant(ctx, eventID, event.Account, event.Role, event.Jurisdiction, event.Actor)
	case events.TypeCreditsIssued:
		err = m.store.UpsertCreditBatch(ctx, eventID, event.Account, event.FirstID, event.LastID, event.CertHash)
	case events.TypeCreditTransferred:
		err = m.store.SetOwner(ctx, eventID, event.CreditID, event.Account)
	case events.TypeCreditRetired:
		err = m.store.MarkRetired(ctx, eventID, event.CreditID, event.Actor)
	case events.TypePauseChanged:
		// Nothing to mirror; the pause flag is queryable from the core.
		return nil
	default:
		m.logger.Warn("mirror: unknown event type, skipping",
			"event_id", eventID,
			"type", event.Type,
		)
		return nil
	}
	if err != nil {
		return err
	}

	m.logger.Debug("mirrored event", "event_id", eventID, "type", event.Type)
	return nil
}
