package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ err error }

func (f *failingStore) Append(context.Context, Event) error { return f.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherEmit(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns id and timestamp when missing", func(t *testing.T) {
		store := NewInMemoryStore()
		pub := NewPublisher(store, discardLogger(), nil)

		require.NoError(t, pub.Emit(ctx, Event{Type: TypeRoleGranted}))

		all, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.NotEqual(t, uuid.Nil, all[0].ID)
		assert.False(t, all[0].Timestamp.IsZero())
	})

	t.Run("preserves a caller-supplied timestamp", func(t *testing.T) {
		store := NewInMemoryStore()
		pub := NewPublisher(store, discardLogger(), nil)
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, pub.Emit(ctx, Event{Type: TypeCreditRetired, Timestamp: at}))

		all, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, at, all[0].Timestamp)
	})

	t.Run("is fail-closed on append errors", func(t *testing.T) {
		appendErr := errors.New("disk full")
		pub := NewPublisher(&failingStore{err: appendErr}, discardLogger(), nil)

		err := pub.Emit(ctx, Event{Type: TypeCreditsIssued})
		require.ErrorIs(t, err, appendErr)
	})
}
