//go:build integration

package kafka_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"h2ledger/internal/platform/config"
	"h2ledger/internal/platform/kafka"
	"h2ledger/pkg/testutil/containers"
)

type captureHandler struct {
	mu       sync.Mutex
	messages []*kafka.Message
}

func (h *captureHandler) Handle(_ context.Context, msg *kafka.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	return nil
}

func (h *captureHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// TestProduceConsumeRoundTrip publishes through the producer and reads the
// records back through the consumer group against a real broker.
func TestProduceConsumeRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redpanda := containers.NewRedpandaContainer(t)
	cfg := config.KafkaConfig{
		Brokers:       []string{redpanda.Broker},
		Topic:         "h2ledger.events.test",
		ConsumerGroup: "h2ledger-test",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	producer, err := kafka.NewProducer(cfg)
	require.NoError(t, err)
	defer producer.Close()

	ctx := context.Background()
	require.NoError(t, producer.Publish(ctx, []byte("k1"), []byte(`{"type":"role_granted"}`)))
	require.NoError(t, producer.Publish(ctx, []byte("k2"), []byte(`{"type":"credits_issued"}`)))

	consumer, err := kafka.NewConsumer(cfg, logger)
	require.NoError(t, err)
	defer consumer.Close()

	handler := &captureHandler{}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- consumer.Run(runCtx, handler) }()

	deadline := time.Now().Add(30 * time.Second)
	for handler.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	cancel()
	<-done

	require.GreaterOrEqual(t, handler.count(), 2)
	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Equal(t, "k1", string(handler.messages[0].Key))
	require.Equal(t, `{"type":"role_granted"}`, string(handler.messages[0].Value))
}
