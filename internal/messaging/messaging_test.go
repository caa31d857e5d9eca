package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/ventas/internal/config"
)

func TestNewClient_DisabledUsesNoop(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Messaging: config.Messaging{Driver: "kafka", Kafka: config.Kafka{Topic: "ventas.orders"}}}

	client, err := NewClient(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "ventas.orders", client.Topic())
	assert.NoError(t, client.Publish(context.Background(), Message{Value: []byte("x")}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, client.Consume(ctx, nil), context.DeadlineExceeded)
}

func TestNewClient_UnknownDriver(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Messaging: config.Messaging{Enabled: true, Driver: "nats"}}

	_, err := NewClient(lc, cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported messaging driver")
}

func TestKafkaMessageConversion(t *testing.T) {
	msg := Message{
		Key:     []byte("order-1"),
		Value:   []byte(`{"orderId":1}`),
		Headers: map[string]string{HeaderEventType: "order.created"},
	}

	raw := toKafka(msg)
	require.Len(t, raw.Headers, 1)
	assert.Equal(t, kafka.Header{Key: HeaderEventType, Value: []byte("order.created")}, raw.Headers[0])

	raw.Topic = "ventas.orders"
	raw.Offset = 7
	back := fromKafka(raw)
	assert.Equal(t, "order.created", back.EventType())
	assert.Equal(t, "ventas.orders", back.Topic)
	assert.Equal(t, int64(7), back.Offset)
	assert.Equal(t, msg.Key, back.Key)
	assert.Equal(t, msg.Value, back.Value)
}

func TestFromKafka_NoHeaders(t *testing.T) {
	msg := fromKafka(kafka.Message{Value: []byte("v")})
	assert.Nil(t, msg.Headers)
	assert.Empty(t, msg.EventType())
}
