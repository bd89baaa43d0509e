package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/PratikDhanave/site-analytics/internal/tracing"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes JSON-encoded records. The topic is chosen per call, so one
// instance serves both the event and event_data topics.
type Kafka struct {
	w messageWriter
}

// NewKafka builds a writer that does not wait for broker acknowledgement.
func NewKafka(brokers []string) *Kafka {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireNone,
		BatchTimeout: 10 * time.Millisecond,
	}
	log.Printf("[kafka] brokers=%v", brokers)
	return &Kafka{w: w}
}

// SendMessages serializes every message and writes them in one call.
func (k *Kafka) SendMessages(ctx context.Context, topic string, messages []any) error {
	ctx, span := tracing.Tracer().Start(ctx, "kafka.send")
	defer span.End()

	if len(messages) == 0 {
		return nil
	}

	out := make([]kafka.Message, 0, len(messages))
	for _, m := range messages {
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal %s message: %w", topic, err)
		}
		out = append(out, kafka.Message{Topic: topic, Value: b})
	}

	if err := k.w.WriteMessages(ctx, out...); err != nil {
		return fmt.Errorf("kafka write %s: %w", topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (k *Kafka) Close() error {
	return k.w.Close()
}
