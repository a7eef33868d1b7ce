package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/sterileloop/internal/config"
	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/couchcryptid/sterileloop/internal/observability"
	"github.com/couchcryptid/sterileloop/internal/overlay"
	kafkago "github.com/segmentio/kafka-go"
)

const sinkName = "kafka"

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes the all-years overlay of each snapshot to a Kafka topic,
// one message per state. It implements pipeline.Loader.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured overlay topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaOverlayTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// Name identifies the writer as a publishing sink.
func (w *Writer) Name() string { return sinkName }

// Publish builds the all-years overlay and writes every feature in a single
// WriteMessages call.
func (w *Writer) Publish(ctx context.Context, snap domain.Snapshot) error {
	features := overlay.Build(snap, overlay.View{}, domain.MeterScale)
	if len(features) == 0 {
		w.logger.Warn("snapshot has no drawable features, nothing to publish", "source", snap.Source)
		return nil
	}
	msgs := make([]kafkago.Message, len(features))
	for i := range features {
		msg, err := serializeToMessage(features[i], snap)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write overlay messages: %w", err)
	}
	w.metrics.FeaturesPublished.WithLabelValues(sinkName).Add(float64(len(msgs)))
	w.logger.Debug("overlay published", "features", len(msgs), "source", snap.Source)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Feature into a Kafka message keyed by state.
func serializeToMessage(f overlay.Feature, snap domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize overlay feature: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(f.State),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "loaded_at", Value: []byte(snap.LoadedAt.Format(time.RFC3339))},
			{Key: "source", Value: []byte(snap.Source)},
		},
	}, nil
}
