// Package kafka announces ingested records on a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/homie-data/internal/config"
	"github.com/couchcryptid/homie-data/internal/domain"
)

// maxBatch bounds the messages handed to one WriteMessages call.
const maxBatch = 100

// Writer produces one message per ingested record to the configured topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger.With("component", "kafka", "topic", cfg.KafkaTopic)}
}

// Publish serializes records and writes them in batches of maxBatch.
func (w *Writer) Publish(ctx context.Context, records []domain.Ingested) error {
	for start := 0; start < len(records); start += maxBatch {
		end := min(start+maxBatch, len(records))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, rec := range records[start:end] {
			msg, err := serializeToMessage(rec)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("write %d messages: %w", len(msgs), err)
		}
	}
	w.logger.Debug("records published", "count", len(records))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Ingested record into a Kafka message keyed
// by the record key.
func serializeToMessage(rec domain.Ingested) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s record %s: %w", rec.Family, rec.Key, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "family", Value: []byte(rec.Family)},
			{Key: "ingested_at", Value: []byte(rec.IngestedAt.Format(time.RFC3339))},
		},
	}, nil
}
