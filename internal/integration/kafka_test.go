//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/homie-data/internal/adapter/kafka"
	"github.com/couchcryptid/homie-data/internal/adapter/stub"
	"github.com/couchcryptid/homie-data/internal/config"
	"github.com/couchcryptid/homie-data/internal/dataset"
	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/observability"
	"github.com/couchcryptid/homie-data/internal/pipeline"
)

const testTopic = "homie-ingested-test"

// publishedMessage holds a deserialized message read from the topic.
type publishedMessage struct {
	Key     string
	Headers map[string]string
	Body    struct {
		Family string               `json:"family"`
		Key    string               `json:"key"`
		Record domain.TreasuryYield `json:"record"`
	}
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from topic")

	out := publishedMessage{Key: string(msg.Key), Headers: make(map[string]string, len(msg.Headers))}
	for _, h := range msg.Headers {
		out.Headers[h.Key] = string(h.Value)
	}
	require.NoError(t, json.Unmarshal(msg.Value, &out.Body), "unmarshal message")
	return out
}

// TestPipelinePublishesIngestedRecords runs a yield ingestion with the Kafka
// publisher and reads every announcement back.
func TestPipelinePublishesIngestedRecords(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	yields := writeCSV(t, "FRB_H15.csv",
		"Series Description,10-year",
		"2021-01,1.08",
		"2021-02,",
		"2021-03,1.61",
	)

	p := pipeline.New(stub.New(), writer, discardLogger(), observability.NewMetricsForTesting(), 1)
	report := p.Run(ctx, []pipeline.Job{pipeline.YieldJob(yields, domain.TermTenYear)})
	require.True(t, report.OK(), "report error: %v", report.Err())

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	var received []publishedMessage
	for len(received) < 3 {
		received = append(received, readPublished(ctx, t, consumer))
	}

	keys := make([]string, 0, len(received))
	for _, m := range received {
		keys = append(keys, m.Key)
		assert.Equal(t, string(dataset.FamilyTenYearYield), m.Headers["family"])
		_, err := time.Parse(time.RFC3339, m.Headers["ingested_at"])
		assert.NoError(t, err, "ingested_at should be valid RFC3339")
		assert.Equal(t, m.Key, m.Body.Key)
		assert.Equal(t, domain.TermTenYear, m.Body.Record.Term)
	}
	assert.ElementsMatch(t, []string{"tenyear/2021-01-01", "tenyear/2021-02-01", "tenyear/2021-03-01"}, keys)

	for _, m := range received {
		if m.Key == "tenyear/2021-02-01" {
			assert.Nil(t, m.Body.Record.YieldReturn, "blank yield is published as null")
		}
	}
}
