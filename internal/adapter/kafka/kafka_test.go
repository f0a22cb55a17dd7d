package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/homie-data/internal/config"
	"github.com/couchcryptid/homie-data/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	hpi := 512.34
	rec := domain.Ingested{
		Family: "three_zip_hpi",
		Key:    "926/2021",
		Record: domain.HomePriceIndex{
			RegionType: domain.RegionThreeZip,
			RegionName: "926",
			Year:       2021,
			HPI:        &hpi,
		},
		IngestedAt: now,
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("926/2021"), msg.Key)
	assert.Contains(t, string(msg.Value), `"region_type":"threezip"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "family", msg.Headers[0].Key)
	assert.Equal(t, []byte("three_zip_hpi"), msg.Headers[0].Value)
	assert.Equal(t, "ingested_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded struct {
		Family string                `json:"family"`
		Record domain.HomePriceIndex `json:"record"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "three_zip_hpi", decoded.Family)
	assert.Equal(t, 2021, decoded.Record.Year)
	require.NotNil(t, decoded.Record.HPI)
	assert.InEpsilon(t, 512.34, *decoded.Record.HPI, 0.0001)
}

func TestSerializeToMessage_InvalidEnum(t *testing.T) {
	_, err := serializeToMessage(domain.Ingested{
		Family: "mid_city_all_homes",
		Key:    "x",
		Record: domain.HomeValueSeries{RegionName: "x"},
	})
	require.Error(t, err)
}

func TestPublish_EmptyIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaTopic: "t"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	require.NoError(t, w.Publish(context.Background(), nil))
}
