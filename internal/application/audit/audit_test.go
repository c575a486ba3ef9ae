package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Status string `json:"status"`
}

func TestRun_RegistraAntesYDespues(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))
	ctx := WithActor(context.Background(), "supervisor-1")

	got, err := Run(ctx, sink, "sale.void", "s1", snapshot{Status: "ISSUED"}, func() (snapshot, error) {
		return snapshot{Status: "VOID"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "VOID", got.Status)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "sale.void", line["action"])
	assert.Equal(t, "s1", line["entity_id"])
	assert.Equal(t, "supervisor-1", line["actor"])
	assert.Equal(t, map[string]any{"status": "ISSUED"}, line["before"])
	assert.Equal(t, map[string]any{"status": "VOID"}, line["after"])
}

func TestRun_ErrorSinAfter(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))
	boom := errors.New("boom")

	_, err := Run(context.Background(), sink, "stock.adjust", "p1", 5, func() (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "boom", line["error"])
	assert.Nil(t, line["after"])
}

func TestRun_SinSink(t *testing.T) {
	got, err := Run(context.Background(), nil, "x", "1", 1, func() (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}
