package dataset

import (
	"context"
	"testing"

	"github.com/annel0/extrudegen/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiSink_FanOut(t *testing.T) {
	a, b := &memorySink{}, &memorySink{failAt: 1}
	multi := MultiSink{a, b}

	err := multi.Put(context.Background(), testSample(1))
	assert.ErrorContains(t, err, "sink down")
	assert.Len(t, a.samples, 1, "Ошибка одного приемника не мешает остальным")

	require.NoError(t, multi.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestStoreSink(t *testing.T) {
	store := openTestStore(t, "zstd")
	sink := NewStoreSink(store)
	s := testSample(3)

	require.NoError(t, sink.Put(context.Background(), s))
	require.NoError(t, sink.Close())

	got, err := store.Get(s.ID.String())
	require.NoError(t, err, "Close не должен закрывать чужое хранилище")
	assert.Equal(t, s.Seed, got.Seed)
}

func TestNewSinkFromConfig_StoreWithMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = t.TempDir()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	sink, err := NewSinkFromConfig(context.Background(), cfg, nil, metrics)
	require.NoError(t, err)
	require.NoError(t, sink.Put(context.Background(), testSample(1)))
	require.NoError(t, sink.Close())

	store, err := OpenStore(cfg.Store.Path, "zstd")
	require.NoError(t, err, "Хранилище приемника должно быть закрыто")
	defer store.Close()
	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, testutil.ToFloat64(metrics.sinkErrors.WithLabelValues("store")))
}

func TestNewSinkFromConfig_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.Sink.Kinds = nil
	_, err := NewSinkFromConfig(context.Background(), cfg, nil, nil)
	assert.Error(t, err)

	cfg.Sink.Kinds = []string{"kafka"}
	_, err = NewSinkFromConfig(context.Background(), cfg, nil, nil)
	assert.ErrorContains(t, err, "kafka")
}

func TestNewSinkFromConfig_UnreachableBrokers(t *testing.T) {
	cfg := config.Default()
	cfg.Sink.NATS.URL = "nats://127.0.0.1:1"
	cfg.Sink.Redis.Addr = "127.0.0.1:1"

	cfg.Sink.Kinds = []string{"nats"}
	_, err := NewSinkFromConfig(context.Background(), cfg, nil, nil)
	assert.ErrorContains(t, err, "nats connect")

	cfg.Sink.Kinds = []string{"redis"}
	_, err = NewSinkFromConfig(context.Background(), cfg, nil, nil)
	assert.ErrorContains(t, err, "Redis")
}
