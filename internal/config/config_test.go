package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Setenv("EXTRUDEGEN_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate(), "Значения по умолчанию должны быть валидны")
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
generator:
  steps: 3
  epsilon: 0.001
  difference_rate: 0.25
kernel:
  snap: 0.0001
sink:
  kinds: [store, nats]
  nats:
    subject: training
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Generator.Steps)
	assert.Equal(t, 0.001, cfg.Generator.Epsilon)
	assert.Equal(t, 0.25, cfg.Generator.DifferenceRate)
	assert.Equal(t, 64, cfg.Generator.MaxSampleAttempts, "Незаданные поля берутся по умолчанию")
	assert.Equal(t, 1e-4, cfg.Kernel.Snap)
	assert.Equal(t, []string{"store", "nats"}, cfg.Sink.Kinds)
	assert.Equal(t, "training", cfg.Sink.NATS.Subject)
	assert.Equal(t, "SAMPLES", cfg.Sink.NATS.Stream)
}

func TestLoad_FromEnv(t *testing.T) {
	path := writeConfig(t, "generator:\n  steps: 5\n")
	t.Setenv("EXTRUDEGEN_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Generator.Steps)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "generator: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "generator:\n  epsilon: -1\n"))
	assert.ErrorContains(t, err, "epsilon")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Generator.MinMagnitude = 4
	cfg.Generator.DifferenceRate = 2
	cfg.Store.Compression = "lz4"
	cfg.Sink.Kinds = []string{"kafka"}

	err := cfg.Validate()
	require.Error(t, err)
	for _, part := range []string{"magnitude", "difference_rate", "lz4", "kafka"} {
		assert.ErrorContains(t, err, part)
	}
}

func TestServerConfig_PortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("EXTRUDEGEN_REST_PORT", "")
	assert.Equal(t, 8090, s.GetRESTPort())

	t.Setenv("EXTRUDEGEN_REST_PORT", "9999")
	assert.Equal(t, 9999, s.GetRESTPort())

	t.Setenv("EXTRUDEGEN_METRICS_PORT", "oops")
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort(), "Конфиг важнее окружения")
}

func TestStoreConfig_GetPath(t *testing.T) {
	t.Setenv("EXTRUDEGEN_STORE_PATH", "/tmp/samples")
	assert.Equal(t, "/tmp/samples", (&StoreConfig{}).GetPath())
	assert.Equal(t, "x", (&StoreConfig{Path: "x"}).GetPath())
}
