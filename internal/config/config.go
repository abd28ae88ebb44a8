package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации генератора.
type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Kernel    KernelConfig    `yaml:"kernel"`
	Store     StoreConfig     `yaml:"store"`
	Sink      SinkConfig      `yaml:"sink"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	LogLevel  string          `yaml:"log_level"`
}

type GeneratorConfig struct {
	Steps              int     `yaml:"steps"`
	Epsilon            float64 `yaml:"epsilon"`
	MaxSampleAttempts  int     `yaml:"max_sample_attempts"`
	MaxCompileAttempts int     `yaml:"max_compile_attempts"`
	DifferenceRate     float64 `yaml:"difference_rate"`
	MinMagnitude       float64 `yaml:"min_magnitude"`
	MaxMagnitude       float64 `yaml:"max_magnitude"`
	InsetA             float64 `yaml:"inset_a"`
	InsetB             float64 `yaml:"inset_b"`
	Seed               int64   `yaml:"seed"` // 0: сид от текущего времени
	ExportDir          string  `yaml:"export_dir"`
}

type KernelConfig struct {
	Snap float64 `yaml:"snap"`
}

type StoreConfig struct {
	Path        string `yaml:"path"`
	Compression string `yaml:"compression"` // zstd | none
}

type SinkConfig struct {
	Kinds []string    `yaml:"kinds"` // store, nats, redis
	NATS  NATSConfig  `yaml:"nats"`
	Redis RedisConfig `yaml:"redis"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
	Subject string `yaml:"subject"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
	MaxLen   int64  `yaml:"max_len"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Steps:              2,
			Epsilon:            0.01,
			MaxSampleAttempts:  64,
			MaxCompileAttempts: 16,
			MinMagnitude:       1,
			MaxMagnitude:       4,
			InsetA:             0.5,
			InsetB:             0.5,
		},
		Kernel: KernelConfig{Snap: 1e-6},
		Store:  StoreConfig{Path: "data", Compression: "zstd"},
		Sink: SinkConfig{
			Kinds: []string{"store"},
			NATS:  NATSConfig{URL: "nats://127.0.0.1:4222", Stream: "SAMPLES", Subject: "samples"},
			Redis: RedisConfig{Addr: "localhost:6379", Key: "extrudegen:samples", MaxLen: 100000},
		},
		Telemetry: TelemetryConfig{ServiceName: "extrudegen"},
		LogLevel:  "INFO",
	}
}

// GetRESTPort возвращает REST порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "EXTRUDEGEN_REST_PORT", 8090)
}

// GetMetricsPort возвращает порт Prometheus метрик с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "EXTRUDEGEN_METRICS_PORT", 2112)
}

// GetPath возвращает каталог хранилища: config -> env -> "data"
func (s *StoreConfig) GetPath() string {
	if s.Path != "" {
		return s.Path
	}
	if env := os.Getenv("EXTRUDEGEN_STORE_PATH"); env != "" {
		return env
	}
	return "data"
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Validate проверяет согласованность параметров генератора
func (c *Config) Validate() error {
	g := c.Generator
	var errs []error
	if g.Epsilon <= 0 {
		errs = append(errs, fmt.Errorf("generator.epsilon must be positive, got %g", g.Epsilon))
	}
	if g.Steps < 1 {
		errs = append(errs, fmt.Errorf("generator.steps must be at least 1, got %d", g.Steps))
	}
	if g.MaxSampleAttempts < 1 || g.MaxCompileAttempts < 1 {
		errs = append(errs, errors.New("generator attempts must be at least 1"))
	}
	if g.MinMagnitude < 1 || g.MaxMagnitude <= g.MinMagnitude {
		errs = append(errs, fmt.Errorf("generator magnitude range [%g, %g) is invalid", g.MinMagnitude, g.MaxMagnitude))
	}
	if g.DifferenceRate < 0 || g.DifferenceRate > 1 {
		errs = append(errs, fmt.Errorf("generator.difference_rate must be in [0, 1], got %g", g.DifferenceRate))
	}
	switch c.Store.Compression {
	case "zstd", "none":
	default:
		errs = append(errs, fmt.Errorf("store.compression %q is not zstd or none", c.Store.Compression))
	}
	for _, kind := range c.Sink.Kinds {
		switch kind {
		case "store", "nats", "redis":
		default:
			errs = append(errs, fmt.Errorf("sink kind %q is unknown", kind))
		}
	}
	return errors.Join(errs...)
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV EXTRUDEGEN_CONFIG, иначе
// возвращает значения по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("EXTRUDEGEN_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
