package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/extrudegen/internal/api"
	"github.com/annel0/extrudegen/internal/config"
	"github.com/annel0/extrudegen/internal/dataset"
	"github.com/annel0/extrudegen/internal/logging"
	"github.com/annel0/extrudegen/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "Путь к YAML конфигурации (иначе EXTRUDEGEN_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	logging.SetLevels(logging.ParseLevel(cfg.LogLevel), logging.TRACE)

	err = run(cfg)
	if err != nil {
		logging.Error("❌ %v", err)
	}
	if cerr := logging.CloseComponents(); cerr != nil {
		logging.Warn("Ошибка закрытия логов компонентов: %v", cerr)
	}
	logging.CloseDefaultLogger()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("Запуск extrudegen: steps=%d epsilon=%g snap=%g", cfg.Generator.Steps, cfg.Generator.Epsilon, cfg.Kernel.Snap)

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer shutdownTelemetry(context.Background())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := dataset.NewMetrics(registry)

	store, err := dataset.OpenStore(cfg.Store.GetPath(), cfg.Store.Compression)
	if err != nil {
		return err
	}
	defer store.Close()
	logging.Info("Хранилище примеров: %s", store.Path())

	sink, err := dataset.NewSinkFromConfig(ctx, cfg, store, metrics)
	if err != nil {
		return err
	}
	defer sink.Close()

	generator := dataset.NewGenerator(dataset.MeshKernelFactory(cfg.Kernel.Snap), dataset.OptionsFromConfig(cfg.Generator), metrics)
	generator.SetLogger(logging.Component("generator"))

	gin.SetMode(gin.ReleaseMode)
	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	server := api.NewRestServer(api.Config{
		Port:      restPort,
		Generator: generator,
		Store:     store,
		Sink:      sink,
		Registry:  registry,
	})

	metricsAddr := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())
	metricsServer := &http.Server{
		Addr:              metricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	logging.Info("   🌐 REST API: http://localhost%s/api", restPort)
	logging.Info("   curl -X POST 'http://localhost%s/api/samples?seed=1'", restPort)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("rest api: %w", err)
		}
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, остановка...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("Ошибка остановки REST API: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("Ошибка остановки сервера метрик: %v", err)
	}
	logging.Info("👋 Сервер остановлен")
	return nil
}
