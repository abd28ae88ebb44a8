// Package api HTTP-сервис генерации примеров: выдача, хранение и компиляция
// программ выдавливания.
package api

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/extrudegen/internal/dataset"
	"github.com/annel0/extrudegen/internal/logging"
	"github.com/annel0/extrudegen/internal/middleware"
	"github.com/annel0/extrudegen/internal/program"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const defaultListLimit = 50

// RestServer представляет REST API сервер
type RestServer struct {
	router     *gin.Engine
	port       string
	generator  *dataset.Generator
	store      *dataset.Store
	sink       dataset.Sink
	metrics    *ServerMetrics
	httpServer *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port      string              // адрес для запуска сервера, ":8090"
	Generator *dataset.Generator  // обязателен
	Store     *dataset.Store      // если nil, список и чтение примеров недоступны
	Sink      dataset.Sink        // куда писать новые примеры; nil: в Store, если он задан
	Registry  middleware.Registry // регистр метрик; nil: глобальный
	Logger    *logging.Logger
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8090"
	}
	if config.Sink == nil && config.Store != nil {
		config.Sink = dataset.NewStoreSink(config.Store)
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	router.Use(otelgin.Middleware("extrudegen"))
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())

	promMw := middleware.NewPrometheusMiddleware("extrudegen_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:    router,
		port:      config.Port,
		generator: config.Generator,
		store:     config.Store,
		sink:      config.Sink,
		metrics:   NewServerMetrics(),
	}

	server.httpServer = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	api := rs.router.Group("/api")
	api.GET("/health", rs.handleHealth)
	api.GET("/stats", rs.handleStats)
	api.POST("/samples", rs.handleGenerate)
	api.GET("/samples", rs.handleList)
	api.GET("/samples/:id", rs.handleGet)
	api.POST("/compile", rs.handleCompile)
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler { return rs.router }

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleGenerate строит пример для seed (или случайного сида) и сохраняет его
func (rs *RestServer) handleGenerate(c *gin.Context) {
	seed := time.Now().UnixNano()
	if raw := c.Query("seed"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, "Некорректный seed: "+raw)
			return
		}
		seed = parsed
	}

	sample, err := rs.generator.Generate(c.Request.Context(), seed)
	if errors.Is(err, dataset.ErrCompileExhausted) || errors.Is(err, program.ErrGeometryExhausted) {
		_ = c.Error(err)
		fail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "Ошибка генерации")
		return
	}

	if rs.sink != nil {
		if err := rs.sink.Put(c.Request.Context(), sample); err != nil {
			_ = c.Error(err)
			fail(c, http.StatusBadGateway, "Пример построен, но не сохранен")
			return
		}
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Пример сгенерирован",
		Data:    sample,
	})
}

// handleList возвращает сохраненные примеры
func (rs *RestServer) handleList(c *gin.Context) {
	if rs.store == nil {
		fail(c, http.StatusServiceUnavailable, "Хранилище не настроено")
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			fail(c, http.StatusBadRequest, "Некорректный limit: "+raw)
			return
		}
		limit = parsed
	}

	samples, err := rs.store.List(limit)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "Ошибка чтения хранилища")
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: fmt.Sprintf("Примеров: %d", len(samples)),
		Data:    samples,
	})
}

// handleGet возвращает пример по ID
func (rs *RestServer) handleGet(c *gin.Context) {
	if rs.store == nil {
		fail(c, http.StatusServiceUnavailable, "Хранилище не настроено")
		return
	}

	sample, err := rs.store.Get(c.Param("id"))
	if errors.Is(err, dataset.ErrNotFound) {
		fail(c, http.StatusNotFound, "Пример не найден")
		return
	}
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "Ошибка чтения хранилища")
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Пример найден", Data: sample})
}

// CompileRequest программа для компиляции. Цель строится исполнением программы
// на пустой сцене с тем же seed.
type CompileRequest struct {
	Program program.Program `json:"program"`
	Seed    int64           `json:"seed"`
	Epsilon float64         `json:"epsilon,omitempty"`
}

// CompileResponse трасса действий
type CompileResponse struct {
	Trace program.Trace `json:"trace"`
	Steps int           `json:"steps"`
}

// handleCompile компилирует присланную программу
func (rs *RestServer) handleCompile(c *gin.Context) {
	var req CompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	if len(req.Program.Steps) == 0 {
		fail(c, http.StatusBadRequest, "Программа без шагов")
		return
	}
	epsilon := req.Epsilon
	if epsilon <= 0 {
		epsilon = rs.generator.Options().Epsilon
	}

	target, err := rs.generator.Reference(req.Program, req.Seed)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "Ядро отклонило программу: "+err.Error())
		return
	}

	trace, ok := req.Program.Compile(rand.New(rand.NewSource(req.Seed)), target, epsilon)
	if !ok {
		fail(c, http.StatusUnprocessableEntity, "Точка присоединения не найдена")
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Программа скомпилирована",
		Data:    CompileResponse{Trace: trace, Steps: len(trace.Steps())},
	})
}

// handleStats возвращает статистику сервера
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	if rs.store != nil {
		if n, err := rs.store.Count(); err == nil {
			stats["samples_stored"] = n
		}
	}

	stats["server"] = rs.metrics.Snapshot()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// Start запускает REST сервер; блокирует до Shutdown
func (rs *RestServer) Start() error {
	logging.Info("REST API запущен на %s", rs.port)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (rs *RestServer) Shutdown(ctx context.Context) error {
	return rs.httpServer.Shutdown(ctx)
}
