package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/brawl-replay/internal/eventbus"
	"github.com/annel0/brawl-replay/internal/history"
	"github.com/annel0/brawl-replay/internal/logging"
	"github.com/annel0/brawl-replay/internal/middleware"
	"github.com/annel0/brawl-replay/internal/session"
	"github.com/annel0/brawl-replay/internal/storage"
)

// RestServer представляет REST API управления сессией
type RestServer struct {
	router      *gin.Engine
	httpServer  *http.Server
	runner      *session.Runner
	store       storage.Store
	metrics     *ServerMetrics
	authEnabled bool
	log         *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port   string          // порт для запуска сервера
	Runner *session.Runner // цикл тиков сессии
	Store  storage.Store   // хранилище архивов
	// AuthEnabled требовать JWT оператора для управляющих запросов
	AuthEnabled bool
	// Registry регистр HTTP-метрик и источник /metrics; nil: дефолтный
	Registry *prometheus.Registry
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	log := logging.GetComponentLogger("http")

	// === Observability middleware ===
	router.Use(otelgin.Middleware("brawl_api"))
	router.Use(middleware.NewRequestLogger(log).Handler())

	var (
		reg      prometheus.Registerer
		gatherer prometheus.Gatherer
	)
	if config.Registry != nil {
		reg, gatherer = config.Registry, config.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("brawl_api", reg)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, gatherer)

	server := &RestServer{
		router:      router,
		runner:      config.Runner,
		store:       config.Store,
		metrics:     NewServerMetrics(),
		authEnabled: config.AuthEnabled,
		log:         log,
	}
	server.httpServer = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Настраиваем маршруты
	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(corsMiddleware())

	// Группа API
	api := rs.router.Group("/api")
	{
		api.GET("/session", rs.handleSession)
		api.GET("/archives", rs.handleListArchives)
		api.GET("/archives/:id", rs.handleGetArchive)
		api.GET("/stats", rs.handleStats)
	}

	// Управляющие эндпоинты (требуют JWT оператора)
	control := api.Group("/")
	control.Use(rs.operatorMiddleware())
	{
		control.POST("/replay", rs.handleStartReplay)
		control.POST("/replay/stop", rs.handleStopReplay)
		control.POST("/input", rs.handleInput)
		control.POST("/archive", rs.handleSaveArchive)
		control.POST("/archives/:id/load", rs.handleLoadArchive)
		control.DELETE("/archives/:id", rs.handleDeleteArchive)
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает http.Handler сервера (для тестов)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ArchiveResponse архив с декодированными записями
type ArchiveResponse struct {
	storage.Summary
	Records []storage.Record `json:"records"`
}

func (rs *RestServer) fail(c *gin.Context, status int, message string, err error) {
	if err != nil {
		rs.log.Debug("%s %s: %s: %v", c.Request.Method, c.Request.URL.Path, message, err)
		message = fmt.Sprintf("%s: %v", message, err)
	}
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

// statusFor переводит ошибки домена в HTTP-статус
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidArchive), errors.Is(err, history.ErrUnorderedLog):
		return http.StatusUnprocessableEntity
	case errors.Is(err, history.ErrReplaying), errors.Is(err, session.ErrNoLocalPlayer):
		return http.StatusConflict
	case errors.Is(err, session.ErrRunnerStopped), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (rs *RestServer) handleSession(c *gin.Context) {
	c.JSON(http.StatusOK, rs.runner.Snapshot())
}

func (rs *RestServer) handleStartReplay(c *gin.Context) {
	err := rs.runner.Do(c.Request.Context(), func(s *session.Session) error {
		s.StartReplay(c.Request.Context())
		return nil
	})
	if err != nil {
		rs.fail(c, statusFor(err), "Не удалось запустить replay", err)
		return
	}
	snap := rs.runner.Snapshot()
	c.JSON(http.StatusAccepted, GenericResponse{
		Success: true,
		Message: "Replay запущен",
		Data:    gin.H{"commands": snap.Commands, "duration": snap.Duration},
	})
}

func (rs *RestServer) handleStopReplay(c *gin.Context) {
	var wasReplaying bool
	err := rs.runner.Do(c.Request.Context(), func(s *session.Session) error {
		wasReplaying = s.History().IsReplaying()
		s.StopReplay()
		return nil
	})
	if err != nil {
		rs.fail(c, statusFor(err), "Не удалось остановить replay", err)
		return
	}
	if !wasReplaying {
		rs.fail(c, http.StatusConflict, "Replay не запущен", nil)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Replay остановлен"})
}

func (rs *RestServer) handleInput(c *gin.Context) {
	var in session.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный формат запроса", err)
		return
	}
	err := rs.runner.Do(c.Request.Context(), func(s *session.Session) error {
		if err := s.SetInput(in); err != nil {
			return err
		}
		s.SetAutopilot(false)
		return nil
	})
	if err != nil {
		rs.fail(c, statusFor(err), "Ввод отклонён", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Ввод принят"})
}

func (rs *RestServer) handleSaveArchive(c *gin.Context) {
	if rs.store == nil {
		rs.fail(c, http.StatusServiceUnavailable, "Хранилище архивов не настроено", nil)
		return
	}

	var archive *storage.Archive
	err := rs.runner.Do(c.Request.Context(), func(s *session.Session) error {
		var err error
		archive, err = s.Archive()
		return err
	})
	if err != nil {
		rs.fail(c, statusFor(err), "Не удалось собрать архив", err)
		return
	}
	if err := rs.store.Save(c.Request.Context(), archive); err != nil {
		rs.fail(c, statusFor(err), "Не удалось сохранить архив", err)
		return
	}

	summary := archive.Summary()
	if ev, err := eventbus.NewEnvelope("brawl-api", eventbus.TypeArchiveSaved, archive.SessionID, 3, summary); err == nil {
		_ = eventbus.Publish(c.Request.Context(), ev)
	}
	rs.log.Info("💾 Архив %s сохранён через API: %d команд", archive.ID, summary.Commands)
	c.JSON(http.StatusCreated, GenericResponse{Success: true, Message: "Архив сохранён", Data: summary})
}

func (rs *RestServer) handleListArchives(c *gin.Context) {
	if rs.store == nil {
		rs.fail(c, http.StatusServiceUnavailable, "Хранилище архивов не настроено", nil)
		return
	}
	list, err := rs.store.List(c.Request.Context())
	if err != nil {
		rs.fail(c, statusFor(err), "Не удалось получить список архивов", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Архивы получены", Data: list})
}

func (rs *RestServer) handleGetArchive(c *gin.Context) {
	if rs.store == nil {
		rs.fail(c, http.StatusServiceUnavailable, "Хранилище архивов не настроено", nil)
		return
	}
	archive, err := rs.store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		rs.fail(c, statusFor(err), "Архив недоступен", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Архив получен",
		Data:    ArchiveResponse{Summary: archive.Summary(), Records: archive.Records},
	})
}

// handleLoadArchive загружает архив в сессию; ?replay=false не запускает воспроизведение
func (rs *RestServer) handleLoadArchive(c *gin.Context) {
	if rs.store == nil {
		rs.fail(c, http.StatusServiceUnavailable, "Хранилище архивов не настроено", nil)
		return
	}
	archive, err := rs.store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		rs.fail(c, statusFor(err), "Архив недоступен", err)
		return
	}

	startReplay := c.DefaultQuery("replay", "true") != "false"
	err = rs.runner.Do(c.Request.Context(), func(s *session.Session) error {
		if err := s.LoadArchive(archive); err != nil {
			return err
		}
		if startReplay {
			s.StartReplay(c.Request.Context())
		}
		return nil
	})
	if err != nil {
		rs.fail(c, statusFor(err), "Не удалось загрузить архив", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Архив загружен", Data: archive.Summary()})
}

func (rs *RestServer) handleDeleteArchive(c *gin.Context) {
	if rs.store == nil {
		rs.fail(c, http.StatusServiceUnavailable, "Хранилище архивов не настроено", nil)
		return
	}
	if err := rs.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		rs.fail(c, statusFor(err), "Не удалось удалить архив", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Архив удалён"})
}

// handleStats обрабатывает запрос статистики сессии и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	snap := rs.runner.Snapshot()
	stats := gin.H{
		"session": gin.H{
			"id":                snap.SessionID,
			"state":             snap.State,
			"tick":              snap.Tick,
			"brawlers":          len(snap.Brawlers),
			"commands":          snap.Commands,
			"replays_completed": snap.ReplaysCompleted,
		},
		"server": rs.metrics.Collect(),
	}
	if bus := eventbus.Global(); bus != nil {
		stats["eventbus"] = bus.Metrics()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleHealth обрабатывает health check
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает сервер; блокирует до Stop
func (rs *RestServer) Start() error {
	rs.log.Info("🌐 REST API слушает %s", rs.httpServer.Addr)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop плавно останавливает сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpServer.Shutdown(ctx)
}
