package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/brawl-replay/internal/api"
	"github.com/annel0/brawl-replay/internal/auth"
	"github.com/annel0/brawl-replay/internal/config"
	"github.com/annel0/brawl-replay/internal/eventbus"
	"github.com/annel0/brawl-replay/internal/logging"
	"github.com/annel0/brawl-replay/internal/observability"
	"github.com/annel0/brawl-replay/internal/session"
	"github.com/annel0/brawl-replay/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "Путь к YAML конфигурации (или BRAWL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем систему логирования
	level := logging.ParseLevel(cfg.Logging.GetLevel())
	if cfg.Logging.FileLogs {
		if err := logging.InitDefaultLogger("server"); err != nil {
			log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
		}
		logging.GetLoggerManager().EnableFileLogs(true)
	}
	defer logging.CloseDefaultLogger()
	logging.SetDefaultLevel(level)
	logging.GetLoggerManager().SetBaseLevel(level)
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🎮 Запуск brawl-replay сервера...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === ТРАССИРОВКА ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.GetServiceName())
		if err != nil {
			logging.Warn("⚠️ OpenTelemetry не запущен: %v", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(sctx)
			}()
		}
	}

	// === ШИНА СОБЫТИЙ ===
	bus, err := openEventBus(&cfg.EventBus)
	if err != nil {
		log.Fatalf("❌ Ошибка шины событий: %v", err)
	}
	defer bus.Close()
	eventbus.Init(bus)
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("⚠️ Логирование событий недоступно: %v", err)
	}

	// === МЕТРИКИ ===
	registry := prometheus.NewRegistry()
	replayMetrics := observability.NewReplayMetrics(registry)
	busMetrics := eventbus.NewMetricsExporter(bus, registry)
	if port := cfg.Server.GetMetricsPort(); port > 0 {
		busMetrics.StartHTTP(fmt.Sprintf(":%d", port), registry)
	} else {
		busMetrics.Start(time.Second)
	}
	defer busMetrics.Stop()

	// === ХРАНИЛИЩЕ АРХИВОВ ===
	store, err := storage.Open(ctx, &cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Ошибка открытия хранилища: %v", err)
	}
	defer store.Close()

	// === СЕССИЯ ===
	opts := session.OptionsFromConfig(&cfg.Session)
	opts.Metrics = replayMetrics
	sess, err := session.New(opts)
	if err != nil {
		log.Fatalf("❌ Ошибка создания сессии: %v", err)
	}
	runner := session.NewRunner(sess, session.RunnerOptions{
		AutoReplayAfter: autoReplayAfter(cfg),
		AutoArchive:     cfg.Replay.AutoArchive,
		Store:           store,
	})

	// === REST API ===
	secret := cfg.Auth.GetOperatorSecret()
	if secret != "" {
		if err := auth.SetJWTSecret(secret); err != nil {
			log.Fatalf("❌ Некорректный секрет операторов: %v", err)
		}
	}
	restServer := api.NewRestServer(api.Config{
		Port:        fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		Runner:      runner,
		Store:       store,
		AuthEnabled: secret != "",
		Registry:    registry,
	})
	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ Ошибка REST API: %v", err)
			stop()
		}
	}()

	logging.Info("✅ Сессия %s запущена: сид %d, %d Гц", sess.ID(), sess.Seed(), cfg.Session.GetTickRate())
	logging.Info("   🌐 REST API: http://localhost:%d", cfg.Server.GetRESTPort())
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetRESTPort())
	if secret == "" {
		logging.Warn("   🔓 Секрет операторов не задан, управляющие запросы открыты")
	}

	// Блокируемся до сигнала
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		logging.Error("❌ Цикл тиков завершился с ошибкой: %v", err)
	}

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Завершение работы...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

// openEventBus выбирает JetStream при заданном URL, иначе шину в памяти
func openEventBus(cfg *config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		logging.Info("📨 Шина событий: in-memory")
		return eventbus.NewMemoryBus(1024), nil
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.GetStream(), cfg.GetRetention())
	if err != nil {
		return nil, err
	}
	logging.Info("📨 Шина событий: JetStream %s (%s)", cfg.URL, cfg.GetStream())
	return bus, nil
}

// autoReplayAfter длительность записи до автоматического replay
func autoReplayAfter(cfg *config.Config) float64 {
	if !cfg.Replay.AutoReplay {
		return 0
	}
	if d := cfg.Session.GetDuration(); d > 0 {
		return d
	}
	return 30
}
