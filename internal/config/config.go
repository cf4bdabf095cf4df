package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Session   SessionConfig   `yaml:"session"`
	Replay    ReplayConfig    `yaml:"replay"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SessionConfig параметры симуляции
type SessionConfig struct {
	Seed           int64   `yaml:"seed"`
	TickRate       int     `yaml:"tick_rate"`
	SampleInterval float64 `yaml:"sample_interval"`
	Duration       float64 `yaml:"duration"`
	NPCCount       int     `yaml:"npc_count"`
	ArenaRadius    float64 `yaml:"arena_radius"`
}

// ReplayConfig параметры воспроизведения
type ReplayConfig struct {
	AutoReplay  bool `yaml:"auto_replay"`
	AutoArchive bool `yaml:"auto_archive"`
}

// StorageConfig выбор и параметры хранилища архивов.
// Backend: memory | badger | redis | maria
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	BadgerDir string `yaml:"badger_dir"`
	RedisAddr string `yaml:"redis_addr"`
	MariaDSN  string `yaml:"maria_dsn"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type AuthConfig struct {
	OperatorSecret string `yaml:"operator_secret"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	FileLogs bool   `yaml:"file_logs"`
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getIntWithEnvFallback(s.RESTPort, "BRAWL_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getIntWithEnvFallback(s.MetricsPort, "BRAWL_METRICS_PORT", 2112)
}

// GetSeed возвращает сид сессии. 0 → env BRAWL_SEED → текущее время.
func (s *SessionConfig) GetSeed() int64 {
	if s.Seed != 0 {
		return s.Seed
	}
	if envVal := os.Getenv("BRAWL_SEED"); envVal != "" {
		if seed, err := strconv.ParseInt(envVal, 10, 64); err == nil && seed != 0 {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// GetTickRate возвращает частоту тиков в секунду
func (s *SessionConfig) GetTickRate() int {
	return getIntWithEnvFallback(s.TickRate, "BRAWL_TICK_RATE", 30)
}

// GetSampleInterval возвращает интервал записи позиций в секундах
func (s *SessionConfig) GetSampleInterval() float64 {
	return getFloatWithEnvFallback(s.SampleInterval, "BRAWL_SAMPLE_INTERVAL", 0.1)
}

// GetDuration возвращает длительность записи до автоматического replay (0 = без ограничения)
func (s *SessionConfig) GetDuration() float64 {
	return getFloatWithEnvFallback(s.Duration, "BRAWL_DURATION", 0)
}

// GetNPCCount возвращает количество NPC при старте сессии
func (s *SessionConfig) GetNPCCount() int {
	return getIntWithEnvFallback(s.NPCCount, "BRAWL_NPC_COUNT", 2)
}

// GetArenaRadius возвращает радиус арены
func (s *SessionConfig) GetArenaRadius() float64 {
	return getFloatWithEnvFallback(s.ArenaRadius, "BRAWL_ARENA_RADIUS", 8)
}

// GetBackend возвращает бэкенд хранилища архивов
func (s *StorageConfig) GetBackend() string {
	return getStringWithEnvFallback(s.Backend, "BRAWL_STORAGE", "memory")
}

// GetBadgerDir возвращает каталог BadgerDB
func (s *StorageConfig) GetBadgerDir() string {
	return getStringWithEnvFallback(s.BadgerDir, "BRAWL_BADGER_DIR", "data/replays")
}

// GetRedisAddr возвращает адрес Redis
func (s *StorageConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(s.RedisAddr, "BRAWL_REDIS_ADDR", "localhost:6379")
}

// GetMariaDSN возвращает DSN MariaDB
func (s *StorageConfig) GetMariaDSN() string {
	return getStringWithEnvFallback(s.MariaDSN, "BRAWL_MARIA_DSN", "brawl:brawl@tcp(localhost:3306)/brawl?parseTime=true")
}

// GetStream возвращает имя JetStream стрима
func (e *EventBusConfig) GetStream() string {
	return getStringWithEnvFallback(e.Stream, "BRAWL_NATS_STREAM", "BRAWL_EVENTS")
}

// GetRetention возвращает время хранения событий
func (e *EventBusConfig) GetRetention() time.Duration {
	return time.Duration(getIntWithEnvFallback(e.Retention, "BRAWL_NATS_RETENTION_HOURS", 24)) * time.Hour
}

// GetServiceName возвращает имя сервиса для трассировки
func (t *TelemetryConfig) GetServiceName() string {
	return getStringWithEnvFallback(t.ServiceName, "BRAWL_SERVICE_NAME", "brawl-replay")
}

// GetOperatorSecret возвращает секрет операторских токенов
func (a *AuthConfig) GetOperatorSecret() string {
	return getStringWithEnvFallback(a.OperatorSecret, "BRAWL_OPERATOR_SECRET", "")
}

// GetLevel возвращает уровень логирования
func (l *LoggingConfig) GetLevel() string {
	return getStringWithEnvFallback(l.Level, "BRAWL_LOG_LEVEL", "info")
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	// Если значение задано в конфиге и больше 0, используем его
	if configValue > 0 {
		return configValue
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	// Используем дефолтное значение
	return defaultValue
}

func getFloatWithEnvFallback(configValue float64, envVar string, defaultValue float64) float64 {
	if configValue > 0 {
		return configValue
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.ParseFloat(envVal, 64); err == nil && v > 0 {
			return v
		}
	}
	return defaultValue
}

func getStringWithEnvFallback(configValue, envVar, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultValue
}

// Default возвращает конфигурацию без файла: все поля берутся из env и дефолтов
func Default() *Config {
	return &Config{}
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV BRAWL_CONFIG или возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("BRAWL_CONFIG")
		if path == "" {
			return Default(), nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	return &cfg, nil
}
