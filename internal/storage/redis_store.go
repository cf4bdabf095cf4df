package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/brawl-replay/internal/logging"
)

// RedisStore хранит архивы в Redis как горячую общую копию.
// Ключи: <prefix>archive:<id> → закодированный архив,
// <prefix>index → sorted set id по времени создания,
// <prefix>summary:<id> → JSON описания.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	codec     *Codec
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни архивов (0 = без ограничения)
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		KeyPrefix: "brawl:replay:",
		TTL:       0,
	}
}

// NewRedisStore подключается к Redis
func NewRedisStore(ctx context.Context, config *RedisConfig) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	// Создаём клиент Redis
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	codec, err := NewCodec()
	if err != nil {
		client.Close()
		return nil, err
	}

	logging.GetStorageLogger().Info("🔴 Connected to Redis at %s", config.Addr)
	return &RedisStore{
		client:    client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
		codec:     codec,
	}, nil
}

func (s *RedisStore) archiveKey(id string) string { return s.keyPrefix + "archive:" + id }
func (s *RedisStore) summaryKey(id string) string { return s.keyPrefix + "summary:" + id }
func (s *RedisStore) indexKey() string            { return s.keyPrefix + "index" }

// Save сохраняет архив пайплайном
func (s *RedisStore) Save(ctx context.Context, a *Archive) error {
	if err := a.Validate(); err != nil {
		return err
	}
	data, err := s.codec.Encode(a)
	if err != nil {
		return err
	}
	summary, err := encodeSummary(a.Summary())
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.archiveKey(a.ID), data, s.ttl)
	pipe.Set(ctx, s.summaryKey(a.ID), summary, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), &redis.Z{Score: float64(a.CreatedAt.UnixNano()), Member: a.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save archive %s: %w", a.ID, err)
	}
	return nil
}

// Load загружает архив
func (s *RedisStore) Load(ctx context.Context, id string) (*Archive, error) {
	data, err := s.client.Get(ctx, s.archiveKey(id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get archive %s: %w", id, err)
	}
	return s.codec.Decode(data)
}

// List читает описания по индексу, новые первыми.
// Истёкшие по TTL архивы удаляются из индекса.
func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	if len(ids) == 0 {
		return []Summary{}, nil
	}

	// Получаем описания пайплайном
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.summaryKey(id))
	}
	_, err = pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get summaries: %w", err)
	}

	log := logging.GetStorageLogger()
	list := make([]Summary, 0, len(ids))
	var stale []interface{}
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			stale = append(stale, ids[i])
			continue
		} else if err != nil {
			log.Warn("⚠️ Failed to get summary for %s: %v", ids[i], err)
			continue
		}

		summary, err := decodeSummary(data)
		if err != nil {
			log.Warn("⚠️ Failed to unmarshal summary for %s: %v", ids[i], err)
			continue
		}
		list = append(list, summary)
	}

	if len(stale) > 0 {
		s.client.ZRem(ctx, s.indexKey(), stale...)
	}
	sortSummaries(list)
	return list, nil
}

// Delete удаляет архив
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	removed, err := s.client.Del(ctx, s.archiveKey(id), s.summaryKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete archive %s: %w", id, err)
	}
	s.client.ZRem(ctx, s.indexKey(), id)
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close закрывает соединение с Redis
func (s *RedisStore) Close() error {
	return s.client.Close()
}
