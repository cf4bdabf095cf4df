package storage

import (
	"context"
	"fmt"

	"github.com/annel0/brawl-replay/internal/config"
	"github.com/annel0/brawl-replay/internal/logging"
)

// Open создаёт хранилище по конфигурации: memory | badger | redis | maria
func Open(ctx context.Context, cfg *config.StorageConfig) (Store, error) {
	backend := cfg.GetBackend()
	log := logging.GetStorageLogger()

	switch backend {
	case "memory":
		log.Info("💾 Хранилище архивов: memory")
		return NewMemoryStore(), nil
	case "badger":
		log.Info("💾 Хранилище архивов: badger (%s)", cfg.GetBadgerDir())
		return NewBadgerStore(cfg.GetBadgerDir())
	case "redis":
		rc := DefaultRedisConfig()
		rc.Addr = cfg.GetRedisAddr()
		return NewRedisStore(ctx, rc)
	case "maria", "mysql":
		log.Info("💾 Хранилище архивов: MariaDB")
		return NewMariaStore(ctx, cfg.GetMariaDSN())
	default:
		return nil, fmt.Errorf("неизвестный бэкенд хранилища: %s", backend)
	}
}
