package store

import (
	"context"
	"fmt"

	"github.com/syetrk/whatsapp-chat-viewer/internal/pkg/config"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

// Open создает хранилище медиа по конфигурации. Возвращаемую функцию закрытия нужно вызвать при остановке.
func Open(ctx context.Context, cfg config.Storage) (ports.MediaStore, func() error, error) {
	switch cfg.Backend {
	case config.StorageMemory, "":
		return NewMemoryStore(), func() error { return nil }, nil
	case config.StorageRedis:
		s, err := NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
