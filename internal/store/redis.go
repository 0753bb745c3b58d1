package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

// RedisStore хранит медиа в одном хеше Redis: поле хранит имя файла, значение хранит data URL.
// Позволяет нескольким экземплярам сервера и воркерам работать с одной таблицей медиа.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// RedisOptions: параметры подключения.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Key: имя хеша; по умолчанию "chatviewer:media".
	Key string
	// TTL: время жизни хеша после последней записи; 0 отключает ограничение.
	TTL time.Duration
}

// NewRedisStore создает хранилище и проверяет соединение.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	key := opts.Key
	if key == "" {
		key = "chatviewer:media"
	}
	return &RedisStore{client: client, key: key, ttl: opts.TTL}, nil
}

// PutAll записывает все файлы одной транзакцией.
func (s *RedisStore) PutAll(ctx context.Context, media domain.MediaMap) (int, error) {
	if len(media) == 0 {
		return 0, nil
	}

	values := make(map[string]interface{}, len(media))
	for k, v := range media {
		values[k] = v
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, values)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to store media: %w", err)
	}
	return len(media), nil
}

// Get возвращает ссылку на содержимое файла.
func (s *RedisStore) Get(ctx context.Context, name string) (string, error) {
	url, err := s.client.HGet(ctx, s.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", ports.ErrMediaNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get media %s: %w", name, err)
	}
	return url, nil
}

// Keys возвращает отсортированный список имен.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.HKeys(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// GetAll возвращает все файлы.
func (s *RedisStore) GetAll(ctx context.Context) (domain.MediaMap, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load media: %w", err)
	}
	return domain.MediaMap(all), nil
}

// Clear удаляет хеш целиком.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear media: %w", err)
	}
	return nil
}

// Close закрывает соединение.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
