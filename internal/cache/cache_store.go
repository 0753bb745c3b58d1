package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

// CacheItem представляет кэшированный результат разбора
type CacheItem struct {
	Chat      *domain.ParsedChat
	ExpiresAt time.Time
}

// Stats: счетчики обращений к кэшу.
type Stats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// Option настраивает CacheStore.
type Option func(*CacheStore)

// WithMaxEntries ограничивает число записей. При переполнении вытесняется запись,
// срок которой истекает раньше остальных. 0 - без ограничения.
func WithMaxEntries(n int) Option {
	return func(cs *CacheStore) {
		if n >= 0 {
			cs.maxEntries = n
		}
	}
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(cs *CacheStore) {
		if now != nil {
			cs.now = now
		}
	}
}

// CacheStore хранит результаты разбора по хешу загруженного экспорта.
// Наружу всегда отдаются копии: получатель может догружать медиа, не затрагивая кэш.
type CacheStore struct {
	mu         sync.RWMutex
	items      map[string]CacheItem
	maxEntries int
	now        func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCacheStore создает пустой кэш.
func NewCacheStore(opts ...Option) *CacheStore {
	cs := &CacheStore{
		items: make(map[string]CacheItem),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// Get возвращает копию результата, если он есть и не просрочен.
func (cs *CacheStore) Get(key string) (*CacheItem, bool) {
	cs.mu.RLock()
	item, ok := cs.items[key]
	cs.mu.RUnlock()

	if !ok || cs.now().After(item.ExpiresAt) {
		cs.misses.Add(1)
		return nil, false
	}

	cs.hits.Add(1)
	return &CacheItem{Chat: item.Chat.Clone(), ExpiresAt: item.ExpiresAt}, true
}

// Put сохраняет копию результата на ttl.
func (cs *CacheStore) Put(key string, chat *domain.ParsedChat, ttl time.Duration) {
	item := CacheItem{Chat: chat.Clone(), ExpiresAt: cs.now().Add(ttl)}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, exists := cs.items[key]; !exists && cs.maxEntries > 0 && len(cs.items) >= cs.maxEntries {
		cs.evictLocked()
	}
	cs.items[key] = item
}

// Delete удаляет запись.
func (cs *CacheStore) Delete(key string) {
	cs.mu.Lock()
	delete(cs.items, key)
	cs.mu.Unlock()
}

// evictLocked освобождает место: сначала выбрасываются просроченные записи,
// если их нет, то запись с ближайшим сроком.
func (cs *CacheStore) evictLocked() {
	if cs.removeExpiredLocked() > 0 {
		return
	}

	var (
		victim string
		oldest time.Time
	)
	for key, item := range cs.items {
		if victim == "" || item.ExpiresAt.Before(oldest) {
			victim, oldest = key, item.ExpiresAt
		}
	}
	delete(cs.items, victim)
}

func (cs *CacheStore) removeExpiredLocked() int {
	now := cs.now()
	removed := 0
	for key, item := range cs.items {
		if now.After(item.ExpiresAt) {
			delete(cs.items, key)
			removed++
		}
	}
	return removed
}

// Len возвращает число записей, включая еще не удаленные просроченные.
func (cs *CacheStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.items)
}

// Stats возвращает текущие счетчики.
func (cs *CacheStore) Stats() Stats {
	return Stats{
		Entries: cs.Len(),
		Hits:    cs.hits.Load(),
		Misses:  cs.misses.Load(),
	}
}

// CleanupExpired удаляет просроченные записи и возвращает их количество.
func (cs *CacheStore) CleanupExpired() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.removeExpiredLocked()
}

// StartCleanupTicker периодически чистит кэш до отмены ctx.
func (cs *CacheStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs.CleanupExpired()
			}
		}
	}()
}

// CalculateHash возвращает hex SHA-256 данных. Это ключ кэша для загруженного экспорта.
func CalculateHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile считает тот же ключ для файла на диске, не загружая его в память целиком.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
