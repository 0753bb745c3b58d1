// Package store содержит реализации хранилища медиафайлов.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

// MemoryStore: потокобезопасное хранилище медиа в памяти процесса.
type MemoryStore struct {
	mu    sync.RWMutex
	media domain.MediaMap
}

// NewMemoryStore создает пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{media: make(domain.MediaMap)}
}

// PutAll добавляет файлы, перезаписывая одноименные.
func (s *MemoryStore) PutAll(_ context.Context, media domain.MediaMap) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, url := range media {
		s.media[name] = url
	}
	return len(media), nil
}

// Get возвращает ссылку на содержимое файла.
func (s *MemoryStore) Get(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	url, ok := s.media[name]
	if !ok {
		return "", ports.ErrMediaNotFound
	}
	return url, nil
}

// Keys возвращает отсортированный список имен.
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.media))
	for k := range s.media {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// GetAll возвращает копию всех файлов.
func (s *MemoryStore) GetAll(_ context.Context) (domain.MediaMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(domain.MediaMap, len(s.media))
	for k, v := range s.media {
		out[k] = v
	}
	return out, nil
}

// Clear удаляет все файлы.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.media = make(domain.MediaMap)
	return nil
}
