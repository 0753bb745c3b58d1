package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/parser"
	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

// Результаты ленивой загрузки для LoadObserver.
const (
	LoadResultLoaded  = "loaded"
	LoadResultMissing = "missing"
	LoadResultError   = "error"
)

// LoadObserver получает результат каждой попытки догрузки (метрики).
type LoadObserver interface {
	ObserveLazyLoad(result string)
}

// Config хранит конфигурацию для MediaLoaderService.
type Config struct {
	// TotalTimeout: максимальная продолжительность догрузки всей переписки.
	TotalTimeout time.Duration
	// OperationTimeout: таймаут одного обращения к хранилищу медиа.
	OperationTimeout time.Duration
	// PoolSize: количество одновременных загрузок.
	PoolSize int
}

// Option: функциональная опция для настройки MediaLoaderService.
type Option func(*MediaLoaderService)

// WithTotalTimeout устанавливает общий таймаут догрузки.
func WithTotalTimeout(d time.Duration) Option {
	return func(s *MediaLoaderService) {
		s.config.TotalTimeout = d
	}
}

// WithOperationTimeout устанавливает таймаут одного обращения к хранилищу.
func WithOperationTimeout(d time.Duration) Option {
	return func(s *MediaLoaderService) {
		s.config.OperationTimeout = d
	}
}

// WithPoolSize устанавливает количество одновременных загрузок.
func WithPoolSize(n int) Option {
	return func(s *MediaLoaderService) {
		if n > 0 {
			s.config.PoolSize = n
		}
	}
}

// WithLogger устанавливает логгер для сервиса.
func WithLogger(l *slog.Logger) Option {
	return func(s *MediaLoaderService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver подключает наблюдателя за результатами загрузок.
func WithObserver(o LoadObserver) Option {
	return func(s *MediaLoaderService) {
		s.observer = o
	}
}

// MediaLoaderService догружает содержимое вложений, которые не удалось привязать при разборе.
// Сервис не хранит состояние и безопасен для одновременного использования.
type MediaLoaderService struct {
	store    ports.MediaStore
	config   Config
	log      *slog.Logger
	observer LoadObserver
}

// NewMediaLoader создает MediaLoaderService с конфигурацией по умолчанию,
// которая может быть переопределена опциями.
func NewMediaLoader(store ports.MediaStore, opts ...Option) *MediaLoaderService {
	s := &MediaLoaderService{
		store: store,
		config: Config{
			TotalTimeout:     2 * time.Minute,
			OperationTimeout: 5 * time.Second,
			PoolSize:         3,
		},
		log: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// loadTask: одно имя файла и все сообщения, которые на него ссылаются.
type loadTask struct {
	name string
	ids  []string
}

type loadResult struct {
	task loadTask
	key  string
	url  string
	err  error
}

// Load находит в переписке вложения без ссылки и подставляет ссылки из хранилища.
// Сообщения обновляются на месте по ID; порядок и количество сообщений не меняются.
// Возвращает число обновленных сообщений. При таймауте возвращается то, что успели загрузить.
func (s *MediaLoaderService) Load(ctx context.Context, chat *domain.ParsedChat) (int, error) {
	tasks := collectLoadTasks(chat)
	if len(tasks) == 0 {
		return 0, nil
	}

	cfg := s.config

	ctx, cancel := context.WithTimeout(ctx, cfg.TotalTimeout)
	defer cancel()

	keys, err := s.store.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list media: %w", err)
	}
	keys = append([]string(nil), keys...)
	sort.Strings(keys)

	s.log.InfoContext(ctx, "Starting media loading",
		"pending", len(tasks),
		"available", len(keys),
		"pool_size", cfg.PoolSize,
	)

	taskCh := make(chan loadTask, len(tasks))
	results := make(chan loadResult, len(tasks))
	var wg sync.WaitGroup

	for i := 0; i < cfg.PoolSize; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, &cfg, keys, taskCh, results)
	}

	for _, t := range tasks {
		taskCh <- t
	}
	close(taskCh)

	patched := 0
	var loadErrors []error

	for finished := 0; finished < len(tasks); finished++ {
		select {
		case res := <-results:
			switch {
			case res.err != nil:
				loadErrors = append(loadErrors, res.err)
				s.observe(LoadResultError)
			case res.url == "":
				s.observe(LoadResultMissing)
			default:
				for _, id := range res.task.ids {
					if msg, ok := chat.Message(id); ok {
						msg.MediaName = res.key
						msg.MediaURL = res.url
						if msg.MediaType == domain.MediaTypeUnknown {
							msg.MediaType = domain.MediaTypeFromFilename(res.key)
						}
						patched++
					}
				}
				s.observe(LoadResultLoaded)
			}
		case <-ctx.Done():
			err := fmt.Errorf("media loading timed out: %w", ctx.Err())
			s.log.WarnContext(ctx, "Media loading timed out", "patched", patched, "error", err)
			return patched, err
		}
	}

	wg.Wait()

	if len(loadErrors) > 0 {
		return patched, errors.Join(loadErrors...)
	}

	s.log.InfoContext(ctx, "Media loading finished", "patched", patched)
	return patched, nil
}

func (s *MediaLoaderService) worker(ctx context.Context, wg *sync.WaitGroup, cfg *Config, keys []string, tasks <-chan loadTask, results chan<- loadResult) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}

			key, found := parser.MatchName(t.name, keys)
			if !found {
				s.log.DebugContext(ctx, "Media file not found", "media_name", t.name)
				results <- loadResult{task: t}
				continue
			}

			opCtx, opCancel := context.WithTimeout(ctx, cfg.OperationTimeout)
			url, err := s.store.Get(opCtx, key)
			opCancel()

			switch {
			case errors.Is(err, ports.ErrMediaNotFound):
				results <- loadResult{task: t}
			case err != nil:
				s.log.WarnContext(ctx, "Failed to load media", "media_name", key, "error", err)
				results <- loadResult{task: t, err: fmt.Errorf("failed to load %s: %w", key, err)}
			default:
				results <- loadResult{task: t, key: key, url: url}
			}
		}
	}
}

func (s *MediaLoaderService) observe(result string) {
	if s.observer != nil {
		s.observer.ObserveLazyLoad(result)
	}
}

// collectLoadTasks группирует сообщения без ссылки по имени файла, сохраняя порядок первого появления.
func collectLoadTasks(chat *domain.ParsedChat) []loadTask {
	if chat == nil {
		return nil
	}
	index := make(map[string]int)
	var tasks []loadTask
	for _, msg := range chat.Messages {
		if !msg.NeedsMedia() {
			continue
		}
		i, ok := index[msg.MediaName]
		if !ok {
			i = len(tasks)
			index[msg.MediaName] = i
			tasks = append(tasks, loadTask{name: msg.MediaName})
		}
		tasks[i].ids = append(tasks[i].ids, msg.ID)
	}
	return tasks
}
