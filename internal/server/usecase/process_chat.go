package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/archive"
	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/source"
	"github.com/syetrk/whatsapp-chat-viewer/internal/cache"
	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/pkg/config"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

// ParseObserver получает результат каждого разбора (метрики).
type ParseObserver interface {
	ObserveParse(d time.Duration, chat *domain.ParsedChat)
	ObserveParseFailure()
}

type nopObserver struct{}

func (nopObserver) ObserveParse(time.Duration, *domain.ParsedChat) {}
func (nopObserver) ObserveParseFailure()                           {}

// ProcessChatUseCase инкапсулирует бизнес-логику разбора загруженного экспорта.
type ProcessChatUseCase struct {
	cfg        *config.Config
	parser     ports.Parser
	reader     *archive.Reader
	mediaStore ports.MediaStore
	cacheStore *cache.CacheStore
	observer   ParseObserver
}

// NewProcessChatUseCase создает новый экземпляр ProcessChatUseCase.
// observer может быть nil.
func NewProcessChatUseCase(
	cfg *config.Config,
	parser ports.Parser,
	reader *archive.Reader,
	mediaStore ports.MediaStore,
	cacheStore *cache.CacheStore,
	observer ParseObserver,
) *ProcessChatUseCase {
	if observer == nil {
		observer = nopObserver{}
	}
	return &ProcessChatUseCase{
		cfg:        cfg,
		parser:     parser,
		reader:     reader,
		mediaStore: mediaStore,
		cacheStore: cacheStore,
		observer:   observer,
	}
}

// ProcessChat разбирает экспорт (.txt или .zip), сохраняет его медиафайлы в хранилище
// и кэширует результат по хешу содержимого.
func (uc *ProcessChatUseCase) ProcessChat(ctx context.Context, name string, data []byte) (*domain.ParsedChat, error) {
	hash := cache.CalculateHash(data)

	if item, found := uc.cacheStore.Get(hash); found {
		slog.InfoContext(ctx, "Результат найден в кеше", "hash", hash, "file", name)
		return item.Chat, nil
	}

	export, err := source.NewMemorySource(name, data, uc.reader).Fetch()
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать экспорт: %w", err)
	}

	if len(export.Media) > 0 {
		stored, err := uc.mediaStore.PutAll(ctx, export.Media)
		if err != nil {
			return nil, fmt.Errorf("не удалось сохранить медиафайлы: %w", err)
		}
		slog.InfoContext(ctx, "Медиафайлы сохранены", "count", stored)
	}

	chat, err := uc.ParseExport(ctx, export)
	if err != nil {
		return nil, err
	}

	uc.cacheStore.Put(hash, chat, uc.cfg.Processing.CacheTTL)
	slog.InfoContext(ctx, "Результат сохранен в кеше", "hash", hash, "messages", len(chat.Messages))

	return chat, nil
}

// ParseExport разбирает уже материализованный экспорт с учетом отмены контекста.
// Сам разбор не прерывается, но при истечении ctx его результат отбрасывается.
func (uc *ProcessChatUseCase) ParseExport(ctx context.Context, export *domain.Export) (*domain.ParsedChat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type parseResult struct {
		chat *domain.ParsedChat
		err  error
	}
	done := make(chan parseResult, 1)
	start := time.Now()

	go func() {
		chat, err := uc.parser.Parse(export.Transcript, export.Media)
		done <- parseResult{chat: chat, err: err}
	}()

	select {
	case <-ctx.Done():
		uc.observer.ObserveParseFailure()
		return nil, fmt.Errorf("разбор прерван: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			uc.observer.ObserveParseFailure()
			return nil, fmt.Errorf("не удалось разобрать переписку: %w", res.err)
		}
		uc.observer.ObserveParse(time.Since(start), res.chat)
		slog.InfoContext(ctx, "Переписка разобрана",
			"messages", len(res.chat.Messages),
			"participants", len(res.chat.Participants),
			"duration", time.Since(start),
		)
		return res.chat, nil
	}
}
