package ports

import (
	"context"
	"errors"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

// ErrMediaNotFound возвращается хранилищем медиа, если файла с таким именем нет.
var ErrMediaNotFound = errors.New("media not found")

// DataSource определяет интерфейс для получения исходных данных экспорта.
type DataSource interface {
	// Fetch загружает экспорт и возвращает текст переписки вместе с медиафайлами.
	Fetch() (*domain.Export, error)
}

// Parser определяет интерфейс для разбора текста переписки.
type Parser interface {
	// Parse преобразует текст переписки в упорядоченный список сообщений.
	// media может быть nil.
	Parse(transcript string, media domain.MediaMap) (*domain.ParsedChat, error)
}

// Exporter определяет интерфейс для вывода результата.
type Exporter interface {
	// Export принимает разобранную переписку и выводит ее.
	Export(chat *domain.ParsedChat) error
}

// MediaStore: хранилище медиафайлов "имя файла -> ссылка на содержимое".
type MediaStore interface {
	// PutAll сохраняет все файлы и возвращает их количество.
	PutAll(ctx context.Context, media domain.MediaMap) (int, error)
	// Get возвращает содержимое файла или ErrMediaNotFound.
	Get(ctx context.Context, name string) (string, error)
	// Keys возвращает имена всех сохраненных файлов.
	Keys(ctx context.Context) ([]string, error)
	// GetAll материализует все хранилище в MediaMap.
	GetAll(ctx context.Context) (domain.MediaMap, error)
	// Clear удаляет все файлы.
	Clear(ctx context.Context) error
}

// MediaLoader догружает медиа для уже разобранной переписки.
type MediaLoader interface {
	Load(ctx context.Context, chat *domain.ParsedChat) (int, error)
}
