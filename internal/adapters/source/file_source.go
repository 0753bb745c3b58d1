package source

import (
	"fmt"
	"os"

	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/archive"
	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

// FileSource реализует интерфейс DataSource для чтения экспорта (.txt или .zip) с диска.
type FileSource struct {
	filePath string
	reader   *archive.Reader
}

// NewFileSource создает новый экземпляр FileSource. reader может быть nil.
func NewFileSource(filePath string, reader *archive.Reader) ports.DataSource {
	if reader == nil {
		reader = archive.NewReader()
	}
	return &FileSource{filePath: filePath, reader: reader}
}

// Fetch читает файл по указанному пути и возвращает переписку с медиафайлами.
func (s *FileSource) Fetch() (*domain.Export, error) {
	if s.filePath == "" {
		return nil, fmt.Errorf("не указан путь к файлу")
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.filePath, err)
	}

	return decode(s.filePath, data, s.reader)
}
