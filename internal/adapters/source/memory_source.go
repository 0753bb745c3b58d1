package source

import (
	"fmt"

	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/archive"
	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

// MemorySource реализует интерфейс DataSource для загруженного в память файла
// (например, полученного по HTTP или из очереди).
type MemorySource struct {
	name   string
	data   []byte
	reader *archive.Reader
}

// NewMemorySource создает новый экземпляр MemorySource.
// name: исходное имя файла, если оно известно; пустое имя включает определение типа по содержимому.
func NewMemorySource(name string, data []byte, reader *archive.Reader) ports.DataSource {
	if reader == nil {
		reader = archive.NewReader()
	}
	return &MemorySource{name: name, data: data, reader: reader}
}

// Fetch разбирает данные из памяти. Исходный буфер не изменяется.
func (s *MemorySource) Fetch() (*domain.Export, error) {
	if s.data == nil {
		return nil, fmt.Errorf("data not set")
	}

	return decode(s.name, s.data, s.reader)
}
