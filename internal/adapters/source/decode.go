package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/archive"
	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

// ErrUnsupportedFile возвращается для файлов, не являющихся ни .txt, ни .zip.
var ErrUnsupportedFile = errors.New("unsupported file: only .txt and .zip exports are accepted")

// decode превращает содержимое файла в Export.
// Если имя файла известно, тип определяется по расширению, иначе по содержимому.
func decode(name string, data []byte, reader *archive.Reader) (*domain.Export, error) {
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case ext == ".zip", ext == "" && archive.IsZip(data):
		export, err := reader.Read(data)
		if err != nil {
			return nil, fmt.Errorf("failed to read archive %s: %w", name, err)
		}
		return export, nil

	case ext == ".txt", ext == "" && utf8.Valid(data):
		return &domain.Export{Transcript: string(data), Media: domain.MediaMap{}}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, name)
}
