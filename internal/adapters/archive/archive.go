// Package archive распаковывает zip-экспорт WhatsApp ("Экспорт чата" с медиафайлами).
package archive

import (
	"bytes"
	"encoding/base64"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zip"
	"golang.org/x/xerrors"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

// ErrNoTranscript возвращается, если в архиве нет ни одного .txt файла.
var ErrNoTranscript = xerrors.New("no chat transcript (.txt) in archive")

// DefaultMaxEntrySize: ограничение на размер одного распакованного файла.
const DefaultMaxEntrySize int64 = 64 << 20

// Reader читает zip-архив экспорта.
type Reader struct {
	maxEntrySize int64
	logger       *slog.Logger
}

// Option настраивает Reader.
type Option func(*Reader)

// WithMaxEntrySize задает максимальный размер распакованного файла.
// Файлы больше лимита пропускаются.
func WithMaxEntrySize(n int64) Option {
	return func(r *Reader) {
		r.maxEntrySize = n
	}
}

// WithLogger задает логгер.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = l
	}
}

// NewReader создает Reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		maxEntrySize: DefaultMaxEntrySize,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read распаковывает архив из памяти.
// Переписка: первый .txt файл по порядку записей, медиафайлы кладутся в таблицу
// по имени файла без пути в виде data URL.
func (r *Reader) Read(data []byte) (*domain.Export, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, xerrors.Errorf("failed to open zip archive: %w", err)
	}

	export := &domain.Export{Media: make(domain.MediaMap)}
	found := false

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		name := path.Base(strings.ReplaceAll(f.Name, "\\", "/"))
		lower := strings.ToLower(name)

		switch {
		case strings.HasSuffix(lower, ".txt") && !found:
			content, err := r.readEntry(f)
			if err != nil {
				return nil, err
			}
			export.Transcript = string(content)
			found = true
			r.logger.Debug("Найден файл переписки", "file", f.Name)

		case domain.IsMediaFile(lower):
			if int64(f.UncompressedSize64) > r.maxEntrySize {
				r.logger.Warn("Медиафайл пропущен: превышен размер", "file", f.Name, "size", f.UncompressedSize64)
				continue
			}
			content, err := r.readEntry(f)
			if err != nil {
				return nil, err
			}
			export.Media[name] = DataURL(name, content)
		}
	}

	if !found {
		return nil, ErrNoTranscript
	}

	r.logger.Debug("Архив распакован", "media_count", len(export.Media))
	return export, nil
}

func (r *Reader) readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, xerrors.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, r.maxEntrySize+1))
	if err != nil {
		return nil, xerrors.Errorf("failed to read %s: %w", f.Name, err)
	}
	if int64(len(content)) > r.maxEntrySize {
		return nil, xerrors.Errorf("entry %s exceeds %d bytes", f.Name, r.maxEntrySize)
	}
	return content, nil
}

// extensionMIME используется, когда сигнатура содержимого не распознана.
var extensionMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".wav":  "audio/wav",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

const unknownMIME = "application/octet-stream"

// DataURL кодирует содержимое файла в data URL. MIME-тип определяется по сигнатуре,
// а если она не распознана, по расширению name.
func DataURL(name string, content []byte) string {
	mtype, _, _ := strings.Cut(mimetype.Detect(content).String(), ";")
	mtype = strings.TrimSpace(mtype)
	if mtype == unknownMIME {
		if byExt, ok := extensionMIME[strings.ToLower(path.Ext(name))]; ok {
			mtype = byExt
		}
	}
	return "data:" + mtype + ";base64," + base64.StdEncoding.EncodeToString(content)
}

// IsZip сообщает, похоже ли содержимое на zip-архив.
// Детектор может вернуть более узкий тип (jar, docx), поэтому проверяется вся цепочка родителей.
func IsZip(content []byte) bool {
	for m := mimetype.Detect(content); m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}
