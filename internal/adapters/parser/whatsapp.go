package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

// ErrParseFailed возвращается, если разбор прервался непредвиденной ошибкой.
// Частичный результат в этом случае не отдается.
var ErrParseFailed = errors.New("failed to parse chat")

// WhatsAppParser реализует интерфейс Parser для текстового экспорта WhatsApp.
type WhatsAppParser struct {
	now func() time.Time
}

// Option настраивает WhatsAppParser.
type Option func(*WhatsAppParser)

// WithClock задает источник текущего времени (для меток с нераспознанной датой).
func WithClock(now func() time.Time) Option {
	return func(p *WhatsAppParser) {
		p.now = now
	}
}

// NewWhatsAppParser создает новый экземпляр WhatsAppParser.
func NewWhatsAppParser(opts ...Option) ports.Parser {
	p := &WhatsAppParser{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse разбирает текст переписки. media может быть nil: тогда вложения остаются без ссылок.
func (p *WhatsAppParser) Parse(transcript string, media domain.MediaMap) (chat *domain.ParsedChat, err error) {
	defer func() {
		if r := recover(); r != nil {
			chat = nil
			err = fmt.Errorf("%w: %v", ErrParseFailed, r)
		}
	}()

	transcript = strings.TrimPrefix(transcript, "\ufeff")

	asm := NewAssembler(media, p.now())
	for i, line := range strings.Split(transcript, "\n") {
		asm.Feed(i, line)
	}
	return asm.Finish(), nil
}

// Parse разбирает переписку парсером с настройками по умолчанию.
func Parse(transcript string, media domain.MediaMap) (*domain.ParsedChat, error) {
	return NewWhatsAppParser().Parse(transcript, media)
}
