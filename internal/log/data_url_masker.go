package log

import (
	"context"
	"log/slog"
	"regexp"
)

// DataURLMaskerHandler - обертка для slog.Handler, которая вырезает содержимое data URL из логов.
// Медиафайлы переписки передаются как data:<mime>;base64,<payload> и могут весить мегабайты.
type DataURLMaskerHandler struct {
	handler slog.Handler
}

// NewDataURLMaskerHandler создает новый обработчик с маскировкой data URL
func NewDataURLMaskerHandler(handler slog.Handler) *DataURLMaskerHandler {
	return &DataURLMaskerHandler{
		handler: handler,
	}
}

// тип содержимого сохраняем, полезную нагрузку заменяем
var dataURLRegex = regexp.MustCompile(`(data:[\w.+-]+/[\w.+-]+(?:;[\w.+-]+=[\w.+-]+)*;base64,)[A-Za-z0-9+/=]+`)

// maskDataURLs заменяет полезную нагрузку найденных data URL на маску
func maskDataURLs(text string) string {
	return dataURLRegex.ReplaceAllString(text, "${1}***")
}

// Enabled реализует интерфейс slog.Handler
func (h *DataURLMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *DataURLMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	// Clone() оставляет атрибуты в копии, поэтому собираем новую запись с нуля.
	r := slog.NewRecord(record.Time, record.Level, maskDataURLs(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(maskAttr(a))
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *DataURLMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		maskedAttrs[i] = maskAttr(attr)
	}
	return &DataURLMaskerHandler{
		handler: h.handler.WithAttrs(maskedAttrs),
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *DataURLMaskerHandler) WithGroup(name string) slog.Handler {
	return &DataURLMaskerHandler{
		handler: h.handler.WithGroup(name),
	}
}

func maskAttr(a slog.Attr) slog.Attr {
	return slog.Attr{Key: a.Key, Value: maskAttributeValue(a.Value)}
}

// maskAttributeValue рекурсивно маскирует значения атрибутов
func maskAttributeValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskDataURLs(value.String()))
	case slog.KindAny:
		// Ошибки приводим к строке: текст ошибки может содержать data URL целиком.
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskDataURLs(err.Error()))
		}
		return value
	case slog.KindLogValuer:
		return maskAttributeValue(value.Resolve())
	case slog.KindGroup:
		group := value.Group()
		maskedGroup := make([]slog.Attr, len(group))
		for i, attr := range group {
			maskedGroup[i] = maskAttr(attr)
		}
		return slog.GroupValue(maskedGroup...)
	default:
		return value
	}
}

// NewMaskedLogger создает новый экземпляр slog.Logger с маскировкой data URL
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewDataURLMaskerHandler(handler))
}
