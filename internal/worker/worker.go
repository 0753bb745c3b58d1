package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

// ExportParser разбирает материализованный экспорт.
type ExportParser interface {
	ParseExport(ctx context.Context, export *domain.Export) (*domain.ParsedChat, error)
}

// Publisher отправляет события в reply-тему.
type Publisher interface {
	Publish(subject string, data any) error
}

// Subscriber доставляет входящие запросы.
type Subscriber interface {
	QueueSubscribe(subject, queue string, handler func(reply string, data []byte)) error
}

// Option настраивает Worker.
type Option func(*Worker)

// WithTimeout ограничивает время разбора одного запроса. 0 - без ограничений.
func WithTimeout(d time.Duration) Option {
	return func(w *Worker) {
		w.timeout = d
	}
}

// WithLogger устанавливает логгер для воркера.
func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// Worker обрабатывает запросы PARSE_CHAT.
type Worker struct {
	parser  ExportParser
	pub     Publisher
	timeout time.Duration
	logger  *slog.Logger
}

// New создает воркер, отвечающий через pub.
func New(parser ExportParser, pub Publisher, opts ...Option) *Worker {
	w := &Worker{
		parser: parser,
		pub:    pub,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Serve подписывается на subject и обрабатывает запросы до отмены ctx.
func (w *Worker) Serve(ctx context.Context, sub Subscriber, subject, queue string) error {
	err := sub.QueueSubscribe(subject, queue, func(reply string, data []byte) {
		w.Handle(ctx, reply, data)
	})
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Worker started", "subject", subject, "queue", queue)
	<-ctx.Done()
	w.logger.InfoContext(ctx, "Worker stopped")
	return nil
}

// Handle обрабатывает один запрос и публикует события в reply.
// Запросы без reply-темы отбрасываются: отвечать некуда.
func (w *Worker) Handle(ctx context.Context, reply string, data []byte) {
	if reply == "" {
		w.logger.WarnContext(ctx, "Request without reply subject dropped", "size", len(data))
		return
	}

	log := w.logger.With(slog.String("request_id", uuid.NewString()))

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		w.publishError(ctx, log, reply, fmt.Errorf("malformed request: %w", err))
		return
	}
	if req.Type != TypeParseChat {
		w.publishError(ctx, log, reply, fmt.Errorf("unknown request type %q", req.Type))
		return
	}

	log.DebugContext(ctx, "Parse request received", "media", len(req.Data.MediaData))
	w.publish(ctx, log, reply, Event{Type: TypeParseStarted})

	parseCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	chat, err := w.parser.ParseExport(parseCtx, &domain.Export{
		Transcript: req.Data.ChatData,
		Media:      req.Data.MediaData,
	})
	if err != nil {
		w.publishError(ctx, log, reply, err)
		return
	}

	log.InfoContext(ctx, "Parse request completed", "messages", len(chat.Messages))
	w.publish(ctx, log, reply, Event{Type: TypeParseCompleted, Data: chat})
}

func (w *Worker) publishError(ctx context.Context, log *slog.Logger, reply string, err error) {
	log.WarnContext(ctx, "Parse request failed", "error", err)
	w.publish(ctx, log, reply, Event{Type: TypeParseError, Error: err.Error()})
}

func (w *Worker) publish(ctx context.Context, log *slog.Logger, reply string, ev Event) {
	if err := w.pub.Publish(reply, ev); err != nil {
		log.ErrorContext(ctx, "Failed to publish event", "type", ev.Type, "error", err)
	}
}

// ErrRemoteParse оборачивает ошибку, которую вернул воркер.
var ErrRemoteParse = errors.New("remote parse failed")

// Requester отправляет запрос и получает поток ответов.
type Requester interface {
	Request(ctx context.Context, subject string, data any, onReply func(payload []byte) (done bool, err error)) error
}

// ParseRemote отправляет экспорт воркеру и ждет PARSE_COMPLETED или PARSE_ERROR.
func ParseRemote(ctx context.Context, r Requester, subject string, export *domain.Export) (*domain.ParsedChat, error) {
	var result *domain.ParsedChat

	err := r.Request(ctx, subject, NewParseRequest(export), func(payload []byte) (bool, error) {
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return true, fmt.Errorf("malformed event: %w", err)
		}
		switch ev.Type {
		case TypeParseStarted:
			return false, nil
		case TypeParseCompleted:
			result = ev.Data
			return true, nil
		case TypeParseError:
			return true, fmt.Errorf("%w: %s", ErrRemoteParse, ev.Error)
		default:
			return true, fmt.Errorf("unexpected event type %q", ev.Type)
		}
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: empty result", ErrRemoteParse)
	}
	return result, nil
}
