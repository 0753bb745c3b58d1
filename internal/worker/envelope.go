// Package worker выполняет разбор переписок по запросам из NATS.
//
// Запрос: конверт PARSE_CHAT с текстом переписки и таблицей медиа. На каждый запрос воркер
// отвечает в reply-тему события PARSE_STARTED, затем PARSE_COMPLETED с результатом
// или PARSE_ERROR с текстом ошибки.
package worker

import (
	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

// Типы сообщений.
const (
	TypeParseChat      = "PARSE_CHAT"
	TypeParseStarted   = "PARSE_STARTED"
	TypeParseCompleted = "PARSE_COMPLETED"
	TypeParseError     = "PARSE_ERROR"
)

// ParseData: полезная нагрузка запроса PARSE_CHAT.
type ParseData struct {
	ChatData  string          `json:"chatData"`
	MediaData domain.MediaMap `json:"mediaData"`
}

// Request: входящий конверт.
type Request struct {
	Type string    `json:"type"`
	Data ParseData `json:"data"`
}

// Event: исходящее событие.
type Event struct {
	Type  string             `json:"type"`
	Data  *domain.ParsedChat `json:"data,omitempty"`
	Error string             `json:"error,omitempty"`
}

// NewParseRequest собирает запрос на разбор экспорта.
func NewParseRequest(export *domain.Export) Request {
	return Request{
		Type: TypeParseChat,
		Data: ParseData{ChatData: export.Transcript, MediaData: export.Media},
	}
}
