package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// SystemSender: служебное имя отправителя для системных событий (создание группы, смена номера и т.д.).
const SystemSender = "System"

// MediaType: грубая классификация вложения.
type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeGIF      MediaType = "gif"
	MediaTypeVideo    MediaType = "video"
	MediaTypeAudio    MediaType = "audio"
	MediaTypeDocument MediaType = "document"
	MediaTypeSticker  MediaType = "sticker"
	MediaTypeUnknown  MediaType = "unknown"
)

// mediaExtensions сопоставляет расширение файла (в нижнем регистре, с точкой) типу медиа.
var mediaExtensions = map[string]MediaType{
	".jpg":  MediaTypeImage,
	".jpeg": MediaTypeImage,
	".png":  MediaTypeImage,
	".webp": MediaTypeImage,
	".gif":  MediaTypeGIF,
	".mp4":  MediaTypeVideo,
	".avi":  MediaTypeVideo,
	".mov":  MediaTypeVideo,
	".mp3":  MediaTypeAudio,
	".ogg":  MediaTypeAudio,
	".opus": MediaTypeAudio,
	".wav":  MediaTypeAudio,
	".pdf":  MediaTypeDocument,
	".doc":  MediaTypeDocument,
	".docx": MediaTypeDocument,
	".txt":  MediaTypeDocument,
}

// MediaTypeFromFilename определяет тип медиа по расширению файла.
// Для неизвестных расширений возвращается MediaTypeUnknown.
func MediaTypeFromFilename(name string) MediaType {
	if t, ok := mediaExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return MediaTypeUnknown
}

// IsMediaFile сообщает, относится ли файл к известным медиа-расширениям.
// Текстовые файлы сюда не входят: в архиве экспорта .txt содержит саму переписку.
func IsMediaFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".txt" {
		return false
	}
	_, ok := mediaExtensions[ext]
	return ok
}

// MediaMap: внешняя таблица "имя файла -> ссылка на содержимое" (обычно data URL).
// Парсер только читает ее и никогда не изменяет.
type MediaMap map[string]string

// Export: материализованный экспорт: текст переписки и приложенные медиафайлы.
type Export struct {
	Transcript string
	Media      MediaMap
}

// ChatMessage представляет одно сообщение или системное событие.
type ChatMessage struct {
	ID            string    `json:"id"`
	Sender        string    `json:"sender"`
	TimestampText string    `json:"timestamp"`
	Date          time.Time `json:"date"`
	Content       string    `json:"content"`
	IsMedia       bool      `json:"isMedia"`
	MediaType     MediaType `json:"mediaType,omitempty"`
	MediaName     string    `json:"mediaName,omitempty"`
	MediaURL      string    `json:"mediaUrl,omitempty"`
	IsEmoji       bool      `json:"isEmoji"`
}

// IsSystem сообщает, является ли сообщение системным событием.
func (m ChatMessage) IsSystem() bool {
	return m.Sender == SystemSender
}

// NeedsMedia сообщает, ссылается ли сообщение на медиафайл, который еще не загружен.
func (m ChatMessage) NeedsMedia() bool {
	return m.IsMedia && m.MediaName != "" && m.MediaURL == ""
}

// ParsedChat: результат разбора переписки.
type ParsedChat struct {
	Messages     []ChatMessage `json:"messages"`
	Participants []string      `json:"participants"`
	IsGroup      bool          `json:"isGroup"`
	GroupName    string        `json:"groupName,omitempty"`
}

// Message возвращает указатель на сообщение с указанным ID.
func (c *ParsedChat) Message(id string) (*ChatMessage, bool) {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i], true
		}
	}
	return nil, false
}

// PatchMediaURL проставляет mediaUrl одному сообщению по его ID.
// Порядок и количество сообщений не меняются, повторный вызов с тем же url ничего не делает.
func (c *ParsedChat) PatchMediaURL(id, url string) bool {
	msg, ok := c.Message(id)
	if !ok {
		return false
	}
	msg.MediaURL = url
	return true
}

// PatchMediaByName проставляет mediaUrl всем сообщениям, ссылающимся на файл name.
// Возвращает количество обновленных сообщений.
func (c *ParsedChat) PatchMediaByName(name, url string) int {
	patched := 0
	for i := range c.Messages {
		if c.Messages[i].MediaName == name {
			c.Messages[i].MediaURL = url
			patched++
		}
	}
	return patched
}

// Clone возвращает независимую копию результата.
// Используется там, где результат передается за границу воркера или хранилища задач.
func (c *ParsedChat) Clone() *ParsedChat {
	if c == nil {
		return nil
	}
	out := &ParsedChat{
		IsGroup:   c.IsGroup,
		GroupName: c.GroupName,
	}
	if c.Messages != nil {
		out.Messages = make([]ChatMessage, len(c.Messages))
		copy(out.Messages, c.Messages)
	}
	if c.Participants != nil {
		out.Participants = make([]string, len(c.Participants))
		copy(out.Participants, c.Participants)
	}
	return out
}
