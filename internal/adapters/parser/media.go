package parser

import (
	"regexp"
	"strings"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

// mediaPlaceholders: подписи, которыми WhatsApp заменяет вложения в текстовом экспорте
// (английская и турецкая локали). Совпадение ищется как подстрока с учетом регистра.
var mediaPlaceholders = []string{
	"<Media omitted>",
	"<Medya dahil edilmedi>",
	"<Çıkartma dahil edilmedi>",
	"image omitted",
	"video omitted",
	"sticker omitted",
	"audio omitted",
	"document omitted",
	"resim dahil edilmedi",
	"video dahil edilmedi",
	"ses dahil edilmedi",
	"belge dahil edilmedi",
	"GIF dahil edilmedi",
	"GIF omitted",
	"görsel dahil edilmedi",
}

// mediaKeywords определяет тип вложения по слову в тексте. Порядок задает приоритет, регистр учитывается.
var mediaKeywords = []struct {
	mediaType domain.MediaType
	words     []string
}{
	{domain.MediaTypeImage, []string{"image", "resim", "görsel"}},
	{domain.MediaTypeVideo, []string{"video"}},
	{domain.MediaTypeSticker, []string{"sticker", "çıkartma", "Çıkartma"}},
	{domain.MediaTypeAudio, []string{"audio", "ses"}},
	{domain.MediaTypeDocument, []string{"document", "belge"}},
	{domain.MediaTypeGIF, []string{"GIF"}},
}

var mediaFilenameRe = regexp.MustCompile(`(?i)IMG-\d{8}-WA\d{4}|VIDEO-\d{8}-WA\d{4}|PTT-\d{8}-WA\d{4}|[\w-]+(?:\.jpg|\.jpeg|\.png|\.gif|\.mp4|\.webp|\.mp3|\.pdf|\.ogg|\.opus)`)

// MediaMarker: результат распознавания вложения в тексте сообщения.
type MediaMarker struct {
	IsMedia bool
	Type    domain.MediaType
	Name    string
}

// DetectMedia проверяет, является ли текст сообщения заглушкой вложения,
// и если да, определяет тип и, по возможности, имя файла.
func DetectMedia(body string) MediaMarker {
	if !isPlaceholder(body) {
		return MediaMarker{}
	}

	return MediaMarker{
		IsMedia: true,
		Type:    mediaTypeFromText(body),
		Name:    mediaFilenameRe.FindString(body),
	}
}

func isPlaceholder(body string) bool {
	for _, p := range mediaPlaceholders {
		if strings.Contains(body, p) {
			return true
		}
	}
	return false
}

func mediaTypeFromText(body string) domain.MediaType {
	for _, k := range mediaKeywords {
		for _, w := range k.words {
			if strings.Contains(body, w) {
				return k.mediaType
			}
		}
	}
	return domain.MediaTypeUnknown
}
