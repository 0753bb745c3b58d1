package format

import (
	"html"
	"regexp"
)

var linkRe = regexp.MustCompile(`(https?://[^\s<]+)`)

// Linkify превращает http(s)-ссылки в <a>, открывающиеся в новой вкладке.
// Ожидает уже экранированный текст: повторное применение к собственному результату не поддерживается.
func Linkify(s string) string {
	return linkRe.ReplaceAllString(s, `<a href="$1" target="_blank" rel="noopener noreferrer">$1</a>`)
}

// Content готовит текст сообщения к отображению в HTML.
// Порядок важен: смайлы заменяются до экранирования (иначе "<3" не найдется),
// эмодзи оборачиваются до ссылок, чтобы разметка не попала внутрь href.
func Content(raw string) string {
	s := ReplaceEmoticons(raw)
	s = html.EscapeString(s)
	s = WrapEmoji(s)
	return Linkify(s)
}
