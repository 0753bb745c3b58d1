package format

import (
	"strings"
	"unicode"
)

// emoticons: таблица замены ASCII-смайлов на эмодзи.
var emoticons = map[string]string{
	":)":      "😊",
	":-)":     "😊",
	":(":      "😔",
	":-(":     "😔",
	";)":      "😉",
	";-)":     "😉",
	":D":      "😃",
	":-D":     "😃",
	":|":      "😐",
	":-|":     "😐",
	":/":      "😕",
	":-/":     "😕",
	":P":      "😛",
	":-P":     "😛",
	":p":      "😛",
	":-p":     "😛",
	":*":      "😘",
	":-*":     "😘",
	"<3":      "❤️",
	":heart:": "❤️",
	":+1:":    "👍",
	":-1:":    "👎",
}

// ReplaceEmoticons заменяет ASCII-смайлы на эмодзи.
// Заменяется только отдельное слово: слева и справа начало/конец строки или пробельный символ.
// Пробелы исходного текста сохраняются как есть.
func ReplaceEmoticons(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	start := -1
	flush := func(end int) {
		word := s[start:end]
		if emoji, ok := emoticons[word]; ok {
			out.WriteString(emoji)
		} else {
			out.WriteString(word)
		}
		start = -1
	}

	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				flush(i)
			}
			out.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		flush(len(s))
	}

	return out.String()
}
