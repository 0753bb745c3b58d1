package format

import (
	"regexp"
	"strings"

	"github.com/rivo/uniseg"
)

// EmojiClass: CSS-класс, которым размечаются последовательности эмодзи.
const EmojiClass = "emoji"

// emojiOnlyRe описывает сообщение, состоящее только из эмодзи.
// Символы за пределами BMP принимаются целиком, как и в клиентах WhatsApp;
// U+FE0F и U+200D разрешены, чтобы проходили "❤️" и ZWJ-последовательности.
var emojiOnlyRe = regexp.MustCompile(`^(?:[` +
	`\x{2700}-\x{27BF}\x{10000}-\x{10FFFF}` +
	`\x{3299}\x{3297}\x{303D}\x{3030}\x{24C2}\x{203C}\x{2049}` +
	`\x{25AA}-\x{25AB}\x{25B6}\x{25C0}\x{25FB}-\x{25FE}` +
	`\x{00A9}\x{00AE}\x{2122}\x{2139}\x{2600}-\x{26FF}` +
	`\x{2B05}-\x{2B07}\x{2B1B}\x{2B1C}\x{2B50}\x{2B55}` +
	`\x{231A}\x{231B}\x{2328}\x{23CF}\x{23E9}-\x{23F3}\x{23F8}-\x{23FA}` +
	`\x{2934}\x{2935}\x{2190}-\x{21FF}\x{FE0F}\x{200D}` +
	`]|[#*0-9]\x{FE0F}?\x{20E3})+$`)

// IsEmojiOnly сообщает, состоит ли текст (после обрезки пробелов) только из эмодзи.
// ASCII-смайлы вроде ":)" эмодзи не считаются.
func IsEmojiOnly(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return emojiOnlyRe.MatchString(s)
}

// isPictographic проверяет, начинается ли графема с пиктографического символа.
func isPictographic(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2300 && r <= 0x23FF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r == 0x2934, r == 0x2935:
		return true
	}
	switch r {
	case 0x00A9, 0x00AE, 0x2122, 0x203C, 0x2049, 0x2139,
		0x3030, 0x303D, 0x3297, 0x3299:
		return true
	}
	return false
}

// WrapEmoji оборачивает каждую непрерывную последовательность эмодзи в <span class="emoji">.
// Текст обходится по графемам, поэтому ZWJ-последовательности (👩‍💻, 👨‍👩‍👧)
// и флаги остаются внутри одной разметки и не разрываются.
func WrapEmoji(s string) string {
	var (
		out    strings.Builder
		inRun  bool
		gr     = uniseg.NewGraphemes(s)
		opened = `<span class="` + EmojiClass + `">`
	)
	out.Grow(len(s))

	for gr.Next() {
		runes := gr.Runes()
		emoji := len(runes) > 0 && isPictographic(runes[0])

		switch {
		case emoji && !inRun:
			out.WriteString(opened)
			inRun = true
		case !emoji && inRun:
			out.WriteString("</span>")
			inRun = false
		}
		out.WriteString(gr.Str())
	}
	if inRun {
		out.WriteString("</span>")
	}

	return out.String()
}
