package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date форматирует дату как DD.MM.YYYY.
func Date(t time.Time) string {
	return t.Format("02.01.2006")
}

// Time форматирует время как HH:MM.
func Time(t time.Time) string {
	return t.Format("15:04")
}

var originalStampRe = regexp.MustCompile(`^(\[)?(\d{1,2})\.(\d{1,2})\.(\d{2,4}) (\d{1,2}):(\d{2})(?::(\d{2}))?\]?$`)

// TimestampInOriginalFormat выводит t в том же виде, в каком была записана исходная метка original:
// те же скобки, ширина года, дополнение нулями и наличие секунд.
// Если original не распознан, используется "[DD.MM.YYYY HH:MM:SS]" для скобочной записи
// и "DD.MM.YYYY HH:MM" для остальных.
func TimestampInOriginalFormat(t time.Time, original string) string {
	m := originalStampRe.FindStringSubmatch(original)
	if m == nil {
		if strings.HasPrefix(original, "[") {
			return "[" + t.Format("02.01.2006 15:04:05") + "]"
		}
		return t.Format("02.01.2006 15:04")
	}

	bracketed := m[1] != ""
	year := t.Year()
	// Короткий год (23, 023) при разборе дополняется до 20xx, обратно выводятся две последние цифры.
	if y, err := strconv.Atoi(m[4]); err == nil && y < 100 {
		year %= 100
	}

	var b strings.Builder
	if bracketed {
		b.WriteByte('[')
	}
	fmt.Fprintf(&b, "%0*d.%0*d.%0*d %0*d:%02d",
		len(m[2]), t.Day(),
		len(m[3]), int(t.Month()),
		len(m[4]), year,
		len(m[5]), t.Hour(),
		t.Minute(),
	)
	if m[7] != "" {
		fmt.Fprintf(&b, ":%02d", t.Second())
	}
	if bracketed {
		b.WriteByte(']')
	}

	return b.String()
}
