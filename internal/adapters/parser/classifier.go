package parser

import "regexp"

// LineKind: результат классификации строки переписки.
type LineKind int

const (
	// LineContinuation: строка без метки времени: продолжение открытого сообщения
	// (или мусор, если открытого сообщения нет).
	LineContinuation LineKind = iota
	// LineMessage: начало нового сообщения с отправителем.
	LineMessage
	// LineSystem: системное событие: метка времени без отправителя.
	LineSystem
)

// StampStyle: вариант записи метки времени.
type StampStyle int

const (
	// StyleDashed: "DD.MM.YY HH:MM - ...", экспорт Android.
	StyleDashed StampStyle = iota
	// StyleBracketed: "[DD.MM.YY HH:MM:SS] ...", экспорт iOS.
	StyleBracketed
)

var (
	dashedMessageRe    = regexp.MustCompile(`^(\d{1,2}\.\d{1,2}\.\d{2,4})\s+(\d{1,2}:\d{2}(?::\d{2})?)\s*-\s*([^:]+):\s*(.*)$`)
	bracketedMessageRe = regexp.MustCompile(`^\[(\d{1,2}\.\d{1,2}\.\d{2,4})\s+(\d{1,2}:\d{2}(?::\d{2})?)\]\s*([^:]+):\s*(.*)$`)
	dashedSystemRe     = regexp.MustCompile(`^(\d{1,2}\.\d{1,2}\.\d{2,4})\s+(\d{1,2}:\d{2}(?::\d{2})?)\s*-\s*(.*)$`)
	bracketedSystemRe  = regexp.MustCompile(`^\[(\d{1,2}\.\d{1,2}\.\d{2,4})\s+(\d{1,2}:\d{2}(?::\d{2})?)\]\s*(.*)$`)
)

// Line: классифицированная строка.
type Line struct {
	Kind   LineKind
	Style  StampStyle
	Date   string
	Clock  string
	Sender string
	Body   string
}

// TimestampText возвращает исходную метку времени в том виде, в каком она показывается пользователю.
func (l Line) TimestampText() string {
	if l.Style == StyleBracketed {
		return "[" + l.Date + " " + l.Clock + "]"
	}
	return l.Date + " " + l.Clock
}

// ClassifyLine определяет, чем является обрезанная строка.
// Шаблоны сообщений проверяются раньше системных: "01.01.23 09:00 - Bob: hi" подходит под оба.
func ClassifyLine(line string) Line {
	if m := dashedMessageRe.FindStringSubmatch(line); m != nil {
		return Line{Kind: LineMessage, Style: StyleDashed, Date: m[1], Clock: m[2], Sender: m[3], Body: m[4]}
	}
	if m := bracketedMessageRe.FindStringSubmatch(line); m != nil {
		return Line{Kind: LineMessage, Style: StyleBracketed, Date: m[1], Clock: m[2], Sender: m[3], Body: m[4]}
	}
	if m := dashedSystemRe.FindStringSubmatch(line); m != nil {
		return Line{Kind: LineSystem, Style: StyleDashed, Date: m[1], Clock: m[2], Body: m[3]}
	}
	if m := bracketedSystemRe.FindStringSubmatch(line); m != nil {
		return Line{Kind: LineSystem, Style: StyleBracketed, Date: m[1], Clock: m[2], Body: m[3]}
	}
	return Line{Kind: LineContinuation, Body: line}
}
