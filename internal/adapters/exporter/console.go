package exporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/format"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

const (
	timeColWidth    = 16
	senderColWidth  = 18
	contentColWidth = 60
	minContentWidth = 20
	// рамки и отступы трех колонок: "| " + " | " + " | " + " |"
	tableDecoration = 10
)

// ConsoleExporter реализует интерфейс Exporter для вывода переписки таблицей в терминал.
type ConsoleExporter struct {
	out          io.Writer
	contentWidth int
}

// ConsoleOption настраивает ConsoleExporter.
type ConsoleOption func(*ConsoleExporter)

// WithTableWidth подгоняет колонку текста под полную ширину таблицы (обычно ширину терминала).
func WithTableWidth(total int) ConsoleOption {
	return func(e *ConsoleExporter) {
		w := total - timeColWidth - senderColWidth - tableDecoration
		if w < minContentWidth {
			w = minContentWidth
		}
		e.contentWidth = w
	}
}

// NewConsoleExporter создает новый экземпляр ConsoleExporter. Если out == nil, пишет в stdout.
func NewConsoleExporter(out io.Writer, opts ...ConsoleOption) ports.Exporter {
	if out == nil {
		out = os.Stdout
	}
	e := &ConsoleExporter{out: out, contentWidth: contentColWidth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export выводит участников и сообщения.
func (e *ConsoleExporter) Export(chat *domain.ParsedChat) error {
	var sb strings.Builder

	title := "Chat"
	if chat.IsGroup && chat.GroupName != "" {
		title = chat.GroupName
	}
	fmt.Fprintf(&sb, "--- %s ---\n", title)

	if len(chat.Participants) == 0 {
		sb.WriteString("No participants found.\n")
	} else {
		sb.WriteString("Participants: " + strings.Join(chat.Participants, ", ") + "\n")
	}

	if len(chat.Messages) == 0 {
		sb.WriteString("No messages found.\n")
		_, err := io.WriteString(e.out, sb.String())
		return err
	}

	separator := "+" + strings.Repeat("-", timeColWidth+2) +
		"+" + strings.Repeat("-", senderColWidth+2) +
		"+" + strings.Repeat("-", e.contentWidth+2) + "+\n"

	sb.WriteString(separator)
	for _, msg := range chat.Messages {
		stamp := format.Date(msg.Date) + " " + format.Time(msg.Date)

		var contentLines []string
		for _, line := range strings.Split(plainContent(msg), "\n") {
			contentLines = append(contentLines, wrapString(line, e.contentWidth)...)
		}
		senderLines := wrapString(msg.Sender, senderColWidth)

		rows := len(contentLines)
		if len(senderLines) > rows {
			rows = len(senderLines)
		}

		for i := 0; i < rows; i++ {
			stampPart, senderPart, contentPart := "", "", ""
			if i == 0 {
				stampPart = stamp
			}
			if i < len(senderLines) {
				senderPart = senderLines[i]
			}
			if i < len(contentLines) {
				contentPart = contentLines[i]
			}

			fmt.Fprintf(&sb, "| %s%s | %s%s | %s%s |\n",
				stampPart, generatePadding(stampPart, timeColWidth),
				senderPart, generatePadding(senderPart, senderColWidth),
				contentPart, generatePadding(contentPart, e.contentWidth),
			)
		}
	}
	sb.WriteString(separator)

	_, err := io.WriteString(e.out, sb.String())
	return err
}

// plainContent возвращает текст сообщения для текстового вывода.
func plainContent(msg domain.ChatMessage) string {
	if !msg.IsMedia {
		return msg.Content
	}
	label := "[" + string(msg.MediaType)
	if msg.MediaName != "" {
		label += ": " + msg.MediaName
	}
	return label + "]"
}

// generatePadding вычисляет отступ для строки с учетом поправки на CJK-символы.
func generatePadding(s string, colWidth int) string {
	paddingNeeded := colWidth - runewidth.StringWidth(s)

	// Некоторые терминалы рисуют CJK шире, чем сообщает runewidth.
	hasCJK := false
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hangul, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			hasCJK = true
			break
		}
	}

	if hasCJK && paddingNeeded >= 0 {
		paddingNeeded++
	}

	if paddingNeeded > 0 {
		return strings.Repeat(" ", paddingNeeded)
	}
	return ""
}

// wrapString переносит строку по словам так, чтобы ширина каждой части не превышала width.
// Слово длиннее width разрезается посередине.
func wrapString(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}

	var lines []string
	var currentLine strings.Builder
	for _, word := range strings.Fields(s) {
		wordWidth := runewidth.StringWidth(word)

		if wordWidth > width {
			if currentLine.Len() > 0 {
				lines = append(lines, currentLine.String())
				currentLine.Reset()
			}
			lines = append(lines, splitByWidth(word, width)...)
			continue
		}

		lineLen := runewidth.StringWidth(currentLine.String())
		if lineLen > 0 && lineLen+1+wordWidth > width {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
		}

		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func splitByWidth(word string, width int) []string {
	var parts []string
	runes := []rune(word)
	for len(runes) > 0 {
		i, currentWidth := 0, 0
		for i < len(runes) {
			rw := runewidth.RuneWidth(runes[i])
			if currentWidth+rw > width {
				break
			}
			currentWidth += rw
			i++
		}
		if i == 0 {
			i = 1
		}
		parts = append(parts, string(runes[:i]))
		runes = runes[i:]
	}
	return parts
}
