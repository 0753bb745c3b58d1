package exporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

func testChat() *domain.ParsedChat {
	date := time.Date(2023, time.January, 1, 9, 0, 0, 0, time.Local)
	return &domain.ParsedChat{
		Messages: []domain.ChatMessage{
			{ID: "system_0", Sender: domain.SystemSender, Date: date, Content: `Alice created group "Trip"`},
			{ID: "msg_1", Sender: "Alice", Date: date, Content: "Hello\nsecond line"},
			{
				ID: "msg_2", Sender: "Bob", Date: date.Add(time.Minute), Content: "<Media omitted>",
				IsMedia: true, MediaType: domain.MediaTypeImage, MediaName: "IMG-20230101-WA0001.jpg",
				MediaURL: "data:image/jpeg;base64,AAA",
			},
		},
		Participants: []string{"Alice", "Bob"},
		IsGroup:      true,
		GroupName:    "Trip",
	}
}

func TestConsoleExporter(t *testing.T) {
	t.Run("NewConsoleExporter создает корректный экземпляр", func(t *testing.T) {
		exporter := NewConsoleExporter(nil)
		if exporter == nil {
			t.Error("Ожидался экземпляр ConsoleExporter, получен nil")
		}
	})

	t.Run("Export выводит участников и сообщения", func(t *testing.T) {
		var buf bytes.Buffer
		err := NewConsoleExporter(&buf).Export(testChat())
		require.NoError(t, err)

		output := buf.String()
		assert.Contains(t, output, "--- Trip ---")
		assert.Contains(t, output, "Participants: Alice, Bob")
		assert.Contains(t, output, "01.01.2023 09:00")
		assert.Contains(t, output, "Hello")
		assert.Contains(t, output, "second line")
		assert.Contains(t, output, "[image: IMG-20230101-WA0001.jpg]")
		assert.NotContains(t, output, "base64", "содержимое медиа не выводится")

		for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
			if strings.HasPrefix(line, "|") {
				assert.Equal(t, timeColWidth+senderColWidth+contentColWidth+10, runewidth.StringWidth(line), line)
			}
		}
	})

	t.Run("Ширина таблицы задается опцией", func(t *testing.T) {
		var buf bytes.Buffer
		err := NewConsoleExporter(&buf, WithTableWidth(80)).Export(testChat())
		require.NoError(t, err)

		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if strings.HasPrefix(line, "|") || strings.HasPrefix(line, "+") {
				assert.Equal(t, 80, runewidth.StringWidth(line), line)
			}
		}
	})

	t.Run("Слишком узкий терминал", func(t *testing.T) {
		e := NewConsoleExporter(nil, WithTableWidth(10)).(*ConsoleExporter)
		assert.Equal(t, minContentWidth, e.contentWidth)
	})

	t.Run("Export для пустой переписки", func(t *testing.T) {
		var buf bytes.Buffer
		err := NewConsoleExporter(&buf).Export(&domain.ParsedChat{})
		require.NoError(t, err)

		assert.Contains(t, buf.String(), "--- Chat ---")
		assert.Contains(t, buf.String(), "No participants found.")
		assert.Contains(t, buf.String(), "No messages found.")
	})
}

func TestWrapString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected []string
	}{
		{"Короткая строка", "hello", 10, []string{"hello"}},
		{"Перенос по словам", "hello big world", 9, []string{"hello big", "world"}},
		{"Длинное слово режется", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"Широкие символы", "日本語日本語", 4, []string{"日本", "語日", "本語"}},
		{"Только пробелы", "          ", 4, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, wrapString(tt.input, tt.width))
		})
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	err := NewJSONExporter(&buf).Export(testChat())
	require.NoError(t, err)

	var decoded domain.ParsedChat
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Messages, 3)
	assert.Equal(t, "Trip", decoded.GroupName)
	assert.Contains(t, buf.String(), `"<Media omitted>"`, "HTML не экранируется")
}

func TestExcelExporter(t *testing.T) {
	var buf bytes.Buffer
	err := NewExcelExporter(&buf).Export(testChat())
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{messagesSheet, participantsSheet}, f.GetSheetList())

	sender, err := f.GetCellValue(messagesSheet, "C3")
	require.NoError(t, err)
	assert.Equal(t, "Alice", sender)

	mediaType, err := f.GetCellValue(messagesSheet, "E4")
	require.NoError(t, err)
	assert.Equal(t, "image", mediaType)

	participant, err := f.GetCellValue(participantsSheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Bob", participant)
}
