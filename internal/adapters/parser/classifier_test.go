package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		kind      LineKind
		sender    string
		body      string
		timestamp string
	}{
		{
			name:      "Сообщение Android",
			line:      "01.01.23 09:00 - Alice: Hello",
			kind:      LineMessage,
			sender:    "Alice",
			body:      "Hello",
			timestamp: "01.01.23 09:00",
		},
		{
			name:      "Сообщение iOS с секундами",
			line:      "[1.2.2023 9:05:07] Bob Smith: Hi there",
			kind:      LineMessage,
			sender:    "Bob Smith",
			body:      "Hi there",
			timestamp: "[1.2.2023 9:05:07]",
		},
		{
			name:      "Текст сообщения с двоеточием",
			line:      "01.01.23 09:00 - Alice: time is 10:30",
			kind:      LineMessage,
			sender:    "Alice",
			body:      "time is 10:30",
			timestamp: "01.01.23 09:00",
		},
		{
			name:      "Системная строка Android",
			line:      `01.01.23 09:00 - Alice created group "Trip"`,
			kind:      LineSystem,
			body:      `Alice created group "Trip"`,
			timestamp: "01.01.23 09:00",
		},
		{
			name:      "Системная строка iOS",
			line:      "[01.01.2023 09:00:00] Bob left",
			kind:      LineSystem,
			body:      "Bob left",
			timestamp: "[01.01.2023 09:00:00]",
		},
		{
			name: "Продолжение",
			line: "just more text",
			kind: LineContinuation,
			body: "just more text",
		},
		{
			name: "Дата без времени не считается меткой",
			line: "01.01.23 - Alice: hi",
			kind: LineContinuation,
			body: "01.01.23 - Alice: hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyLine(tt.line)

			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.sender, got.Sender)
			assert.Equal(t, tt.body, got.Body)
			if tt.kind != LineContinuation {
				assert.Equal(t, tt.timestamp, got.TimestampText())
			}
		})
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name     string
		date     string
		clock    string
		expected time.Time
	}{
		{"Двузначный год", "01.05.23", "10:30", time.Date(2023, time.May, 1, 10, 30, 0, 0, time.Local)},
		{"Четырехзначный год и секунды", "1.5.2023", "9:05:07", time.Date(2023, time.May, 1, 9, 5, 7, 0, time.Local)},
		{"Год 99 относится к 2000-м", "31.12.99", "23:59", time.Date(2099, time.December, 31, 23, 59, 0, 0, time.Local)},
		{"Некорректная дата заменяется текущей", "1.2", "10:30", time.Date(2024, time.March, 15, 10, 30, 0, 0, time.Local)},
		{"Нечисловая дата заменяется текущей", "aa.bb.cc", "08:00", time.Date(2024, time.March, 15, 8, 0, 0, 0, time.Local)},
		{"Нечисловое время дает ноль", "01.01.23", "xx:15", time.Date(2023, time.January, 1, 0, 15, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTimestamp(tt.date, tt.clock, now)
			assert.True(t, tt.expected.Equal(got), "ожидалось %v, получено %v", tt.expected, got)
		})
	}
}

func TestDetectMedia(t *testing.T) {
	tests := []struct {
		body      string
		mediaType domain.MediaType
	}{
		{"<Media omitted>", domain.MediaTypeUnknown},
		{"<Medya dahil edilmedi>", domain.MediaTypeUnknown},
		{"<Çıkartma dahil edilmedi>", domain.MediaTypeSticker},
		{"image omitted", domain.MediaTypeImage},
		{"video omitted", domain.MediaTypeVideo},
		{"sticker omitted", domain.MediaTypeSticker},
		{"audio omitted", domain.MediaTypeAudio},
		{"document omitted", domain.MediaTypeDocument},
		{"resim dahil edilmedi", domain.MediaTypeImage},
		{"video dahil edilmedi", domain.MediaTypeVideo},
		{"ses dahil edilmedi", domain.MediaTypeAudio},
		{"belge dahil edilmedi", domain.MediaTypeDocument},
		{"GIF dahil edilmedi", domain.MediaTypeGIF},
		{"GIF omitted", domain.MediaTypeGIF},
		{"görsel dahil edilmedi", domain.MediaTypeImage},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got := DetectMedia(tt.body)
			assert.True(t, got.IsMedia)
			assert.Equal(t, tt.mediaType, got.Type)
			assert.Empty(t, got.Name)
		})
	}

	t.Run("Регистр заглушки учитывается", func(t *testing.T) {
		assert.False(t, DetectMedia("IMAGE OMITTED").IsMedia)
		assert.False(t, DetectMedia("<media omitted>").IsMedia)
		assert.False(t, DetectMedia("My IMAGE OMITTED joke").IsMedia)
	})

	t.Run("Имя файла извлекается из текста", func(t *testing.T) {
		got := DetectMedia("report-2023.pdf document omitted")
		assert.True(t, got.IsMedia)
		assert.Equal(t, domain.MediaTypeDocument, got.Type)
		assert.Equal(t, "report-2023.pdf", got.Name)

		got = DetectMedia("IMG-20230501-WA0001.jpg image omitted")
		assert.Equal(t, "IMG-20230501-WA0001", got.Name, "шаблон WhatsApp проверяется раньше расширения")
	})

	t.Run("Обычный текст не является медиа", func(t *testing.T) {
		got := DetectMedia("look at photo.jpg")
		assert.False(t, got.IsMedia)
		assert.Empty(t, got.Name)
	})
}
