package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReplaceEmoticons(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Одиночный смайл", ":)", "😊"},
		{"Несколько смайлов", ":) :( ;-) :D", "😊 😔 😉 😃"},
		{"Сердце и большие пальцы", "<3 :heart: :+1: :-1:", "❤️ ❤️ 👍 👎"},
		{"Смайл внутри слова не заменяется", "a:) :)b", "a:) :)b"},
		{"Пробелы сохраняются", "ok\t:P  \n:*", "ok\t😛  \n😘"},
		{"Без смайлов", "just text", "just text"},
		{"Пустая строка", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReplaceEmoticons(tt.input))
		})
	}
}

func TestIsEmojiOnly(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"😀", true},
		{"  🎉🎉  ", true},
		{"❤️", true},
		{"👍🏽", true},
		{"👨‍👩‍👧", true},
		{"1️⃣", true},
		{":)", false},
		{"hi 😀", false},
		{"", false},
		{"   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsEmojiOnly(tt.input))
		})
	}
}

func TestWrapEmoji(t *testing.T) {
	t.Run("Последовательность эмодзи оборачивается целиком", func(t *testing.T) {
		assert.Equal(t, `a <span class="emoji">😀😀</span> b`, WrapEmoji("a 😀😀 b"))
	})

	t.Run("ZWJ-последовательность не разрывается", func(t *testing.T) {
		assert.Equal(t, `<span class="emoji">👩‍💻</span> ok`, WrapEmoji("👩‍💻 ok"))
	})

	t.Run("Пробел разделяет последовательности", func(t *testing.T) {
		assert.Equal(t, `<span class="emoji">😀</span> <span class="emoji">😀</span>`, WrapEmoji("😀 😀"))
	})

	t.Run("Текст без эмодзи не меняется", func(t *testing.T) {
		assert.Equal(t, "plain", WrapEmoji("plain"))
	})
}

func TestLinkify(t *testing.T) {
	got := Linkify("see https://example.com/a?b=1 and http://x.org")
	assert.Equal(t,
		`see <a href="https://example.com/a?b=1" target="_blank" rel="noopener noreferrer">https://example.com/a?b=1</a>`+
			` and <a href="http://x.org" target="_blank" rel="noopener noreferrer">http://x.org</a>`,
		got)

	assert.Equal(t, "ftp://example.com", Linkify("ftp://example.com"))
}

func TestContent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Смайл и ссылка",
			input:    "Hello :) visit https://x.com",
			expected: `Hello <span class="emoji">😊</span> visit <a href="https://x.com" target="_blank" rel="noopener noreferrer">https://x.com</a>`,
		},
		{
			name:     "HTML экранируется",
			input:    "<b>bold</b>",
			expected: "&lt;b&gt;bold&lt;/b&gt;",
		},
		{
			name:     "Сердце заменяется до экранирования",
			input:    "<3",
			expected: `<span class="emoji">❤️</span>`,
		},
		{
			name:     "Эмодзи сразу после ссылки не попадает в href",
			input:    "https://x.com😀",
			expected: `<a href="https://x.com" target="_blank" rel="noopener noreferrer">https://x.com</a><span class="emoji">😀</span>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Content(tt.input))
		})
	}
}

func TestTimestampHelpers(t *testing.T) {
	ts := time.Date(2023, time.January, 2, 9, 5, 7, 0, time.Local)

	assert.Equal(t, "02.01.2023", Date(ts))
	assert.Equal(t, "09:05", Time(ts))

	tests := []struct {
		original string
		expected string
	}{
		{"02.01.23 09:05", "02.01.23 09:05"},
		{"2.1.2023 9:05", "2.1.2023 9:05"},
		{"[02.01.23 09:05:07]", "[02.01.23 09:05:07]"},
		{"[2.1.2023 9:05]", "[2.1.2023 9:05]"},
		{"2.1.023 9:05", "2.1.023 9:05"},
		{"[02.01.0023 09:05:07]", "[02.01.0023 09:05:07]"},
		{"garbage", "02.01.2023 09:05"},
		{"[garbage", "[02.01.2023 09:05:07]"},
	}

	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			assert.Equal(t, tt.expected, TimestampInOriginalFormat(ts, tt.original))
		})
	}
}
