package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const pngDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func TestDataURLMaskerHandler_Handle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "data URL в сообщении",
			input:    "loaded " + pngDataURL + " for msg_3",
			expected: "loaded data:image/png;base64,*** for msg_3",
		},
		{
			name:     "без data URL",
			input:    "This is a normal log message",
			expected: "This is a normal log message",
		},
		{
			name:     "несколько data URL",
			input:    "a=data:audio/ogg;base64,T2dnUw== b=data:application/pdf;base64,JVBERi0=",
			expected: "a=data:audio/ogg;base64,*** b=data:application/pdf;base64,***",
		},
		{
			name:     "тип с параметрами",
			input:    "data:text/plain;charset=utf-8;base64,aGVsbG8=",
			expected: "data:text/plain;charset=utf-8;base64,***",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := NewMaskedLogger(slog.NewTextHandler(&buf, nil))

			logger.Info(tt.input)

			assert.Contains(t, buf.String(), tt.expected)
		})
	}
}

func TestDataURLMaskerHandler_Attrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMaskedLogger(slog.NewJSONHandler(&buf, nil))

	logger = logger.With(slog.String("url", pngDataURL))
	logger.Info("media loaded",
		"error", errors.New("bad payload "+pngDataURL),
		slog.Group("media", slog.String("url", pngDataURL), slog.Int("size", 68)),
	)

	output := buf.String()
	assert.NotContains(t, output, "iVBORw0KGgo")
	assert.Equal(t, 3, strings.Count(output, "data:image/png;base64,***"))
	assert.Contains(t, output, `"size":68`)
}

func TestDataURLMaskerHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMaskedLogger(slog.NewJSONHandler(&buf, nil)).WithGroup("loader")

	logger.Info("patched", "url", pngDataURL)

	assert.Contains(t, buf.String(), `"loader":{"url":"data:image/png;base64,***"}`)
}

func TestRedisAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := &RedisAdapter{Logger: NewMaskedLogger(slog.NewTextHandler(&buf, nil))}

	adapter.Printf(context.Background(), "redis: connection pool: %s\n", "failed to dial")

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), `msg="redis: connection pool: failed to dial"`)
	assert.Contains(t, buf.String(), "component=redis")
}
