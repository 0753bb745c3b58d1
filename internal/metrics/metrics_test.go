package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

func TestMetrics(t *testing.T) {
	m := New()

	chat := &domain.ParsedChat{
		Messages: []domain.ChatMessage{
			{ID: "msg_0", Content: "hi"},
			{ID: "msg_1", IsMedia: true, MediaURL: "data:x"},
			{ID: "msg_2", IsMedia: true},
			{ID: "msg_3", IsMedia: true},
		},
	}

	m.ObserveParse(15*time.Millisecond, chat)
	m.ObserveParseFailure()
	m.ObserveLazyLoad("loaded")
	m.ObserveLazyLoad("loaded")
	m.ObserveLazyLoad("missing")

	assert.Equal(t, 4.0, testutil.ToFloat64(m.parsedMessages))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parseFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mediaMessages.WithLabelValues("resolved")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.mediaMessages.WithLabelValues("unresolved")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.lazyLoads.WithLabelValues("loaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lazyLoads.WithLabelValues("missing")))

	t.Run("ObserveParse с nil", func(t *testing.T) {
		assert.NotPanics(t, func() { m.ObserveParse(time.Millisecond, nil) })
	})

	t.Run("Handler отдает метрики", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "chatviewer_parsed_messages_total 4")
		assert.Contains(t, rec.Body.String(), "chatviewer_parse_duration_seconds_bucket")
	})
}
