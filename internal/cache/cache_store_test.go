package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

const helloWorldSHA256 = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func chatWith(ids ...string) *domain.ParsedChat {
	chat := &domain.ParsedChat{Participants: []string{"Alice"}}
	for _, id := range ids {
		chat.Messages = append(chat.Messages, domain.ChatMessage{ID: id, Sender: "Alice", Content: id})
	}
	return chat
}

// fakeClock: управляемое время для проверки сроков без ожидания.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)}
}

func TestCacheStore(t *testing.T) {
	t.Run("Запись и чтение", func(t *testing.T) {
		clock := newClock()
		cs := NewCacheStore(WithClock(clock.Now))
		data := chatWith("msg_0")

		cs.Put("key", data, time.Minute)

		item, found := cs.Get("key")
		require.True(t, found)
		assert.Equal(t, data, item.Chat)
		assert.Equal(t, clock.Now().Add(time.Minute), item.ExpiresAt)
	})

	t.Run("Промах и просроченная запись", func(t *testing.T) {
		clock := newClock()
		cs := NewCacheStore(WithClock(clock.Now))
		cs.Put("key", chatWith("msg_0"), time.Minute)

		_, found := cs.Get("missing")
		assert.False(t, found)

		clock.Advance(2 * time.Minute)
		_, found = cs.Get("key")
		assert.False(t, found)
		assert.Equal(t, 1, cs.Len(), "просроченная запись удаляется только очисткой")

		stats := cs.Stats()
		assert.Equal(t, uint64(0), stats.Hits)
		assert.Equal(t, uint64(2), stats.Misses)
	})

	t.Run("Очистка просроченных", func(t *testing.T) {
		clock := newClock()
		cs := NewCacheStore(WithClock(clock.Now))
		cs.Put("short", chatWith("msg_1"), time.Minute)
		cs.Put("long", chatWith("msg_2"), time.Hour)

		clock.Advance(10 * time.Minute)
		assert.Equal(t, 1, cs.CleanupExpired())

		_, found := cs.Get("long")
		assert.True(t, found)
		assert.Equal(t, 1, cs.Len())
	})

	t.Run("Кэш хранит независимую копию", func(t *testing.T) {
		cs := NewCacheStore()
		original := chatWith("msg_0")
		cs.Put("key", original, time.Minute)

		original.Messages[0].Content = "changed before read"

		item, found := cs.Get("key")
		require.True(t, found)
		assert.Equal(t, "msg_0", item.Chat.Messages[0].Content)

		item.Chat.PatchMediaURL("msg_0", "data:x")

		again, _ := cs.Get("key")
		assert.Empty(t, again.Chat.Messages[0].MediaURL, "изменение полученной копии не попадает в кэш")
	})

	t.Run("Delete", func(t *testing.T) {
		cs := NewCacheStore()
		cs.Put("key", chatWith("msg_0"), time.Minute)
		cs.Delete("key")
		_, found := cs.Get("key")
		assert.False(t, found)
	})
}

func TestCacheStore_MaxEntries(t *testing.T) {
	t.Run("Вытесняется запись с ближайшим сроком", func(t *testing.T) {
		clock := newClock()
		cs := NewCacheStore(WithClock(clock.Now), WithMaxEntries(2))

		cs.Put("a", chatWith("a"), time.Hour)
		cs.Put("b", chatWith("b"), time.Minute)
		cs.Put("c", chatWith("c"), time.Hour)

		assert.Equal(t, 2, cs.Len())
		_, found := cs.Get("b")
		assert.False(t, found)
		_, found = cs.Get("a")
		assert.True(t, found)
	})

	t.Run("Сначала вытесняются просроченные", func(t *testing.T) {
		clock := newClock()
		cs := NewCacheStore(WithClock(clock.Now), WithMaxEntries(2))

		cs.Put("a", chatWith("a"), time.Minute)
		cs.Put("b", chatWith("b"), time.Minute)
		clock.Advance(5 * time.Minute)
		cs.Put("c", chatWith("c"), time.Hour)

		assert.Equal(t, 1, cs.Len())
	})

	t.Run("Перезапись существующего ключа не вытесняет", func(t *testing.T) {
		cs := NewCacheStore(WithMaxEntries(2))
		cs.Put("a", chatWith("a"), time.Hour)
		cs.Put("b", chatWith("b"), time.Minute)
		cs.Put("b", chatWith("b2"), time.Minute)

		assert.Equal(t, 2, cs.Len())
		item, found := cs.Get("a")
		require.True(t, found)
		assert.Equal(t, "a", item.Chat.Messages[0].ID)
	})

	t.Run("0 снимает ограничение", func(t *testing.T) {
		cs := NewCacheStore(WithMaxEntries(0))
		for _, k := range []string{"a", "b", "c", "d"} {
			cs.Put(k, chatWith(k), time.Hour)
		}
		assert.Equal(t, 4, cs.Len())
	})
}

func TestStartCleanupTicker(t *testing.T) {
	cs := NewCacheStore()
	cs.Put("expired", chatWith("msg_1"), 50*time.Millisecond)
	cs.Put("valid", chatWith("msg_2"), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cs.StartCleanupTicker(ctx, 20*time.Millisecond)

	assert.Eventually(t, func() bool { return cs.Len() == 1 }, time.Second, 10*time.Millisecond,
		"просроченная запись должна быть удалена тикером")

	_, found := cs.Get("valid")
	assert.True(t, found)
}

func TestCalculateHash(t *testing.T) {
	assert.Equal(t, helloWorldSHA256, CalculateHash([]byte("hello world")))
}

func TestHashFile(t *testing.T) {
	t.Run("Совпадает с CalculateHash", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chat.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

		hash, err := HashFile(path)
		require.NoError(t, err)
		assert.Equal(t, helloWorldSHA256, hash)
	})

	t.Run("Файл не найден", func(t *testing.T) {
		_, err := HashFile(filepath.Join(t.TempDir(), "missing.txt"))
		assert.Error(t, err)
	})

	t.Run("Директория вместо файла", func(t *testing.T) {
		_, err := HashFile(t.TempDir())
		assert.Error(t, err)
	})
}
