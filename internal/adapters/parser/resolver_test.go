package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

func TestResolver_Resolve(t *testing.T) {
	may1 := time.Date(2023, time.May, 1, 10, 0, 0, 0, time.Local)

	t.Run("Точное совпадение важнее подстроки", func(t *testing.T) {
		r := NewResolver(domain.MediaMap{
			"A-photo.jpg": "loose",
			"photo.jpg":   "exact",
		})

		b, ok := r.Resolve(MediaRef{Name: "photo.jpg", Date: may1})
		require.True(t, ok)
		assert.Equal(t, "photo.jpg", b.Name)
		assert.Equal(t, "exact", b.URL)
		assert.Equal(t, "exact", b.Strategy)
	})

	t.Run("Подстрока без учета регистра", func(t *testing.T) {
		r := NewResolver(domain.MediaMap{"IMG-20230501-WA0001.JPG": "url"})

		b, ok := r.Resolve(MediaRef{Name: "img-20230501-wa0001"})
		require.True(t, ok)
		assert.Equal(t, "IMG-20230501-WA0001.JPG", b.Name, "сообщение привязывается к ключу таблицы")
		assert.Equal(t, "substring", b.Strategy)
	})

	t.Run("Ключ внутри имени из текста", func(t *testing.T) {
		r := NewResolver(domain.MediaMap{"WA0001.jpg": "url"})

		b, ok := r.Resolve(MediaRef{Name: "IMG-20230501-WA0001.jpg"})
		require.True(t, ok)
		assert.Equal(t, "WA0001.jpg", b.Name)
	})

	t.Run("Имя не найдено, срабатывает дата", func(t *testing.T) {
		r := NewResolver(domain.MediaMap{"IMG-20230501-WA0007.jpg": "url"})

		b, ok := r.Resolve(MediaRef{Name: "other.png", Date: may1})
		require.True(t, ok)
		assert.Equal(t, "IMG-20230501-WA0007.jpg", b.Name)
		assert.Equal(t, "date", b.Strategy)
	})

	t.Run("Без имени: сначала дата", func(t *testing.T) {
		r := NewResolver(domain.MediaMap{
			"a.png":                   "by-type",
			"IMG-20230501-WA0007.jpg": "by-date",
		})

		b, ok := r.Resolve(MediaRef{Type: domain.MediaTypeImage, Date: may1})
		require.True(t, ok)
		assert.Equal(t, "by-date", b.URL)
	})

	t.Run("Без имени: затем тип", func(t *testing.T) {
		r := NewResolver(domain.MediaMap{
			"b.pdf": "doc",
			"c.png": "img",
		})

		b, ok := r.Resolve(MediaRef{Type: domain.MediaTypeImage, Date: may1})
		require.True(t, ok)
		assert.Equal(t, "c.png", b.Name)
		assert.Equal(t, "type", b.Strategy)
	})

	t.Run("Неизвестный тип без даты не привязывается", func(t *testing.T) {
		r := NewResolver(domain.MediaMap{"c.png": "img"})

		_, ok := r.Resolve(MediaRef{Type: domain.MediaTypeUnknown, Date: may1})
		assert.False(t, ok)
	})

	t.Run("Несколько подходящих ключей: первый по алфавиту", func(t *testing.T) {
		r := NewResolver(domain.MediaMap{
			"IMG-20230501-WA0002.jpg": "second",
			"IMG-20230501-WA0001.jpg": "first",
		})

		for i := 0; i < 10; i++ {
			b, ok := r.Resolve(MediaRef{Date: may1})
			require.True(t, ok)
			assert.Equal(t, "first", b.URL)
		}
	})

	t.Run("Пустая таблица", func(t *testing.T) {
		_, ok := NewResolver(nil).Resolve(MediaRef{Name: "a.jpg", Date: may1})
		assert.False(t, ok)
	})
}

func TestResolveMedia(t *testing.T) {
	media := domain.MediaMap{
		"IMG-20230501-WA0001.jpg": "data:image/jpeg;base64,AAA",
		"IMG-20230502-WA0001.jpg": "data:image/jpeg;base64,BBB",
	}

	url, ok := ResolveMedia("IMG-20230501-WA0001.jpg", media)
	assert.True(t, ok)
	assert.Equal(t, "data:image/jpeg;base64,AAA", url)

	url, ok = ResolveMedia("img-20230502", media)
	assert.True(t, ok)
	assert.Equal(t, "data:image/jpeg;base64,BBB", url)

	_, ok = ResolveMedia("missing.png", media)
	assert.False(t, ok, "ленивый поиск не использует дату и тип")

	_, ok = ResolveMedia("", media)
	assert.False(t, ok)

	_, ok = ResolveMedia("a.jpg", nil)
	assert.False(t, ok)
}

func TestMatchName(t *testing.T) {
	keys := []string{"", "IMG-20230501-WA0001.jpg", "notes.pdf"}

	key, ok := MatchName("notes.pdf", keys)
	assert.True(t, ok)
	assert.Equal(t, "notes.pdf", key)

	key, ok = MatchName("IMG-20230501-WA0001", keys)
	assert.True(t, ok)
	assert.Equal(t, "IMG-20230501-WA0001.jpg", key)

	_, ok = MatchName("video.mp4", keys)
	assert.False(t, ok, "пустой ключ не совпадает с любым именем")
}
