package parser

import (
	"sort"
	"strings"
	"time"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

// MediaRef: то, что известно о вложении из текста сообщения.
type MediaRef struct {
	Name string
	Type domain.MediaType
	Date time.Time
}

// Binding: найденный для вложения файл.
type Binding struct {
	// Name: ключ таблицы медиа, к которому привязано сообщение.
	Name string
	URL  string
	// Strategy: имя сработавшей стратегии, для логов и отладки.
	Strategy string
}

// strategy ищет подходящий ключ среди отсортированных имен файлов.
type strategy struct {
	name  string
	match func(ref MediaRef, keys []string) (string, bool)
}

var (
	// namedStrategies применяются, когда в тексте найдено имя файла.
	namedStrategies = []strategy{
		{"exact", matchExact},
		{"substring", matchSubstring},
		{"date", matchDate},
	}
	// anonymousStrategies применяются к заглушкам без имени ("<Media omitted>").
	anonymousStrategies = []strategy{
		{"date", matchDate},
		{"type", matchType},
	}
)

// Resolver сопоставляет вложения с файлами из таблицы медиа.
// Таблица только читается. Ключи перебираются в лексикографическом порядке,
// поэтому при нескольких подходящих файлах результат детерминирован.
type Resolver struct {
	media domain.MediaMap
	keys  []string
}

// NewResolver создает Resolver поверх таблицы медиа (может быть nil).
func NewResolver(media domain.MediaMap) *Resolver {
	keys := make([]string, 0, len(media))
	for k := range media {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return &Resolver{media: media, keys: keys}
}

// Resolve подбирает файл для вложения. Второе значение false, если ничего не найдено.
func (r *Resolver) Resolve(ref MediaRef) (Binding, bool) {
	if len(r.keys) == 0 {
		return Binding{}, false
	}

	strategies := anonymousStrategies
	if ref.Name != "" {
		strategies = namedStrategies
	}

	for _, s := range strategies {
		if key, ok := s.match(ref, r.keys); ok {
			return Binding{Name: key, URL: r.media[key], Strategy: s.name}, true
		}
	}
	return Binding{}, false
}

// Lookup ищет файл только по имени: точное совпадение, затем вхождение подстроки.
// Используется при ленивой догрузке, когда известна лишь подпись вложения.
func (r *Resolver) Lookup(name string) (Binding, bool) {
	key, ok := MatchName(name, r.keys)
	if !ok {
		return Binding{}, false
	}
	return Binding{Name: key, URL: r.media[key], Strategy: "lookup"}, true
}

// MatchName подбирает ключ по имени среди отсортированных keys: точное совпадение, затем подстрока.
// Нужен там, где таблица медиа не материализована (например, лежит в Redis) и известны только имена.
func MatchName(name string, keys []string) (string, bool) {
	if name == "" || len(keys) == 0 {
		return "", false
	}
	ref := MediaRef{Name: name}
	if key, ok := matchExact(ref, keys); ok {
		return key, true
	}
	return matchSubstring(ref, keys)
}

// ResolveMedia: ленивый поиск файла по имени во внешней таблице медиа.
// Возвращает ссылку на содержимое, либо ("", false).
func ResolveMedia(name string, media domain.MediaMap) (string, bool) {
	b, ok := NewResolver(media).Lookup(name)
	if !ok {
		return "", false
	}
	return b.URL, true
}

func matchExact(ref MediaRef, keys []string) (string, bool) {
	i := sort.SearchStrings(keys, ref.Name)
	if i < len(keys) && keys[i] == ref.Name {
		return ref.Name, true
	}
	return "", false
}

func matchSubstring(ref MediaRef, keys []string) (string, bool) {
	name := strings.ToLower(ref.Name)
	for _, k := range keys {
		if k == "" {
			continue
		}
		lk := strings.ToLower(k)
		if strings.Contains(lk, name) || strings.Contains(name, lk) {
			return k, true
		}
	}
	return "", false
}

func matchDate(ref MediaRef, keys []string) (string, bool) {
	if ref.Date.IsZero() {
		return "", false
	}
	bucket := dayBucket(ref.Date)
	for _, k := range keys {
		if strings.Contains(k, bucket) {
			return k, true
		}
	}
	return "", false
}

func matchType(ref MediaRef, keys []string) (string, bool) {
	if ref.Type == domain.MediaTypeUnknown || ref.Type == "" {
		return "", false
	}
	for _, k := range keys {
		if domain.MediaTypeFromFilename(k) == ref.Type {
			return k, true
		}
	}
	return "", false
}
