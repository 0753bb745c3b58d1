package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	t.Run("NewFileSource создает корректный экземпляр", func(t *testing.T) {
		source := NewFileSource("chat.txt", nil)
		if source == nil {
			t.Error("Ожидался экземпляр FileSource, получен nil")
		}
	})

	t.Run("Fetch возвращает ошибку для пустого пути к файлу", func(t *testing.T) {
		source := NewFileSource("", nil)

		export, err := source.Fetch()

		require.Error(t, err)
		assert.Nil(t, export)
		assert.Equal(t, "не указан путь к файлу", err.Error())
	})

	t.Run("Fetch возвращает ошибку для несуществующего файла", func(t *testing.T) {
		source := NewFileSource("non_existing_file.txt", nil)

		export, err := source.Fetch()

		assert.Error(t, err)
		assert.Nil(t, export)
	})

	t.Run("Fetch читает .txt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "WhatsApp Chat with Bob.txt")
		require.NoError(t, os.WriteFile(path, []byte(transcript), 0o600))

		export, err := NewFileSource(path, nil).Fetch()

		require.NoError(t, err)
		assert.Equal(t, transcript, export.Transcript)
	})

	t.Run("Fetch читает .zip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export.zip")
		require.NoError(t, os.WriteFile(path, zipWithTranscript(t), 0o600))

		export, err := NewFileSource(path, nil).Fetch()

		require.NoError(t, err)
		assert.Equal(t, transcript, export.Transcript)
		assert.Len(t, export.Media, 1)
	})

	t.Run("Fetch отклоняет другие расширения", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "result.json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

		_, err := NewFileSource(path, nil).Fetch()

		assert.True(t, errors.Is(err, ErrUnsupportedFile))
	})
}
