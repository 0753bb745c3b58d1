package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

// mockStore: это мок для интерфейса ports.MediaStore.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) PutAll(ctx context.Context, media domain.MediaMap) (int, error) {
	args := m.Called(ctx, media)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Keys(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if keys := args.Get(0); keys != nil {
		return keys.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetAll(ctx context.Context) (domain.MediaMap, error) {
	args := m.Called(ctx)
	if media := args.Get(0); media != nil {
		return media.(domain.MediaMap), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// recordingObserver запоминает результаты загрузок.
type recordingObserver struct {
	mu      sync.Mutex
	results []string
}

func (o *recordingObserver) ObserveLazyLoad(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pendingChat() *domain.ParsedChat {
	return &domain.ParsedChat{
		Messages: []domain.ChatMessage{
			{ID: "msg_0", Sender: "Alice", Content: "hi"},
			{ID: "msg_1", Sender: "Bob", IsMedia: true, MediaType: domain.MediaTypeUnknown, MediaName: "IMG-20230501-WA0001"},
			{ID: "msg_2", Sender: "Alice", IsMedia: true, MediaType: domain.MediaTypeDocument, MediaName: "notes.pdf"},
			{ID: "msg_3", Sender: "Bob", IsMedia: true, MediaType: domain.MediaTypeUnknown, MediaName: "IMG-20230501-WA0001"},
			{ID: "msg_4", Sender: "Bob", IsMedia: true, MediaName: "done.jpg", MediaURL: "data:done"},
		},
		Participants: []string{"Alice", "Bob"},
	}
}

func TestMediaLoader_Load_Success(t *testing.T) {
	store := new(mockStore)
	observer := &recordingObserver{}
	loader := NewMediaLoader(store, WithLogger(discardLogger()), WithObserver(observer))

	store.On("Keys", mock.Anything).Return([]string{"IMG-20230501-WA0001.jpg", "notes.pdf"}, nil).Once()
	store.On("Get", mock.Anything, "IMG-20230501-WA0001.jpg").Return("data:image/jpeg;base64,AAA", nil).Once()
	store.On("Get", mock.Anything, "notes.pdf").Return("data:application/pdf;base64,BBB", nil).Once()

	chat := pendingChat()
	patched, err := loader.Load(context.Background(), chat)

	require.NoError(t, err)
	assert.Equal(t, 3, patched)

	assert.Equal(t, "data:image/jpeg;base64,AAA", chat.Messages[1].MediaURL)
	assert.Equal(t, "IMG-20230501-WA0001.jpg", chat.Messages[1].MediaName, "имя заменяется ключом хранилища")
	assert.Equal(t, domain.MediaTypeImage, chat.Messages[1].MediaType, "неизвестный тип уточняется по расширению")
	assert.Equal(t, "data:image/jpeg;base64,AAA", chat.Messages[3].MediaURL)
	assert.Equal(t, "data:application/pdf;base64,BBB", chat.Messages[2].MediaURL)
	assert.Equal(t, "data:done", chat.Messages[4].MediaURL, "уже загруженные сообщения не трогаются")

	ids := make([]string, 0, len(chat.Messages))
	for _, m := range chat.Messages {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"msg_0", "msg_1", "msg_2", "msg_3", "msg_4"}, ids)
	assert.ElementsMatch(t, []string{LoadResultLoaded, LoadResultLoaded}, observer.results)

	store.AssertExpectations(t)
}

func TestMediaLoader_Load_Missing(t *testing.T) {
	store := new(mockStore)
	observer := &recordingObserver{}
	loader := NewMediaLoader(store, WithLogger(discardLogger()), WithObserver(observer), WithPoolSize(1))

	store.On("Keys", mock.Anything).Return([]string{"notes.pdf"}, nil).Once()
	store.On("Get", mock.Anything, "notes.pdf").Return("", ports.ErrMediaNotFound).Once()

	chat := pendingChat()
	patched, err := loader.Load(context.Background(), chat)

	require.NoError(t, err, "отсутствующий файл не считается ошибкой")
	assert.Equal(t, 0, patched)
	assert.Empty(t, chat.Messages[1].MediaURL)
	assert.Equal(t, []string{LoadResultMissing, LoadResultMissing}, observer.results)
	store.AssertExpectations(t)
}

func TestMediaLoader_Load_StoreError(t *testing.T) {
	store := new(mockStore)
	loader := NewMediaLoader(store, WithLogger(discardLogger()))

	storeErr := errors.New("connection reset")
	store.On("Keys", mock.Anything).Return([]string{"IMG-20230501-WA0001.jpg", "notes.pdf"}, nil).Once()
	store.On("Get", mock.Anything, "IMG-20230501-WA0001.jpg").Return("", storeErr).Once()
	store.On("Get", mock.Anything, "notes.pdf").Return("data:pdf", nil).Once()

	chat := pendingChat()
	patched, err := loader.Load(context.Background(), chat)

	require.Error(t, err)
	assert.True(t, errors.Is(err, storeErr))
	assert.Equal(t, 1, patched, "успешные загрузки применяются несмотря на ошибки")
	assert.Equal(t, "data:pdf", chat.Messages[2].MediaURL)
}

func TestMediaLoader_Load_KeysError(t *testing.T) {
	store := new(mockStore)
	loader := NewMediaLoader(store, WithLogger(discardLogger()))

	store.On("Keys", mock.Anything).Return(nil, errors.New("redis down")).Once()

	_, err := loader.Load(context.Background(), pendingChat())
	assert.Error(t, err)
}

func TestMediaLoader_Load_NothingToDo(t *testing.T) {
	store := new(mockStore)
	loader := NewMediaLoader(store, WithLogger(discardLogger()))

	patched, err := loader.Load(context.Background(), &domain.ParsedChat{
		Messages: []domain.ChatMessage{{ID: "msg_0", Content: "hi"}},
	})

	require.NoError(t, err)
	assert.Zero(t, patched)
	store.AssertNotCalled(t, "Keys", mock.Anything)
}

func TestMediaLoader_Load_Timeout(t *testing.T) {
	store := new(mockStore)
	loader := NewMediaLoader(store,
		WithLogger(discardLogger()),
		WithTotalTimeout(50*time.Millisecond),
		WithOperationTimeout(time.Second),
		WithPoolSize(1),
	)

	store.On("Keys", mock.Anything).Return([]string{"IMG-20230501-WA0001.jpg", "notes.pdf"}, nil).Once()
	store.On("Get", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return("", context.DeadlineExceeded)

	_, err := loader.Load(context.Background(), pendingChat())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
