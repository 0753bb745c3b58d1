package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

var (
	// ErrTaskNotFound возвращается, если задачи с таким ID нет или она уже удалена.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskFinished возвращается при попытке сменить состояние завершенной задачи.
	ErrTaskFinished = errors.New("task already finished")
	// ErrNoResult возвращается PatchResult, пока у задачи нет результата.
	ErrNoResult = errors.New("task has no result")
)

// TaskStatus представляет статус задачи разбора
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Finished сообщает, что статус конечный.
func (s TaskStatus) Finished() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task: одна задача разбора загруженного экспорта.
type Task struct {
	ID           string
	FileName     string
	Status       TaskStatus
	Result       *domain.ParsedChat
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    time.Time
}

// TaskStoreOption настраивает TaskStore.
type TaskStoreOption func(*TaskStore)

// WithTaskClock подменяет источник текущего времени.
func WithTaskClock(now func() time.Time) TaskStoreOption {
	return func(ts *TaskStore) {
		if now != nil {
			ts.now = now
		}
	}
}

// TaskStore хранит задачи в памяти процесса.
// Результат хранится в единственном экземпляре: наружу отдаются копии,
// изменения возможны только через PatchResult.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	now   func() time.Time
}

// NewTaskStore создает пустое хранилище задач.
func NewTaskStore(opts ...TaskStoreOption) *TaskStore {
	ts := &TaskStore{
		tasks: make(map[string]*Task),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// CreateTask регистрирует задачу в статусе pending, которая живет ttl.
func (ts *TaskStore) CreateTask(taskID, fileName string, ttl time.Duration) {
	now := ts.now()

	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.tasks[taskID] = &Task{
		ID:        taskID,
		FileName:  fileName,
		Status:    TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// update выполняет fn над задачей под блокировкой записи.
func (ts *TaskStore) update(taskID string, fn func(task *Task) error) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	task, ok := ts.tasks[taskID]
	if !ok {
		return fmt.Errorf("задача %s: %w", taskID, ErrTaskNotFound)
	}
	if err := fn(task); err != nil {
		return fmt.Errorf("задача %s: %w", taskID, err)
	}
	task.UpdatedAt = ts.now()
	return nil
}

// transition меняет состояние незавершенной задачи.
func (ts *TaskStore) transition(taskID string, fn func(task *Task)) error {
	return ts.update(taskID, func(task *Task) error {
		if task.Status.Finished() {
			return ErrTaskFinished
		}
		fn(task)
		return nil
	})
}

// UpdateTaskStatus меняет статус незавершенной задачи.
func (ts *TaskStore) UpdateTaskStatus(taskID string, status TaskStatus) error {
	return ts.transition(taskID, func(task *Task) {
		task.Status = status
	})
}

// UpdateTaskResult сохраняет копию результата и завершает задачу.
func (ts *TaskStore) UpdateTaskResult(taskID string, result *domain.ParsedChat) error {
	return ts.transition(taskID, func(task *Task) {
		task.Status = TaskStatusCompleted
		task.Result = result.Clone()
	})
}

// UpdateTaskError завершает задачу с ошибкой.
func (ts *TaskStore) UpdateTaskError(taskID string, errorMessage string) error {
	return ts.transition(taskID, func(task *Task) {
		task.Status = TaskStatusFailed
		task.ErrorMessage = errorMessage
	})
}

// PatchResult применяет fn к сохраненному результату под блокировкой.
// Используется для подстановки догруженных медиа в завершенную задачу.
func (ts *TaskStore) PatchResult(taskID string, fn func(chat *domain.ParsedChat)) error {
	return ts.update(taskID, func(task *Task) error {
		if task.Result == nil {
			return ErrNoResult
		}
		fn(task.Result)
		return nil
	})
}

// GetTask возвращает копию задачи.
func (ts *TaskStore) GetTask(taskID string) (*Task, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	task, ok := ts.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("задача %s: %w", taskID, ErrTaskNotFound)
	}

	out := *task
	out.Result = task.Result.Clone()
	return &out, nil
}

// Len возвращает количество задач, включая еще не удаленные просроченные.
func (ts *TaskStore) Len() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.tasks)
}

// CleanupExpired удаляет просроченные задачи и возвращает их количество.
func (ts *TaskStore) CleanupExpired() int {
	now := ts.now()

	ts.mu.Lock()
	defer ts.mu.Unlock()

	removed := 0
	for id, task := range ts.tasks {
		if now.After(task.ExpiresAt) {
			delete(ts.tasks, id)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker периодически удаляет просроченные задачи до отмены ctx.
func (ts *TaskStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := ts.CleanupExpired(); n > 0 {
					slog.DebugContext(ctx, "Просроченные задачи удалены", "count", n)
				}
			}
		}
	}()
}
