// Package client: клиент HTTP API сервера разбора переписок.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

// Статусы задачи в ответах сервера.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrNotCached возвращается ParseByHash, если сервер не знает результата для хеша.
var ErrNotCached = errors.New("result is not cached on the server")

// ServerClient: клиент для взаимодействия с API бэкенд-сервера.
type ServerClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewServerClient создает новый экземпляр ServerClient.
func NewServerClient(baseURL string, logger *slog.Logger) *ServerClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second, // Общий таймаут для запросов
		},
		logger: logger,
	}
}

// API-ответы
type StartTaskResponse struct {
	TaskID string `json:"task_id"`
}

type TaskStatusResponse struct {
	TaskID       string `json:"task_id"`
	FileName     string `json:"file_name,omitempty"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// PaginationDTO представляет собой объект пагинации из ответа сервера.
type PaginationDTO struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

type TaskResultResponse struct {
	Pagination   PaginationDTO        `json:"pagination"`
	Participants []string             `json:"participants"`
	IsGroup      bool                 `json:"is_group"`
	GroupName    string               `json:"group_name,omitempty"`
	Data         []domain.ChatMessage `json:"data"`
}

// ResultQuery: параметры выборки результата.
type ResultQuery struct {
	Page     int
	PageSize int
	Sender   string
	Last     int
}

// StatusError: ответ сервера с неожиданным кодом.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Body)
}

// StartTask отправляет экспорт (.txt или .zip) на сервер для начала разбора.
func (c *ServerClient) StartTask(ctx context.Context, fileName string, content io.Reader) (*StartTaskResponse, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file for %s: %w", fileName, err)
	}
	if _, err = io.Copy(fw, content); err != nil {
		return nil, fmt.Errorf("failed to copy file content for %s: %w", fileName, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/parse", &b)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result StartTaskResponse
	if err := c.do(req, http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ParseByHash создает задачу из результата, закешированного на сервере по SHA-256 экспорта.
// Если результата нет, возвращается ErrNotCached: файл нужно загрузить через StartTask.
func (c *ServerClient) ParseByHash(ctx context.Context, hash string) (*StartTaskResponse, error) {
	body, err := json.Marshal(map[string]string{"hash": hash})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/parse-by-hash", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result StartTaskResponse
	if err := c.do(req, http.StatusAccepted, &result); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, ErrNotCached
		}
		return nil, err
	}
	return &result, nil
}

// GetTaskStatus запрашивает статус задачи.
func (c *ServerClient) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/tasks/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result TaskStatusResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskResult запрашивает страницу результата выполненной задачи.
func (c *ServerClient) GetTaskResult(ctx context.Context, taskID string, q ResultQuery) (*TaskResultResponse, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.Sender != "" {
		params.Set("sender", q.Sender)
	}
	if q.Last > 0 {
		params.Set("last", strconv.Itoa(q.Last))
	}

	u := fmt.Sprintf("%s/api/v1/tasks/%s/result?%s", c.baseURL, url.PathEscape(taskID), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result TaskResultResponse
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LoadMedia просит сервер догрузить вложения задачи из хранилища медиа.
// Возвращает количество обновленных сообщений.
func (c *ServerClient) LoadMedia(ctx context.Context, taskID string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/tasks/"+url.PathEscape(taskID)+"/media", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	var result struct {
		Patched int    `json:"patched"`
		Error   string `json:"error,omitempty"`
	}
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return 0, err
	}
	if result.Error != "" {
		c.logger.WarnContext(ctx, "media loaded partially", slog.String("task_id", taskID), slog.String("error", result.Error))
	}
	return result.Patched, nil
}

// WaitForTask опрашивает статус задачи с интервалом interval, пока она не завершится.
// Для задачи со статусом failed возвращается ошибка с сообщением сервера.
func (c *ServerClient) WaitForTask(ctx context.Context, taskID string, interval time.Duration) (*TaskStatusResponse, error) {
	logger := c.logger.With(slog.String("task_id", taskID))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.GetTaskStatus(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("failed to get task status: %w", err)
		}

		switch status.Status {
		case StatusCompleted:
			logger.Info("task completed")
			return status, nil
		case StatusFailed:
			return status, fmt.Errorf("task failed: %s", status.ErrorMessage)
		case StatusPending, StatusProcessing:
			logger.Debug("task is in progress", slog.String("status", status.Status))
		default:
			logger.Warn("unknown task status", slog.String("status", status.Status))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// FetchAll собирает все страницы результата в одну переписку.
func (c *ServerClient) FetchAll(ctx context.Context, taskID string, q ResultQuery) (*domain.ParsedChat, error) {
	if q.PageSize <= 0 {
		q.PageSize = 500
	}
	chat := &domain.ParsedChat{Messages: []domain.ChatMessage{}}

	for page := 1; ; page++ {
		q.Page = page
		result, err := c.GetTaskResult(ctx, taskID, q)
		if err != nil {
			return nil, fmt.Errorf("failed to get task result page %d: %w", page, err)
		}

		chat.Messages = append(chat.Messages, result.Data...)
		chat.Participants = result.Participants
		chat.IsGroup = result.IsGroup
		chat.GroupName = result.GroupName

		if page >= result.Pagination.TotalPages {
			break // Все страницы собраны
		}
	}

	return chat, nil
}

func (c *ServerClient) do(req *http.Request, expected int, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != expected {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
