package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/parser"
	"github.com/syetrk/whatsapp-chat-viewer/internal/cache"
	"github.com/syetrk/whatsapp-chat-viewer/internal/core/services"
	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/format"
	"github.com/syetrk/whatsapp-chat-viewer/internal/pkg/config"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// ChatProcessor определяет интерфейс для варианта использования, который разбирает экспорт.
type ChatProcessor interface {
	ProcessChat(ctx context.Context, name string, data []byte) (*domain.ParsedChat, error)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	taskStore  *TaskStore
	cacheStore *cache.CacheStore
	mediaStore ports.MediaStore
	loader     ports.MediaLoader
	processor  ChatProcessor
	selection  *services.SelectionService
	metrics    http.Handler
	stop       context.CancelFunc
}

// Option настраивает Server.
type Option func(*Server)

// WithMetricsHandler подключает обработчик /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// New создает новый экземпляр Server
func New(
	cfg *config.Config,
	processor ChatProcessor,
	taskStore *TaskStore,
	cacheStore *cache.CacheStore,
	mediaStore ports.MediaStore,
	loader ports.MediaLoader,
	opts ...Option,
) (*Server, error) {
	if processor == nil || taskStore == nil || cacheStore == nil || mediaStore == nil || loader == nil {
		return nil, errors.New("server: все зависимости должны быть заданы")
	}

	s := &Server{
		cfg:        cfg,
		taskStore:  taskStore,
		cacheStore: cacheStore,
		mediaStore: mediaStore,
		loader:     loader,
		processor:  processor,
		selection:  services.NewSelectionService(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Тикеры очистки останавливаются в Shutdown
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.taskStore.StartCleanupTicker(ctx, cfg.Server.CleanupInterval)
	s.cacheStore.StartCleanupTicker(ctx, cfg.Server.CleanupInterval)

	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// Промежуточное ПО
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Конечная точка для проверки работоспособности
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/parse", s.handleParse)
		r.Post("/parse-by-hash", s.handleParseByHash)

		r.Route("/tasks/{taskID}", func(r chi.Router) {
			r.Get("/", s.handleTaskStatus)
			r.Get("/result", s.handleTaskResult)
			r.Post("/media", s.handleLoadMedia)
			r.Get("/messages/{messageID}/content", s.handleMessageContent)
			r.Post("/messages/{messageID}/media", s.handleMessageMedia)
		})

		r.Get("/media/{name}", s.handleGetMedia)
		r.Delete("/media", s.handleClearMedia)
	})

	return r
}

// handleParse принимает .txt или .zip экспорт и запускает задачу разбора
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.MaxUploadSize() {
		http.Error(w, "Файл слишком большой", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize())
	if err := r.ParseMultipartForm(s.cfg.MaxUploadSize()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Файл слишком большой", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Не удалось разобрать форму", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Не удалось получить файл из формы", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Не удалось прочитать загруженный файл", http.StatusBadRequest)
		return
	}

	taskID := uuid.NewString()
	s.taskStore.CreateTask(taskID, header.Filename, s.cfg.Processing.TaskTTL)
	slog.InfoContext(r.Context(), "Файл получен", "task_id", taskID, "file", header.Filename, "size", len(data))

	go s.runTask(taskID, header.Filename, data)

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// runTask выполняет разбор в отдельной горутине с таймаутом из конфигурации
func (s *Server) runTask(taskID, fileName string, data []byte) {
	_ = s.taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

	taskCtx := context.Background()
	if s.cfg.Processing.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, s.cfg.Processing.TaskTimeout)
		defer cancel()
	}

	result, err := s.processor.ProcessChat(taskCtx, fileName, data)
	if err != nil {
		slog.Error("Ошибка обработки задачи", "task_id", taskID, "error", err)
		_ = s.taskStore.UpdateTaskError(taskID, err.Error())
		return
	}

	_ = s.taskStore.UpdateTaskResult(taskID, result)
	slog.Info("Задача выполнена", "task_id", taskID, "messages", len(result.Messages))
}

// handleParseByHash создает задачу из закешированного результата без повторной загрузки файла
func (s *Server) handleParseByHash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Не удалось декодировать тело запроса", http.StatusBadRequest)
		return
	}
	if req.Hash == "" {
		http.Error(w, "Требуется хеш", http.StatusBadRequest)
		return
	}

	item, found := s.cacheStore.Get(req.Hash)
	if !found {
		slog.InfoContext(r.Context(), "Промах кеша для хеша", "hash", req.Hash)
		http.Error(w, "Результат для данного хеша не найден", http.StatusNotFound)
		return
	}

	taskID := uuid.NewString()
	s.taskStore.CreateTask(taskID, "", s.cfg.Processing.TaskTTL)
	_ = s.taskStore.UpdateTaskResult(taskID, item.Chat)
	slog.InfoContext(r.Context(), "Попадание в кеш для хеша", "hash", req.Hash, "task_id", taskID)

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := s.lookupTask(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task_id":       task.ID,
		"file_name":     task.FileName,
		"status":        task.Status,
		"error_message": task.ErrorMessage,
		"created_at":    task.CreatedAt,
		"updated_at":    task.UpdatedAt,
	})
}

// ResultResponse: страница результата задачи
type ResultResponse struct {
	Pagination   Pagination           `json:"pagination"`
	Participants []string             `json:"participants"`
	IsGroup      bool                 `json:"is_group"`
	GroupName    string               `json:"group_name,omitempty"`
	Data         []domain.ChatMessage `json:"data"`
}

// Pagination: метаданные страницы
type Pagination struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// handleTaskResult отдает страницу сообщений. Параметры: page, page_size, sender, last.
func (s *Server) handleTaskResult(w http.ResponseWriter, r *http.Request) {
	task, ok := s.completedTask(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := queryInt(q.Get("page"), 1)
	if err != nil || page < 1 {
		http.Error(w, "Некорректный параметр page", http.StatusBadRequest)
		return
	}
	pageSize, err := queryInt(q.Get("page_size"), defaultPageSize)
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		http.Error(w, fmt.Sprintf("page_size должен быть от 1 до %d", maxPageSize), http.StatusBadRequest)
		return
	}
	last, err := queryInt(q.Get("last"), 0)
	if err != nil || last < 0 {
		http.Error(w, "Некорректный параметр last", http.StatusBadRequest)
		return
	}

	p := s.selection.Select(task.Result, services.Selection{
		Sender:   q.Get("sender"),
		Last:     last,
		Page:     page,
		PageSize: pageSize,
	})

	writeJSON(w, http.StatusOK, ResultResponse{
		Pagination: Pagination{
			CurrentPage: p.Page,
			PageSize:    p.PageSize,
			TotalItems:  p.Total,
			TotalPages:  p.TotalPages,
		},
		Participants: task.Result.Participants,
		IsGroup:      task.Result.IsGroup,
		GroupName:    task.Result.GroupName,
		Data:         p.Messages,
	})
}

// MessageContent: сообщение, подготовленное к отображению
type MessageContent struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	HTML      string `json:"html"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Timestamp string `json:"timestamp"`
	IsEmoji   bool   `json:"is_emoji"`
}

func (s *Server) handleMessageContent(w http.ResponseWriter, r *http.Request) {
	task, ok := s.completedTask(w, r)
	if !ok {
		return
	}

	msg, found := task.Result.Message(chi.URLParam(r, "messageID"))
	if !found {
		http.Error(w, "Сообщение не найдено", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, MessageContent{
		ID:        msg.ID,
		Sender:    msg.Sender,
		HTML:      format.Content(msg.Content),
		Date:      format.Date(msg.Date),
		Time:      format.Time(msg.Date),
		Timestamp: format.TimestampInOriginalFormat(msg.Date, msg.TimestampText),
		IsEmoji:   msg.IsEmoji,
	})
}

// handleLoadMedia догружает все вложения задачи из хранилища медиа
func (s *Server) handleLoadMedia(w http.ResponseWriter, r *http.Request) {
	task, ok := s.completedTask(w, r)
	if !ok {
		return
	}

	patched, loadErr := s.loader.Load(r.Context(), task.Result)
	if patched > 0 {
		if err := s.taskStore.PatchResult(task.ID, func(chat *domain.ParsedChat) {
			mergeMedia(chat, task.Result)
		}); err != nil {
			http.Error(w, "Задача не найдена", http.StatusNotFound)
			return
		}
	}

	resp := map[string]interface{}{"patched": patched}
	if loadErr != nil {
		slog.WarnContext(r.Context(), "Медиа загружены частично", "task_id", task.ID, "error", loadErr)
		resp["error"] = loadErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMessageMedia догружает вложение одного сообщения и возвращает обновленное сообщение
func (s *Server) handleMessageMedia(w http.ResponseWriter, r *http.Request) {
	task, ok := s.completedTask(w, r)
	if !ok {
		return
	}

	msg, found := task.Result.Message(chi.URLParam(r, "messageID"))
	if !found {
		http.Error(w, "Сообщение не найдено", http.StatusNotFound)
		return
	}
	if !msg.NeedsMedia() {
		writeJSON(w, http.StatusOK, msg)
		return
	}

	single := &domain.ParsedChat{Messages: []domain.ChatMessage{*msg}}
	if _, err := s.loader.Load(r.Context(), single); err != nil {
		slog.ErrorContext(r.Context(), "Не удалось загрузить медиа", "task_id", task.ID, "message_id", msg.ID, "error", err)
		http.Error(w, "Не удалось загрузить медиа", http.StatusBadGateway)
		return
	}

	loaded := single.Messages[0]
	if loaded.MediaURL == "" {
		http.Error(w, "Медиафайл не найден", http.StatusNotFound)
		return
	}

	if err := s.taskStore.PatchResult(task.ID, func(chat *domain.ParsedChat) {
		mergeMedia(chat, single)
	}); err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, loaded)
}

// handleGetMedia отдает ссылку на медиафайл. Имя сопоставляется так же, как при разборе.
func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	keys, err := s.mediaStore.Keys(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Не удалось получить список медиа", "error", err)
		http.Error(w, "Хранилище медиа недоступно", http.StatusBadGateway)
		return
	}

	key, found := parser.MatchName(name, keys)
	if !found {
		http.Error(w, "Медиафайл не найден", http.StatusNotFound)
		return
	}

	url, err := s.mediaStore.Get(r.Context(), key)
	switch {
	case errors.Is(err, ports.ErrMediaNotFound):
		http.Error(w, "Медиафайл не найден", http.StatusNotFound)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Не удалось получить медиа", "name", key, "error", err)
		http.Error(w, "Хранилище медиа недоступно", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"name": key, "url": url})
}

func (s *Server) handleClearMedia(w http.ResponseWriter, r *http.Request) {
	if err := s.mediaStore.Clear(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Не удалось очистить хранилище медиа", "error", err)
		http.Error(w, "Хранилище медиа недоступно", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookupTask находит задачу по taskID из URL; при ошибке ответ уже записан
func (s *Server) lookupTask(w http.ResponseWriter, r *http.Request) (*Task, bool) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return nil, false
	}
	return task, true
}

// completedTask как lookupTask, но дополнительно требует завершенную задачу
func (s *Server) completedTask(w http.ResponseWriter, r *http.Request) (*Task, bool) {
	task, ok := s.lookupTask(w, r)
	if !ok {
		return nil, false
	}
	if task.Status != TaskStatusCompleted || task.Result == nil {
		http.Error(w, "Задача не завершена", http.StatusConflict)
		return nil, false
	}
	return task, true
}

// mergeMedia переносит загруженные ссылки из src в dst по ID сообщения.
// Уже проставленные ссылки в dst не перезаписываются.
func mergeMedia(dst, src *domain.ParsedChat) int {
	merged := 0
	for _, m := range src.Messages {
		if m.MediaURL == "" {
			continue
		}
		target, ok := dst.Message(m.ID)
		if !ok || target.MediaURL != "" {
			continue
		}
		target.MediaURL = m.MediaURL
		target.MediaName = m.MediaName
		target.MediaType = m.MediaType
		merged++
	}
	return merged
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Не удалось записать ответ", "error", err)
	}
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера и останавливает фоновые тикеры
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Завершение работы HTTP-сервера")
	s.stop()
	return s.HTTPServer.Shutdown(ctx)
}

