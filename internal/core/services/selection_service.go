package services

import (
	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

// AllSenders в Selection.Sender означает "без фильтра по отправителю".
const AllSenders = "all"

// Selection: параметры выборки сообщений.
type Selection struct {
	// Sender оставляет только сообщения этого отправителя (пусто или AllSenders означает всех).
	Sender string
	// Last оставляет только последние N сообщений после фильтрации (0 означает все).
	Last int
	// Page и PageSize задают страницу (нумерация с 1). При PageSize 0 страницы не делятся.
	Page     int
	PageSize int
}

// Page: страница выборки.
type Page struct {
	Messages   []domain.ChatMessage `json:"messages"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// SelectionService отбирает сообщения для отображения или экспорта.
type SelectionService struct{}

// NewSelectionService создает новый экземпляр SelectionService.
func NewSelectionService() *SelectionService {
	return &SelectionService{}
}

// Filter возвращает новую переписку с отобранными сообщениями.
// Участники и признаки группы сохраняются, исходная переписка не изменяется.
func (s *SelectionService) Filter(chat *domain.ParsedChat, sel Selection) *domain.ParsedChat {
	out := chat.Clone()
	if out == nil {
		return nil
	}

	if sel.Sender != "" && sel.Sender != AllSenders {
		filtered := make([]domain.ChatMessage, 0, len(out.Messages))
		for _, msg := range out.Messages {
			if msg.Sender == sel.Sender {
				filtered = append(filtered, msg)
			}
		}
		out.Messages = filtered
	}

	if sel.Last > 0 && len(out.Messages) > sel.Last {
		out.Messages = out.Messages[len(out.Messages)-sel.Last:]
	}

	return out
}

// Select применяет фильтр и возвращает запрошенную страницу.
func (s *SelectionService) Select(chat *domain.ParsedChat, sel Selection) Page {
	filtered := s.Filter(chat, sel)
	if filtered == nil {
		return Page{Messages: []domain.ChatMessage{}, Page: 1}
	}

	if filtered.Messages == nil {
		filtered.Messages = []domain.ChatMessage{}
	}
	total := len(filtered.Messages)
	if sel.PageSize <= 0 {
		return Page{Messages: filtered.Messages, Total: total, Page: 1, PageSize: total, TotalPages: 1}
	}

	page := sel.Page
	if page < 1 {
		page = 1
	}
	totalPages := (total + sel.PageSize - 1) / sel.PageSize
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * sel.PageSize
	if start > total {
		start = total
	}
	end := start + sel.PageSize
	if end > total {
		end = total
	}

	return Page{
		Messages:   filtered.Messages[start:end],
		Total:      total,
		Page:       page,
		PageSize:   sel.PageSize,
		TotalPages: totalPages,
	}
}
