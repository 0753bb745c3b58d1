package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/format"
)

var (
	groupCreatedMarkers = []string{"created group", "grup oluşturdu"}
	groupNameRe         = regexp.MustCompile(`["'“”](.+?)["'“”]`)
)

// Assembler собирает сообщения из последовательности строк.
// Не потокобезопасен: один экземпляр на один разбор.
type Assembler struct {
	resolver *Resolver
	now      time.Time

	open         *domain.ChatMessage
	messages     []domain.ChatMessage
	participants []string
	seen         map[string]struct{}
	isGroup      bool
	groupName    string
}

// NewAssembler создает сборщик. now используется как дата по умолчанию для меток с нераспознанной датой.
func NewAssembler(media domain.MediaMap, now time.Time) *Assembler {
	return &Assembler{
		resolver: NewResolver(media),
		now:      now,
		seen:     make(map[string]struct{}),
	}
}

// Feed обрабатывает одну исходную строку. index: номер строки во входном тексте
// (с учетом пустых), из него строится ID сообщения.
func (a *Assembler) Feed(index int, raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}

	cl := ClassifyLine(line)
	switch cl.Kind {
	case LineMessage:
		a.flush()
		a.addParticipant(cl.Sender)
		a.open = a.newMessage(index, cl)

	case LineSystem:
		// Незавершенное сообщение перед системной строкой отбрасывается.
		a.open = nil
		a.messages = append(a.messages, a.newSystem(index, cl))
		a.detectGroup(cl.Body)

	default:
		if a.open != nil {
			a.open.Content += "\n" + line
		}
	}
}

// Finish выпускает последнее открытое сообщение и возвращает результат.
func (a *Assembler) Finish() *domain.ParsedChat {
	a.flush()

	messages := a.messages
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	participants := a.participants
	if participants == nil {
		participants = []string{}
	}

	return &domain.ParsedChat{
		Messages:     messages,
		Participants: participants,
		IsGroup:      a.isGroup,
		GroupName:    a.groupName,
	}
}

func (a *Assembler) flush() {
	if a.open == nil {
		return
	}
	msg := *a.open
	a.open = nil

	msg.IsEmoji = format.IsEmojiOnly(msg.Content)
	a.messages = append(a.messages, msg)
}

func (a *Assembler) newMessage(index int, cl Line) *domain.ChatMessage {
	date := NormalizeTimestamp(cl.Date, cl.Clock, a.now)
	msg := &domain.ChatMessage{
		ID:            fmt.Sprintf("msg_%d", index),
		Sender:        strings.TrimSpace(cl.Sender),
		TimestampText: cl.TimestampText(),
		Date:          date,
		Content:       cl.Body,
	}

	marker := DetectMedia(cl.Body)
	if !marker.IsMedia {
		return msg
	}

	msg.IsMedia = true
	msg.MediaType = marker.Type
	msg.MediaName = marker.Name

	if b, ok := a.resolver.Resolve(MediaRef{Name: marker.Name, Type: marker.Type, Date: date}); ok {
		msg.MediaName = b.Name
		msg.MediaURL = b.URL
		if msg.MediaType == domain.MediaTypeUnknown {
			msg.MediaType = domain.MediaTypeFromFilename(b.Name)
		}
	}
	return msg
}

func (a *Assembler) newSystem(index int, cl Line) domain.ChatMessage {
	return domain.ChatMessage{
		ID:            fmt.Sprintf("system_%d", index),
		Sender:        domain.SystemSender,
		TimestampText: cl.TimestampText(),
		Date:          NormalizeTimestamp(cl.Date, cl.Clock, a.now),
		Content:       cl.Body,
	}
}

func (a *Assembler) addParticipant(sender string) {
	sender = strings.TrimSpace(sender)
	if _, ok := a.seen[sender]; ok {
		return
	}
	a.seen[sender] = struct{}{}
	a.participants = append(a.participants, sender)
}

func (a *Assembler) detectGroup(body string) {
	for _, marker := range groupCreatedMarkers {
		if !strings.Contains(body, marker) {
			continue
		}
		a.isGroup = true
		if m := groupNameRe.FindStringSubmatch(body); m != nil {
			a.groupName = m[1]
		}
		return
	}
}
