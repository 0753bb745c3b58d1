package exporter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

// JSONExporter пишет результат разбора в JSON с отступами.
type JSONExporter struct {
	out io.Writer
}

// NewJSONExporter создает новый экземпляр JSONExporter.
func NewJSONExporter(out io.Writer) ports.Exporter {
	return &JSONExporter{out: out}
}

// Export сериализует переписку целиком, включая mediaUrl.
func (e *JSONExporter) Export(chat *domain.ParsedChat) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(chat); err != nil {
		return fmt.Errorf("failed to encode chat: %w", err)
	}
	return nil
}
