package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/format"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

const (
	messagesSheet     = "Сообщения"
	participantsSheet = "Участники"
)

// ExcelExporter пишет переписку в книгу XLSX: лист сообщений и лист участников.
type ExcelExporter struct {
	out io.Writer
}

// NewExcelExporter создает новый экземпляр ExcelExporter.
func NewExcelExporter(out io.Writer) ports.Exporter {
	return &ExcelExporter{out: out}
}

// Export формирует книгу и записывает ее в out.
func (e *ExcelExporter) Export(chat *domain.ParsedChat) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close excel file: %w", cerr)
		}
	}()

	if _, err := f.NewSheet(messagesSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	if index, err := f.GetSheetIndex(messagesSheet); err == nil {
		f.SetActiveSheet(index)
	}

	headers := []string{"Дата", "Время", "Отправитель", "Сообщение", "Тип медиа", "Файл"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(messagesSheet, cell, h)
	}

	for i, msg := range chat.Messages {
		row := i + 2
		content := msg.Content
		if msg.IsMedia {
			content = ""
		}
		f.SetCellValue(messagesSheet, fmt.Sprintf("A%d", row), format.Date(msg.Date))
		f.SetCellValue(messagesSheet, fmt.Sprintf("B%d", row), format.Time(msg.Date))
		f.SetCellValue(messagesSheet, fmt.Sprintf("C%d", row), msg.Sender)
		f.SetCellValue(messagesSheet, fmt.Sprintf("D%d", row), content)
		if msg.IsMedia {
			f.SetCellValue(messagesSheet, fmt.Sprintf("E%d", row), string(msg.MediaType))
			f.SetCellValue(messagesSheet, fmt.Sprintf("F%d", row), msg.MediaName)
		}
	}

	if _, err := f.NewSheet(participantsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetCellValue(participantsSheet, "A1", "Участник")
	for i, p := range chat.Participants {
		f.SetCellValue(participantsSheet, fmt.Sprintf("A%d", i+2), p)
	}

	if err := f.Write(e.out); err != nil {
		return fmt.Errorf("failed to write excel: %w", err)
	}
	return nil
}
