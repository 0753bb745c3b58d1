package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/archive"
	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/exporter"
	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/parser"
	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/source"
	"github.com/syetrk/whatsapp-chat-viewer/internal/core/services"
	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
	"github.com/syetrk/whatsapp-chat-viewer/internal/format"
	"github.com/syetrk/whatsapp-chat-viewer/internal/pkg/term"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
	"github.com/syetrk/whatsapp-chat-viewer/internal/worker"
)

// ErrOverwriteDeclined возвращается, если пользователь отказался перезаписывать файл.
var ErrOverwriteDeclined = errors.New("output file exists, use --force to overwrite")

// ParseOptions хранит флаги команды parse.
type ParseOptions struct {
	Format string
	Output string
	Sender string
	Last   int
	HTML   bool
	Force  bool

	NATSURL     string
	NATSToken   string
	NATSSubject string
}

// NewParseCommand создает команду parse.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <export>",
		Short: "Parse a chat export",
		Long: `Parse a WhatsApp export (.txt or .zip) and print the messages.

With --nats the export is sent to a running worker instead of being parsed locally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format (text|json|xlsx)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write to file instead of stdout (required for xlsx)")
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "Only messages of this sender")
	cmd.Flags().IntVar(&opts.Last, "last", 0, "Only the last N messages")
	cmd.Flags().BoolVar(&opts.HTML, "html", false, "Render message text as HTML (links, emoticons, emoji)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite the output file without asking")
	cmd.Flags().StringVar(&opts.NATSURL, "nats", "", "NATS URL of a parse worker")
	cmd.Flags().StringVar(&opts.NATSToken, "nats-token", "", "NATS auth token")
	cmd.Flags().StringVar(&opts.NATSSubject, "nats-subject", "chatviewer.parse", "NATS subject of the parse worker")

	return cmd
}

func runParse(cmd *cobra.Command, path string, opts *ParseOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := commandLogger(cmd)

	if opts.Format == "xlsx" && opts.Output == "" {
		return fmt.Errorf("xlsx output requires --output")
	}

	export, err := source.NewFileSource(path, archive.NewReader(archive.WithLogger(logger))).Fetch()
	if err != nil {
		return err
	}

	var chat *domain.ParsedChat
	if opts.NATSURL != "" {
		client, err := worker.NewClient(opts.NATSURL, opts.NATSToken, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		chat, err = worker.ParseRemote(ctx, client, opts.NATSSubject, export)
		if err != nil {
			return err
		}
	} else {
		chat, err = parser.NewWhatsAppParser().Parse(export.Transcript, export.Media)
		if err != nil {
			return err
		}
	}

	chat = services.NewSelectionService().Filter(chat, services.Selection{Sender: opts.Sender, Last: opts.Last})
	if opts.HTML {
		renderHTML(chat)
	}

	tty := term.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())

	out := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := createOutput(tty, opts.Output, opts.Force)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	exp, err := newExporter(opts.Format, out, tty)
	if err != nil {
		return err
	}
	if err := exp.Export(chat); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	logger.InfoContext(ctx, "Chat exported",
		"messages", len(chat.Messages),
		"participants", len(chat.Participants),
		"format", opts.Format,
	)
	return nil
}

func newExporter(name string, out io.Writer, tty *term.Terminal) (ports.Exporter, error) {
	switch name {
	case "text":
		if tty.IsTerminal() {
			return exporter.NewConsoleExporter(out, exporter.WithTableWidth(tty.Width())), nil
		}
		return exporter.NewConsoleExporter(out), nil
	case "json":
		return exporter.NewJSONExporter(out), nil
	case "xlsx":
		return exporter.NewExcelExporter(out), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text, json or xlsx)", name)
	}
}

// createOutput открывает файл вывода. Существующий файл перезаписывается только с --force
// или после подтверждения в терминале.
func createOutput(tty *term.Terminal, path string, force bool) (*os.File, error) {
	if _, err := os.Stat(path); err == nil && !force {
		ok, err := tty.Confirm(fmt.Sprintf("File %s exists. Overwrite?", path))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrOverwriteDeclined
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

func renderHTML(chat *domain.ParsedChat) {
	for i := range chat.Messages {
		msg := &chat.Messages[i]
		if msg.IsMedia {
			continue
		}
		msg.Content = format.Content(msg.Content)
	}
}
