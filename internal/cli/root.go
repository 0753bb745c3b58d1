// Package cli содержит командную строку chatview: локальный разбор экспортов WhatsApp.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syetrk/whatsapp-chat-viewer/internal/cli/commands"
)

// Execute запускает корневую команду и возвращает код выхода.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand создает корневую команду со всеми подкомандами.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chatview",
		Short: "Parse WhatsApp chat exports",
		Long: `chatview reads a WhatsApp export (_chat.txt or the .zip with attachments)
and prints the conversation as a table, JSON or an Excel workbook.

Attachments found in the archive are bound to the messages that reference them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewResolveCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
