package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	applog "github.com/syetrk/whatsapp-chat-viewer/internal/log"
)

// Version задается через ldflags при сборке.
var Version = "dev"

// NewVersionCommand создает команду version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("chatview %s\n", Version)
		},
	}
}

// commandLogger пишет в stderr команды с уровнем из --log-level.
func commandLogger(cmd *cobra.Command) *slog.Logger {
	level := "warn"
	if f := cmd.Flags().Lookup("log-level"); f != nil {
		level = f.Value.String()
	}
	return applog.New(cmd.ErrOrStderr(), level, "text")
}
