package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/archive"
	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/parser"
	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/source"
)

// ErrMediaNotResolved возвращается, если имя не удалось сопоставить ни с одним файлом архива.
var ErrMediaNotResolved = errors.New("media not found in archive")

// NewResolveCommand создает команду resolve.
func NewResolveCommand() *cobra.Command {
	var printURL bool

	cmd := &cobra.Command{
		Use:   "resolve <archive> <name>",
		Short: "Find an attachment in an export archive by name",
		Long: `Look up an attachment by the name a message refers to.

Exact file names win; otherwise the first archive entry containing the name is used.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := commandLogger(cmd)
			export, err := source.NewFileSource(args[0], archive.NewReader(archive.WithLogger(logger))).Fetch()
			if err != nil {
				return err
			}

			b, ok := parser.NewResolver(export.Media).Lookup(args[1])
			if !ok {
				return fmt.Errorf("%w: %s", ErrMediaNotResolved, args[1])
			}

			cmd.Println(b.Name)
			if printURL {
				cmd.Println(b.URL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printURL, "url", false, "Also print the data URL of the attachment")

	return cmd
}
