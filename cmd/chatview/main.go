package main

import (
	"os"

	"github.com/syetrk/whatsapp-chat-viewer/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
