package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/exporter"
	"github.com/syetrk/whatsapp-chat-viewer/internal/cache"
	"github.com/syetrk/whatsapp-chat-viewer/internal/client"
	applog "github.com/syetrk/whatsapp-chat-viewer/internal/log"
	"github.com/syetrk/whatsapp-chat-viewer/internal/ports"
)

func main() {
	var (
		serverAddr string
		interval   time.Duration
		sender     string
		last       int
		loadMedia  bool
		outFormat  string
		logLevel   string
	)
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.DurationVar(&interval, "interval", 2*time.Second, "Task status polling interval")
	flag.StringVar(&sender, "sender", "", "Show only messages of this sender")
	flag.IntVar(&last, "last", 0, "Show only the last N messages")
	flag.BoolVar(&loadMedia, "load-media", false, "Ask the server to resolve attachments from the media store")
	flag.StringVar(&outFormat, "format", "text", "Output format: text or json")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Exactly one file path is required. Usage: client [flags] <chat.txt|export.zip>")
	}
	path := flag.Arg(0)

	logger := applog.New(os.Stderr, logLevel, "text")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.NewServerClient(serverAddr, logger)

	taskID, err := startTask(ctx, c, path)
	if err != nil {
		log.Fatalf("Не удалось отправить файл: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Задача создана с идентификатором: %s\n", taskID)

	if _, err := c.WaitForTask(ctx, taskID, interval); err != nil {
		log.Fatalf("Задача не выполнена: %v", err)
	}

	if loadMedia {
		patched, err := c.LoadMedia(ctx, taskID)
		if err != nil {
			log.Fatalf("Не удалось загрузить медиа: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Загружено вложений: %d\n", patched)
	}

	chat, err := c.FetchAll(ctx, taskID, client.ResultQuery{Sender: sender, Last: last})
	if err != nil {
		log.Fatalf("Не удалось получить результат: %v", err)
	}

	var exp ports.Exporter
	switch outFormat {
	case "json":
		exp = exporter.NewJSONExporter(os.Stdout)
	case "text":
		exp = exporter.NewConsoleExporter(os.Stdout)
	default:
		log.Fatalf("Неизвестный формат вывода: %s", outFormat)
	}

	if err := exp.Export(chat); err != nil {
		log.Fatalf("Не удалось вывести результат: %v", err)
	}
}

// startTask сначала пробует получить результат из кеша сервера по хешу файла
// и загружает файл только при промахе.
func startTask(ctx context.Context, c *client.ServerClient, path string) (string, error) {
	hash, err := cache.HashFile(path)
	if err != nil {
		return "", err
	}

	started, err := c.ParseByHash(ctx, hash)
	if err == nil {
		slog.InfoContext(ctx, "Result found in server cache", "hash", hash)
		return started.TaskID, nil
	}
	if !errors.Is(err, client.ErrNotCached) {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	started, err = c.StartTask(ctx, filepath.Base(path), file)
	if err != nil {
		return "", err
	}
	return started.TaskID, nil
}
