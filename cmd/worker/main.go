package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/archive"
	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/parser"
	"github.com/syetrk/whatsapp-chat-viewer/internal/cache"
	applog "github.com/syetrk/whatsapp-chat-viewer/internal/log"
	"github.com/syetrk/whatsapp-chat-viewer/internal/metrics"
	"github.com/syetrk/whatsapp-chat-viewer/internal/pkg/config"
	"github.com/syetrk/whatsapp-chat-viewer/internal/server/usecase"
	"github.com/syetrk/whatsapp-chat-viewer/internal/store"
	"github.com/syetrk/whatsapp-chat-viewer/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := applog.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := worker.NewClient(cfg.NATS.URL, cfg.NATS.Token, logger.With(slog.String("component", "nats")))
	if err != nil {
		return err
	}
	defer client.Close()

	// Воркер получает медиа в самом запросе, хранилище и кеш ему нужны только для сборки use case.
	m := metrics.New()
	parseUC := usecase.NewProcessChatUseCase(cfg, parser.NewWhatsAppParser(), archive.NewReader(),
		store.NewMemoryStore(), cache.NewCacheStore(), m)

	metricsSrv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           m.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	w := worker.New(parseUC, client,
		worker.WithTimeout(cfg.Processing.TaskTimeout),
		worker.WithLogger(logger.With(slog.String("component", "worker"))),
	)
	return w.Serve(ctx, client, cfg.NATS.Subject, cfg.NATS.Queue)
}
