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

	"github.com/redis/go-redis/v9"

	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/archive"
	"github.com/syetrk/whatsapp-chat-viewer/internal/adapters/parser"
	"github.com/syetrk/whatsapp-chat-viewer/internal/cache"
	"github.com/syetrk/whatsapp-chat-viewer/internal/core/services"
	applog "github.com/syetrk/whatsapp-chat-viewer/internal/log"
	"github.com/syetrk/whatsapp-chat-viewer/internal/metrics"
	"github.com/syetrk/whatsapp-chat-viewer/internal/pkg/config"
	"github.com/syetrk/whatsapp-chat-viewer/internal/server"
	"github.com/syetrk/whatsapp-chat-viewer/internal/server/usecase"
	"github.com/syetrk/whatsapp-chat-viewer/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
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
	redis.SetLogger(&applog.RedisAdapter{Logger: logger})

	// Валидируем после настройки логгера, чтобы ошибка попала в журнал в нужном формате
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mediaStore, closeStore, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open media store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("Failed to close media store", "error", err)
		}
	}()

	m := metrics.New()
	reader := archive.NewReader(archive.WithLogger(logger.With(slog.String("component", "archive"))))
	cacheStore := cache.NewCacheStore(cache.WithMaxEntries(cfg.Processing.CacheMaxEntries))
	processor := usecase.NewProcessChatUseCase(cfg, parser.NewWhatsAppParser(), reader, mediaStore, cacheStore, m)
	loader := services.NewMediaLoader(mediaStore,
		services.WithPoolSize(cfg.Loader.PoolSize),
		services.WithOperationTimeout(cfg.Loader.OperationTimeout),
		services.WithTotalTimeout(cfg.Loader.TotalTimeout),
		services.WithLogger(logger.With(slog.String("component", "media_loader"))),
		services.WithObserver(m),
	)

	srv, err := server.New(cfg, processor, server.NewTaskStore(), cacheStore, mediaStore, loader,
		server.WithMetricsHandler(m.Handler()),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", cfg.Address(), "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	<-serveErr
	slog.Info("Server stopped")
	return nil
}
