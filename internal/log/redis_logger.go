package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// RedisAdapter адаптирует slog.Logger под интерфейс логгера,
// который ожидает redis.SetLogger из go-redis/v9.
type RedisAdapter struct {
	Logger *slog.Logger
}

// Printf реализует метод интерфейса internal.Logging из go-redis.
func (a *RedisAdapter) Printf(ctx context.Context, format string, v ...interface{}) {
	// go-redis пишет сюда только о проблемах с соединением.
	a.Logger.WarnContext(ctx, strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "redis")
}
