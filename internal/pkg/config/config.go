// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Бэкенды хранилища медиа.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Server содержит конфигурацию сервера
type Server struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxUploadSizeMB int           `json:"max_upload_size_mb" yaml:"max_upload_size_mb"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// Processing содержит конфигурацию обработки
type Processing struct {
	TaskTimeout time.Duration `json:"task_timeout" yaml:"task_timeout"` // 0 - без ограничений
	CacheTTL    time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	TaskTTL     time.Duration `json:"task_ttl" yaml:"task_ttl"`

	// CacheMaxEntries ограничивает число закешированных разборов (0 - без ограничения)
	CacheMaxEntries int `json:"cache_max_entries" yaml:"cache_max_entries"`
}

// Redis содержит параметры подключения к Redis
type Redis struct {
	Addr     string        `json:"addr" yaml:"addr"`
	Password string        `json:"password" yaml:"password"`
	DB       int           `json:"db" yaml:"db"`
	Key      string        `json:"key" yaml:"key"`
	TTL      time.Duration `json:"ttl" yaml:"ttl"`
}

// Storage содержит конфигурацию хранилища медиафайлов
type Storage struct {
	Backend string `json:"backend" yaml:"backend"` // memory, redis
	Redis   Redis  `json:"redis" yaml:"redis"`
}

// NATS содержит конфигурацию транспорта воркера
type NATS struct {
	URL     string `json:"url" yaml:"url"`
	Token   string `json:"token" yaml:"token"`
	Subject string `json:"subject" yaml:"subject"`
	Queue   string `json:"queue" yaml:"queue"`
}

// Loader содержит конфигурацию ленивой загрузки медиа
type Loader struct {
	PoolSize         int           `json:"pool_size" yaml:"pool_size"`
	OperationTimeout time.Duration `json:"operation_timeout" yaml:"operation_timeout"`
	TotalTimeout     time.Duration `json:"total_timeout" yaml:"total_timeout"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Server     Server     `json:"server" yaml:"server"`
	Processing Processing `json:"processing" yaml:"processing"`
	Storage    Storage    `json:"storage" yaml:"storage"`
	NATS       NATS       `json:"nats" yaml:"nats"`
	Loader     Loader     `json:"loader" yaml:"loader"`
	Logging    Logging    `json:"logging" yaml:"logging"`
}

// defaultConfig возвращает конфигурацию со значениями по умолчанию
func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxUploadSizeMB: DefaultMaxUploadSizeMB,
			CleanupInterval: DefaultCleanupInterval,
		},
		Processing: Processing{
			TaskTimeout: DefaultTaskTimeout,
			CacheTTL:    DefaultCacheTTL,
			TaskTTL:     DefaultTaskTTL,

			CacheMaxEntries: DefaultCacheMaxEntries,
		},
		Storage: Storage{
			Backend: DefaultStorageBackend,
			Redis: Redis{
				Addr: DefaultRedisAddr,
				Key:  DefaultRedisKey,
				TTL:  DefaultRedisTTL,
			},
		},
		NATS: NATS{
			URL:     DefaultNATSURL,
			Subject: DefaultNATSSubject,
			Queue:   DefaultNATSQueue,
		},
		Loader: Loader{
			PoolSize:         DefaultLoaderPoolSize,
			OperationTimeout: DefaultLoaderOperationTimeout,
			TotalTimeout:     DefaultLoaderTotalTimeout,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем config.yml
// (путь можно переопределить через CONFIG_FILE), затем переменные окружения, в том числе из .env.
func LoadConfig() (*Config, error) {
	// Отсутствие .env - это нормально
	_ = godotenv.Load()

	cfg := defaultConfig()

	if err := loadFromYAML(getEnv("CONFIG_FILE", "config.yml"), cfg); err != nil {
		return nil, err
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
	}

	return cfg, nil
}

// loadFromYAML накладывает значения из YAML-файла на cfg. Отсутствующий файл не является ошибкой.
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return nil
}

// loadFromEnv переопределяет значения cfg переменными окружения
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if err := envInt("SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := envInt("MAX_UPLOAD_SIZE_MB", &cfg.Server.MaxUploadSizeMB); err != nil {
		return err
	}
	if err := envDuration("TASK_TIMEOUT", &cfg.Processing.TaskTimeout); err != nil {
		return err
	}
	if err := envDuration("CACHE_TTL", &cfg.Processing.CacheTTL); err != nil {
		return err
	}

	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if err := envInt("REDIS_DB", &cfg.Storage.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_TOKEN"); v != "" {
		cfg.NATS.Token = v
	}
	if v := os.Getenv("NATS_SUBJECT"); v != "" {
		cfg.NATS.Subject = v
	}

	if err := envInt("LOADER_POOL_SIZE", &cfg.Loader.PoolSize); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaxUploadSize возвращает ограничение размера загрузки в байтах
func (c *Config) MaxUploadSize() int64 {
	return int64(c.Server.MaxUploadSizeMB) << 20
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return fmt.Errorf("server.read_timeout, write_timeout и idle_timeout должны быть положительными")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}

	if c.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb должно быть положительным")
	}

	if c.Server.CleanupInterval <= 0 {
		return fmt.Errorf("server.cleanup_interval должно быть положительным")
	}

	if c.Processing.TaskTimeout < 0 {
		return fmt.Errorf("processing.task_timeout должно быть неотрицательным (0 для отсутствия ограничений)")
	}

	if c.Processing.CacheTTL <= 0 {
		return fmt.Errorf("processing.cache_ttl должно быть положительным")
	}

	if c.Processing.TaskTTL <= 0 {
		return fmt.Errorf("processing.task_ttl должно быть положительным")
	}

	if c.Processing.CacheMaxEntries < 0 {
		return fmt.Errorf("processing.cache_max_entries не может быть отрицательным")
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr не может быть пустым для бэкенда redis")
		}
		if c.Storage.Redis.DB < 0 {
			return fmt.Errorf("storage.redis.db должно быть неотрицательным")
		}
	default:
		return fmt.Errorf("storage.backend должен быть одним из: memory, redis")
	}

	if c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject не может быть пустым")
	}

	if c.Loader.PoolSize <= 0 {
		return fmt.Errorf("loader.pool_size должно быть положительным")
	}

	if c.Loader.OperationTimeout <= 0 || c.Loader.TotalTimeout <= 0 {
		return fmt.Errorf("loader.operation_timeout и loader.total_timeout должны быть положительными")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}

// envInt читает целое число из переменной окружения, если она установлена
func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("недопустимый %s: %w", key, err)
	}
	*dst = n
	return nil
}

// envDuration читает длительность ("30s", "10m") из переменной окружения, если она установлена
func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("недопустимый %s: %w", key, err)
	}
	*dst = d
	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
