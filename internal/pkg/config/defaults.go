package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxUploadSizeMB = 64
	DefaultCleanupInterval = 1 * time.Hour

	// Processing defaults
	DefaultTaskTimeout = 120 * time.Second
	DefaultCacheTTL    = 60 * time.Minute
	DefaultTaskTTL     = 24 * time.Hour

	DefaultCacheMaxEntries = 256

	// Storage defaults
	DefaultStorageBackend = StorageMemory
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKey       = "chatviewer:media"
	DefaultRedisTTL       = 24 * time.Hour

	// NATS defaults
	DefaultNATSURL     = "nats://127.0.0.1:4222"
	DefaultNATSSubject = "chatviewer.parse"
	DefaultNATSQueue   = "chatviewer-workers"

	// Loader defaults
	DefaultLoaderPoolSize         = 3
	DefaultLoaderOperationTimeout = 5 * time.Second
	DefaultLoaderTotalTimeout     = 2 * time.Minute

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
