package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Поддерживаемые драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска сервиса продаж.
// Все поля скалярные, поэтому конфигурации можно сравнивать через ==.
type Config struct {
	GRPCAddr string
	// MetricsAddr задаёт адрес служебного HTTP-сервера (метрики, health, накладные).
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	SeedDemoData        bool

	// KafkaBrokers: список брокеров через запятую; при пустом списке события только логируются.
	KafkaBrokers        string
	OutboxTopic         string
	OutboxDLQTopic      string
	OutboxPollInterval  time.Duration
	OutboxBatchSize     int
	OutboxMaxAttempts   int
	OutboxRetryDelay    time.Duration
	OutboxMaxPending    int
	OutboxMaxPendingAge time.Duration

	CatalogSearchLimit int

	LogLevel  string
	LogFormat string
}

// DefaultConfig возвращает настройки для локального запуска на in-memory хранилище.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		OutboxTopic:         "wholesale.sales.events",
		OutboxDLQTopic:      "wholesale.sales.dlq",
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    100 * time.Millisecond,
		OutboxMaxPending:    1000,
		OutboxMaxPendingAge: 5 * time.Minute,
		CatalogSearchLimit:  20,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// ConfigFromEnv накладывает переменные WHS_* на DefaultConfig.
// lookup обычно os.LookupEnv; в тестах подменяется картой.
func ConfigFromEnv(lookup func(string) (string, bool)) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := DefaultConfig()
	r := envReader{lookup: lookup}

	r.str("WHS_GRPC_ADDR", &cfg.GRPCAddr)
	r.str("WHS_METRICS_ADDR", &cfg.MetricsAddr)
	r.str("WHS_STORAGE_DRIVER", &cfg.StorageDriver)
	r.str("WHS_POSTGRES_DSN", &cfg.PostgresDSN)
	r.boolean("WHS_POSTGRES_AUTO_MIGRATE", &cfg.PostgresAutoMigrate)
	r.boolean("WHS_SEED_DEMO_DATA", &cfg.SeedDemoData)
	r.str("WHS_KAFKA_BROKERS", &cfg.KafkaBrokers)
	r.str("WHS_OUTBOX_TOPIC", &cfg.OutboxTopic)
	r.str("WHS_OUTBOX_DLQ_TOPIC", &cfg.OutboxDLQTopic)
	r.duration("WHS_OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval)
	r.integer("WHS_OUTBOX_BATCH_SIZE", &cfg.OutboxBatchSize)
	r.integer("WHS_OUTBOX_MAX_ATTEMPTS", &cfg.OutboxMaxAttempts)
	r.duration("WHS_OUTBOX_RETRY_DELAY", &cfg.OutboxRetryDelay)
	r.integer("WHS_OUTBOX_MAX_PENDING", &cfg.OutboxMaxPending)
	r.duration("WHS_OUTBOX_MAX_PENDING_AGE", &cfg.OutboxMaxPendingAge)
	r.integer("WHS_CATALOG_SEARCH_LIMIT", &cfg.CatalogSearchLimit)
	r.str("WHS_LOG_LEVEL", &cfg.LogLevel)
	r.str("WHS_LOG_FORMAT", &cfg.LogFormat)

	if r.err != nil {
		return Config{}, r.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("postgres storage requires WHS_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %q", c.StorageDriver)
	}
	if c.OutboxBatchSize <= 0 || c.OutboxMaxAttempts <= 0 {
		return fmt.Errorf("outbox batch size and max attempts must be positive")
	}
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("outbox poll interval must be positive")
	}
	if c.OutboxRetryDelay < 0 || c.OutboxMaxPending < 0 || c.OutboxMaxPendingAge < 0 {
		return fmt.Errorf("outbox retry delay and backlog thresholds must be non-negative")
	}
	if c.CatalogSearchLimit <= 0 {
		return fmt.Errorf("catalog search limit must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unsupported log format %q (use text|json)", c.LogFormat)
	}
	return nil
}

// ConfigureLogger применяет уровень и формат логов к стандартному logrus-логгеру.
func (c Config) ConfigureLogger() {
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// envReader запоминает первую ошибку разбора.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *envReader) value(key string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.value(key); ok {
		*dst = v
	}
}

func (r *envReader) boolean(key string, dst *bool) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		r.err = fmt.Errorf("%s: invalid boolean %q", key, v)
		return
	}
	*dst = parsed
}

func (r *envReader) integer(key string, dst *int) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		r.err = fmt.Errorf("%s: invalid integer %q", key, v)
		return
	}
	*dst = parsed
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		r.err = fmt.Errorf("%s: invalid duration %q", key, v)
		return
	}
	*dst = parsed
}
