package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// HTTP holds HTTP server configuration.
type HTTP struct {
	Host string
	Port int
}

// GRPC holds gRPC server configuration.
type GRPC struct {
	Host           string
	Port           int
	HealthInterval time.Duration
}

// Cache configures caching behavior and backend selection.
type Cache struct {
	Enabled    bool
	Driver     string
	DefaultTTL time.Duration
	CatalogTTL time.Duration
	Redis      Redis
}

// Redis contains redis-specific connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Messaging configures the message bus used by the application.
type Messaging struct {
	Driver        string
	Enabled       bool
	Kafka         Kafka
	ConsumerGroup string
	Workers       Worker
}

// Kafka holds Kafka connection details.
type Kafka struct {
	Brokers        []string
	ClientID       string
	Topic          string
	CommitInterval time.Duration
	MinBytes       int
	MaxBytes       int
	ConnectTimeout time.Duration
}

// Worker configures background worker concurrency and polling.
type Worker struct {
	Enabled      bool
	PollInterval time.Duration
	Concurrency  int
}

// Database holds primary and read replica connection settings.
type Database struct {
	Driver          string
	WriterDSN       string
	ReaderDSN       string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	MigrationsDir   string
}

// Observability contains logging, tracing, and metrics configuration.
type Observability struct {
	ServiceName     string
	Environment     string
	LogLevel        string
	LogEncoding     string
	EnableTracing   bool
	TraceExporter   string
	TraceEndpoint   string
	TraceInsecure   bool
	EnableMetrics   bool
	MetricsExporter string
	PrometheusPath  string
}

// Config wraps all application configuration knobs.
type Config struct {
	HTTP          HTTP
	GRPC          GRPC
	Cache         Cache
	Messaging     Messaging
	Database      Database
	Observability Observability
}

// Module wires the configuration loader into the Fx graph.
var Module = fx.Provide(New)

var loadEnvOnce sync.Once

// New builds a Config from environment variables or defaults.
func New() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	var env envReader
	cfg := Config{
		HTTP: HTTP{
			Host: env.String("HTTP_HOST", "0.0.0.0"),
			Port: env.Int("HTTP_PORT", env.Int("PORT", 3000)),
		},
		GRPC: GRPC{
			Host:           env.String("GRPC_HOST", "0.0.0.0"),
			Port:           env.Int("GRPC_PORT", 9090),
			HealthInterval: env.Duration("GRPC_HEALTH_INTERVAL", 15*time.Second),
		},
		Cache: Cache{
			Enabled:    env.Bool("CACHE_ENABLED", true),
			Driver:     env.String("CACHE_DRIVER", "redis"),
			DefaultTTL: env.Duration("CACHE_DEFAULT_TTL", time.Minute*5),
			CatalogTTL: env.Duration("CACHE_CATALOG_TTL", time.Minute),
			Redis: Redis{
				Addr:     env.String("REDIS_ADDR", "127.0.0.1:6379"),
				Password: env.String("REDIS_PASSWORD", ""),
				DB:       env.Int("REDIS_DB", 0),
			},
		},
		Messaging: Messaging{
			Driver:  env.String("MESSAGING_DRIVER", "kafka"),
			Enabled: env.Bool("MESSAGING_ENABLED", true),
			Kafka: Kafka{
				Brokers:        env.List("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
				ClientID:       env.String("KAFKA_CLIENT_ID", "ventas-api"),
				Topic:          env.String("KAFKA_TOPIC", "ventas.orders"),
				CommitInterval: env.Duration("KAFKA_COMMIT_INTERVAL", time.Second),
				MinBytes:       env.Int("KAFKA_MIN_BYTES", 10e3),
				MaxBytes:       env.Int("KAFKA_MAX_BYTES", 10e6),
				ConnectTimeout: env.Duration("KAFKA_CONNECT_TIMEOUT", 5*time.Second),
			},
			ConsumerGroup: env.String("KAFKA_CONSUMER_GROUP", "ventas-worker"),
			Workers: Worker{
				Enabled:      env.Bool("WORKER_ENABLED", true),
				PollInterval: env.Duration("WORKER_POLL_INTERVAL", time.Second),
				Concurrency:  env.Int("WORKER_CONCURRENCY", 4),
			},
		},
		Database: Database{
			Driver:          env.String("DB_DRIVER", "mysql"),
			WriterDSN:       env.String("DB_WRITER_DSN", "root:root@tcp(127.0.0.1:3306)/ventas?parseTime=true"),
			ReaderDSN:       env.String("DB_READER_DSN", ""),
			MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 25),
			MaxConnLifetime: env.Duration("DB_MAX_CONN_LIFETIME", time.Minute*5),
			MigrationsDir:   env.String("DB_MIGRATIONS_DIR", ""),
		},
		Observability: Observability{
			ServiceName:     env.String("OBS_SERVICE_NAME", "ventas"),
			Environment:     env.String("OBS_ENVIRONMENT", "local"),
			LogLevel:        env.String("OBS_LOG_LEVEL", "info"),
			LogEncoding:     env.String("OBS_LOG_ENCODING", "json"),
			EnableTracing:   env.Bool("OBS_ENABLE_TRACING", true),
			TraceExporter:   env.String("OBS_TRACE_EXPORTER", "stdout"),
			TraceEndpoint:   env.String("OBS_OTLP_ENDPOINT", "localhost:4317"),
			TraceInsecure:   env.Bool("OBS_OTLP_INSECURE", true),
			EnableMetrics:   env.Bool("OBS_ENABLE_METRICS", true),
			MetricsExporter: env.String("OBS_METRICS_EXPORTER", "prometheus"),
			PrometheusPath:  env.String("OBS_PROMETHEUS_PATH", "/metrics"),
		},
	}
	if err := env.Err(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if cfg.HTTP.Port <= 0 {
		return Config{}, fmt.Errorf("invalid HTTP port: %d", cfg.HTTP.Port)
	}

	if cfg.GRPC.Port <= 0 {
		return Config{}, fmt.Errorf("invalid gRPC port: %d", cfg.GRPC.Port)
	}

	if !cfg.Cache.Enabled {
		cfg.Cache.Driver = "noop"
	}

	switch cfg.Cache.Driver {
	case "redis", "memory", "noop":
		// supported
	default:
		return Config{}, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}

	if cfg.Cache.Driver == "redis" && cfg.Cache.Redis.Addr == "" {
		return Config{}, fmt.Errorf("missing REDIS_ADDR for redis cache")
	}

	if cfg.Cache.DefaultTTL < 0 {
		cfg.Cache.DefaultTTL = time.Minute * 5
	}
	if cfg.Cache.CatalogTTL <= 0 {
		cfg.Cache.CatalogTTL = cfg.Cache.DefaultTTL
	}

	cfg.Observability.LogLevel = strings.ToLower(strings.TrimSpace(cfg.Observability.LogLevel))
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	cfg.Observability.LogEncoding = strings.ToLower(strings.TrimSpace(cfg.Observability.LogEncoding))
	if cfg.Observability.LogEncoding == "" {
		cfg.Observability.LogEncoding = "json"
	}
	cfg.Observability.TraceExporter = strings.ToLower(strings.TrimSpace(cfg.Observability.TraceExporter))
	if cfg.Observability.TraceExporter == "" {
		cfg.Observability.TraceExporter = "stdout"
	}
	cfg.Observability.MetricsExporter = strings.ToLower(strings.TrimSpace(cfg.Observability.MetricsExporter))
	if cfg.Observability.MetricsExporter == "" {
		cfg.Observability.MetricsExporter = "prometheus"
	}

	if cfg.Observability.PrometheusPath == "" {
		cfg.Observability.PrometheusPath = "/metrics"
	} else if !strings.HasPrefix(cfg.Observability.PrometheusPath, "/") {
		cfg.Observability.PrometheusPath = "/" + cfg.Observability.PrometheusPath
	}

	if !cfg.Messaging.Enabled {
		cfg.Messaging.Driver = "noop"
	}

	switch cfg.Messaging.Driver {
	case "kafka", "noop":
		// supported
	default:
		return Config{}, fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}

	if cfg.Messaging.Driver == "kafka" {
		if len(cfg.Messaging.Kafka.Brokers) == 0 {
			return Config{}, fmt.Errorf("KAFKA_BROKERS must be provided")
		}
		if cfg.Messaging.Kafka.Topic == "" {
			return Config{}, fmt.Errorf("KAFKA_TOPIC must be provided")
		}
		if cfg.Messaging.ConsumerGroup == "" {
			return Config{}, fmt.Errorf("KAFKA_CONSUMER_GROUP must be provided")
		}
	}

	if cfg.Messaging.Workers.Concurrency <= 0 {
		cfg.Messaging.Workers.Concurrency = 1
	}
	if cfg.Messaging.Workers.PollInterval <= 0 {
		cfg.Messaging.Workers.PollInterval = time.Second
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	switch cfg.Database.Driver {
	case "mysql", "postgres", "sqlite":
		// supported
	default:
		return Config{}, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	if cfg.Database.WriterDSN == "" {
		return Config{}, fmt.Errorf("missing DB_WRITER_DSN")
	}

	if cfg.Database.ReaderDSN == "" {
		cfg.Database.ReaderDSN = cfg.Database.WriterDSN
	}

	return cfg, nil
}
