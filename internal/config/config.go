package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/lib/pq"

	env "github.com/Skotchmaster/pineapple_admin/pkg/config"
)

const DefaultAPIURL = "https://api-pineapple.onrender.com/api"

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
)

type Config struct {
	ServerPort int
	LogLevel   string

	APIURL     string
	APITimeout time.Duration

	SessionBackend string
	SessionSecret  []byte
	CookieSecure   bool

	DatabaseURL   string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	AuditTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
	AuditIndex string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("env file not loaded, using process environment", "error", err)
	}

	cfg := &Config{
		ServerPort: env.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   env.EnvDefault("LOG_LEVEL", "info"),

		APIURL:     env.EnvDefault("API_URL", DefaultAPIURL),
		APITimeout: env.EnvDurationDefault("API_TIMEOUT", 30*time.Second),

		SessionBackend: env.EnvDefault("SESSION_BACKEND", BackendPostgres),
		SessionSecret:  []byte(env.EnvDefault("SESSION_SECRET", "")),
		CookieSecure:   env.EnvBoolDefault("COOKIE_SECURE", false),

		DatabaseURL:   env.EnvDefault("DATABASE_URL", ""),
		SQLitePath:    env.EnvDefault("SQLITE_PATH", "console.db"),
		RedisAddr:     env.EnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: env.EnvDefault("REDIS_PASSWORD", ""),
		RedisDB:       env.EnvIntDefault("REDIS_DB", 0),

		KafkaBrokers: env.CSV(env.EnvDefault("KAFKA_BROKERS", "")),
		AuditTopic:   env.EnvDefault("AUDIT_TOPIC", "console_audit"),

		ESURL:      env.EnvDefault("ES_URL", ""),
		ESUser:     env.EnvDefault("ES_USER", ""),
		ESPassword: env.EnvDefault("ES_PASSWORD", ""),
		AuditIndex: env.EnvDefault("AUDIT_INDEX", "console-audit"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := env.NonEmptyBytes(c.SessionSecret, "SESSION_SECRET"); err != nil {
		return err
	}
	if err := env.NonEmpty(c.APIURL, "API_URL"); err != nil {
		return err
	}

	switch c.SessionBackend {
	case BackendPostgres:
		if err := env.NonEmpty(c.DatabaseURL, "DATABASE_URL"); err != nil {
			return err
		}
		if _, err := pq.ParseURL(c.DatabaseURL); err != nil {
			return fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
	case BackendRedis:
		if err := env.NonEmpty(c.RedisAddr, "REDIS_ADDR"); err != nil {
			return err
		}
	case BackendSQLite:
		if err := env.NonEmpty(c.SQLitePath, "SQLITE_PATH"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
