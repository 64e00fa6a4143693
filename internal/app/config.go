package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/stamped-ai/ledgerprep/internal/platform/db"
)

// Config holds runtime configuration for ledgerprep.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"45s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	PSQLHost           string        `envconfig:"PSQL_HOST" required:"true"`
	PSQLUser           string        `envconfig:"PSQL_USER" required:"true"`
	PSQLPassword       string        `envconfig:"PSQL_PWD" required:"true"`
	PSQLPort           uint16        `envconfig:"PSQL_PORT" required:"true"`
	PSQLDatabase       string        `envconfig:"PSQL_DATABASE" required:"true"`
	PSQLConnectTimeout time.Duration `envconfig:"PSQL_CONNECT_TIMEOUT" default:"5s"`

	RedisAddr   string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SnapshotTTL time.Duration `envconfig:"SNAPSHOT_TTL" default:"24h"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"2"`
	MetricsAddr       string `envconfig:"METRICS_ADDR" default:":9090"`
}

// LoadConfig reads configuration from environment variables. Any envFiles are
// loaded first; variables already present in the environment win.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Database().Validate(); err != nil {
		return nil, err
	}
	if cfg.SnapshotTTL <= 0 {
		return nil, errors.New("snapshot ttl must be positive")
	}
	return &cfg, nil
}

// Database returns the connection parameters handed to the executor.
func (c *Config) Database() db.Config {
	return db.Config{
		Host:           c.PSQLHost,
		User:           c.PSQLUser,
		Password:       c.PSQLPassword,
		Port:           c.PSQLPort,
		Database:       c.PSQLDatabase,
		ConnectTimeout: c.PSQLConnectTimeout,
	}
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
