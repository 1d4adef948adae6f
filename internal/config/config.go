package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	AMQP      AMQPConfig      `mapstructure:"amqp"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

type AMQPConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type ProvidersConfig struct {
	MSG91     GatewayConfig `mapstructure:"msg91"`
	Textlocal GatewayConfig `mapstructure:"textlocal"`
	Fast2SMS  GatewayConfig `mapstructure:"fast2sms"`
}

type GatewayConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Sender  string `mapstructure:"sender"`
}

// DispatchConfig tunes the dispatch engine. The unicode segment windows are
// configurable because upstream providers disagree on the exact limits.
type DispatchConfig struct {
	Concurrency        int `mapstructure:"concurrency"`
	TimeoutSeconds     int `mapstructure:"timeout_seconds"`
	UnicodeSingleLimit int `mapstructure:"unicode_single_limit"`
	UnicodeChunkSize   int `mapstructure:"unicode_chunk_size"`
}

func (d DispatchConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bulksms-backend"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.AMQP.Queue == "" {
		cfg.AMQP.Queue = "campaign_events"
	}
	if cfg.Dispatch.Concurrency <= 0 {
		cfg.Dispatch.Concurrency = 8
	}
	if cfg.Dispatch.TimeoutSeconds <= 0 {
		cfg.Dispatch.TimeoutSeconds = 15
	}
	if cfg.Dispatch.UnicodeSingleLimit <= 0 {
		cfg.Dispatch.UnicodeSingleLimit = 70
	}
	if cfg.Dispatch.UnicodeChunkSize <= 0 {
		cfg.Dispatch.UnicodeChunkSize = 67
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
