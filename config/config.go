package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Webhook    WebhookConfig    `mapstructure:"webhook"`
	Reconciler ReconcilerConfig `mapstructure:"reconciler"`
	Processor  ProcessorConfig  `mapstructure:"processor"`
	Admin      AdminConfig      `mapstructure:"admin"`
	AES        AESConfig        `mapstructure:"aes"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// WebhookConfig configures inbound webhook verification.
type WebhookConfig struct {
	Secret             string        `mapstructure:"secret"`
	MerchantID         string        `mapstructure:"merchant_id"`
	SignatureHeader    string        `mapstructure:"signature_header"`
	VerificationHeader string        `mapstructure:"verification_header"`
	EventStream        string        `mapstructure:"event_stream"`
	EventSource        string        `mapstructure:"event_source"`
	DedupTTL           time.Duration `mapstructure:"dedup_ttl"`
}

// ReconcilerConfig configures the notification batch job.
// HotWindow is a heuristic: a group whose newest notification is younger
// than this is left for the next run.
type ReconcilerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	HotWindow time.Duration `mapstructure:"hot_window"`
	LockKey   string        `mapstructure:"lock_key"`
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
}

// ProcessorConfig points at the payment processor's status API.
type ProcessorConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AdminConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	Expiry    time.Duration `mapstructure:"expiry"`
}

type AESConfig struct {
	Key string `mapstructure:"key"` // optional, 64 hex chars; empty stores payloads in clear
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PWG_.
// Nested keys use underscore: PWG_WEBHOOK_SECRET, PWG_DATABASE_HOST, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "payment_webhooks")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.merchant_id", "")
	v.SetDefault("webhook.signature_header", "X-Signature")
	v.SetDefault("webhook.verification_header", "X-Webhooks-Endpoint-Verification")
	v.SetDefault("webhook.event_stream", "orders:events")
	v.SetDefault("webhook.event_source", "payment-webhook-gateway")
	v.SetDefault("webhook.dedup_ttl", "24h")
	v.SetDefault("reconciler.enabled", true)
	v.SetDefault("reconciler.interval", "1m")
	v.SetDefault("reconciler.hot_window", "10s")
	v.SetDefault("reconciler.lock_key", "lock:reconciler")
	v.SetDefault("reconciler.lock_ttl", "5m")
	v.SetDefault("processor.base_url", "")
	v.SetDefault("processor.api_key", "")
	v.SetDefault("processor.timeout", "10s")
	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.issuer", "payment-webhook-gateway")
	v.SetDefault("admin.expiry", "1h")
	v.SetDefault("aes.key", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// PWG_WEBHOOK_SECRET -> webhook.secret
	v.SetEnvPrefix("PWG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Reconciler.HotWindow < 0 {
		return nil, fmt.Errorf("reconciler.hot_window must not be negative")
	}

	return &cfg, nil
}
