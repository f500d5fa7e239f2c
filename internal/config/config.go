package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Storage  StorageConfig
	Forum    ForumConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	SupabaseURL string
	SupabaseKey string
	JWTSecret   string
}

type LLMConfig struct {
	OpenAIKey        string
	OpenAIBaseURL    string
	AnthropicKey     string
	DefaultProvider  string
	DefaultModel     string
	FallbackProvider string
	MaxRetries       int
}

type StorageConfig struct {
	SupabaseURL       string
	SupabaseKey       string
	AttachmentsBucket string
	ManualsBucket     string
	SignedURLTTL      time.Duration
}

type ForumConfig struct {
	// ReloadDebounce coalesces bursts of change notifications into a
	// single snapshot rebuild.
	ReloadDebounce time.Duration
	MaxReplyDepth  int
}

type NotifyConfig struct {
	// WebhookURL receives notification payloads (email delivery happens
	// downstream); empty disables dispatch.
	WebhookURL string
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	debounceMs, err := getEnvInt("FORUM_RELOAD_DEBOUNCE_MS", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid FORUM_RELOAD_DEBOUNCE_MS: %w", err)
	}

	maxDepth, err := getEnvInt("FORUM_MAX_REPLY_DEPTH", 4)
	if err != nil {
		return nil, fmt.Errorf("invalid FORUM_MAX_REPLY_DEPTH: %w", err)
	}

	signedTTLHours, err := getEnvInt("STORAGE_SIGNED_URL_TTL_HOURS", 24*365*10)
	if err != nil {
		return nil, fmt.Errorf("invalid STORAGE_SIGNED_URL_TTL_HOURS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			SupabaseKey: getEnv("SUPABASE_ANON_KEY", ""),
			JWTSecret:   getEnv("SUPABASE_JWT_SECRET", ""),
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "openai"),
			DefaultModel:     getEnv("LLM_DEFAULT_MODEL", "gpt-4.1-mini"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
		},
		Storage: StorageConfig{
			SupabaseURL:       getEnv("SUPABASE_URL", ""),
			SupabaseKey:       getEnv("SUPABASE_SERVICE_KEY", ""),
			AttachmentsBucket: getEnv("STORAGE_ATTACHMENTS_BUCKET", "attachments"),
			ManualsBucket:     getEnv("STORAGE_MANUALS_BUCKET", "manuals"),
			SignedURLTTL:      time.Duration(signedTTLHours) * time.Hour,
		},
		Forum: ForumConfig{
			ReloadDebounce: time.Duration(debounceMs) * time.Millisecond,
			MaxReplyDepth:  maxDepth,
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "SUPABASE_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
