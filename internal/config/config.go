package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendCookie   = "cookie"
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	HTTP            HTTPConfig
	DatabaseURL     string
	Redis           RedisConfig
	Session         SessionConfig
	Auth            AuthConfig
	FrontendDistDir string
	AuditLogFile    string
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type RedisConfig struct {
	URL       string
	KeyPrefix string
}

type SessionConfig struct {
	Backend      string
	CookieSecret string
	CookieSecure bool
	ClientCookie string
	StateFile    string
}

type AuthConfig struct {
	LoginDelay time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 15)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 20)) * time.Second,
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", ""),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "bbbank"),
		},
		Session: SessionConfig{
			Backend:      strings.ToLower(getEnv("SESSION_BACKEND", BackendCookie)),
			CookieSecret: getEnv("SESSION_COOKIE_SECRET", "change-me-in-production"),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
			ClientCookie: getEnv("SESSION_CLIENT_COOKIE", "bbbank_client"),
			StateFile:    getEnv("SESSION_STATE_FILE", "./data/ui_storage.json"),
		},
		Auth: AuthConfig{
			LoginDelay: time.Duration(getEnvInt("AUTH_LOGIN_DELAY_MS", 1000)) * time.Millisecond,
		},
		FrontendDistDir: getEnv("FRONTEND_DIST_DIR", "./web/dist"),
		AuditLogFile:    getEnv("AUDIT_LOG_FILE", "./data/audit.log"),
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.Auth.LoginDelay < 0 {
		return Config{}, fmt.Errorf("AUTH_LOGIN_DELAY_MS must be >= 0")
	}
	if cfg.FrontendDistDir == "" {
		return Config{}, fmt.Errorf("FRONTEND_DIST_DIR must not be empty")
	}
	if cfg.AuditLogFile == "" {
		return Config{}, fmt.Errorf("AUDIT_LOG_FILE must not be empty")
	}

	switch cfg.Session.Backend {
	case BackendCookie:
		if cfg.Session.CookieSecret == "" {
			return Config{}, fmt.Errorf("SESSION_COOKIE_SECRET must not be empty")
		}
	case BackendMemory:
	case BackendFile:
		if cfg.Session.StateFile == "" {
			return Config{}, fmt.Errorf("SESSION_STATE_FILE must not be empty")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for SESSION_BACKEND=postgres")
		}
	case BackendRedis:
		if cfg.Redis.URL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required for SESSION_BACKEND=redis")
		}
	default:
		return Config{}, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.Session.Backend)
	}
	if cfg.Session.Backend != BackendCookie && cfg.Session.ClientCookie == "" {
		return Config{}, fmt.Errorf("SESSION_CLIENT_COOKIE must not be empty")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}
