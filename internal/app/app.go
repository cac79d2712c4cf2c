package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bbbank/bbbank-ui/internal/audit"
	"bbbank/bbbank-ui/internal/auth"
	"bbbank/bbbank-ui/internal/config"
	"bbbank/bbbank-ui/internal/guard"
	"bbbank/bbbank-ui/internal/httpserver"
	"bbbank/bbbank-ui/internal/observability"
	"bbbank/bbbank-ui/internal/session"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	db     *sql.DB
	rdb    *redis.Client
	server *httpserver.Server
}

func New(cfg config.Config) (*App, error) {
	logger := observability.NewLogger()
	a := &App{cfg: cfg, log: logger}

	provider, err := a.sessionProvider()
	if err != nil {
		a.close()
		return nil, err
	}

	authService, err := auth.NewService(auth.ServiceConfig{LoginDelay: cfg.Auth.LoginDelay})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create auth service: %w", err)
	}

	a.server = httpserver.New(cfg.HTTP, httpserver.Deps{
		Auth:            authService,
		Sessions:        provider,
		Guard:           guard.New(logger),
		Audit:           audit.NewLogger(cfg.AuditLogFile),
		Log:             logger,
		FrontendDistDir: cfg.FrontendDistDir,
	})
	return a, nil
}

func (a *App) sessionProvider() (session.Provider, error) {
	cfg := a.cfg.Session

	var backend session.Backend
	switch cfg.Backend {
	case config.BackendCookie:
		a.log.Info("session storage configured", "backend", cfg.Backend)
		return session.CookieProvider{Secret: []byte(cfg.CookieSecret), Secure: cfg.CookieSecure}, nil
	case config.BackendMemory:
		backend = session.NewMemoryBackend()
	case config.BackendFile:
		fb, err := session.NewFileBackend(cfg.StateFile)
		if err != nil {
			return nil, fmt.Errorf("create file session backend: %w", err)
		}
		backend = fb
	case config.BackendPostgres:
		db, err := sql.Open("postgres", a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.db = db
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		pb, err := session.NewPostgresBackend(db)
		if err != nil {
			return nil, fmt.Errorf("create postgres session backend: %w", err)
		}
		backend = pb
	case config.BackendRedis:
		opts, err := redis.ParseURL(a.cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		a.rdb = rdb
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		rb, err := session.NewRedisBackend(rdb, a.cfg.Redis.KeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("create redis session backend: %w", err)
		}
		backend = rb
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}

	a.log.Info("session storage configured", "backend", cfg.Backend, "client_cookie", cfg.ClientCookie)
	return session.ScopedProvider{
		Backend:    backend,
		CookieName: cfg.ClientCookie,
		Secure:     cfg.CookieSecure,
	}, nil
}

func (a *App) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
