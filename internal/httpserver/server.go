package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"bbbank/bbbank-ui/internal/audit"
	"bbbank/bbbank-ui/internal/auth"
	"bbbank/bbbank-ui/internal/config"
	"bbbank/bbbank-ui/internal/guard"
	"bbbank/bbbank-ui/internal/session"
	"github.com/gorilla/mux"
)

type AuthService interface {
	Login(ctx context.Context, store session.Store) (session.User, error)
	Logout(ctx context.Context, store session.Store) (auth.Navigation, error)
	State(ctx context.Context, store session.Store) (auth.State, session.User)
	CurrentUser(ctx context.Context, store session.Store) (session.User, bool, error)
}

type AuditLogger interface {
	Log(e audit.Event) error
}

type Deps struct {
	Auth            AuthService
	Sessions        session.Provider
	Guard           *guard.Guard
	Audit           AuditLogger
	Log             *slog.Logger
	FrontendDistDir string
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	handler := NewHandler(deps)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      loggingMiddleware(deps.Log, handler),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func NewHandler(deps Deps) http.Handler {
	if deps.Guard == nil {
		deps.Guard = guard.New(deps.Log)
	}
	if deps.Guard.OnDeny == nil {
		deps.Guard.OnDeny = func(r *http.Request, scope string, d guard.Decision) {
			auditReq(deps.Audit, r, audit.Event{Action: audit.ActionGuardDeny, Scope: scope, Outcome: "redirect", Detail: d.Reason})
		}
	}

	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/v1/info", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"service": "bbbank-ui",
			"version": "0.1.0",
		})
	}).Methods(http.MethodGet)

	registerAuthHandlers(r, deps)
	registerAppHandlers(r, deps)
	registerFrontendHandlers(r, deps)

	return r
}

func registerAuthHandlers(r *mux.Router, deps Deps) {
	r.HandleFunc("/v1/auth/login", func(w http.ResponseWriter, req *http.Request) {
		if deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}

		// Credentials are accepted for form compatibility and ignored.
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		store, scope, req, ok := resolveStore(w, req, deps)
		if !ok {
			return
		}
		user, err := deps.Auth.Login(req.Context(), store)
		if err != nil {
			auditReq(deps.Audit, req, audit.Event{Action: audit.ActionLogin, Scope: scope, Outcome: "failed", Detail: err.Error()})
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}
		auditReq(deps.Audit, req, audit.Event{Action: audit.ActionLogin, Actor: user.Username, Scope: scope, Outcome: "success"})

		writeJSON(w, http.StatusOK, map[string]any{
			"user":     user,
			"navigate": auth.RootRoute,
			"reload":   true,
		})
	}).Methods(http.MethodPost)

	r.HandleFunc("/v1/auth/logout", func(w http.ResponseWriter, req *http.Request) {
		if deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}
		store, scope, req, ok := resolveStore(w, req, deps)
		if !ok {
			return
		}
		prev, _, _ := deps.Auth.CurrentUser(req.Context(), store)

		nav, err := deps.Auth.Logout(req.Context(), store)
		if err != nil {
			auditReq(deps.Audit, req, audit.Event{Action: audit.ActionLogout, Actor: prev.Username, Scope: scope, Outcome: "failed", Detail: err.Error()})
			writeError(w, http.StatusInternalServerError, "logout failed")
			return
		}
		auditReq(deps.Audit, req, audit.Event{Action: audit.ActionLogout, Actor: prev.Username, Scope: scope, Outcome: "success"})
		writeJSON(w, http.StatusOK, nav)
	}).Methods(http.MethodPost)

	r.HandleFunc("/v1/auth/me", func(w http.ResponseWriter, req *http.Request) {
		store, _, req, ok := resolveStore(w, req, deps)
		if !ok {
			return
		}
		d := deps.Guard.Check(req.Context(), store)
		if !d.Allowed {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":    "not logged in",
				"navigate": d.Redirect,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"firstName":     d.User.FirstName,
			"lastName":      d.User.LastName,
			"username":      d.User.Username,
			"roles":         d.User.Roles,
			"displayName":   d.User.DisplayName(),
			"accountHolder": d.User.HasRole(auth.AccountHolderRole),
		})
	}).Methods(http.MethodGet)
}

func registerAppHandlers(r *mux.Router, deps Deps) {
	r.HandleFunc("/v1/app/state", func(w http.ResponseWriter, req *http.Request) {
		if deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}
		store, _, req, ok := resolveStore(w, req, deps)
		if !ok {
			return
		}
		state, _ := deps.Auth.State(req.Context(), store)
		writeJSON(w, http.StatusOK, map[string]any{
			"isUserLoggedIn": state == auth.Authenticated,
			"state":          state.String(),
		})
	}).Methods(http.MethodGet)
}

const placeholderPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>BB Bank</title></head>
<body><div id="root"></div></body></html>
`

// registerFrontendHandlers serves the SPA build. Without a build the same
// routes answer with a bare shell page, so the guard still gates every
// non-API navigation.
func registerFrontendHandlers(r *mux.Router, deps Deps) {
	distDir := strings.TrimSpace(deps.FrontendDistDir)
	indexPath := ""
	if distDir != "" {
		candidate := filepath.Join(distDir, "index.html")
		if _, err := os.Stat(candidate); err == nil {
			indexPath = candidate
		} else {
			logger(deps.Log).Warn("frontend build not found, serving placeholder shell", "dist_dir", distDir)
		}
	}

	var fileServer http.Handler
	serveIndex := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if req.Method != http.MethodHead {
			_, _ = io.WriteString(w, placeholderPage)
		}
	})
	if indexPath != "" {
		fileServer = http.FileServer(http.Dir(distDir))
		serveIndex = func(w http.ResponseWriter, req *http.Request) {
			http.ServeFile(w, req, indexPath)
		}
	}
	guarded := deps.Guard.Middleware(deps.Sessions, serveIndex)

	notAPI := func(req *http.Request, _ *mux.RouteMatch) bool {
		return !strings.HasPrefix(req.URL.Path, "/v1/")
	}
	r.PathPrefix("/").MatcherFunc(notAPI).Methods(http.MethodGet, http.MethodHead).HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		cleanPath := path.Clean(req.URL.Path)
		if cleanPath == deps.Guard.LoginRoute || cleanPath == guard.DefaultLoginRoute {
			serveIndex.ServeHTTP(w, req)
			return
		}

		if fileServer != nil && cleanPath != "/" && cleanPath != "/index.html" {
			fullPath := filepath.Join(distDir, strings.TrimPrefix(cleanPath, "/"))
			info, err := os.Stat(fullPath)
			if err == nil && !info.IsDir() {
				fileServer.ServeHTTP(w, req)
				return
			}
		}

		// Protected SPA route.
		guarded.ServeHTTP(w, req)
	})
}

func resolveStore(w http.ResponseWriter, r *http.Request, deps Deps) (session.Store, string, *http.Request, bool) {
	store, scope, r, err := session.Resolve(w, r, deps.Sessions)
	if err != nil {
		logger(deps.Log).Error("resolve session store", "err", err)
		writeError(w, http.StatusServiceUnavailable, "session storage unavailable")
		return nil, "", r, false
	}
	return store, scope, r, true
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func loggingMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	log = logger(log)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if reqID == "" {
			reqID = newRequestID()
		}
		w.Header().Set("X-Request-Id", reqID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, reqID))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("http request",
			"rid", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

type requestIDKey struct{}

func newRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(requestIDKey{})
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func auditReq(a AuditLogger, r *http.Request, e audit.Event) {
	if a == nil {
		return
	}
	e.RequestID = requestIDFromContext(r.Context())
	e.IP = clientIP(r)
	e.Path = r.URL.Path
	_ = a.Log(e)
}
