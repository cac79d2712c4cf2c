// Package guard gates protected views on the presence of a stored session.
//
// A Guard keeps no state between calls: every navigation re-reads the store.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"bbbank/bbbank-ui/internal/session"
)

const DefaultLoginRoute = "/login"

const (
	ReasonNoSession    = "no_session"
	ReasonCorrupt      = "corrupt_session"
	ReasonStoreFailure = "store_failure"
)

type Decision struct {
	Allowed  bool
	Redirect string
	Reason   string
	User     session.User
}

type Guard struct {
	LoginRoute string
	Log        *slog.Logger

	// OnDeny, when set, is called by Middleware for every denied request.
	OnDeny func(r *http.Request, scope string, d Decision)
}

func New(log *slog.Logger) *Guard {
	return &Guard{LoginRoute: DefaultLoginRoute, Log: log}
}

// Check allows iff store holds a valid user record. A corrupt record is
// treated as no session and removed so the next login starts clean.
func (g *Guard) Check(ctx context.Context, store session.Store) Decision {
	u, err := store.Get(ctx)
	if err == nil {
		return Decision{Allowed: true, User: u}
	}

	deny := Decision{Redirect: g.loginRoute()}
	switch {
	case errors.Is(err, session.ErrNoSession):
		deny.Reason = ReasonNoSession
	case errors.Is(err, session.ErrCorruptSession):
		deny.Reason = ReasonCorrupt
		g.logger().Warn("discarding corrupt session record", "key", session.Key)
		if cerr := store.Clear(ctx); cerr != nil {
			g.logger().Error("clear corrupt session record", "err", cerr)
		}
	default:
		deny.Reason = ReasonStoreFailure
		g.logger().Error("read session record", "err", err)
	}
	return deny
}

// Middleware runs Check before next and redirects denied requests to the
// login route.
func (g *Guard) Middleware(p session.Provider, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store, scope, r, err := session.Resolve(w, r, p)
		if err != nil {
			g.logger().Error("guard resolve store", "err", err)
			http.Redirect(w, r, g.loginRoute(), http.StatusFound)
			return
		}

		d := g.Check(r.Context(), store)
		if !d.Allowed {
			if g.OnDeny != nil {
				g.OnDeny(r, scope, d)
			}
			http.Redirect(w, r, d.Redirect, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) loginRoute() string {
	if g.LoginRoute == "" {
		return DefaultLoginRoute
	}
	return g.LoginRoute
}

func (g *Guard) logger() *slog.Logger {
	if g.Log == nil {
		return slog.Default()
	}
	return g.Log
}
