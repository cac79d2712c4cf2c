package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const DefaultClientCookie = "bbbank_client"

// Provider resolves the Store of the browser that sent r. The returned scope
// identifies that browser in logs and audit events.
type Provider interface {
	StoreFor(w http.ResponseWriter, r *http.Request) (Store, string, error)
}

// ScopedProvider keys a server-side Backend by an opaque client id cookie.
type ScopedProvider struct {
	Backend    Backend
	CookieName string
	Secure     bool
}

func (p ScopedProvider) StoreFor(w http.ResponseWriter, r *http.Request) (Store, string, error) {
	name := p.CookieName
	if name == "" {
		name = DefaultClientCookie
	}

	scope := ""
	if c, err := r.Cookie(name); err == nil {
		if id, err := uuid.Parse(strings.TrimSpace(c.Value)); err == nil {
			scope = id.String()
		}
	}
	if scope == "" {
		scope = uuid.NewString()
		c := &http.Cookie{
			Name:     name,
			Value:    scope,
			Path:     "/",
			HttpOnly: true,
			Secure:   p.Secure,
			SameSite: http.SameSiteLaxMode,
		}
		http.SetCookie(w, c)
		replaceRequestCookie(r, c)
	}

	store, err := NewStore(p.Backend, scope)
	if err != nil {
		return nil, "", err
	}
	return store, scope, nil
}

// replaceRequestCookie drops any value r carries under c.Name and appends c,
// so r.Cookie(c.Name) returns the issued id.
func replaceRequestCookie(r *http.Request, c *http.Cookie) {
	kept := make([]*http.Cookie, 0, len(r.Cookies()))
	for _, old := range r.Cookies() {
		if old.Name != c.Name {
			kept = append(kept, old)
		}
	}
	r.Header.Del("Cookie")
	for _, old := range kept {
		r.AddCookie(old)
	}
	r.AddCookie(c)
}

// CookieProvider hands out a CookieStore bound to the request.
type CookieProvider struct {
	Secret []byte
	Secure bool
}

func (p CookieProvider) StoreFor(w http.ResponseWriter, r *http.Request) (Store, string, error) {
	store, err := NewCookieStore(w, r, p.Secret, p.Secure)
	if err != nil {
		return nil, "", err
	}
	return store, "browser", nil
}

type contextKey struct{}

type resolved struct {
	store Store
	scope string
}

// Resolve returns the Store already attached to r's context, or asks p for one
// and returns a request carrying it so later handlers share the same Store.
func Resolve(w http.ResponseWriter, r *http.Request, p Provider) (Store, string, *http.Request, error) {
	if v, ok := r.Context().Value(contextKey{}).(resolved); ok {
		return v.store, v.scope, r, nil
	}
	if p == nil {
		return nil, "", r, errors.New("session provider is required")
	}
	store, scope, err := p.StoreFor(w, r)
	if err != nil {
		return nil, "", r, fmt.Errorf("resolve session store: %w", err)
	}
	ctx := context.WithValue(r.Context(), contextKey{}, resolved{store: store, scope: scope})
	return store, scope, r.WithContext(ctx), nil
}
