package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type cookieClaims struct {
	jwt.RegisteredClaims
	Value string `json:"val"`
}

// CookieStore keeps the record in the browser itself, inside an HS256-signed
// JWT cookie named after Key. A cookie that fails signature checks reads as
// ErrCorruptSession.
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	secret []byte
	secure bool
	now    func() time.Time

	// pending reflects writes made during this request; the request's own
	// cookies are not updated by Set/Clear.
	pending *string
}

func NewCookieStore(w http.ResponseWriter, r *http.Request, secret []byte, secure bool) (*CookieStore, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("cookie secret is required")
	}
	return &CookieStore{w: w, r: r, secret: secret, secure: secure, now: time.Now}, nil
}

func (s *CookieStore) Get(_ context.Context) (User, error) {
	raw, err := s.rawValue()
	if err != nil {
		return User{}, err
	}
	if raw == "" {
		return User{}, ErrNoSession
	}

	claims := &cookieClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return User{}, ErrCorruptSession
	}
	return Decode([]byte(claims.Value))
}

func (s *CookieStore) Set(_ context.Context, u User) error {
	b, err := Encode(u)
	if err != nil {
		return err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
		Value: string(b),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sign %s cookie: %w", Key, err)
	}

	http.SetCookie(s.w, &http.Cookie{
		Name:     Key,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.pending = &signed
	return nil
}

func (s *CookieStore) Clear(_ context.Context) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     Key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	empty := ""
	s.pending = &empty
	return nil
}

func (s *CookieStore) rawValue() (string, error) {
	if s.pending != nil {
		return *s.pending, nil
	}
	c, err := s.r.Cookie(Key)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}
		return "", fmt.Errorf("read %s cookie: %w", Key, err)
	}
	return c.Value, nil
}
