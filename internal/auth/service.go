package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bbbank/bbbank-ui/internal/session"
)

const (
	DefaultLoginDelay = time.Second
	RootRoute         = "/"
	LoginRoute        = "/login"

	AccountHolderRole = "account-holder"
)

type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Navigation tells the client where to go once an operation completes.
type Navigation struct {
	Target string `json:"navigate"`
	Reload bool   `json:"reload"`
}

// FakeUser is the identity every login produces. There is no credential
// check behind it.
func FakeUser() session.User {
	return session.User{
		FirstName: "Waqas",
		LastName:  "Tariq",
		Username:  "waqastariq",
		Roles:     []string{AccountHolderRole},
	}
}

type Service struct {
	delay time.Duration
	after func(time.Duration) <-chan time.Time
}

type ServiceConfig struct {
	LoginDelay time.Duration
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.LoginDelay < 0 {
		return nil, fmt.Errorf("login delay must be >= 0")
	}
	return &Service{
		delay: cfg.LoginDelay,
		after: time.After,
	}, nil
}

// Login writes FakeUser into store and returns it once the simulated network
// delay has elapsed. The write happens before the delay; cancelling ctx ends
// the wait but leaves the session in place.
func (s *Service) Login(ctx context.Context, store session.Store) (session.User, error) {
	u := FakeUser()
	if err := store.Set(ctx, u); err != nil {
		return session.User{}, fmt.Errorf("store logged in user: %w", err)
	}

	if s.delay > 0 {
		select {
		case <-s.after(s.delay):
		case <-ctx.Done():
			return session.User{}, ctx.Err()
		}
	}
	return u, nil
}

// Logout clears store. Clearing an empty store is a no-op, so Logout is
// idempotent. The caller must navigate to the returned target and reload.
func (s *Service) Logout(ctx context.Context, store session.Store) (Navigation, error) {
	if err := store.Clear(ctx); err != nil {
		return Navigation{}, fmt.Errorf("clear logged in user: %w", err)
	}
	return Navigation{Target: RootRoute, Reload: true}, nil
}

// State reports where store sits in the login state machine. Corrupt and
// unreadable records count as Anonymous.
func (s *Service) State(ctx context.Context, store session.Store) (State, session.User) {
	u, err := store.Get(ctx)
	if err != nil {
		return Anonymous, session.User{}
	}
	return Authenticated, u
}

// CurrentUser is the toolbar read: the stored user, or the zero user when
// nothing valid is stored.
func (s *Service) CurrentUser(ctx context.Context, store session.Store) (session.User, bool, error) {
	u, err := store.Get(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrCorruptSession) {
			return session.User{}, false, nil
		}
		return session.User{}, false, err
	}
	return u, true, nil
}
