package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Key is the storage key holding the logged-in user record.
const Key = "loggedInUser"

var (
	ErrNoSession      = errors.New("no session")
	ErrCorruptSession = errors.New("corrupt session record")
	ErrKeyNotFound    = errors.New("storage key not found")
)

// User is the identity payload stored for the current session. The JSON field
// names are shared with the SPA and must not change.
type User struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Username  string   `json:"username"`
	Roles     []string `json:"roles"`
}

// DisplayName is the toolbar label for u.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}

func Encode(u User) ([]byte, error) {
	if strings.TrimSpace(u.Username) == "" {
		return nil, fmt.Errorf("username is required")
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}
	b, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode user record: %w", err)
	}
	return b, nil
}

// Decode validates a stored record. Any value that is not a JSON object with a
// non-empty username and string-typed fields yields ErrCorruptSession.
func Decode(b []byte) (User, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil || fields == nil {
		return User{}, ErrCorruptSession
	}

	var u User
	if err := json.Unmarshal(b, &u); err != nil {
		return User{}, ErrCorruptSession
	}
	if strings.TrimSpace(u.Username) == "" {
		return User{}, ErrCorruptSession
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return u, nil
}
