package credentials

import (
	"encoding/json"

	interrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/pkg/errors"
)

// Store keys for the persisted credential bundle. These match the keys the
// web frontend writes, so a Go client and the browser can share a session.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
	KeyProfile      = "profile"
	KeyReturnURL    = "returnUrl"
	KeyRemember     = "remember"
)

// AuthKeys are the keys whose external changes are relevant to session
// validity. Changes to profile/returnUrl/remember do not invalidate a session.
func AuthKeys() []string {
	return []string{KeyToken, KeyRefreshToken, KeyUser}
}

// UserSnapshot is the cached identity stored alongside the tokens.
type UserSnapshot struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Bundle is the full credential bundle persisted in a Store.
type Bundle struct {
	AccessToken  string
	RefreshToken string
	User         *UserSnapshot
	Profile      string
	ReturnURL    string
	Remember     bool
}

// HasTokens reports whether both the access and refresh tokens are present.
func (b Bundle) HasTokens() bool {
	return b.AccessToken != "" && b.RefreshToken != ""
}

// ParseUserSnapshot decodes a stored user snapshot. A malformed snapshot is
// treated the same as missing credentials by all callers.
func ParseUserSnapshot(raw string) (*UserSnapshot, error) {
	var snapshot UserSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, errors.Wrap(interrors.ErrCorruptSnapshot, err.Error())
	}
	return &snapshot, nil
}

// LoadBundle reads the whole credential bundle out of a store. Missing keys
// leave zero values; a malformed user snapshot leaves User nil.
func LoadBundle(store Store) Bundle {
	var b Bundle
	b.AccessToken, _ = store.Get(KeyToken)
	b.RefreshToken, _ = store.Get(KeyRefreshToken)
	b.Profile, _ = store.Get(KeyProfile)
	b.ReturnURL, _ = store.Get(KeyReturnURL)
	if remember, ok := store.Get(KeyRemember); ok {
		b.Remember = remember == "true"
	}
	if raw, ok := store.Get(KeyUser); ok {
		if snapshot, err := ParseUserSnapshot(raw); err == nil {
			b.User = snapshot
		}
	}
	return b
}

// SaveLogin stores a fresh credential bundle after a successful login or
// signup and broadcasts the user-updated signal.
func SaveLogin(store Store, accessToken, refreshToken string, user *UserSnapshot) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "[SaveLogin] marshal user snapshot")
	}
	if err := store.Set(KeyToken, accessToken); err != nil {
		return errors.Wrap(err, "[SaveLogin] store access token")
	}
	if err := store.Set(KeyRefreshToken, refreshToken); err != nil {
		return errors.Wrap(err, "[SaveLogin] store refresh token")
	}
	if err := store.Set(KeyUser, string(rawUser)); err != nil {
		return errors.Wrap(err, "[SaveLogin] store user snapshot")
	}
	store.Broadcast()
	return nil
}
