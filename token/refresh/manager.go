package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/go-session-client/internal/config"
	interrors "github.com/jrsteele09/go-session-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation and validation. A refresh token is
// minted at login and stays fixed for its lifetime: the refresh endpoint
// replaces the access token only.
type Manager struct {
	repo   Repo
	config config.AuthConfig
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.AuthConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create generates a new refresh token and stores it
func (m *Manager) Create(userID string) (*string, error) {
	// Delete existing refresh token for this user (single refresh token per user)
	if existingToken, err := m.repo.GetByUserID(userID); err == nil && existingToken != nil {
		if err := m.repo.Delete(existingToken.Token); err != nil {
			return nil, fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength()) // Configured length (default: 32 bytes = 256 bits)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &tokenStr, nil
}

// Validate looks a refresh token up and checks its expiry, returning the
// owning user ID
func (m *Manager) Validate(token string) (string, error) {
	stored, err := m.repo.Get(token)
	if err != nil || stored == nil {
		return "", interrors.ErrInvalidRefreshToken
	}
	if m.IsExpired(stored) {
		_ = m.repo.Delete(token)
		return "", interrors.ErrRefreshTokenExpired
	}
	return stored.UserID, nil
}

// Invalidate removes a refresh token from storage
func (m *Manager) Invalidate(token string) error {
	return m.repo.Delete(token)
}

// InvalidateForUser removes the user's refresh token, ending all silent
// refresh for their session
func (m *Manager) InvalidateForUser(userID string) error {
	return m.repo.DeleteByUserID(userID)
}

// IsExpired checks if a refresh token has expired
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetDefaultRefreshTokenExpiry()
}
