package refresh

import (
	"fmt"
	"sync"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is an in-memory implementation of Repo
type InMemoryRepo struct {
	mu      sync.RWMutex
	tokens  map[string]*StoredRefreshToken
	userIds map[string]string // user id to token
}

// NewInMemoryRepo creates a new in-memory refresh token repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		tokens:  make(map[string]*StoredRefreshToken),
		userIds: make(map[string]string),
	}
}

// Upsert creates or replaces a stored refresh token
func (r *InMemoryRepo) Upsert(token *StoredRefreshToken) error {
	if token == nil || token.Token == "" {
		return fmt.Errorf("token is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token.Token] = token
	r.userIds[token.UserID] = token.Token
	return nil
}

// Get retrieves a stored refresh token
func (r *InMemoryRepo) Get(token string) (*StoredRefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.tokens[token]
	if !ok {
		return nil, fmt.Errorf("refresh token not found")
	}
	return stored, nil
}

// GetByUserID retrieves the user's active refresh token
func (r *InMemoryRepo) GetByUserID(userID string) (*StoredRefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.userIds[userID]
	if !ok {
		return nil, fmt.Errorf("refresh token not found")
	}
	stored, ok := r.tokens[token]
	if !ok {
		return nil, fmt.Errorf("refresh token not found")
	}
	return stored, nil
}

// Delete removes a refresh token
func (r *InMemoryRepo) Delete(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tokens[token]
	if !ok {
		return fmt.Errorf("refresh token not found")
	}
	delete(r.userIds, stored.UserID)
	delete(r.tokens, token)
	return nil
}

// DeleteByUserID removes the user's refresh token
func (r *InMemoryRepo) DeleteByUserID(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.userIds[userID]
	if !ok {
		return fmt.Errorf("refresh token not found")
	}
	delete(r.tokens, token)
	delete(r.userIds, userID)
	return nil
}
