package users

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ UserRepo = (*InMemoryUserRepo)(nil)

// InMemoryUserRepo is an in-memory implementation of UserRepo
type InMemoryUserRepo struct {
	mu       sync.RWMutex
	users    map[string]*User
	emailIds map[string]string // email to user id
}

// NewInMemoryUserRepo creates a new in-memory user repository
func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{
		users:    make(map[string]*User),
		emailIds: make(map[string]string),
	}
}

// Upsert creates or updates a user, assigning an ID when missing
func (r *InMemoryUserRepo) Upsert(user *User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now()
	}
	r.users[user.ID] = user
	r.emailIds[user.Email] = user.ID
	return nil
}

// Delete removes a user by email
func (r *InMemoryUserRepo) Delete(email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.emailIds[email]
	if !ok {
		return fmt.Errorf("user not found")
	}
	delete(r.users, id)
	delete(r.emailIds, email)
	return nil
}

// GetByEmail retrieves a user by email address
func (r *InMemoryUserRepo) GetByEmail(email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emailIds[email]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *InMemoryUserRepo) GetByID(ID string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[ID]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

// SetLastLogin records the time of the user's latest login
func (r *InMemoryUserRepo) SetLastLogin(email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.emailIds[email]
	if !ok {
		return fmt.Errorf("user not found")
	}
	r.users[id].LastLogin = time.Now()
	return nil
}
