// Package memory holds the in-memory user repository used by the reference
// deployment and by tests. All mutations are serialized behind one lock,
// which is what keeps concurrent balance adjustments from losing updates.
package memory

import (
	"context"
	"sync"

	apperr "github.com/piyush1222p/Samadhan-Kendra/internal/errors"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/domain"
)

type Repository struct {
	mu      sync.RWMutex
	byEmail map[string]*domain.User
	byID    map[string]*domain.User
}

func NewRepository() *Repository {
	return &Repository{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[string]*domain.User),
	}
}

func (r *Repository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}

	clone := *user

	return &clone, nil
}

func (r *Repository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, nil
	}

	clone := *user

	return &clone, nil
}

func (r *Repository) Insert(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return apperr.ErrEmailAlreadyInUse
	}

	clone := *user
	clone.Email = email
	r.byEmail[email] = &clone
	r.byID[clone.ID] = &clone

	return nil
}

// AdjustPoints applies delta to the user's balance under the write lock.
// A delta that would drive the balance negative leaves it unchanged.
func (r *Repository) AdjustPoints(_ context.Context, id string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return 0, apperr.ErrUserNotFound
	}

	if user.Points+delta < 0 {
		return 0, apperr.ErrInsufficientPoints
	}

	user.Points += delta

	return user.Points, nil
}
