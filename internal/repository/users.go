// Package repository provides the in-memory persistence used by the mock
// API: accounts, pending one-time codes and uploaded avatars.
package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/atinyakov/donorlink/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when an email is already registered.
	ErrExists = errors.New("already exists")
)

// User is a stored account.
type User struct {
	// ID is the stable account identifier used as the token subject.
	ID string
	// Profile is what the profile endpoint returns.
	Profile models.Profile
	// PasswordHash is the bcrypt hash of the password.
	PasswordHash []byte
	// Stats backs the stats endpoint.
	Stats models.Stats
	// Donations backs the donation endpoints.
	Donations []models.Donation
}

func (u *User) clone() *User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	c.Profile.Certificates = append([]models.Certificate(nil), u.Profile.Certificates...)
	c.Donations = append([]models.Donation(nil), u.Donations...)
	return &c
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryUserRepository keeps accounts in memory. Emails are unique,
// compared case-insensitively.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

// Create stores a new user.
func (r *MemoryUserRepository) Create(ctx context.Context, u *User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(u.Profile.Email)
	if _, ok := r.byEmail[key]; ok {
		return ErrExists
	}
	if _, ok := r.byID[u.ID]; ok {
		return ErrExists
	}
	r.byID[u.ID] = u.clone()
	r.byEmail[key] = u.ID
	return nil
}

// ByID returns a copy of the user with the given id.
func (r *MemoryUserRepository) ByID(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.clone(), nil
}

// ByEmail returns a copy of the user registered with email.
func (r *MemoryUserRepository) ByEmail(ctx context.Context, email string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return r.byID[id].clone(), nil
}

// EmailTaken reports whether email belongs to an account.
func (r *MemoryUserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := r.ByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Update applies fn to a copy of the user and stores the result when fn
// succeeds. A changed email is re-indexed and must still be unique.
func (r *MemoryUserRepository) Update(ctx context.Context, id string, fn func(*User) error) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := cur.clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = id

	oldKey, newKey := emailKey(cur.Profile.Email), emailKey(next.Profile.Email)
	if oldKey != newKey {
		if _, taken := r.byEmail[newKey]; taken {
			return nil, ErrExists
		}
		delete(r.byEmail, oldKey)
		r.byEmail[newKey] = id
	}
	r.byID[id] = next
	return next.clone(), nil
}
