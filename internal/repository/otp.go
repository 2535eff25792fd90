package repository

import (
	"context"
	"sync"
	"time"
)

// Purpose separates codes issued for different flows.
type Purpose string

const (
	PurposeSignup      Purpose = "signup"
	PurposeEmailChange Purpose = "email-change"
	PurposePhoneChange Purpose = "phone-change"
)

// OTPKey identifies one pending code. Subject is the email for signup codes
// and the user id for field changes.
type OTPKey struct {
	Purpose Purpose
	Subject string
}

// OTP is a pending one-time code.
type OTP struct {
	// Code is the six digit code.
	Code string
	// Target is the value the code was sent to, e.g. the new email.
	Target string
	// ExpiresAt is when the code stops being accepted.
	ExpiresAt time.Time
}

// Expired reports whether the code is past its expiry at now.
func (o OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// MemoryOTPRepository keeps at most one pending code per key; issuing a new
// code replaces the previous one.
type MemoryOTPRepository struct {
	mu    sync.Mutex
	codes map[OTPKey]OTP
}

// NewMemoryOTPRepository creates an empty repository.
func NewMemoryOTPRepository() *MemoryOTPRepository {
	return &MemoryOTPRepository{codes: make(map[OTPKey]OTP)}
}

// Put stores code under key.
func (r *MemoryOTPRepository) Put(ctx context.Context, key OTPKey, code OTP) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[key] = code
	return nil
}

// Get returns the code stored under key.
func (r *MemoryOTPRepository) Get(ctx context.Context, key OTPKey) (OTP, error) {
	if err := ctx.Err(); err != nil {
		return OTP{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.codes[key]
	if !ok {
		return OTP{}, ErrNotFound
	}
	return code, nil
}

// Delete removes the code stored under key, if any.
func (r *MemoryOTPRepository) Delete(ctx context.Context, key OTPKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, key)
	return nil
}

// DeleteExpired removes every code expired at now and reports how many.
func (r *MemoryOTPRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, code := range r.codes {
		if code.Expired(now) {
			delete(r.codes, key)
			n++
		}
	}
	return n, nil
}
