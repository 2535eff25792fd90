package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/donorlink/internal/repository"
)

// CodeLength is the number of digits in a one-time code.
const CodeLength = 6

// Generator produces one-time codes.
type Generator func() (string, error)

// RandomCode returns a uniformly random six digit code.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// FixedCode returns a generator that always yields code. Only for tests and
// local runs.
func FixedCode(code string) Generator {
	return func() (string, error) { return code, nil }
}

// OTPRepository stores pending codes.
type OTPRepository interface {
	Put(ctx context.Context, key repository.OTPKey, code repository.OTP) error
	Get(ctx context.Context, key repository.OTPKey) (repository.OTP, error)
	Delete(ctx context.Context, key repository.OTPKey) error
}

// OTPIssuer issues and checks one-time codes. Delivery is simulated by
// logging the code.
type OTPIssuer struct {
	repo OTPRepository
	ttl  time.Duration
	gen  Generator
	now  func() time.Time
	log  *zap.Logger
}

// NewOTPIssuer builds an issuer whose codes live for ttl.
func NewOTPIssuer(repo OTPRepository, ttl time.Duration, gen Generator, log *zap.Logger) *OTPIssuer {
	if gen == nil {
		gen = RandomCode
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OTPIssuer{repo: repo, ttl: ttl, gen: gen, now: time.Now, log: log}
}

// Issue creates a code for key, replacing any pending one, and "sends" it to target.
func (s *OTPIssuer) Issue(ctx context.Context, key repository.OTPKey, target string) error {
	code, err := s.gen()
	if err != nil {
		return err
	}
	otp := repository.OTP{Code: code, Target: target, ExpiresAt: s.now().Add(s.ttl)}
	if err := s.repo.Put(ctx, key, otp); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	s.log.Info("otp issued",
		zap.String("purpose", string(key.Purpose)),
		zap.String("target", target),
		zap.String("code", code),
		zap.Time("expires_at", otp.ExpiresAt),
	)
	return nil
}

// Consume checks code against the one pending for key and target. A
// matching code is deleted so it cannot be replayed.
func (s *OTPIssuer) Consume(ctx context.Context, key repository.OTPKey, target, code string) error {
	pending, err := s.repo.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}
	if pending.Expired(s.now()) {
		_ = s.repo.Delete(ctx, key)
		return ErrInvalidOTP
	}
	if !strings.EqualFold(strings.TrimSpace(pending.Target), strings.TrimSpace(target)) {
		return ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare([]byte(pending.Code), []byte(strings.TrimSpace(code))) != 1 {
		return ErrInvalidOTP
	}
	return s.repo.Delete(ctx, key)
}
