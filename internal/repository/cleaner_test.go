package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failingDeleter struct {
	calls atomic.Int32
}

func (f *failingDeleter) DeleteExpired(context.Context, time.Time) (int, error) {
	f.calls.Add(1)
	return 0, errors.New("store unavailable")
}

func TestStartOTPCleaner_RemovesExpired(t *testing.T) {
	repo := NewMemoryOTPRepository()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	past := time.Now().Add(-time.Minute)
	_ = repo.Put(ctx, OTPKey{Purpose: PurposeSignup, Subject: "old@example.org"}, OTP{Code: "111111", ExpiresAt: past})
	_ = repo.Put(ctx, OTPKey{Purpose: PurposeSignup, Subject: "new@example.org"}, OTP{Code: "222222", ExpiresAt: time.Now().Add(time.Hour)})

	core, logs := observer.New(zapcore.InfoLevel)
	StartOTPCleaner(ctx, repo, 10*time.Millisecond, zap.New(core))

	deadline := time.Now().Add(time.Second)
	for logs.FilterMessage("cleaned expired codes").Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if _, err := repo.Get(context.Background(), OTPKey{Purpose: PurposeSignup, Subject: "old@example.org"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired code still present: %v", err)
	}
	if _, err := repo.Get(context.Background(), OTPKey{Purpose: PurposeSignup, Subject: "new@example.org"}); err != nil {
		t.Errorf("live code removed: %v", err)
	}
}

func TestStartOTPCleaner_ErrorLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartOTPCleaner(ctx, &failingDeleter{}, 10*time.Millisecond, zap.New(core))

	deadline := time.Now().Add(time.Second)
	for logs.FilterMessage("failed to clean expired codes").Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if logs.FilterMessage("failed to clean expired codes").Len() == 0 {
		t.Errorf("expected error log, got %v", logs.All())
	}
}

func TestStartOTPCleaner_CancelBeforeTicker(t *testing.T) {
	d := &failingDeleter{}
	ctx, cancel := context.WithCancel(context.Background())

	StartOTPCleaner(ctx, d, 100*time.Millisecond, zap.NewNop())
	cancel()

	time.Sleep(150 * time.Millisecond)

	if n := d.calls.Load(); n != 0 {
		t.Errorf("cleaner ran %d times after cancel", n)
	}
}
