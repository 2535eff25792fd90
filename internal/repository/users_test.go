package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atinyakov/donorlink/internal/models"
)

func newUser(id, email string) *User {
	return &User{
		ID:           id,
		Profile:      models.Profile{Email: email, Status: models.StatusPending},
		PasswordHash: []byte("hash"),
	}
}

func TestMemoryUserRepository_CreateAndLookup(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newUser("u1", "Ada@Example.org")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, newUser("u2", " ada@example.org")); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate email err = %v; want ErrExists", err)
	}

	u, err := repo.ByEmail(ctx, "ADA@example.org")
	if err != nil {
		t.Fatalf("ByEmail: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("ID = %q; want u1", u.ID)
	}
	if _, err := repo.ByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ByID missing err = %v; want ErrNotFound", err)
	}

	taken, err := repo.EmailTaken(ctx, "ada@example.org")
	if err != nil || !taken {
		t.Errorf("EmailTaken = %v, %v; want true", taken, err)
	}
}

func TestMemoryUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	_ = repo.Create(ctx, newUser("u1", "a@example.org"))

	u, _ := repo.ByID(ctx, "u1")
	u.Profile.FirstName = "changed"
	u.Donations = append(u.Donations, models.Donation{ID: "d"})

	again, _ := repo.ByID(ctx, "u1")
	if again.Profile.FirstName != "" || len(again.Donations) != 0 {
		t.Errorf("stored user was mutated through a returned copy")
	}
}

func TestMemoryUserRepository_UpdateReindexesEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	_ = repo.Create(ctx, newUser("u1", "a@example.org"))
	_ = repo.Create(ctx, newUser("u2", "b@example.org"))

	_, err := repo.Update(ctx, "u1", func(u *User) error {
		u.Profile.Email = "b@example.org"
		return nil
	})
	if !errors.Is(err, ErrExists) {
		t.Errorf("taken email err = %v; want ErrExists", err)
	}

	updated, err := repo.Update(ctx, "u1", func(u *User) error {
		u.Profile.Email = "c@example.org"
		u.Profile.Status = models.StatusCompleted
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Profile.Status.Completed() {
		t.Errorf("status not updated")
	}
	if _, err := repo.ByEmail(ctx, "a@example.org"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old email still indexed: %v", err)
	}
	if u, err := repo.ByEmail(ctx, "c@example.org"); err != nil || u.ID != "u1" {
		t.Errorf("new email lookup = %v, %v", u, err)
	}
}

func TestMemoryUserRepository_UpdateErrorDiscardsChanges(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	_ = repo.Create(ctx, newUser("u1", "a@example.org"))

	boom := errors.New("boom")
	_, err := repo.Update(ctx, "u1", func(u *User) error {
		u.Profile.FirstName = "partial"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v; want boom", err)
	}
	u, _ := repo.ByID(ctx, "u1")
	if u.Profile.FirstName != "" {
		t.Errorf("failed update leaked: %q", u.Profile.FirstName)
	}
}

func TestMemoryUserRepository_CanceledContext(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := repo.Create(ctx, newUser("u1", "a@example.org")); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v; want context.Canceled", err)
	}
}

func TestMemoryOTPRepository(t *testing.T) {
	repo := NewMemoryOTPRepository()
	ctx := context.Background()
	key := OTPKey{Purpose: PurposeEmailChange, Subject: "u1"}
	now := time.Now()

	if _, err := repo.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty Get err = %v", err)
	}

	_ = repo.Put(ctx, key, OTP{Code: "111111", Target: "x@example.org", ExpiresAt: now.Add(time.Minute)})
	_ = repo.Put(ctx, key, OTP{Code: "222222", Target: "y@example.org", ExpiresAt: now.Add(time.Minute)})
	got, err := repo.Get(ctx, key)
	if err != nil || got.Code != "222222" || got.Target != "y@example.org" {
		t.Errorf("Get = %+v, %v; want the latest code", got, err)
	}

	n, _ := repo.DeleteExpired(ctx, now)
	if n != 0 {
		t.Errorf("DeleteExpired removed %d live codes", n)
	}
	n, _ = repo.DeleteExpired(ctx, now.Add(time.Minute))
	if n != 1 {
		t.Errorf("DeleteExpired removed %d; want 1", n)
	}

	_ = repo.Put(ctx, key, OTP{Code: "333333", ExpiresAt: now.Add(time.Minute)})
	_ = repo.Delete(ctx, key)
	if _, err := repo.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete err = %v", err)
	}
}

func TestMemoryAvatarRepository(t *testing.T) {
	repo := NewMemoryAvatarRepository()
	ctx := context.Background()
	data := []byte{0x89, 'P', 'N', 'G'}

	_ = repo.Put(ctx, "a.png", Avatar{ContentType: "image/png", Data: data})
	data[0] = 0

	got, err := repo.Get(ctx, "a.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ContentType != "image/png" || got.Data[0] != 0x89 {
		t.Errorf("Get = %+v; want an independent copy", got)
	}
	if _, err := repo.Get(ctx, "b.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing avatar err = %v", err)
	}
}
