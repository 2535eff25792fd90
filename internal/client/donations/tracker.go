// Package donations lists the user's donation history and follows a single
// donation until it reaches a terminal status.
package donations

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/donorlink/internal/client/api"
	"github.com/atinyakov/donorlink/internal/models"
)

// DefaultInterval is the polling period used by Watch when none is given.
const DefaultInterval = 10 * time.Second

// ErrEmptyID is returned when Watch is called without a donation id.
var ErrEmptyID = errors.New("donation id is required")

// Source is the subset of the API client used here.
type Source interface {
	DonationHistory(ctx context.Context) ([]models.Donation, error)
	TrackDonation(ctx context.Context, id string) (*models.TrackStatus, error)
}

// AuthHandler applies the shared 401/403 session policy.
type AuthHandler interface {
	HandleAuthError(err error) bool
}

// Tracker reads donation data on behalf of a signed-in user.
type Tracker struct {
	src  Source
	auth AuthHandler
	log  *zap.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithAuthHandler routes 401/403 failures to h.
func WithAuthHandler(h AuthHandler) Option {
	return func(t *Tracker) {
		t.auth = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) {
		t.log = l
	}
}

// NewTracker builds a Tracker over src.
func NewTracker(src Source, opts ...Option) *Tracker {
	t := &Tracker{src: src, log: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// History returns the donation records, newest first.
func (t *Tracker) History(ctx context.Context) ([]models.Donation, error) {
	list, err := t.src.DonationHistory(ctx)
	if err != nil {
		t.handle(err)
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// Watch polls the donation's status every interval and calls fn whenever it
// changes. It returns the last status once it is terminal, or an error when
// ctx ends or the server rejects the request. Transport failures are logged
// and retried on the next tick.
func (t *Tracker) Watch(ctx context.Context, id string, interval time.Duration, fn func(models.DonationStatus)) (models.DonationStatus, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrEmptyID
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last models.DonationStatus
	for {
		st, err := t.src.TrackDonation(ctx, id)
		switch {
		case err == nil:
			if st.Status != last {
				last = st.Status
				if fn != nil {
					fn(last)
				}
			}
			if last.Terminal() {
				return last, nil
			}
		case ctx.Err() != nil:
			return last, ctx.Err()
		case api.KindOf(err) == api.KindTransport:
			t.log.Warn("track request failed, retrying", zap.String("donation", id), zap.Error(err))
		default:
			t.handle(err)
			return last, err
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Tracker) handle(err error) {
	if t.auth != nil {
		t.auth.HandleAuthError(err)
	}
}
