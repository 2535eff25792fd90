package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredDeleter drops codes that expired before now.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// StartOTPCleaner deletes expired codes every interval until ctx is done.
func StartOTPCleaner(
	ctx context.Context,
	repo ExpiredDeleter,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := repo.DeleteExpired(ctx, now)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Error("failed to clean expired codes", zap.Error(err))
					continue
				}
				if n > 0 {
					log.Info("cleaned expired codes", zap.Int("removed", n))
				}
			}
		}
	}()
}
