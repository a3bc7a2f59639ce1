package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RunSessionExpiry calls ExpireSessions every interval until ctx is done.
// Sweep errors are logged and do not stop the loop.
func RunSessionExpiry(ctx context.Context, uc SessionUsecase, interval time.Duration, logger logrus.FieldLogger) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := uc.ExpireSessions(ctx); err != nil && ctx.Err() == nil {
				logger.WithError(err).Warn("session expiry sweep failed")
			}
		}
	}
}
