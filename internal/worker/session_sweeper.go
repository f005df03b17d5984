package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/roadwatch/damage-service/internal/service"
)

// StartSessionSweeper periodically removes expired sessions. Session
// expiry is otherwise lazy, so without the sweeper dead rows accumulate
// until manually deleted. Stops when ctx is done.
func StartSessionSweeper(ctx context.Context, authService *service.AuthService, interval time.Duration, logger *zap.Logger) {
	if authService == nil {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := authService.SweepExpiredSessions(ctx)
				if err != nil {
					logger.Warn("session sweep failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					logger.Info("swept expired sessions", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
