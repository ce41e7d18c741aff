package store

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const invalidateTimeout = 30 * time.Second

// ScheduleInvalidation flushes c on the cron expression expr (standard
// five-field syntax or descriptors such as "@hourly"). The returned
// scheduler is running; stop it with Stop.
func ScheduleInvalidation(expr string, c *CachedStore, logger zerolog.Logger) (*cron.Cron, error) {
	sched := cron.New()
	_, err := sched.AddFunc(expr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
		defer cancel()
		if err := c.Invalidate(ctx); err != nil {
			logger.Warn().Err(err).Msg("scheduled cache flush failed")
			return
		}
		logger.Info().Msg("scheduled cache flush")
	})
	if err != nil {
		return nil, fmt.Errorf("cache flush schedule %q: %w", expr, err)
	}
	sched.Start()
	return sched, nil
}
