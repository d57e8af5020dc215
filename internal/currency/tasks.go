package currency

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/DevSheroz/glori82-admin/internal/lock"
)

// TaskFXRefresh is the asynq task type for the scheduled rate refresh.
const TaskFXRefresh = "fx:refresh"

// NewRefreshTask builds the refresh task enqueued by the scheduler.
func NewRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskFXRefresh, nil)
}

// RefreshHandler processes scheduled refresh tasks. When Lock is set the
// refresh runs under a distributed lock so concurrent workers fetch once.
type RefreshHandler struct {
	Service *Service
	Lock    *lock.Locker
	Logger  zerolog.Logger
}

// ProcessTask refreshes the cached snapshot. Errors are returned so asynq
// records the failure; the next scheduled run is the retry.
func (h RefreshHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	refresh := func(ctx context.Context) error { return h.Service.Refresh(ctx) }

	var err error
	if h.Lock != nil {
		err = h.Lock.TryLock(ctx, "fx:refresh:lock", time.Minute, refresh)
		if errors.Is(err, lock.ErrNotAcquired) {
			h.Logger.Debug().Msg("fx refresh already running elsewhere")
			return nil
		}
	} else {
		err = refresh(ctx)
	}
	if err != nil {
		h.Logger.Error().Err(err).Msg("scheduled fx refresh failed")
		return err
	}
	h.Logger.Info().Msg("fx snapshot refreshed")
	return nil
}
