package calendar

import (
	"time"

	"go.uber.org/zap"
)

type Option func(*Controller)

func WithLogger(logger *zap.Logger) Option {
	return func(controller *Controller) {
		if logger != nil {
			controller.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(controller *Controller) {
		if now != nil {
			controller.now = now
		}
	}
}

// WithLocation sets the zone used to decide what "today" is.
func WithLocation(location *time.Location) Option {
	return func(controller *Controller) {
		if location != nil {
			controller.location = location
		}
	}
}

func WithRollback(policy RollbackPolicy) Option {
	return func(controller *Controller) {
		controller.rollback = policy
	}
}

// WithResyncAfterCommit refetches the authoritative dates after a commit
// when no other mutation is pending or newer.
func WithResyncAfterCommit(enabled bool) Option {
	return func(controller *Controller) {
		controller.resync = enabled
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(controller *Controller) {
		if timeout > 0 {
			controller.requestTimeout = timeout
		}
	}
}

// WithStoreErrorHandler registers the transient error notice hook. It runs
// on the dispatch goroutine after local state has been updated.
func WithStoreErrorHandler(handler func(StoreError)) Option {
	return func(controller *Controller) {
		controller.onStoreError = handler
	}
}

func WithObserver(observer Observer) Option {
	return func(controller *Controller) {
		controller.observer = observer
	}
}
