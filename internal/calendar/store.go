package calendar

import (
	"context"
	"errors"

	"github.com/terraincognita07/cyclecal/internal/cycle"
)

var (
	ErrInvalidState     = errors.New("action not allowed in current calendar state")
	ErrStoreUnavailable = errors.New("period store unavailable")
)

// PeriodStore persists one date set per user. AddDate and RemoveDate are
// idempotent.
type PeriodStore interface {
	FetchDates(ctx context.Context, userID uint) ([]cycle.Date, error)
	AddDate(ctx context.Context, userID uint, day cycle.Date) error
	RemoveDate(ctx context.Context, userID uint, day cycle.Date) error
	ClearAll(ctx context.Context, userID uint) error
}

type SettingsStore interface {
	GetSettings(ctx context.Context, userID uint) (cycle.Settings, error)
}

// Observer receives one call per finished transition.
type Observer interface {
	ObserveTransition(kind string, status string)
}
