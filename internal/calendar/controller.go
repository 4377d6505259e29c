package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/cyclecal/internal/cycle"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxTransitionHistory  = 64
)

type storeCall func(ctx context.Context) error

// Controller owns the local date set of one user and the view derived from
// it. Every action updates local state and the view before returning; the
// matching store call runs on its own goroutine.
type Controller struct {
	userID        uint
	periods       PeriodStore
	settingsStore SettingsStore

	logger         *zap.Logger
	now            func() time.Time
	location       *time.Location
	rollback       RollbackPolicy
	resync         bool
	requestTimeout time.Duration
	onStoreError   func(StoreError)
	observer       Observer

	mu        sync.Mutex
	state     State
	selected  cycle.Date
	dates     map[cycle.Date]struct{}
	settings  cycle.Settings
	view      cycle.View
	seq       uint64
	resetAt   uint64
	touchedAt map[cycle.Date]uint64
	pending   int
	history   []Transition

	// running counts dispatched goroutines; idle is closed when it drops
	// back to zero and is nil while nothing runs.
	running int
	idle    chan struct{}
}

// New builds a controller with an empty date set. settingsStore may be nil,
// in which case default settings apply until ApplySettings is called.
func New(userID uint, periods PeriodStore, settingsStore SettingsStore, options ...Option) *Controller {
	controller := &Controller{
		userID:         userID,
		periods:        periods,
		settingsStore:  settingsStore,
		logger:         zap.NewNop(),
		now:            time.Now,
		location:       time.UTC,
		requestTimeout: defaultRequestTimeout,
		dates:          map[cycle.Date]struct{}{},
		settings:       cycle.DefaultSettings(),
		touchedAt:      map[cycle.Date]uint64{},
	}
	for _, option := range options {
		option(controller)
	}
	controller.logger = controller.logger.With(zap.Uint("user_id", userID))
	controller.recomputeLocked()
	return controller
}

// Load replaces local state with the store's dates and settings. Mutations
// still in flight can no longer roll back over the loaded state.
func (controller *Controller) Load(ctx context.Context) error {
	var dates []cycle.Date
	settings := cycle.DefaultSettings()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		fetched, err := controller.periods.FetchDates(groupCtx, controller.userID)
		if err != nil {
			return fmt.Errorf("fetch dates: %w", err)
		}
		dates = fetched
		return nil
	})
	if controller.settingsStore != nil {
		group.Go(func() error {
			loaded, err := controller.settingsStore.GetSettings(groupCtx, controller.userID)
			if err != nil {
				return fmt.Errorf("fetch settings: %w", err)
			}
			settings = loaded
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		controller.logger.Warn("calendar load failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.seq++
	controller.resetAt = controller.seq
	controller.replaceDatesLocked(dates)
	controller.settings = settings
	controller.state = StateIdle
	controller.selected = cycle.Date{}
	controller.recomputeLocked()
	controller.logger.Debug("calendar loaded", zap.Int("dates", len(controller.dates)))
	return nil
}

// ReloadSettings refetches settings and recomputes the view.
func (controller *Controller) ReloadSettings(ctx context.Context) error {
	if controller.settingsStore == nil {
		return nil
	}
	settings, err := controller.settingsStore.GetSettings(ctx, controller.userID)
	if err != nil {
		return fmt.Errorf("%w: fetch settings: %w", ErrStoreUnavailable, err)
	}
	controller.ApplySettings(settings)
	return nil
}

func (controller *Controller) ApplySettings(settings cycle.Settings) {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.settings = settings
	controller.recomputeLocked()
}

// SelectDate opens the date dialog and reports which action it offers. A
// pending clear-all confirmation is abandoned.
func (controller *Controller) SelectDate(day cycle.Date) (Action, error) {
	if day.IsZero() {
		return "", cycle.ErrInvalidDate
	}

	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.state = StateDateSelected
	controller.selected = day
	if _, exists := controller.dates[day]; exists {
		return ActionRemove, nil
	}
	return ActionAdd, nil
}

// ConfirmAdd marks the selected date. A date that is already marked is left
// alone and no store call is made.
func (controller *Controller) ConfirmAdd() error {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.state != StateDateSelected {
		return ErrInvalidState
	}
	day := controller.selected
	controller.resetSelectionLocked()
	if _, exists := controller.dates[day]; exists {
		return nil
	}

	controller.dates[day] = struct{}{}
	transition := controller.beginLocked(MutationAdd, day)
	controller.recomputeLocked()

	controller.dispatchLocked(transition, func(ctx context.Context) error {
		return controller.periods.AddDate(ctx, controller.userID, day)
	}, func() bool {
		if !controller.untouchedSinceLocked(day, transition.Seq) {
			return false
		}
		delete(controller.dates, day)
		return true
	})
	return nil
}

// ConfirmRemove unmarks the selected date. Removing an absent date is a
// no-op.
func (controller *Controller) ConfirmRemove() error {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.state != StateDateSelected {
		return ErrInvalidState
	}
	day := controller.selected
	controller.resetSelectionLocked()
	if _, exists := controller.dates[day]; !exists {
		return nil
	}

	delete(controller.dates, day)
	transition := controller.beginLocked(MutationRemove, day)
	controller.recomputeLocked()

	controller.dispatchLocked(transition, func(ctx context.Context) error {
		return controller.periods.RemoveDate(ctx, controller.userID, day)
	}, func() bool {
		if !controller.untouchedSinceLocked(day, transition.Seq) {
			return false
		}
		controller.dates[day] = struct{}{}
		return true
	})
	return nil
}

func (controller *Controller) RequestClearAll() error {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.selected = cycle.Date{}
	controller.state = StateConfirmClearAll
	return nil
}

func (controller *Controller) ConfirmClearAll() error {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.state != StateConfirmClearAll {
		return ErrInvalidState
	}
	controller.resetSelectionLocked()

	snapshot := controller.dates
	controller.dates = map[cycle.Date]struct{}{}
	transition := controller.beginLocked(MutationClearAll, cycle.Date{})
	controller.recomputeLocked()

	controller.dispatchLocked(transition, func(ctx context.Context) error {
		return controller.periods.ClearAll(ctx, controller.userID)
	}, func() bool {
		if controller.resetAt != transition.Seq || controller.seq != transition.Seq {
			return false
		}
		controller.dates = snapshot
		return true
	})
	return nil
}

// Cancel closes any open dialog without side effects.
func (controller *Controller) Cancel() {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.resetSelectionLocked()
}

func (controller *Controller) View() cycle.View {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	return controller.view.Clone()
}

func (controller *Controller) State() State {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	return controller.state
}

func (controller *Controller) Selected() (cycle.Date, bool) {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	return controller.selected, controller.state == StateDateSelected
}

func (controller *Controller) Settings() cycle.Settings {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	return controller.settings
}

// Transitions returns the most recent transitions, oldest first.
func (controller *Controller) Transitions() []Transition {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	return append([]Transition{}, controller.history...)
}

// Wait blocks until every dispatched store call, and any re-sync it
// triggered, has finished. Actions taken while Wait blocks extend the wait.
func (controller *Controller) Wait(ctx context.Context) error {
	controller.mu.Lock()
	idle := controller.idle
	controller.mu.Unlock()
	if idle == nil {
		return nil
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (controller *Controller) startWorkLocked() {
	if controller.running == 0 {
		controller.idle = make(chan struct{})
	}
	controller.running++
}

func (controller *Controller) finishWork() {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.running--
	if controller.running == 0 {
		close(controller.idle)
		controller.idle = nil
	}
}

func (controller *Controller) beginLocked(kind MutationKind, day cycle.Date) Transition {
	controller.seq++
	transition := Transition{
		ID:     uuid.New(),
		Seq:    controller.seq,
		Kind:   kind,
		Date:   day,
		Status: TransitionPending,
	}

	if kind == MutationClearAll {
		controller.resetAt = controller.seq
		controller.touchedAt = map[cycle.Date]uint64{}
	} else {
		controller.touchedAt[day] = controller.seq
	}
	controller.pending++
	controller.recordLocked(transition)
	return transition
}

func (controller *Controller) dispatchLocked(transition Transition, call storeCall, undo func() bool) {
	controller.startWorkLocked()
	go func() {
		defer controller.finishWork()

		ctx, cancel := context.WithTimeout(context.Background(), controller.requestTimeout)
		err := call(ctx)
		cancel()

		if err != nil {
			controller.fail(transition, err, undo)
			return
		}
		if controller.commit(transition) {
			controller.resyncAfter(transition.Seq)
		}
	}()
}

// commit reports whether a re-sync should follow.
func (controller *Controller) commit(transition Transition) bool {
	controller.mu.Lock()
	controller.pending--
	transition.Status = TransitionCommitted
	controller.recordLocked(transition)
	shouldResync := controller.resync && controller.seq == transition.Seq && controller.pending == 0
	controller.mu.Unlock()

	controller.logger.Debug("calendar mutation committed",
		zap.String("transition_id", transition.ID.String()),
		zap.String("kind", string(transition.Kind)),
		zap.Stringer("date", transition.Date),
	)
	controller.observe(transition)
	return shouldResync
}

func (controller *Controller) fail(transition Transition, cause error, undo func() bool) {
	controller.mu.Lock()
	controller.pending--
	transition.Err = fmt.Errorf("%w: %w", ErrStoreUnavailable, cause)
	transition.Status = TransitionFailed
	if controller.rollback == RollbackOnFailure && undo() {
		transition.Status = TransitionRolledBack
		controller.recomputeLocked()
	}
	controller.recordLocked(transition)
	handler := controller.onStoreError
	controller.mu.Unlock()

	controller.logger.Warn("calendar mutation failed",
		zap.String("transition_id", transition.ID.String()),
		zap.String("kind", string(transition.Kind)),
		zap.Stringer("date", transition.Date),
		zap.String("status", string(transition.Status)),
		zap.Error(cause),
	)
	controller.observe(transition)
	if handler != nil {
		handler(StoreError{Transition: transition, Err: transition.Err})
	}
}

func (controller *Controller) resyncAfter(seq uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), controller.requestTimeout)
	defer cancel()

	dates, err := controller.periods.FetchDates(ctx, controller.userID)
	if err != nil {
		controller.logger.Warn("calendar re-sync failed", zap.Error(err))
		return
	}

	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.seq != seq || controller.pending != 0 {
		return
	}
	controller.resetAt = controller.seq
	controller.replaceDatesLocked(dates)
	controller.recomputeLocked()
}

func (controller *Controller) observe(transition Transition) {
	if controller.observer == nil {
		return
	}
	controller.observer.ObserveTransition(string(transition.Kind), string(transition.Status))
}

// untouchedSinceLocked reports whether seq is still the latest mutation of
// day and no reset happened after it.
func (controller *Controller) untouchedSinceLocked(day cycle.Date, seq uint64) bool {
	return controller.touchedAt[day] == seq && controller.resetAt < seq
}

func (controller *Controller) replaceDatesLocked(dates []cycle.Date) {
	controller.dates = make(map[cycle.Date]struct{}, len(dates))
	for _, day := range dates {
		controller.dates[day] = struct{}{}
	}
	controller.touchedAt = map[cycle.Date]uint64{}
}

func (controller *Controller) resetSelectionLocked() {
	controller.state = StateIdle
	controller.selected = cycle.Date{}
}

func (controller *Controller) recordLocked(transition Transition) {
	for index := len(controller.history) - 1; index >= 0; index-- {
		if controller.history[index].ID == transition.ID {
			controller.history[index] = transition
			return
		}
	}
	controller.history = append(controller.history, transition)
	if len(controller.history) > maxTransitionHistory {
		controller.history = controller.history[len(controller.history)-maxTransitionHistory:]
	}
}

func (controller *Controller) recomputeLocked() {
	dates := make([]cycle.Date, 0, len(controller.dates))
	for day := range controller.dates {
		dates = append(dates, day)
	}
	today := cycle.DateIn(controller.now(), controller.location)
	controller.view = cycle.Compute(dates, controller.settings, today)
}
