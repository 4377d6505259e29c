package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/terraincognita07/cyclecal/internal/cycle"
	"golang.org/x/sync/singleflight"
)

const DefaultCacheTTL = 30 * time.Second

type cachedDates struct {
	dates     []cycle.Date
	expiresAt time.Time
}

// CachedPeriodStore keeps a short-lived per-user copy of FetchDates results.
// Concurrent fetches for the same user share one call to the wrapped store.
// Any mutation through the cache drops the user's entry.
type CachedPeriodStore struct {
	next PeriodStore
	ttl  time.Duration
	now  func() time.Time

	group       singleflight.Group
	mu          sync.Mutex
	entries     map[uint]cachedDates
	generations map[uint]uint64
}

func NewCachedPeriodStore(next PeriodStore, ttl time.Duration) *CachedPeriodStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedPeriodStore{
		next:        next,
		ttl:         ttl,
		now:         time.Now,
		entries:     map[uint]cachedDates{},
		generations: map[uint]uint64{},
	}
}

func (store *CachedPeriodStore) FetchDates(ctx context.Context, userID uint) ([]cycle.Date, error) {
	store.mu.Lock()
	entry, ok := store.entries[userID]
	generation := store.generations[userID]
	store.mu.Unlock()
	if ok && store.now().Before(entry.expiresAt) {
		return cloneDates(entry.dates), nil
	}

	key := fmt.Sprintf("%d:%d", userID, generation)
	result, err, _ := store.group.Do(key, func() (any, error) {
		dates, err := store.next.FetchDates(ctx, userID)
		if err != nil {
			return nil, err
		}

		store.mu.Lock()
		if store.generations[userID] == generation {
			store.entries[userID] = cachedDates{
				dates:     cloneDates(dates),
				expiresAt: store.now().Add(store.ttl),
			}
		}
		store.mu.Unlock()
		return dates, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneDates(result.([]cycle.Date)), nil
}

func (store *CachedPeriodStore) AddDate(ctx context.Context, userID uint, day cycle.Date) error {
	defer store.Invalidate(userID)
	return store.next.AddDate(ctx, userID, day)
}

func (store *CachedPeriodStore) RemoveDate(ctx context.Context, userID uint, day cycle.Date) error {
	defer store.Invalidate(userID)
	return store.next.RemoveDate(ctx, userID, day)
}

func (store *CachedPeriodStore) ClearAll(ctx context.Context, userID uint) error {
	defer store.Invalidate(userID)
	return store.next.ClearAll(ctx, userID)
}

// Invalidate drops the cached dates of userID. Fetches already in flight
// will not repopulate the entry.
func (store *CachedPeriodStore) Invalidate(userID uint) {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.entries, userID)
	store.generations[userID]++
}

type cachedSettings struct {
	settings  cycle.Settings
	expiresAt time.Time
}

// CachedSettingsStore is the settings counterpart of CachedPeriodStore.
type CachedSettingsStore struct {
	next SettingsStore
	ttl  time.Duration
	now  func() time.Time

	group       singleflight.Group
	mu          sync.Mutex
	entries     map[uint]cachedSettings
	generations map[uint]uint64
}

func NewCachedSettingsStore(next SettingsStore, ttl time.Duration) *CachedSettingsStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSettingsStore{
		next:        next,
		ttl:         ttl,
		now:         time.Now,
		entries:     map[uint]cachedSettings{},
		generations: map[uint]uint64{},
	}
}

func (store *CachedSettingsStore) GetSettings(ctx context.Context, userID uint) (cycle.Settings, error) {
	store.mu.Lock()
	entry, ok := store.entries[userID]
	generation := store.generations[userID]
	store.mu.Unlock()
	if ok && store.now().Before(entry.expiresAt) {
		return cloneSettings(entry.settings), nil
	}

	key := fmt.Sprintf("%d:%d", userID, generation)
	result, err, _ := store.group.Do(key, func() (any, error) {
		settings, err := store.next.GetSettings(ctx, userID)
		if err != nil {
			return nil, err
		}

		store.mu.Lock()
		if store.generations[userID] == generation {
			store.entries[userID] = cachedSettings{
				settings:  cloneSettings(settings),
				expiresAt: store.now().Add(store.ttl),
			}
		}
		store.mu.Unlock()
		return settings, nil
	})
	if err != nil {
		return cycle.Settings{}, err
	}
	return cloneSettings(result.(cycle.Settings)), nil
}

func (store *CachedSettingsStore) InvalidateSettings(userID uint) {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.entries, userID)
	store.generations[userID]++
}

func cloneDates(dates []cycle.Date) []cycle.Date {
	return append([]cycle.Date{}, dates...)
}

func cloneSettings(settings cycle.Settings) cycle.Settings {
	if settings.CycleOverrideDays != nil {
		override := *settings.CycleOverrideDays
		settings.CycleOverrideDays = &override
	}
	return settings
}
