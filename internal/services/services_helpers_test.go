package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/terraincognita07/cyclecal/internal/cycle"
	"github.com/terraincognita07/cyclecal/internal/db"
	"github.com/terraincognita07/cyclecal/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	repos    *db.Repositories
	auth     *AuthService
	settings *SettingsService
	periods  *PeriodService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cyclecal-services.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	repos := db.NewRepositories(database)
	settings := NewSettingsService(repos.Users)
	periods := NewPeriodService(repos.Periods, settings, time.UTC, nil)
	periods.now = func() time.Time { return time.Date(2023, time.October, 26, 10, 0, 0, 0, time.UTC) }

	return &testEnv{
		repos:    repos,
		auth:     NewAuthService(repos.Users).WithHashCost(bcrypt.MinCost),
		settings: settings,
		periods:  periods,
	}
}

func (env *testEnv) createUser(t *testing.T, email string) models.User {
	t.Helper()

	user, err := env.auth.Register(context.Background(), email, "StrongPass1", "")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func (env *testEnv) addDates(t *testing.T, userID uint, raw ...string) {
	t.Helper()

	for _, value := range raw {
		if err := env.periods.AddDate(context.Background(), userID, cycle.MustParseDate(value)); err != nil {
			t.Fatalf("add date %s: %v", value, err)
		}
	}
}
