package api

import (
	"errors"
	"time"

	"github.com/terraincognita07/cyclecal/internal/calendar"
	"github.com/terraincognita07/cyclecal/internal/db"
	"github.com/terraincognita07/cyclecal/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	authTokenTTL       = 7 * 24 * time.Hour
	contextUserIDKey   = "user_id"
	loginAttemptLimit  = 8
	loginAttemptWindow = 15 * time.Minute
)

type Handler struct {
	secretKey    []byte
	logger       *zap.Logger
	now          func() time.Time
	authService  *services.AuthService
	settings     *services.SettingsService
	periods      *services.PeriodService
	periodCache  *calendar.CachedPeriodStore
	export       *services.ExportService
	settingCache *calendar.CachedSettingsStore
	loginLimiter *failureLimiter
}

func NewHandler(database *gorm.DB, secret string, location *time.Location, logger *zap.Logger) (*Handler, error) {
	if database == nil {
		return nil, errors.New("database is required")
	}
	if secret == "" {
		return nil, errors.New("secret key is required")
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	repositories := db.NewRepositories(database)
	settings := services.NewSettingsService(repositories.Users)
	settingCache := calendar.NewCachedSettingsStore(settings, calendar.DefaultCacheTTL)
	periods := services.NewPeriodService(repositories.Periods, settingCache, location, logger.Named("periods"))

	return &Handler{
		secretKey:    []byte(secret),
		logger:       logger,
		now:          time.Now,
		authService:  services.NewAuthService(repositories.Users),
		settings:     settings,
		periods:      periods,
		periodCache:  calendar.NewCachedPeriodStore(periods, calendar.DefaultCacheTTL),
		export:       services.NewExportService(),
		settingCache: settingCache,
		loginLimiter: newFailureLimiter(loginAttemptLimit, loginAttemptWindow),
	}, nil
}

// Periods exposes the period store for in-process consumers such as the
// reminder job.
func (handler *Handler) Periods() *services.PeriodService {
	return handler.periods
}
