package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort         = "8080"
	DefaultReminderCron = "0 8 * * *"
	MinSecretKeyLength  = 32
)

var (
	ErrMissingSecretKey  = errors.New("SECRET_KEY is required")
	ErrInsecureSecretKey = errors.New("SECRET_KEY uses a placeholder value")
	ErrShortSecretKey    = fmt.Errorf("SECRET_KEY must be at least %d characters", MinSecretKeyLength)
	ErrInvalidPort       = errors.New("PORT must be a number between 1 and 65535")
)

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
	"secret": {},
}

type Config struct {
	Port             string
	DBPath           string
	SecretKey        string
	Location         *time.Location
	LocationFallback bool
	LogLevel         string
	LogFormat        string
	ReminderCron     string
	TelegramBotToken string
	TelegramChatID   string
	CORSAllowOrigins string
}

func (config Config) TelegramEnabled() bool {
	return config.TelegramBotToken != "" && config.TelegramChatID != ""
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the configuration without touching .env files.
func FromEnv() (Config, error) {
	secretKey, err := ResolveSecretKey()
	if err != nil {
		return Config{}, err
	}
	port, err := ResolvePort()
	if err != nil {
		return Config{}, err
	}
	location, fallback := ResolveLocation(os.Getenv("TZ"))

	return Config{
		Port:             port,
		DBPath:           getEnv("DB_PATH", filepath.Join("data", "cyclecal.db")),
		SecretKey:        secretKey,
		Location:         location,
		LocationFallback: fallback,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		ReminderCron:     getEnv("REMINDER_CRON", DefaultReminderCron),
		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		TelegramChatID:   strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")),
		CORSAllowOrigins: strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGINS")),
	}, nil
}

func ResolveSecretKey() (string, error) {
	secretKey := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secretKey == "" {
		return "", ErrMissingSecretKey
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(secretKey)]; insecure {
		return "", ErrInsecureSecretKey
	}
	if len(secretKey) < MinSecretKeyLength {
		return "", ErrShortSecretKey
	}
	return secretKey, nil
}

func ResolvePort() (string, error) {
	raw := strings.TrimSpace(os.Getenv("PORT"))
	if raw == "" {
		return DefaultPort, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPort, raw)
	}
	return strconv.Itoa(port), nil
}

// ResolveLocation loads the named zone. An empty or unknown name yields UTC;
// the second result reports whether an unknown name was replaced.
func ResolveLocation(name string) (*time.Location, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, false
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, true
	}
	return location, false
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
