package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func TestResolveSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	_, err := ResolveSecretKey()
	assert.ErrorIs(t, err, ErrMissingSecretKey)

	t.Setenv("SECRET_KEY", "change_me_in_production")
	_, err = ResolveSecretKey()
	assert.ErrorIs(t, err, ErrInsecureSecretKey)

	t.Setenv("SECRET_KEY", "replace_with_at_least_32_random_characters")
	_, err = ResolveSecretKey()
	assert.ErrorIs(t, err, ErrInsecureSecretKey)

	t.Setenv("SECRET_KEY", "too-short-secret")
	_, err = ResolveSecretKey()
	assert.ErrorIs(t, err, ErrShortSecretKey)

	t.Setenv("SECRET_KEY", validSecret)
	secret, err := ResolveSecretKey()
	require.NoError(t, err)
	assert.Equal(t, validSecret, secret)
}

func TestResolvePort(t *testing.T) {
	t.Setenv("PORT", "")
	port, err := ResolvePort()
	require.NoError(t, err)
	assert.Equal(t, "8080", port)

	t.Setenv("PORT", "9090")
	port, err = ResolvePort()
	require.NoError(t, err)
	assert.Equal(t, "9090", port)

	for _, invalid := range []string{"0", "70000", "not-a-number"} {
		t.Setenv("PORT", invalid)
		_, err := ResolvePort()
		assert.ErrorIs(t, err, ErrInvalidPort, "port %q", invalid)
	}
}

func TestResolveLocation(t *testing.T) {
	location, fallback := ResolveLocation("")
	assert.Equal(t, time.UTC, location)
	assert.False(t, fallback)

	location, fallback = ResolveLocation("Not/AZone")
	assert.Equal(t, time.UTC, location)
	assert.True(t, fallback)

	location, fallback = ResolveLocation("Europe/Berlin")
	assert.Equal(t, "Europe/Berlin", location.String())
	assert.False(t, fallback)
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", validSecret)
	for _, key := range []string{"PORT", "DB_PATH", "TZ", "LOG_LEVEL", "LOG_FORMAT", "REMINDER_CRON", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "CORS_ALLOW_ORIGINS"} {
		t.Setenv(key, "")
	}

	config, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", config.Port)
	assert.Equal(t, filepath.Join("data", "cyclecal.db"), config.DBPath)
	assert.Equal(t, time.UTC, config.Location)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "json", config.LogFormat)
	assert.Equal(t, DefaultReminderCron, config.ReminderCron)
	assert.False(t, config.TelegramEnabled())
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	directory := t.TempDir()
	content := "SECRET_KEY=" + validSecret + "\nPORT=9191\nLOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(directory, ".env"), []byte(content), 0o600))
	t.Chdir(directory)

	t.Setenv("SECRET_KEY", "")
	os.Unsetenv("SECRET_KEY")
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")
	t.Setenv("LOG_LEVEL", "error")

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, validSecret, config.SecretKey)
	assert.Equal(t, "9191", config.Port)
	assert.Equal(t, "error", config.LogLevel)
}
