package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/cyclecal/internal/api"
	"github.com/terraincognita07/cyclecal/internal/calendar"
	"github.com/terraincognita07/cyclecal/internal/cycle"
	"github.com/terraincognita07/cyclecal/internal/db"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	database, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cyclecal-client.db"), nil)
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	handler, err := api.NewHandler(database, "0123456789abcdef0123456789abcdef", time.UTC, nil)
	require.NoError(t, err)

	server := httptest.NewServer(adaptor.FiberApp(api.NewApp(handler, api.AppOptions{})))
	t.Cleanup(server.Close)
	return server
}

func signedInClient(t *testing.T, server *httptest.Server) (*Client, Session) {
	t.Helper()

	client := New(server.URL + "/")
	session, err := client.Register(context.Background(), "client@example.com", "StrongPass1", "")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, session.Token, client.Token())
	return client, session
}

func TestClientPeriodRoundTrip(t *testing.T) {
	server := newTestServer(t)
	client, session := signedInClient(t, server)
	ctx := context.Background()

	require.NoError(t, client.AddDate(ctx, session.UserID, cycle.MustParseDate("2023-09-29")))
	require.NoError(t, client.AddDate(ctx, session.UserID, cycle.MustParseDate("2023-09-01")))
	require.NoError(t, client.AddDate(ctx, session.UserID, cycle.MustParseDate("2023-09-01")))

	dates, err := client.FetchDates(ctx, session.UserID)
	require.NoError(t, err)
	assert.Equal(t, []cycle.Date{cycle.MustParseDate("2023-09-01"), cycle.MustParseDate("2023-09-29")}, dates)

	view, err := client.Summary(ctx)
	require.NoError(t, err)
	require.NotNil(t, view.Average)
	assert.Equal(t, 28, *view.Average)
	require.NotNil(t, view.Prediction)
	assert.Equal(t, "2023-10-27", view.Prediction.String())

	ics, err := client.CalendarICS(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(ics), "BEGIN:VCALENDAR"))

	require.NoError(t, client.RemoveDate(ctx, session.UserID, cycle.MustParseDate("2023-09-01")))
	require.NoError(t, client.ClearAll(ctx, session.UserID))
	dates, err = client.FetchDates(ctx, session.UserID)
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestClientSettings(t *testing.T) {
	server := newTestServer(t)
	client, session := signedInClient(t, server)
	ctx := context.Background()

	override := 30
	lead := 2
	settings, err := client.UpdateSettings(ctx, SettingsPatch{CycleOverrideDays: &override, NotifyLeadDays: &lead})
	require.NoError(t, err)
	require.NotNil(t, settings.CycleOverrideDays)
	assert.Equal(t, 30, *settings.CycleOverrideDays)

	settings, err = client.UpdateSettings(ctx, SettingsPatch{ClearCycleOverride: true})
	require.NoError(t, err)
	assert.Nil(t, settings.CycleOverrideDays)
	assert.Equal(t, 2, settings.NotifyLeadDays)

	fetched, err := client.GetSettings(ctx, session.UserID)
	require.NoError(t, err)
	assert.Equal(t, settings, fetched)

	invalid := 3
	_, err = client.UpdateSettings(ctx, SettingsPatch{CycleOverrideDays: &invalid})
	apiErr := &APIError{}
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.NotErrorIs(t, err, calendar.ErrStoreUnavailable)
}

func TestClientErrors(t *testing.T) {
	server := newTestServer(t)

	anonymous := New(server.URL)
	_, err := anonymous.FetchDates(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = anonymous.Login(context.Background(), "nobody@example.com", "StrongPass1")
	apiErr := &APIError{}
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid credentials", apiErr.Message)

	server.Close()
	_, err = anonymous.FetchDates(context.Background(), 1)
	assert.ErrorIs(t, err, calendar.ErrStoreUnavailable)
}

func TestControllerOverClient(t *testing.T) {
	server := newTestServer(t)
	client, session := signedInClient(t, server)
	ctx := context.Background()

	periods := calendar.NewCachedPeriodStore(client, calendar.DefaultCacheTTL)
	controller := calendar.New(session.UserID, periods, client, calendar.WithResyncAfterCommit(true))
	require.NoError(t, controller.Load(ctx))

	for _, raw := range []string{"2023-09-01", "2023-09-29"} {
		action, err := controller.SelectDate(cycle.MustParseDate(raw))
		require.NoError(t, err)
		require.Equal(t, calendar.ActionAdd, action)
		require.NoError(t, controller.ConfirmAdd())
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, controller.Wait(waitCtx))

	remote, err := client.FetchDates(ctx, session.UserID)
	require.NoError(t, err)
	assert.Len(t, remote, 2)
	assert.Len(t, controller.View().Dates, 2)
	for _, transition := range controller.Transitions() {
		assert.Equal(t, calendar.TransitionCommitted, transition.Status)
	}
}

func TestAPIErrorUnwrap(t *testing.T) {
	assert.True(t, errors.Is(&APIError{StatusCode: http.StatusBadGateway}, calendar.ErrStoreUnavailable))
	assert.True(t, errors.Is(&APIError{StatusCode: http.StatusUnauthorized}, ErrUnauthorized))
	assert.False(t, errors.Is(&APIError{StatusCode: http.StatusConflict}, calendar.ErrStoreUnavailable))
}
