package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/terraincognita07/cyclecal/internal/cycle"
)

func TestPeriodsAddListAndDelete(t *testing.T) {
	app, _ := newTestApp(t)
	user := registerTestUser(t, app, "periods@example.com")

	addTestPeriods(t, app, user.Token, "2023-09-29", "2023-09-01")
	// Adding the same day twice is a no-op.
	addTestPeriods(t, app, user.Token, "2023-09-01")

	response := doJSON(t, app, http.MethodGet, "/api/periods", user.Token, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected list status 200, got %d", response.StatusCode)
	}
	listed := []periodResponse{}
	decodeJSON(t, response, &listed)
	if len(listed) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(listed))
	}
	if listed[0].StartDate.String() != "2023-09-01" || listed[1].StartDate.String() != "2023-09-29" {
		t.Fatalf("expected ascending dates, got %v", listed)
	}

	response = doJSON(t, app, http.MethodDelete, "/api/periods", user.Token, map[string]string{"date": "2023-09-01"})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected delete status 200, got %d", response.StatusCode)
	}
	response = doJSON(t, app, http.MethodDelete, "/api/periods?date=2023-09-29", user.Token, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected query delete status 200, got %d", response.StatusCode)
	}

	response = doJSON(t, app, http.MethodGet, "/api/periods", user.Token, nil)
	listed = []periodResponse{}
	decodeJSON(t, response, &listed)
	if len(listed) != 0 {
		t.Fatalf("expected no periods after delete, got %v", listed)
	}
}

func TestPeriodsRejectInvalidDates(t *testing.T) {
	app, _ := newTestApp(t)
	user := registerTestUser(t, app, "invalid-dates@example.com")

	for _, raw := range []string{"", "2023-02-30", "01/10/2023", "2023-10-01garbage", "2023-10-019", "2023-10-01T25:00:00Z"} {
		response := doJSON(t, app, http.MethodPost, "/api/periods", user.Token, map[string]string{"date": raw})
		if response.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %q, got %d", raw, response.StatusCode)
		}
	}

	response := doJSON(t, app, http.MethodGet, "/api/periods", user.Token, nil)
	listed := []periodResponse{}
	decodeJSON(t, response, &listed)
	if len(listed) != 0 {
		t.Fatalf("expected rejected dates to leave no periods, got %v", listed)
	}
}

func TestPeriodsAcceptTimestampDates(t *testing.T) {
	app, _ := newTestApp(t)
	user := registerTestUser(t, app, "timestamp-dates@example.com")

	response := doJSON(t, app, http.MethodPost, "/api/periods", user.Token, map[string]string{"date": "2023-10-01T00:00:00.000Z"})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", response.StatusCode)
	}

	response = doJSON(t, app, http.MethodGet, "/api/periods", user.Token, nil)
	listed := []periodResponse{}
	decodeJSON(t, response, &listed)
	if len(listed) != 1 || listed[0].StartDate.String() != "2023-10-01" {
		t.Fatalf("expected 2023-10-01, got %v", listed)
	}
}

func TestPeriodsAreScopedPerUser(t *testing.T) {
	app, _ := newTestApp(t)
	first := registerTestUser(t, app, "first@example.com")
	second := registerTestUser(t, app, "second@example.com")

	addTestPeriods(t, app, first.Token, "2023-09-01")

	response := doJSON(t, app, http.MethodGet, "/api/periods", second.Token, nil)
	listed := []periodResponse{}
	decodeJSON(t, response, &listed)
	if len(listed) != 0 {
		t.Fatalf("expected second user to see no periods, got %v", listed)
	}

	response = doJSON(t, app, http.MethodDelete, "/api/periods/all", second.Token, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected clear status 200, got %d", response.StatusCode)
	}
	response = doJSON(t, app, http.MethodGet, "/api/periods", first.Token, nil)
	listed = []periodResponse{}
	decodeJSON(t, response, &listed)
	if len(listed) != 1 {
		t.Fatalf("expected first user periods to survive, got %v", listed)
	}
}

func TestPeriodSummaryPredictsNextStart(t *testing.T) {
	app, _ := newTestApp(t)
	user := registerTestUser(t, app, "summary@example.com")

	response := doJSON(t, app, http.MethodGet, "/api/periods/summary", user.Token, nil)
	empty := cycle.View{}
	decodeJSON(t, response, &empty)
	if empty.Reminder.Message != cycle.NotEnoughDataMessage {
		t.Fatalf("expected not-enough-data message, got %q", empty.Reminder.Message)
	}

	addTestPeriods(t, app, user.Token, "2023-09-01", "2023-09-29")

	response = doJSON(t, app, http.MethodGet, "/api/periods/summary", user.Token, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected summary status 200, got %d", response.StatusCode)
	}
	view := cycle.View{}
	decodeJSON(t, response, &view)

	if view.Average == nil || *view.Average != 28 {
		t.Fatalf("expected average 28, got %v", view.Average)
	}
	if view.Prediction == nil || view.Prediction.String() != "2023-10-27" {
		t.Fatalf("expected prediction 2023-10-27, got %v", view.Prediction)
	}
	if len(view.HighlightWindow) != 5 || view.HighlightWindow[0].String() != "2023-10-24" {
		t.Fatalf("unexpected highlight window %v", view.HighlightWindow)
	}
	if view.Reminder.PredictionMessage != "Expected around 27/10/2023 (1 day left)" {
		t.Fatalf("unexpected prediction message %q", view.Reminder.PredictionMessage)
	}
	if view.Reminder.ReminderMessage != "We'll remind you on 24/10/2023 (3 days before)" {
		t.Fatalf("unexpected reminder message %q", view.Reminder.ReminderMessage)
	}
}

func TestSettingsOverrideChangesSummary(t *testing.T) {
	app, _ := newTestApp(t)
	user := registerTestUser(t, app, "settings@example.com")
	addTestPeriods(t, app, user.Token, "2023-09-01", "2023-09-29")

	// Warm the settings cache so the update has to invalidate it.
	response := doJSON(t, app, http.MethodGet, "/api/auth/settings", user.Token, nil)
	defaults := cycle.Settings{}
	decodeJSON(t, response, &defaults)
	if defaults.CycleOverrideDays != nil || defaults.NotifyLeadDays != cycle.DefaultNotifyLeadDays {
		t.Fatalf("unexpected default settings %#v", defaults)
	}

	response = doJSON(t, app, http.MethodPut, "/api/auth/settings", user.Token, map[string]any{
		"cycle_override": 30,
		"notify_days":    2,
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected settings status 200, got %d", response.StatusCode)
	}

	response = doJSON(t, app, http.MethodGet, "/api/periods/summary", user.Token, nil)
	view := cycle.View{}
	decodeJSON(t, response, &view)
	if view.Prediction == nil || view.Prediction.String() != "2023-10-29" {
		t.Fatalf("expected override prediction 2023-10-29, got %v", view.Prediction)
	}
	if view.Reminder.LeadDays != 2 {
		t.Fatalf("expected lead days 2, got %d", view.Reminder.LeadDays)
	}

	response = doJSON(t, app, http.MethodPut, "/api/auth/settings", user.Token, map[string]any{
		"cycle_override": nil,
	})
	updated := cycle.Settings{}
	decodeJSON(t, response, &updated)
	if updated.CycleOverrideDays != nil || updated.NotifyLeadDays != 2 {
		t.Fatalf("expected cleared override with lead days kept, got %#v", updated)
	}
}

func TestSettingsValidation(t *testing.T) {
	app, _ := newTestApp(t)
	user := registerTestUser(t, app, "settings-validation@example.com")

	cases := []map[string]any{
		{"cycle_override": 14},
		{"cycle_override": 91},
		{"cycle_override": "abc"},
		{"notify_days": 0},
		{"notify_days": 6},
	}
	for _, body := range cases {
		response := doJSON(t, app, http.MethodPut, "/api/auth/settings", user.Token, body)
		if response.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %v, got %d", body, response.StatusCode)
		}
	}
}

func TestCalendarICSExport(t *testing.T) {
	app, _ := newTestApp(t)
	user := registerTestUser(t, app, "ics@example.com")
	addTestPeriods(t, app, user.Token, "2023-09-01", "2023-09-29")

	response := doJSON(t, app, http.MethodGet, "/api/periods/calendar.ics", user.Token, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected ics status 200, got %d", response.StatusCode)
	}
	if contentType := response.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "text/calendar") {
		t.Fatalf("expected text/calendar content type, got %q", contentType)
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	text := string(body)
	for _, fragment := range []string{"BEGIN:VCALENDAR", "DTSTART;VALUE=DATE:20231027", "Period reminder"} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected ics to contain %q", fragment)
		}
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	response := doJSON(t, app, http.MethodGet, "/healthz", "", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected health status 200, got %d", response.StatusCode)
	}

	response = doJSON(t, app, http.MethodGet, "/metrics", "", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected metrics status 200, got %d", response.StatusCode)
	}
	body, _ := io.ReadAll(response.Body)
	if !strings.Contains(string(body), "cyclecal_http_requests_total") {
		t.Fatal("expected request counter in metrics output")
	}

	response = doJSON(t, app, http.MethodGet, "/missing", "", nil)
	if response.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", response.StatusCode)
	}
}

func TestPeriodReadsAreCachedUntilMutation(t *testing.T) {
	app, handler := newTestApp(t)
	user := registerTestUser(t, app, "cached-reads@example.com")
	addTestPeriods(t, app, user.Token, "2023-09-01")

	listPeriods := func() []periodResponse {
		t.Helper()
		response := doJSON(t, app, http.MethodGet, "/api/periods", user.Token, nil)
		listed := []periodResponse{}
		decodeJSON(t, response, &listed)
		return listed
	}
	if listed := listPeriods(); len(listed) != 1 {
		t.Fatalf("expected 1 period, got %v", listed)
	}

	// A write that bypasses the API is not visible while the entry is fresh.
	if err := handler.periods.AddDate(context.Background(), user.UserID, cycle.MustParseDate("2023-08-04")); err != nil {
		t.Fatalf("add directly: %v", err)
	}
	if listed := listPeriods(); len(listed) != 1 {
		t.Fatalf("expected cached list of 1 period, got %v", listed)
	}

	addTestPeriods(t, app, user.Token, "2023-09-29")
	if listed := listPeriods(); len(listed) != 3 {
		t.Fatalf("expected mutation to refresh the list, got %v", listed)
	}

	response := doJSON(t, app, http.MethodGet, "/api/periods/summary", user.Token, nil)
	view := cycle.View{}
	decodeJSON(t, response, &view)
	if view.Average == nil || *view.Average != 28 {
		t.Fatalf("expected average 28 from refreshed dates, got %v", view.Average)
	}
}
