package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecal/internal/db"
	"github.com/terraincognita07/cyclecal/internal/services"
	"golang.org/x/crypto/bcrypt"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

var testNow = time.Date(2023, time.October, 26, 10, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*fiber.App, *Handler) {
	t.Helper()

	database, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cyclecal-api.db"), nil)
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

	handler, err := NewHandler(database, testSecretKey, time.UTC, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	handler.now = func() time.Time { return testNow }
	handler.authService = services.NewAuthService(db.NewUserRepository(database)).WithHashCost(bcrypt.MinCost)
	handler.periods.SetClock(handler.now)

	return NewApp(handler, AppOptions{}), handler
}

func doJSON(t *testing.T, app *fiber.App, method string, path string, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("app test failed: %v", err)
	}
	return response
}

func decodeJSON(t *testing.T, response *http.Response, target any) {
	t.Helper()
	defer response.Body.Close()

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
}

func registerTestUser(t *testing.T, app *fiber.App, email string) tokenResponse {
	t.Helper()

	response := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "StrongPass1",
	})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected register status 201, got %d", response.StatusCode)
	}

	payload := tokenResponse{}
	decodeJSON(t, response, &payload)
	if payload.Token == "" || payload.UserID == 0 {
		t.Fatalf("expected token and user id, got %#v", payload)
	}
	return payload
}

func addTestPeriods(t *testing.T, app *fiber.App, token string, dates ...string) {
	t.Helper()

	for _, date := range dates {
		response := doJSON(t, app, http.MethodPost, "/api/periods", token, map[string]string{"date": date})
		if response.StatusCode != http.StatusCreated {
			t.Fatalf("expected add %s status 201, got %d", date, response.StatusCode)
		}
	}
}
