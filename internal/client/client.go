// Package client talks to the cyclecal HTTP API. Client satisfies
// calendar.PeriodStore and calendar.SettingsStore so a calendar.Controller
// can run against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terraincognita07/cyclecal/internal/calendar"
	"github.com/terraincognita07/cyclecal/internal/cycle"
)

const defaultTimeout = 10 * time.Second

var ErrUnauthorized = errors.New("not signed in")

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (err *APIError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("server returned %d", err.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", err.StatusCode, err.Message)
}

// Unwrap lets callers match server-side failures against
// calendar.ErrStoreUnavailable and rejected tokens against ErrUnauthorized.
func (err *APIError) Unwrap() error {
	switch {
	case err.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case err.StatusCode >= http.StatusInternalServerError:
		return calendar.ErrStoreUnavailable
	default:
		return nil
	}
}

type Session struct {
	Token  string `json:"token"`
	UserID uint   `json:"user_id"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(client *Client) {
		client.token = strings.TrimSpace(token)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		if httpClient != nil {
			client.httpClient = httpClient
		}
	}
}

func New(baseURL string, options ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, option := range options {
		option(client)
	}
	return client
}

func (client *Client) Token() string {
	return client.token
}

func (client *Client) Register(ctx context.Context, email string, password string, name string) (Session, error) {
	return client.authenticate(ctx, "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	})
}

// Login signs in and keeps the returned token for later calls.
func (client *Client) Login(ctx context.Context, email string, password string) (Session, error) {
	return client.authenticate(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (client *Client) authenticate(ctx context.Context, path string, body map[string]string) (Session, error) {
	session := Session{}
	if err := client.do(ctx, http.MethodPost, path, body, &session); err != nil {
		return Session{}, err
	}
	client.token = session.Token
	return session, nil
}

type periodEntry struct {
	StartDate cycle.Date `json:"start_date"`
}

// FetchDates lists the signed-in user's dates. The userID argument is
// ignored: the token decides whose data the server returns.
func (client *Client) FetchDates(ctx context.Context, _ uint) ([]cycle.Date, error) {
	entries := []periodEntry{}
	if err := client.do(ctx, http.MethodGet, "/api/periods", nil, &entries); err != nil {
		return nil, err
	}
	dates := make([]cycle.Date, 0, len(entries))
	for _, entry := range entries {
		dates = append(dates, entry.StartDate)
	}
	return dates, nil
}

func (client *Client) AddDate(ctx context.Context, _ uint, day cycle.Date) error {
	return client.do(ctx, http.MethodPost, "/api/periods", map[string]string{"date": day.String()}, nil)
}

func (client *Client) RemoveDate(ctx context.Context, _ uint, day cycle.Date) error {
	return client.do(ctx, http.MethodDelete, "/api/periods", map[string]string{"date": day.String()}, nil)
}

func (client *Client) ClearAll(ctx context.Context, _ uint) error {
	return client.do(ctx, http.MethodDelete, "/api/periods/all", nil, nil)
}

func (client *Client) GetSettings(ctx context.Context, _ uint) (cycle.Settings, error) {
	settings := cycle.Settings{}
	if err := client.do(ctx, http.MethodGet, "/api/auth/settings", nil, &settings); err != nil {
		return cycle.Settings{}, err
	}
	return settings, nil
}

// SettingsPatch is sent as-is. A nil NotifyLeadDays keeps the stored
// value; ClearCycleOverride sends an explicit null.
type SettingsPatch struct {
	CycleOverrideDays  *int
	ClearCycleOverride bool
	NotifyLeadDays     *int
}

func (client *Client) UpdateSettings(ctx context.Context, patch SettingsPatch) (cycle.Settings, error) {
	body := map[string]any{}
	switch {
	case patch.ClearCycleOverride:
		body["cycle_override"] = nil
	case patch.CycleOverrideDays != nil:
		body["cycle_override"] = *patch.CycleOverrideDays
	}
	if patch.NotifyLeadDays != nil {
		body["notify_days"] = *patch.NotifyLeadDays
	}

	settings := cycle.Settings{}
	if err := client.do(ctx, http.MethodPut, "/api/auth/settings", body, &settings); err != nil {
		return cycle.Settings{}, err
	}
	return settings, nil
}

func (client *Client) Summary(ctx context.Context) (cycle.View, error) {
	view := cycle.View{}
	if err := client.do(ctx, http.MethodGet, "/api/periods/summary", nil, &view); err != nil {
		return cycle.View{}, err
	}
	return view, nil
}

func (client *Client) CalendarICS(ctx context.Context) ([]byte, error) {
	response, err := client.send(ctx, http.MethodGet, "/api/periods/calendar.ics", nil)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	return io.ReadAll(response.Body)
}

func (client *Client) do(ctx context.Context, method string, path string, body any, target any) error {
	response, err := client.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if target == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", calendar.ErrStoreUnavailable, method, path, err)
	}
	return nil
}

// send returns the response only for 2xx statuses; the caller closes it.
func (client *Client) send(ctx context.Context, method string, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint, err := url.JoinPath(client.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if client.token != "" {
		request.Header.Set("Authorization", "Bearer "+client.token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", calendar.ErrStoreUnavailable, err)
	}
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return response, nil
	}
	defer response.Body.Close()

	payload := struct {
		Error string `json:"error"`
	}{}
	_ = json.NewDecoder(io.LimitReader(response.Body, 64<<10)).Decode(&payload)
	return nil, &APIError{StatusCode: response.StatusCode, Message: payload.Error}
}
