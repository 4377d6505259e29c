package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terraincognita07/cyclecal/internal/cycle"
	"go.uber.org/zap"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

type NotificationKind string

const (
	NotificationReminder      NotificationKind = "reminder"
	NotificationExpectedToday NotificationKind = "expected_today"
)

type Notification struct {
	UserID        uint
	Email         string
	Kind          NotificationKind
	PredictedDate cycle.Date
	Message       string
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// LogNotifier writes notifications to the log. It is the fallback when no
// messaging channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (notifier *LogNotifier) Notify(_ context.Context, notification Notification) error {
	notifier.logger.Info("cycle notification",
		zap.Uint("user_id", notification.UserID),
		zap.String("kind", string(notification.Kind)),
		zap.Stringer("predicted_date", notification.PredictedDate),
		zap.String("message", notification.Message),
	)
	return nil
}

// TelegramNotifier posts notifications to one chat through the Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

func NewTelegramNotifier(botToken string, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultTelegramBaseURL,
		client: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

// WithBaseURL points the notifier at another Bot API endpoint.
func (notifier *TelegramNotifier) WithBaseURL(baseURL string) *TelegramNotifier {
	notifier.baseURL = strings.TrimRight(baseURL, "/")
	return notifier
}

func (notifier *TelegramNotifier) Notify(ctx context.Context, notification Notification) error {
	values := url.Values{}
	values.Set("chat_id", notifier.chatID)
	values.Set("text", notification.Message)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", notifier.baseURL, notifier.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := notifier.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
