package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"PlateBot/internal/config"
	"PlateBot/internal/domain"
	"PlateBot/internal/ports"
)

// Target publishes plates to a Telegram channel via the bot API.
type Target struct {
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.PublishTarget = (*Target)(nil)

// NewTarget registers bot token and chat identifier.
func NewTarget(cfg config.TelegramConfig) *Target {
	return &Target{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies this target in publish results.
func (t *Target) Name() string {
	return "Telegram"
}

// Authenticate verifies the bot token against getMe.
func (t *Target) Authenticate(ctx context.Context) error {
	if t.botToken == "" || t.chatID == "" {
		return fmt.Errorf("telegram target misconfigured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint("getMe"), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// Publish posts the plate artifact with its caption via sendPhoto and
// returns a locator for the resulting message.
func (t *Target) Publish(ctx context.Context, entry domain.QueueEntry) (string, error) {
	if t.botToken == "" || t.chatID == "" {
		return "", fmt.Errorf("telegram target misconfigured")
	}

	artifact, err := os.Open(entry.ArtifactPath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer artifact.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("chat_id", t.chatID); err != nil {
		return "", fmt.Errorf("write chat_id: %w", err)
	}
	caption := fmt.Sprintf("%s\n\n%s", entry.Record.Text, domain.PostBody(entry))
	if err := form.WriteField("caption", caption); err != nil {
		return "", fmt.Errorf("write caption: %w", err)
	}
	if entry.Draft {
		// Telegram has no drafts; a silent post is the closest analogue.
		if err := form.WriteField("disable_notification", "true"); err != nil {
			return "", fmt.Errorf("write disable_notification: %w", err)
		}
	}

	part, err := form.CreateFormFile("photo", filepath.Base(entry.ArtifactPath))
	if err != nil {
		return "", fmt.Errorf("create photo part: %w", err)
	}
	if _, err := io.Copy(part, artifact); err != nil {
		return "", fmt.Errorf("copy artifact: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendPhoto"), &body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("telegram error: %s", resp.Status)
	}

	var sent struct {
		Result struct {
			MessageID int64 `json:"message_id"`
			Chat      struct {
				Username string `json:"username"`
			} `json:"chat"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sent); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if sent.Result.Chat.Username != "" {
		return fmt.Sprintf("https://t.me/%s/%d", sent.Result.Chat.Username, sent.Result.MessageID), nil
	}
	return fmt.Sprintf("message %d in chat %s", sent.Result.MessageID, t.chatID), nil
}

// UpdateProfile sets the bot's description to the completion bio.
func (t *Target) UpdateProfile(ctx context.Context, bio string) error {
	if t.botToken == "" {
		return fmt.Errorf("telegram target misconfigured")
	}

	form := url.Values{}
	form.Set("description", bio)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("setMyDescription"), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

func (t *Target) endpoint(method string) string {
	return fmt.Sprintf("https://api.telegram.org/bot%s/%s", t.botToken, method)
}
