package mastodon

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

// Target publishes plates to a Mastodon account.
type Target struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

var _ ports.PublishTarget = (*Target)(nil)

// NewTarget builds a target from configuration.
func NewTarget(cfg config.MastodonConfig) *Target {
	return &Target{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies this target in publish results.
func (t *Target) Name() string {
	return "Mastodon"
}

// Authenticate verifies the access token.
func (t *Target) Authenticate(ctx context.Context) error {
	if t.baseURL == "" || t.accessToken == "" {
		return fmt.Errorf("mastodon target misconfigured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/api/v1/accounts/verify_credentials", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.accessToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mastodon error: %s", resp.Status)
	}

	return nil
}

// Publish uploads the plate artifact with alt text and posts a status
// carrying the caption, returning the status URL.
func (t *Target) Publish(ctx context.Context, entry domain.QueueEntry) (string, error) {
	if t.baseURL == "" || t.accessToken == "" {
		return "", fmt.Errorf("mastodon target misconfigured")
	}

	mediaID, err := t.uploadMedia(ctx, entry.ArtifactPath, domain.AltText(entry.Record.Text))
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}

	form := url.Values{}
	form.Set("status", fmt.Sprintf("%s\n\n%s", entry.Record.Text, domain.PostBody(entry)))
	form.Add("media_ids[]", mediaID)
	if entry.Draft {
		// Closest analogue to a draft: visible to followers only.
		form.Set("visibility", "private")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/v1/statuses", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mastodon error: %s", resp.Status)
	}

	var status struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return status.URL, nil
}

// UpdateProfile patches the account note with the completion bio.
func (t *Target) UpdateProfile(ctx context.Context, bio string) error {
	if t.baseURL == "" || t.accessToken == "" {
		return fmt.Errorf("mastodon target misconfigured")
	}

	form := url.Values{}
	form.Set("note", bio)

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, t.baseURL+"/api/v1/accounts/update_credentials", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mastodon error: %s", resp.Status)
	}

	return nil
}

func (t *Target) uploadMedia(ctx context.Context, path, description string) (string, error) {
	artifact, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer artifact.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("description", description); err != nil {
		return "", fmt.Errorf("write description: %w", err)
	}
	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, artifact); err != nil {
		return "", fmt.Errorf("copy artifact: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/v2/media", &body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.accessToken)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("mastodon error: %s", resp.Status)
	}

	var media struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return media.ID, nil
}
