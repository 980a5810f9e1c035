package mastodon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"PlateBot/internal/config"
	"PlateBot/internal/domain"
)

func newTestServer(t *testing.T, statusForm *url.Values) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/media", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("description") == "" {
			http.Error(w, "missing alt text", http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"id": "media-1"})
	})
	mux.HandleFunc("/api/v1/statuses", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		*statusForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]string{"url": "https://masto.example/@platebot/1"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func artifactFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plate.svg")
	require.NoError(t, os.WriteFile(path, []byte("<svg/>"), 0o644))
	return path
}

func TestPublishPostsStatusWithMedia(t *testing.T) {
	var statusForm url.Values
	srv := newTestServer(t, &statusForm)

	target := NewTarget(config.MastodonConfig{BaseURL: srv.URL, AccessToken: "token"})
	entry := domain.QueueEntry{
		Record:       domain.Record{Text: "MYPL8", Verdict: domain.VerdictDenied},
		ArtifactPath: artifactFile(t),
	}

	locator, err := target.Publish(context.Background(), entry)
	require.NoError(t, err)
	require.Equal(t, "https://masto.example/@platebot/1", locator)

	require.Equal(t, "media-1", statusForm.Get("media_ids[]"))
	require.Contains(t, statusForm.Get("status"), "MYPL8")
	require.Empty(t, statusForm.Get("visibility"))
}

func TestPublishDraftRestrictsVisibility(t *testing.T) {
	var statusForm url.Values
	srv := newTestServer(t, &statusForm)

	target := NewTarget(config.MastodonConfig{BaseURL: srv.URL, AccessToken: "token"})
	entry := domain.QueueEntry{
		Record:       domain.Record{Text: "COOLPL8", Verdict: domain.VerdictApproved},
		ArtifactPath: artifactFile(t),
		Community:    true,
		Submitter:    "platefan",
		Draft:        true,
	}

	locator, err := target.Publish(context.Background(), entry)
	require.NoError(t, err)
	require.NotEmpty(t, locator)

	require.Equal(t, "private", statusForm.Get("visibility"))
	require.Contains(t, statusForm.Get("status"), "Submitted by @platefan")
}
