package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(discordTokenEnv, "")
	t.Setenv(telegramTokenEnv, "")
	t.Setenv(telegramChatIDEnv, "")
	t.Setenv(mastodonBaseURLEnv, "")
	t.Setenv(mastodonAccessTokEnv, "")

	cfg := Load()

	if cfg.Data.Dir != "./data" {
		t.Errorf("Data.Dir = %q", cfg.Data.Dir)
	}
	if got := cfg.Review.DecisionTimeoutDuration(); got != 5*time.Minute {
		t.Errorf("DecisionTimeoutDuration = %s, want 5m", got)
	}
	if got := cfg.Review.ClaimWindowDuration(); got != 24*time.Hour {
		t.Errorf("ClaimWindowDuration = %s, want 24h", got)
	}
	if got := cfg.Scheduler.PublishIntervalDuration(); got != time.Hour {
		t.Errorf("PublishIntervalDuration = %s, want 1h", got)
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
data:
  dir: /var/lib/platebot
review:
  decisionTimeout: 90s
discord:
  token: from-file
  channelId: "42"
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(discordTokenEnv, "from-env")
	t.Setenv(telegramTokenEnv, "")
	t.Setenv(telegramChatIDEnv, "")
	t.Setenv(mastodonBaseURLEnv, "")
	t.Setenv(mastodonAccessTokEnv, "")

	cfg := Load()

	if cfg.Data.Dir != "/var/lib/platebot" {
		t.Errorf("Data.Dir = %q, want file override", cfg.Data.Dir)
	}
	if got := cfg.Review.DecisionTimeoutDuration(); got != 90*time.Second {
		t.Errorf("DecisionTimeoutDuration = %s, want 90s", got)
	}
	if cfg.Discord.ChannelID != "42" {
		t.Errorf("ChannelID = %q", cfg.Discord.ChannelID)
	}
	if cfg.Discord.Token != "from-env" {
		t.Errorf("Token = %q, env must win over file", cfg.Discord.Token)
	}
	// Untouched sections keep their defaults.
	if cfg.Scheduler.ProfileInterval != "24h" {
		t.Errorf("ProfileInterval = %q", cfg.Scheduler.ProfileInterval)
	}
}

func TestParseDurationOr(t *testing.T) {
	if got := parseDurationOr("", time.Minute); got != time.Minute {
		t.Errorf("empty value = %s, want fallback", got)
	}
	if got := parseDurationOr("bogus", time.Minute); got != time.Minute {
		t.Errorf("bad value = %s, want fallback", got)
	}
	if got := parseDurationOr("2h", time.Minute); got != 2*time.Hour {
		t.Errorf("2h = %s", got)
	}
}
