package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv         = "PLATEBOT_CONFIG"
	discordTokenEnv       = "DISCORD_TOKEN"
	telegramTokenEnv      = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv     = "TELEGRAM_CHAT_ID"
	mastodonBaseURLEnv    = "MASTODON_URL"
	mastodonAccessTokEnv  = "MASTODON_ACCESS_TOKEN"
	defaultDecisionWindow = 5 * time.Minute
	defaultClaimWindow    = 24 * time.Hour
)

// Config holds high-level settings required across the application.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Logging   LoggingConfig   `yaml:"logging"`
	Review    ReviewConfig    `yaml:"review"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Discord   DiscordConfig   `yaml:"discord"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Mastodon  MastodonConfig  `yaml:"mastodon"`
}

// DataConfig locates durable state and source workbooks on disk.
type DataConfig struct {
	Dir          string `yaml:"dir"`
	WorkbooksDir string `yaml:"workbooksDir"`
	TmpDir       string `yaml:"tmpDir"`
}

// LoggingConfig controls log verbosity and the optional log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ReviewConfig bounds the interactive waits.
type ReviewConfig struct {
	DecisionTimeout string `yaml:"decisionTimeout"`
	ClaimWindow     string `yaml:"claimWindow"`
}

// DecisionTimeoutDuration resolves the per-item decision wait.
func (r ReviewConfig) DecisionTimeoutDuration() time.Duration {
	return parseDurationOr(r.DecisionTimeout, defaultDecisionWindow)
}

// ClaimWindowDuration resolves how long a review invitation stays claimable.
func (r ReviewConfig) ClaimWindowDuration() time.Duration {
	return parseDurationOr(r.ClaimWindow, defaultClaimWindow)
}

// SchedulerConfig defines the recurring job intervals.
type SchedulerConfig struct {
	PublishInterval string `yaml:"publishInterval"`
	ProfileInterval string `yaml:"profileInterval"`
}

// PublishIntervalDuration resolves how often the publish cycle runs.
func (s SchedulerConfig) PublishIntervalDuration() time.Duration {
	return parseDurationOr(s.PublishInterval, time.Hour)
}

// ProfileIntervalDuration resolves how often target profiles are refreshed.
func (s SchedulerConfig) ProfileIntervalDuration() time.Duration {
	return parseDurationOr(s.ProfileInterval, 24*time.Hour)
}

// DiscordConfig wires the moderation gateway.
type DiscordConfig struct {
	Token           string   `yaml:"token"`
	GuildID         string   `yaml:"guildId"`
	ChannelID       string   `yaml:"channelId"`
	LogChannelID    string   `yaml:"logChannelId"`
	ModeratorRoleID string   `yaml:"moderatorRoleId"`
	OwnerUserIDs    []string `yaml:"ownerUserIds"`
}

// TelegramConfig wires the Telegram publishing target.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// MastodonConfig wires the Mastodon publishing target.
type MastodonConfig struct {
	BaseURL     string `yaml:"baseUrl"`
	AccessToken string `yaml:"accessToken"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(discordTokenEnv); v != "" {
		c.Discord.Token = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Telegram.ChatID = v
	}

	if v := os.Getenv(mastodonBaseURLEnv); v != "" {
		c.Mastodon.BaseURL = v
	}

	if v := os.Getenv(mastodonAccessTokEnv); v != "" {
		c.Mastodon.AccessToken = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Data.Dir != "" {
		base.Data.Dir = override.Data.Dir
	}
	if override.Data.WorkbooksDir != "" {
		base.Data.WorkbooksDir = override.Data.WorkbooksDir
	}
	if override.Data.TmpDir != "" {
		base.Data.TmpDir = override.Data.TmpDir
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}

	if override.Review.DecisionTimeout != "" {
		base.Review.DecisionTimeout = override.Review.DecisionTimeout
	}
	if override.Review.ClaimWindow != "" {
		base.Review.ClaimWindow = override.Review.ClaimWindow
	}

	if override.Scheduler.PublishInterval != "" {
		base.Scheduler.PublishInterval = override.Scheduler.PublishInterval
	}
	if override.Scheduler.ProfileInterval != "" {
		base.Scheduler.ProfileInterval = override.Scheduler.ProfileInterval
	}

	if override.Discord.Token != "" {
		base.Discord.Token = override.Discord.Token
	}
	if override.Discord.GuildID != "" {
		base.Discord.GuildID = override.Discord.GuildID
	}
	if override.Discord.ChannelID != "" {
		base.Discord.ChannelID = override.Discord.ChannelID
	}
	if override.Discord.LogChannelID != "" {
		base.Discord.LogChannelID = override.Discord.LogChannelID
	}
	if override.Discord.ModeratorRoleID != "" {
		base.Discord.ModeratorRoleID = override.Discord.ModeratorRoleID
	}
	if len(override.Discord.OwnerUserIDs) > 0 {
		base.Discord.OwnerUserIDs = override.Discord.OwnerUserIDs
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}

	if override.Mastodon.BaseURL != "" {
		base.Mastodon.BaseURL = override.Mastodon.BaseURL
	}
	if override.Mastodon.AccessToken != "" {
		base.Mastodon.AccessToken = override.Mastodon.AccessToken
	}

	return base
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("config: cannot parse duration %q, using %s", value, fallback)
		return fallback
	}
	return d
}

func defaultConfig() Config {
	return Config{
		Data: DataConfig{
			Dir:          "./data",
			WorkbooksDir: "./resources/workbooks",
			TmpDir:       "./data/tmp",
		},
		Logging: LoggingConfig{Level: "info", File: ""},
		Review: ReviewConfig{
			DecisionTimeout: "5m",
			ClaimWindow:     "24h",
		},
		Scheduler: SchedulerConfig{
			PublishInterval: "1h",
			ProfileInterval: "24h",
		},
		Discord:  DiscordConfig{},
		Telegram: TelegramConfig{},
		Mastodon: MastodonConfig{},
	}
}
