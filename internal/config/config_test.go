package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, DefaultCheckInterval, cfg.CheckInterval)
	assert.Equal(t, DefaultMonitorDuration, cfg.MonitorDuration)
	assert.Equal(t, "bot", cfg.AuthMode)
	assert.Equal(t, DefaultPendingCap, cfg.PendingCapacity)
	assert.False(t, cfg.FeedEnabled)
	assert.False(t, cfg.ChatEnabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"data_dir": "/var/lib/insights",
		"feed_enabled": true,
		"feed_account": "cryptoinsider",
		"check_interval": 15,
		"market_api_key": "file-key",
		"source_chat_ids": [-100123, -100456]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "/var/lib/insights", cfg.DataDir)
	assert.True(t, cfg.FeedEnabled)
	assert.Equal(t, "cryptoinsider", cfg.FeedAccount)
	assert.Equal(t, 15, cfg.CheckInterval)
	assert.Equal(t, "file-key", cfg.MarketAPIKey)
	assert.Equal(t, []int64{-100123, -100456}, cfg.SourceChatIDs)
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultFeedBaseURL, cfg.FeedBaseURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data_dir": "from-file"}`), 0o644))

	t.Setenv("EVERION_DATA_DIR", "from-env")
	t.Setenv("EVERION_SOURCE_CHAT_IDS", "-100123, -100456")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.DataDir)
	assert.Equal(t, []int64{-100123, -100456}, cfg.SourceChatIDs)
}

func TestLoadInvalidSourceChatIDs(t *testing.T) {
	t.Setenv("EVERION_SOURCE_CHAT_IDS", "-100123,not-a-number")

	_, err := Load("")

	assert.Error(t, err)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DataDir:          "data",
			CheckInterval:    DefaultCheckInterval,
			MonitorDuration:  DefaultMonitorDuration,
			RequestTimeout:   DefaultRequestTimeout,
			Retries:          DefaultRetries,
			PendingCapacity:  DefaultPendingCap,
			AuthMode:         "bot",
			FeedBaseURL:      DefaultFeedBaseURL,
			FeedLinkBase:     DefaultFeedLinkBase,
			MarketDetailURL:  DefaultDetailURL,
			MarketHoldersURL: DefaultHoldersURL,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "watchers disabled needs nothing else",
			mutate: func(*Config) {},
		},
		{
			name: "feed watcher fully configured",
			mutate: func(c *Config) {
				c.FeedEnabled = true
				c.FeedAccount = "cryptoinsider"
				c.MarketAPIKey = "key"
			},
		},
		{
			name: "feed watcher without account",
			mutate: func(c *Config) {
				c.FeedEnabled = true
				c.MarketAPIKey = "key"
			},
			wantErr: "feed_account",
		},
		{
			name: "feed watcher without market key",
			mutate: func(c *Config) {
				c.FeedEnabled = true
				c.FeedAccount = "cryptoinsider"
			},
			wantErr: "market_api_key",
		},
		{
			name: "chat watcher fully configured",
			mutate: func(c *Config) {
				c.ChatEnabled = true
				c.TelegramToken = "123:abc"
				c.TargetChatID = -100500
				c.MarketAPIKey = "key"
			},
		},
		{
			name: "chat watcher without token",
			mutate: func(c *Config) {
				c.ChatEnabled = true
				c.TargetChatID = -100500
				c.MarketAPIKey = "key"
			},
			wantErr: "telegram_token",
		},
		{
			name: "chat watcher without target chat",
			mutate: func(c *Config) {
				c.ChatEnabled = true
				c.TelegramToken = "123:abc"
				c.MarketAPIKey = "key"
			},
			wantErr: "target_chat_id",
		},
		{
			name: "unknown auth mode",
			mutate: func(c *Config) {
				c.ChatEnabled = true
				c.TelegramToken = "123:abc"
				c.TargetChatID = -100500
				c.MarketAPIKey = "key"
				c.AuthMode = "magic"
			},
			wantErr: "auth_mode",
		},
		{
			name:    "empty data dir",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: "data_dir",
		},
		{
			name:    "non-positive check interval",
			mutate:  func(c *Config) { c.CheckInterval = 0 },
			wantErr: "check_interval",
		},
		{
			name: "bad feed base url",
			mutate: func(c *Config) {
				c.FeedEnabled = true
				c.FeedAccount = "cryptoinsider"
				c.MarketAPIKey = "key"
				c.FeedBaseURL = "not a url"
			},
			wantErr: "feed_base_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestInsightPaths(t *testing.T) {
	cfg := &Config{DataDir: "data"}
	assert.Equal(t, filepath.Join("data", "telegram_insights.json"), cfg.TelegramInsightsPath())
	assert.Equal(t, filepath.Join("data", "market_insights.json"), cfg.MarketInsightsPath())
}
