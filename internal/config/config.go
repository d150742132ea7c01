// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config holds every setting of the watcher and server processes.
type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	HTTPAddr string `mapstructure:"http_addr"`

	// Feed (poll) watcher
	FeedEnabled     bool   `mapstructure:"feed_enabled"`
	FeedBaseURL     string `mapstructure:"feed_base_url"`
	FeedLinkBase    string `mapstructure:"feed_link_base"`
	FeedAccount     string `mapstructure:"feed_account"`
	CheckInterval   int    `mapstructure:"check_interval"`   // seconds between feed checks
	MonitorDuration int    `mapstructure:"monitor_duration"` // seconds; 0 = run until stopped

	// Chat (event) watcher
	ChatEnabled       bool    `mapstructure:"chat_enabled"`
	AuthMode          string  `mapstructure:"auth_mode"`
	TelegramToken     string  `mapstructure:"telegram_token"`
	SourceChatIDs     []int64 `mapstructure:"source_chat_ids"`
	TargetChatID      int64   `mapstructure:"target_chat_id"`
	ResponderUsername string  `mapstructure:"responder_username"`
	PendingCapacity   int     `mapstructure:"pending_capacity"`

	// Market-data API
	MarketDetailURL  string `mapstructure:"market_detail_url"`
	MarketHoldersURL string `mapstructure:"market_holders_url"`
	MarketAPIKey     string `mapstructure:"market_api_key"`
	RequestTimeout   int    `mapstructure:"request_timeout"` // seconds
	Retries          int    `mapstructure:"retries"`

	DebugLogging bool `mapstructure:"debug_logging"`
}

const (
	DefaultHTTPAddr        = ":3000"
	DefaultDataDir         = "data"
	DefaultCheckInterval   = 30
	DefaultMonitorDuration = 300
	DefaultRequestTimeout  = 10
	DefaultRetries         = 3
	DefaultPendingCap      = 256
	DefaultFeedBaseURL     = "https://nitter.net"
	DefaultFeedLinkBase    = "https://x.com"
	DefaultDetailURL       = "https://api.blockvision.org/v2/sui/coin/detail"
	DefaultHoldersURL      = "https://api.blockvision.org/v2/sui/coin/holders"
)

// Load reads configuration from an optional config file, a local .env
// file, and EVERION_-prefixed environment variables, in ascending
// priority. path may be empty.
func Load(path string) (*Config, error) {
	// A missing .env file is fine; real env vars still apply.
	_ = godotenv.Load()

	v := viper.New()

	defaults := map[string]interface{}{
		"data_dir":           DefaultDataDir,
		"http_addr":          DefaultHTTPAddr,
		"feed_base_url":      DefaultFeedBaseURL,
		"feed_link_base":     DefaultFeedLinkBase,
		"check_interval":     DefaultCheckInterval,
		"monitor_duration":   DefaultMonitorDuration,
		"auth_mode":          "bot",
		"pending_capacity":   DefaultPendingCap,
		"market_detail_url":  DefaultDetailURL,
		"market_holders_url": DefaultHoldersURL,
		"request_timeout":    DefaultRequestTimeout,
		"retries":            DefaultRetries,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("EVERION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToInt64SliceHook,
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, validate(&cfg)
}

// TelegramInsightsPath is the file owned by the chat watcher.
func (c *Config) TelegramInsightsPath() string {
	return filepath.Join(c.DataDir, "telegram_insights.json")
}

// MarketInsightsPath is the file owned by the feed watcher.
func (c *Config) MarketInsightsPath() string {
	return filepath.Join(c.DataDir, "market_insights.json")
}

// bindEnvKeys registers every key for AutomaticEnv lookup; viper only
// consults the environment for keys it has seen.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"data_dir", "http_addr",
		"feed_enabled", "feed_base_url", "feed_link_base", "feed_account",
		"check_interval", "monitor_duration",
		"chat_enabled", "auth_mode", "telegram_token", "source_chat_ids",
		"target_chat_id", "responder_username", "pending_capacity",
		"market_detail_url", "market_holders_url", "market_api_key",
		"request_timeout", "retries", "debug_logging",
	} {
		_ = v.BindEnv(key)
	}
}

// stringToInt64SliceHook parses list-valued settings that arrive as
// comma-separated environment strings into []int64 targets. Structured
// sources (config file arrays) pass through untouched.
func stringToInt64SliceHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String || t != reflect.TypeOf([]int64(nil)) {
		return data, nil
	}

	var ids []int64
	for _, part := range strings.Split(data.(string), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid source chat id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// validate enforces the configuration-error class: anything wrong here
// must prevent the process from starting.
func validate(cfg *Config) error {
	if cfg.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}

	if cfg.FeedEnabled {
		if cfg.FeedAccount == "" {
			return errors.New("feed_account is required when the feed watcher is enabled")
		}
		if err := validateHTTPURL(cfg.FeedBaseURL); err != nil {
			return fmt.Errorf("invalid feed_base_url: %w", err)
		}
	}

	if cfg.ChatEnabled {
		if cfg.AuthMode != "bot" && cfg.AuthMode != "user" {
			return fmt.Errorf("invalid auth_mode %q", cfg.AuthMode)
		}
		if cfg.TelegramToken == "" {
			return errors.New("telegram_token is required when the chat watcher is enabled")
		}
		if cfg.TargetChatID == 0 {
			return errors.New("target_chat_id is required when the chat watcher is enabled")
		}
	}

	if cfg.FeedEnabled || cfg.ChatEnabled {
		if cfg.MarketAPIKey == "" {
			return errors.New("market_api_key is required for watcher processes")
		}
		if err := validateHTTPURL(cfg.MarketDetailURL); err != nil {
			return fmt.Errorf("invalid market_detail_url: %w", err)
		}
		if err := validateHTTPURL(cfg.MarketHoldersURL); err != nil {
			return fmt.Errorf("invalid market_holders_url: %w", err)
		}
	}

	return nil
}

func validateNumericParams(cfg *Config) error {
	if cfg.CheckInterval <= 0 {
		return errors.New("invalid check_interval")
	}
	if cfg.MonitorDuration < 0 {
		return errors.New("invalid monitor_duration")
	}
	if cfg.RequestTimeout <= 0 {
		return errors.New("invalid request_timeout")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.PendingCapacity < 0 {
		return errors.New("invalid pending_capacity")
	}
	return nil
}

func validateHTTPURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, "http") {
		return errors.New("invalid URL protocol")
	}
	return nil
}
