package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SignalScanner/internal/calculator"
)

// Config holds all application configuration.
type Config struct {
	App struct {
		LogLevel string `yaml:"log_level"`
		HTTPAddr string `yaml:"http_addr"`
	} `yaml:"app"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Exchange struct {
		// BaseURL empty or "mock" selects the in-process mock fetcher.
		BaseURL           string  `yaml:"base_url"`
		QuoteAsset        string  `yaml:"quote_asset"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		TimeoutSec        int     `yaml:"timeout_sec"`
	} `yaml:"exchange"`
	Scan struct {
		Cron        string   `yaml:"cron"`
		Timeframe   string   `yaml:"timeframe"`
		Limit       int      `yaml:"limit"`
		DailyLimit  int      `yaml:"daily_limit"`
		Concurrency int      `yaml:"concurrency"`
		Symbols     []string `yaml:"symbols"`
		RunOnStart  bool     `yaml:"run_on_start"`
	} `yaml:"scan"`
	Indicators calculator.Params `yaml:"indicators"`
	Cache      struct {
		// Backend is one of "none", "sqlite", "redis".
		Backend       string `yaml:"backend"`
		SQLitePath    string `yaml:"sqlite_path"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
	} `yaml:"cache"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file and the YAML config, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"EXCHANGE_BASE_URL":  &c.Exchange.BaseURL,
		"HTTPS_PROXY":        &c.Proxy,
		"SCAN_CRON":          &c.Scan.Cron,
		"HTTP_ADDR":          &c.App.HTTPAddr,
		"LOG_LEVEL":          &c.App.LogLevel,
		"CACHE_BACKEND":      &c.Cache.Backend,
		"SQLITE_PATH":        &c.Cache.SQLitePath,
		"REDIS_ADDR":         &c.Cache.RedisAddr,
		"REDIS_PASSWORD":     &c.Cache.RedisPassword,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("SCAN_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCAN_CONCURRENCY: %w", err)
		}
		c.Scan.Concurrency = n
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_ON_START: %w", err)
		}
		c.Scan.RunOnStart = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":8080"
	}
	if c.Exchange.QuoteAsset == "" {
		c.Exchange.QuoteAsset = "USDT"
	}
	if c.Exchange.RequestsPerSecond == 0 {
		c.Exchange.RequestsPerSecond = 10
	}
	if c.Exchange.Burst == 0 {
		c.Exchange.Burst = 5
	}
	if c.Exchange.TimeoutSec == 0 {
		c.Exchange.TimeoutSec = 15
	}
	if c.Scan.Cron == "" {
		c.Scan.Cron = "0 1 * * * *"
	}
	if c.Scan.Timeframe == "" {
		c.Scan.Timeframe = "1h"
	}
	if c.Scan.Limit == 0 {
		c.Scan.Limit = 100
	}
	if c.Scan.DailyLimit == 0 {
		c.Scan.DailyLimit = 2
	}
	if c.Scan.Concurrency == 0 {
		c.Scan.Concurrency = 5
	}
	c.Indicators = c.Indicators.WithDefaults()
	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	if c.Cache.Backend == "" {
		c.Cache.Backend = "none"
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "data/candle_cache.db"
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = "localhost:6379"
	}
}

// UseMock reports whether the exchange is replaced by the mock fetcher.
func (c *Config) UseMock() bool {
	return c.Exchange.BaseURL == "" || strings.EqualFold(c.Exchange.BaseURL, "mock")
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Scan.Concurrency < 0 {
		return fmt.Errorf("scan.concurrency must be positive")
	}
	if c.Scan.Limit < 0 {
		return fmt.Errorf("scan.limit must be positive")
	}
	if c.Scan.DailyLimit < 2 {
		return fmt.Errorf("scan.daily_limit must be at least 2")
	}
	if c.Indicators.MACDFast >= c.Indicators.MACDSlow {
		return fmt.Errorf("indicators.macd_fast must be below indicators.macd_slow")
	}
	if need := c.Indicators.MACDSlow + c.Indicators.MACDSignal; c.Scan.Limit < need {
		return fmt.Errorf("scan.limit must be at least indicators.macd_slow + indicators.macd_signal (%d)", need)
	}
	if c.Indicators.SARStep > c.Indicators.SARMax {
		return fmt.Errorf("indicators.sar_step must not exceed indicators.sar_max")
	}
	if c.Proxy != "" {
		if _, err := url.Parse(c.Proxy); err != nil {
			return fmt.Errorf("proxy: %w", err)
		}
	}
	if c.Exchange.RequestsPerSecond < 0 {
		return fmt.Errorf("exchange.requests_per_second must not be negative")
	}
	switch c.Cache.Backend {
	case "none", "sqlite", "redis":
	default:
		return fmt.Errorf("cache.backend %q is not one of none, sqlite, redis", c.Cache.Backend)
	}
	return nil
}
