package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Mexc struct {
		BaseURL        string `yaml:"base_url"`
		WSURL          string `yaml:"ws_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"mexc"`
	Filter struct {
		PriceChangeThreshold float64 `yaml:"price_change_threshold"` // percent
		PriceWindowMinutes   int     `yaml:"price_window_minutes"`
		RSIPeriod            int     `yaml:"rsi_period"`
		RSIOverbought        float64 `yaml:"rsi_overbought"`
		RSIOversold          float64 `yaml:"rsi_oversold"`
		MinCandles           int     `yaml:"min_candles"`
	} `yaml:"filter"`
	Verify struct {
		CooldownSeconds   int     `yaml:"cooldown_seconds"`
		WorkerCount       int     `yaml:"worker_count"`
		QueueSize         int     `yaml:"queue_size"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		CacheTTLSeconds   int     `yaml:"cache_ttl_seconds"`
		KlineLimit        int     `yaml:"kline_limit"`
		LongInterval      string  `yaml:"long_interval"`
		ShortInterval     string  `yaml:"short_interval"`
	} `yaml:"verify"`
	Stream struct {
		ChunkSize            int `yaml:"chunk_size"`
		ReconnectBaseSeconds int `yaml:"reconnect_base_seconds"`
		ReconnectMaxSeconds  int `yaml:"reconnect_max_seconds"`
		PingIntervalSeconds  int `yaml:"ping_interval_seconds"`
		PingTimeoutSeconds   int `yaml:"ping_timeout_seconds"`
	} `yaml:"stream"`
	Buffer struct {
		MaxAgeMinutes int `yaml:"max_age_minutes"`
	} `yaml:"buffer"`
	Monitor struct {
		RescanIntervalSeconds int `yaml:"rescan_interval_seconds"`
		StatsIntervalSeconds  int `yaml:"stats_interval_seconds"`
	} `yaml:"monitor"`
	Symbols struct {
		File      string   `yaml:"file"`
		Whitelist []string `yaml:"whitelist"`
		Blacklist []string `yaml:"blacklist"`
	} `yaml:"symbols"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
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

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("MEXC_BASE_URL"); v != "" {
		cfg.Mexc.BaseURL = v
	}
	if v := os.Getenv("MEXC_WS_URL"); v != "" {
		cfg.Mexc.WSURL = v
	}
	if v := os.Getenv("PRICE_CHANGE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Filter.PriceChangeThreshold = f
		}
	}
	if v := os.Getenv("SIGNAL_COOLDOWN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Verify.CooldownSeconds = n
		}
	}
	if v := os.Getenv("WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Verify.WorkerCount = n
		}
	}
	if v := os.Getenv("REQUESTS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Verify.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("SYMBOLS_FILE"); v != "" {
		cfg.Symbols.File = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Mexc.BaseURL == "" {
		cfg.Mexc.BaseURL = "https://contract.mexc.com"
	}
	if cfg.Mexc.WSURL == "" {
		cfg.Mexc.WSURL = "wss://contract.mexc.com/edge"
	}
	if cfg.Mexc.TimeoutSeconds == 0 {
		cfg.Mexc.TimeoutSeconds = 30
	}
	if cfg.Filter.PriceChangeThreshold == 0 {
		cfg.Filter.PriceChangeThreshold = 8
	}
	if cfg.Filter.PriceWindowMinutes == 0 {
		cfg.Filter.PriceWindowMinutes = 15
	}
	if cfg.Filter.RSIPeriod == 0 {
		cfg.Filter.RSIPeriod = 14
	}
	if cfg.Filter.RSIOverbought == 0 {
		cfg.Filter.RSIOverbought = 70
	}
	if cfg.Filter.RSIOversold == 0 {
		cfg.Filter.RSIOversold = 30
	}
	if cfg.Filter.MinCandles == 0 {
		cfg.Filter.MinCandles = 30
	}
	if cfg.Verify.CooldownSeconds == 0 {
		cfg.Verify.CooldownSeconds = 300
	}
	if cfg.Verify.WorkerCount == 0 {
		cfg.Verify.WorkerCount = 5
	}
	if cfg.Verify.QueueSize == 0 {
		cfg.Verify.QueueSize = 256
	}
	if cfg.Verify.RequestsPerSecond == 0 {
		cfg.Verify.RequestsPerSecond = 15
	}
	if cfg.Verify.CacheTTLSeconds == 0 {
		cfg.Verify.CacheTTLSeconds = 20
	}
	if cfg.Verify.KlineLimit == 0 {
		cfg.Verify.KlineLimit = 100
	}
	if cfg.Verify.LongInterval == "" {
		cfg.Verify.LongInterval = "1h"
	}
	if cfg.Verify.ShortInterval == "" {
		cfg.Verify.ShortInterval = "15m"
	}
	if cfg.Stream.ChunkSize == 0 {
		cfg.Stream.ChunkSize = 200
	}
	if cfg.Stream.ReconnectBaseSeconds == 0 {
		cfg.Stream.ReconnectBaseSeconds = 5
	}
	if cfg.Stream.ReconnectMaxSeconds == 0 {
		cfg.Stream.ReconnectMaxSeconds = 60
	}
	if cfg.Stream.PingIntervalSeconds == 0 {
		cfg.Stream.PingIntervalSeconds = 20
	}
	if cfg.Stream.PingTimeoutSeconds == 0 {
		cfg.Stream.PingTimeoutSeconds = 10
	}
	if cfg.Buffer.MaxAgeMinutes == 0 {
		cfg.Buffer.MaxAgeMinutes = 30
	}
	if cfg.Monitor.RescanIntervalSeconds == 0 {
		cfg.Monitor.RescanIntervalSeconds = 60
	}
	if cfg.Monitor.StatsIntervalSeconds == 0 {
		cfg.Monitor.StatsIntervalSeconds = 300
	}
	if cfg.Symbols.File == "" {
		cfg.Symbols.File = "data/symbols.txt"
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Filter.PriceChangeThreshold <= 0 {
		return fmt.Errorf("filter.price_change_threshold must be positive")
	}
	if c.Filter.RSIPeriod < 2 {
		return fmt.Errorf("filter.rsi_period must be >= 2")
	}
	if c.Filter.RSIOverbought <= c.Filter.RSIOversold {
		return fmt.Errorf("filter.rsi_overbought must be > filter.rsi_oversold")
	}
	if c.Verify.WorkerCount <= 0 {
		return fmt.Errorf("verify.worker_count must be positive")
	}
	if c.Verify.RequestsPerSecond <= 0 {
		return fmt.Errorf("verify.requests_per_second must be positive")
	}
	if c.Stream.ChunkSize <= 0 {
		return fmt.Errorf("stream.chunk_size must be positive")
	}
	if c.Buffer.MaxAgeMinutes < c.Filter.PriceWindowMinutes {
		return fmt.Errorf("buffer.max_age_minutes must cover filter.price_window_minutes")
	}
	return nil
}

// PriceWindow returns the candidate-filter lookback window.
func (c *Config) PriceWindow() time.Duration {
	return time.Duration(c.Filter.PriceWindowMinutes) * time.Minute
}

// Cooldown returns the per-symbol alert cooldown window.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Verify.CooldownSeconds) * time.Second
}

// BufferMaxAge returns the price-buffer retention window.
func (c *Config) BufferMaxAge() time.Duration {
	return time.Duration(c.Buffer.MaxAgeMinutes) * time.Minute
}

// CacheTTL returns the candle-cache time to live.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Verify.CacheTTLSeconds) * time.Second
}
