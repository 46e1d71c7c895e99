package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		BaseURL string  `yaml:"base_url"`
		APIKey  string  `yaml:"api_key"`
		RateRPS float64 `yaml:"rate_rps"` // request throttle per client
	} `yaml:"data_source"`
	Download struct {
		BarCount      int `yaml:"bar_count"`
		RetryBarCount int `yaml:"retry_bar_count"`
		BatchSize     int `yaml:"batch_size"`
		MaxWorkers    int `yaml:"max_workers"`
	} `yaml:"download"`
	Strategy struct {
		M1 int `yaml:"m1"`
		M2 int `yaml:"m2"`
		M3 int `yaml:"m3"`
		M4 int `yaml:"m4"`
	} `yaml:"strategy"`
	Schedule struct {
		SelectCron string `yaml:"select_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	DataDir   string `yaml:"data_dir"`
	OutputDir string `yaml:"output_dir"`
	Proxy     string `yaml:"proxy"`
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
	if v := os.Getenv("TDX_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("TDX_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Download.MaxWorkers = n
		}
	}

	// Defaults
	if cfg.Download.BarCount == 0 {
		cfg.Download.BarCount = 300
	}
	if cfg.Download.RetryBarCount == 0 {
		cfg.Download.RetryBarCount = 100
	}
	if cfg.Download.BatchSize == 0 {
		cfg.Download.BatchSize = 50
	}
	if cfg.Download.MaxWorkers == 0 {
		cfg.Download.MaxWorkers = 10
	}
	if cfg.DataSource.RateRPS == 0 {
		cfg.DataSource.RateRPS = 20
	}
	if cfg.Strategy.M1 == 0 {
		cfg.Strategy.M1 = 14
	}
	if cfg.Strategy.M2 == 0 {
		cfg.Strategy.M2 = 28
	}
	if cfg.Strategy.M3 == 0 {
		cfg.Strategy.M3 = 57
	}
	if cfg.Strategy.M4 == 0 {
		cfg.Strategy.M4 = 114
	}
	if cfg.Schedule.SelectCron == "" {
		cfg.Schedule.SelectCron = "0 30 15 * * 1-5"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "stock_data"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required")
	}
	if c.Download.BatchSize <= 0 {
		return fmt.Errorf("download.batch_size must be positive")
	}
	if c.Download.MaxWorkers <= 0 {
		return fmt.Errorf("download.max_workers must be positive")
	}
	m := c.Strategy
	if m.M1 <= 0 || m.M2 <= 0 || m.M3 <= 0 || m.M4 <= 0 {
		return fmt.Errorf("strategy m1..m4 must all be positive")
	}
	return nil
}
