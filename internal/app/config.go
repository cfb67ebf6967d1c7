package app

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type GSheetConfig struct {
	CredentialsPath string `toml:"credentials_path"`
	SheetID         string `toml:"sheet_id"`
	SheetName       string `toml:"sheet_name"`
	StatsRange      string `toml:"stats_range"`
	TimestampRange  string `toml:"timestamp_range"`
	Schedule        string `toml:"schedule"`
}

type Config struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`

	API struct {
		UserIDHeader    string         `toml:"user_id_header"`
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Upstream struct {
		BaseURL        string         `toml:"base_url"`
		TimeoutSeconds int            `toml:"timeout_seconds"`
		Headers        []HeaderConfig `toml:"headers"`
	} `toml:"upstream"`

	Engine struct {
		RecencyWindowMinutes  int    `toml:"recency_window_minutes"`
		ReloadCooldownSeconds int    `toml:"reload_cooldown_seconds"`
		PollSchedule          string `toml:"poll_schedule"`
	} `toml:"engine"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	GSheet map[string][]GSheetConfig `toml:"gsheet"`

	EmojiVariants []string `toml:"emoji_variants"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}
	if config.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("Upstream base_url is not specified in config")
	}

	logger.Debug.Printf("Loaded engine config: %+v", config.Engine)

	return &config, nil
}

func (c *Config) RecencyWindow() time.Duration {
	if c.Engine.RecencyWindowMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Engine.RecencyWindowMinutes) * time.Minute
}

func (c *Config) ReloadCooldown() time.Duration {
	if c.Engine.ReloadCooldownSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Engine.ReloadCooldownSeconds) * time.Second
}

func (c *Config) UpstreamTimeout() time.Duration {
	if c.Upstream.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}
