package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BackupConfig controls periodic sqlite backups.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type Config struct {
	Server struct {
		Port   int    `yaml:"port"`
		APIKey string `yaml:"api_key"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	Redis struct {
		Address             string `yaml:"address"`
		Password            string `yaml:"password"`
		DB                  int    `yaml:"db"`
		SlotCacheTTLSeconds int    `yaml:"slot_cache_ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		MinAdvanceMinutes   int `yaml:"min_advance_minutes"`
		MaxAdvanceDays      int `yaml:"max_advance_days"`
		SlotDurationMinutes int `yaml:"slot_duration_minutes"`
	} `yaml:"booking"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Google struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RedirectURL  string `yaml:"redirect_url"`
	} `yaml:"google"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/mentorbook.db"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// BookingMinAdvance is the minimum notice a mentee must give. Defaults to
// two hours.
func (c *Config) BookingMinAdvance() time.Duration {
	if c.Booking.MinAdvanceMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.Booking.MinAdvanceMinutes) * time.Minute
}

// BookingMaxAdvance is the furthest ahead a slot may be booked. Defaults
// to sixty days.
func (c *Config) BookingMaxAdvance() time.Duration {
	if c.Booking.MaxAdvanceDays <= 0 {
		return 60 * 24 * time.Hour
	}
	return time.Duration(c.Booking.MaxAdvanceDays) * 24 * time.Hour
}

// BookingSlotDuration is the fixed session length. Defaults to thirty
// minutes.
func (c *Config) BookingSlotDuration() time.Duration {
	if c.Booking.SlotDurationMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.SlotDurationMinutes) * time.Minute
}

// SlotCacheTTL returns the Redis cache TTL for generated slot lists; zero
// disables caching.
func (c *Config) SlotCacheTTL() time.Duration {
	if c.Redis.SlotCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Redis.SlotCacheTTLSeconds) * time.Second
}
