// Package config loads and validates namehound configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/namehound/namehound/internal/harvest"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Harvest HarvestConfig `mapstructure:"harvest"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Report  ReportConfig  `mapstructure:"report"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Status  StatusConfig  `mapstructure:"status"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig identifies the autocomplete server under exploration.
type ServerConfig struct {
	BaseURL     string   `mapstructure:"base_url"`
	APIVersions []string `mapstructure:"api_versions"`
}

// HarvestConfig governs the exploration engine.
type HarvestConfig struct {
	SeedAlphabet      string        `mapstructure:"seed_alphabet"`
	Concurrency       int           `mapstructure:"concurrency"`
	RequestPause      time.Duration `mapstructure:"request_pause"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
	MaxDepth          int           `mapstructure:"max_depth"`
	QueueDepth        int           `mapstructure:"queue_depth"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// ReportConfig sets where the final artifacts land.
type ReportConfig struct {
	OutputDir  string `mapstructure:"output_dir"`
	GCSBucket  string `mapstructure:"gcs_bucket"`
	Prefix     string `mapstructure:"prefix"`
	TextObject string `mapstructure:"text_object"`
	JSONObject string `mapstructure:"json_object"`
}

// DBConfig controls optional Postgres persistence of discoveries.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// PubSubConfig holds metadata for the optional completion event.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// StatusConfig toggles the live status/metrics HTTP server.
type StatusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NAMEHOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.api_versions", []string{"v1", "v2", "v3"})
	v.SetDefault("harvest.seed_alphabet", "abcdefghijklmnopqrstuvwxyz")
	v.SetDefault("harvest.concurrency", 8)
	v.SetDefault("harvest.request_pause", "2s")
	v.SetDefault("harvest.retry_attempts", 3)
	v.SetDefault("harvest.backoff_multiplier", 2.0)
	v.SetDefault("harvest.max_depth", 2)
	v.SetDefault("harvest.queue_depth", 4096)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("report.output_dir", "data/reports")
	v.SetDefault("report.prefix", "reports")
	v.SetDefault("report.text_object", "harvested_names.txt")
	v.SetDefault("report.json_object", "")
	v.SetDefault("db.table", "discoveries")
	v.SetDefault("status.enabled", false)
	v.SetDefault("status.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if len(c.Server.APIVersions) == 0 {
		return fmt.Errorf("server.api_versions must not be empty")
	}
	if c.Harvest.SeedAlphabet == "" {
		return fmt.Errorf("harvest.seed_alphabet must not be empty")
	}
	if c.Harvest.Concurrency <= 0 {
		return fmt.Errorf("harvest.concurrency must be > 0")
	}
	if c.Harvest.RequestPause < 0 {
		return fmt.Errorf("harvest.request_pause must be >= 0")
	}
	if c.Harvest.RetryAttempts < 1 {
		return fmt.Errorf("harvest.retry_attempts must be >= 1")
	}
	if c.Harvest.BackoffMultiplier < 1 {
		return fmt.Errorf("harvest.backoff_multiplier must be >= 1")
	}
	if c.Harvest.MaxDepth < 0 {
		return fmt.Errorf("harvest.max_depth must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Status.Enabled && c.Status.Port <= 0 {
		return fmt.Errorf("status.port must be > 0 when status is enabled")
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// EngineConfig converts the loaded settings into the engine's Config.
func (c Config) EngineConfig() harvest.Config {
	return harvest.Config{
		Versions:          c.Server.APIVersions,
		SeedAlphabet:      c.Harvest.SeedAlphabet,
		Concurrency:       c.Harvest.Concurrency,
		RequestPause:      c.Harvest.RequestPause,
		RetryAttempts:     c.Harvest.RetryAttempts,
		BackoffMultiplier: c.Harvest.BackoffMultiplier,
		MaxDepth:          c.Harvest.MaxDepth,
		QueueCapacity:     c.Harvest.QueueDepth,
	}
}

// HTTPTimeout converts the client timeout config into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
