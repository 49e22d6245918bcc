// ABOUTME: Client configuration loading and validation
// ABOUTME: YAML config file with sane defaults for every section
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete client configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Audio   AudioConfig   `yaml:"audio"`
	History HistoryConfig `yaml:"history"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig describes the voice API endpoint
type ServerConfig struct {
	URL          string  `yaml:"url"`
	Model        string  `yaml:"model"`
	APIKeyEnv    string  `yaml:"api_key_env"`
	Voice        string  `yaml:"voice"`
	Instructions string  `yaml:"instructions"`
	Temperature  float64 `yaml:"temperature"`
}

// AudioConfig contains playback and capture parameters
type AudioConfig struct {
	OutputSampleRate  int `yaml:"output_sample_rate"`
	CaptureSampleRate int `yaml:"capture_sample_rate"`
	SegmentSamples    int `yaml:"segment_samples"`
	InitialLookahead  int `yaml:"initial_lookahead_ms"`
	LookaheadWindow   int `yaml:"lookahead_window_ms"`
	PollInterval      int `yaml:"poll_interval_ms"`
	FadeDuration      int `yaml:"fade_duration_ms"`
}

// HistoryConfig controls transcript persistence
type HistoryConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr    string `yaml:"addr"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	File string `yaml:"file"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:         "wss://api.openai.com/v1/realtime",
			Model:       "gpt-realtime",
			APIKeyEnv:   "OPENAI_API_KEY",
			Voice:       "alloy",
			Temperature: 0.7,
		},
		Audio: AudioConfig{
			OutputSampleRate:  24000,
			CaptureSampleRate: 16000,
			SegmentSamples:    7680,
			InitialLookahead:  100,
			LookaheadWindow:   200,
			PollInterval:      100,
			FadeDuration:      100,
		},
		History: HistoryConfig{
			Path:    "voicewire.db",
			Enabled: true,
		},
		Metrics: MetricsConfig{
			Addr: ":9301",
		},
		Logging: LoggingConfig{
			File: "voicewire.log",
		},
	}
}

// Load reads a YAML config file over the defaults
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url must be set")
	}
	if c.Audio.OutputSampleRate <= 0 {
		return fmt.Errorf("audio.output_sample_rate must be positive, got %d", c.Audio.OutputSampleRate)
	}
	if c.Audio.CaptureSampleRate <= 0 {
		return fmt.Errorf("audio.capture_sample_rate must be positive, got %d", c.Audio.CaptureSampleRate)
	}
	if c.Audio.SegmentSamples <= 0 {
		return fmt.Errorf("audio.segment_samples must be positive, got %d", c.Audio.SegmentSamples)
	}
	if c.Audio.LookaheadWindow < c.Audio.InitialLookahead {
		return fmt.Errorf("audio.lookahead_window_ms (%d) must not be smaller than audio.initial_lookahead_ms (%d)",
			c.Audio.LookaheadWindow, c.Audio.InitialLookahead)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must be set when metrics are enabled")
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path must be set when history is enabled")
	}
	return nil
}

// APIKey resolves the API key from the configured environment variable
func (c *Config) APIKey() string {
	if c.Server.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Server.APIKeyEnv)
}

// Endpoint returns the full WebSocket URL including the model query
func (c *Config) Endpoint() string {
	if c.Server.Model == "" {
		return c.Server.URL
	}
	return c.Server.URL + "?model=" + c.Server.Model
}
