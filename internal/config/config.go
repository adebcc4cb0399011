// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSubreddits is polled when the social adapter is enabled without an
// explicit list.
var DefaultSubreddits = []string{"wallstreetbets", "options", "stocks", "StockMarket"}

// Pipeline tunes the coordinator worker pool and event gating.
type Pipeline struct {
	Workers            int     `yaml:"workers"`
	QueueSize          int     `yaml:"queue_size"`
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
	StepTimeoutMs      int     `yaml:"step_timeout_ms"`
}

// SentimentBackend names one remote model server endpoint.
type SentimentBackend struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Sentiment configures the scoring engine and its backends.
type Sentiment struct {
	TimeoutMs int                `yaml:"timeout_ms"`
	Backends  []SentimentBackend `yaml:"backends"`
}

// Signal holds the decision thresholds.
type Signal struct {
	BullishThreshold float64 `yaml:"bullish_threshold"`
	BearishThreshold float64 `yaml:"bearish_threshold"`
	MinConfidence    float64 `yaml:"min_confidence"`
}

// News configures the streaming news adapter.
type News struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// Social configures the subreddit poller.
type Social struct {
	Enabled    bool     `yaml:"enabled"`
	BaseURL    string   `yaml:"base_url"`
	Subreddits []string `yaml:"subreddits"`
	IntervalS  int      `yaml:"interval_s"`
}

// Buzz configures the market-buzz poller.
type Buzz struct {
	Enabled   bool   `yaml:"enabled"`
	URL       string `yaml:"url"`
	IntervalS int    `yaml:"interval_s"`
}

// Bus configures the kafka envelope consumer.
type Bus struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Group   string   `yaml:"group"`
	Topic   string   `yaml:"topic"`
}

// Stub configures the synthetic feed used offline and in tests.
type Stub struct {
	Enabled    bool `yaml:"enabled"`
	IntervalMs int  `yaml:"interval_ms"`
}

// Ingest groups every adapter's settings.
type Ingest struct {
	News   News   `yaml:"news"`
	Social Social `yaml:"social"`
	Buzz   Buzz   `yaml:"buzz"`
	Bus    Bus    `yaml:"bus"`
	Stub   Stub   `yaml:"stub"`
}

// Store configures durable persistence.
type Store struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Redis configures the live-state cache connection.
type Redis struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// Config collects every configuration leaf for easy unmarshaling from YAML.
type Config struct {
	LogLevel    string    `yaml:"log_level"`
	MetricsAddr string    `yaml:"metrics_addr"`
	APIAddr     string    `yaml:"api_addr"`
	Pipeline    Pipeline  `yaml:"pipeline"`
	Sentiment   Sentiment `yaml:"sentiment"`
	Signal      Signal    `yaml:"signal"`
	Ingest      Ingest    `yaml:"ingest"`
	Store       Store     `yaml:"store"`
	Redis       Redis     `yaml:"redis"`
}

// Load reads a YAML file from disk, hydrates a Config, and applies defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate fills zero values with defaults and rejects settings the engine
// cannot run with.
func (c *Config) Validate() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9100"
	}
	if c.APIAddr == "" {
		c.APIAddr = ":8080"
	}

	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 2
	}
	if c.Pipeline.QueueSize <= 0 {
		c.Pipeline.QueueSize = 1024
	}
	if c.Pipeline.RelevanceThreshold < 0 || c.Pipeline.RelevanceThreshold > 1 {
		return fmt.Errorf("relevance_threshold %v outside [0,1]", c.Pipeline.RelevanceThreshold)
	}
	if c.Pipeline.RelevanceThreshold == 0 {
		c.Pipeline.RelevanceThreshold = 0.25
	}
	if c.Pipeline.StepTimeoutMs <= 0 {
		c.Pipeline.StepTimeoutMs = 2000
	}

	if c.Sentiment.TimeoutMs <= 0 {
		c.Sentiment.TimeoutMs = 2500
	}
	for i, backend := range c.Sentiment.Backends {
		if backend.Name == "" || backend.URL == "" {
			return fmt.Errorf("sentiment backend %d needs both name and url", i)
		}
	}

	if c.Signal.BullishThreshold == 0 {
		c.Signal.BullishThreshold = 0.6
	}
	if c.Signal.BearishThreshold == 0 {
		c.Signal.BearishThreshold = -0.6
	}
	if c.Signal.MinConfidence == 0 {
		c.Signal.MinConfidence = 0.7
	}
	if c.Signal.BullishThreshold <= c.Signal.BearishThreshold {
		return fmt.Errorf("bullish_threshold %v must exceed bearish_threshold %v",
			c.Signal.BullishThreshold, c.Signal.BearishThreshold)
	}

	if c.Ingest.Social.Enabled {
		if c.Ingest.Social.BaseURL == "" {
			c.Ingest.Social.BaseURL = "https://www.reddit.com"
		}
		if len(c.Ingest.Social.Subreddits) == 0 {
			c.Ingest.Social.Subreddits = DefaultSubreddits
		}
	}
	if c.Ingest.Social.IntervalS <= 0 {
		c.Ingest.Social.IntervalS = 60
	}
	if c.Ingest.News.Enabled && c.Ingest.News.URL == "" {
		return fmt.Errorf("news adapter enabled without url")
	}
	if c.Ingest.Buzz.Enabled && c.Ingest.Buzz.URL == "" {
		return fmt.Errorf("buzz adapter enabled without url")
	}
	if c.Ingest.Buzz.IntervalS <= 0 {
		c.Ingest.Buzz.IntervalS = 300
	}
	if c.Ingest.Bus.Enabled {
		if len(c.Ingest.Bus.Brokers) == 0 {
			return fmt.Errorf("bus adapter enabled without brokers")
		}
		if c.Ingest.Bus.Topic == "" {
			return fmt.Errorf("bus adapter enabled without topic")
		}
		if c.Ingest.Bus.Group == "" {
			c.Ingest.Bus.Group = "sentiment-engine"
		}
	}
	if c.Ingest.Stub.IntervalMs <= 0 {
		c.Ingest.Stub.IntervalMs = 500
	}

	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "data/sentiment.db"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	return nil
}

// Credentials carries secrets sourced from the environment rather than YAML.
type Credentials struct {
	NewsKey       string
	NewsSecret    string
	RedisPassword string
}

// LoadCredentials reads secrets from the environment after a best-effort
// .env load. Missing values stay empty; adapters that need them refuse to
// start on their own.
func LoadCredentials() Credentials {
	_ = godotenv.Load()
	return Credentials{
		NewsKey:       os.Getenv("NEWS_WS_KEY"),
		NewsSecret:    os.Getenv("NEWS_WS_SECRET"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}
}
