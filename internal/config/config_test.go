package config

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected LogLevel: %s", cfg.LogLevel)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Fatalf("unexpected Pipeline.Workers: %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.QueueSize != 256 {
		t.Fatalf("unexpected Pipeline.QueueSize: %d", cfg.Pipeline.QueueSize)
	}
	if cfg.Pipeline.RelevanceThreshold != 0.3 {
		t.Fatalf("unexpected relevance threshold: %v", cfg.Pipeline.RelevanceThreshold)
	}
	if len(cfg.Sentiment.Backends) != 2 || cfg.Sentiment.Backends[0].Name != "finbert" {
		t.Fatalf("unexpected backends: %+v", cfg.Sentiment.Backends)
	}
	if cfg.Signal.BullishThreshold != 0.55 || cfg.Signal.BearishThreshold != -0.65 {
		t.Fatalf("unexpected thresholds: %+v", cfg.Signal)
	}
	if !cfg.Ingest.News.Enabled || cfg.Ingest.News.URL == "" {
		t.Fatalf("unexpected news config: %+v", cfg.Ingest.News)
	}
	if len(cfg.Ingest.Social.Subreddits) != 2 {
		t.Fatalf("unexpected subreddits: %+v", cfg.Ingest.Social.Subreddits)
	}
	if cfg.Ingest.Bus.Group != "sentiment-test" {
		t.Fatalf("unexpected bus group: %s", cfg.Ingest.Bus.Group)
	}
	if cfg.Store.SQLitePath != "/tmp/sentiment-test.db" {
		t.Fatalf("unexpected sqlite path: %s", cfg.Store.SQLitePath)
	}
	if cfg.Redis.DB != 2 {
		t.Fatalf("unexpected redis db: %d", cfg.Redis.DB)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level, got %s", cfg.LogLevel)
	}
	if cfg.Pipeline.Workers != 2 || cfg.Pipeline.QueueSize != 1024 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.RelevanceThreshold != 0.25 {
		t.Fatalf("expected default relevance threshold, got %v", cfg.Pipeline.RelevanceThreshold)
	}
	if cfg.Signal.BullishThreshold != 0.6 || cfg.Signal.BearishThreshold != -0.6 || cfg.Signal.MinConfidence != 0.7 {
		t.Fatalf("unexpected signal defaults: %+v", cfg.Signal)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("expected default redis addr, got %s", cfg.Redis.Addr)
	}
}

func TestValidateSocialDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Ingest.Social.Enabled = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if len(cfg.Ingest.Social.Subreddits) != 4 {
		t.Fatalf("expected default subreddits, got %+v", cfg.Ingest.Social.Subreddits)
	}
	if cfg.Ingest.Social.BaseURL != "https://www.reddit.com" {
		t.Fatalf("expected default base url, got %s", cfg.Ingest.Social.BaseURL)
	}
	if cfg.Ingest.Social.IntervalS != 60 {
		t.Fatalf("expected default interval, got %d", cfg.Ingest.Social.IntervalS)
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := &Config{}
	cfg.Signal.BullishThreshold = -0.5
	cfg.Signal.BearishThreshold = 0.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for inverted thresholds")
	}

	cfg = &Config{}
	cfg.Pipeline.RelevanceThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range relevance threshold")
	}
}

func TestValidateRejectsIncompleteAdapters(t *testing.T) {
	cfg := &Config{}
	cfg.Ingest.News.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for news adapter without url")
	}

	cfg = &Config{}
	cfg.Ingest.Bus.Enabled = true
	cfg.Ingest.Bus.Topic = "chatter"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for bus adapter without brokers")
	}
}
