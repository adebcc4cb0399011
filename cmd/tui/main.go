package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/config"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.Parse()

	reader := bufio.NewReader(os.Stdin)

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== Sentiment Engine Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit signal thresholds")
		fmt.Println("3) Edit ingestion settings")
		fmt.Println("4) Edit sentiment backends")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch engine")
		fmt.Println("7) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editSignals(reader, cfg)
		case "3":
			editIngestion(reader, cfg)
		case "4":
			editBackends(reader, cfg)
		case "5":
			if err := config.Save(configPath, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved to", configPath)
			}
		case "6":
			launchEngine(reader, configPath)
		case "7":
			reloaded, err := config.Load(configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Log level: %s | metrics %s | api %s\n", cfg.LogLevel, cfg.MetricsAddr, cfg.APIAddr)
	fmt.Printf("Pipeline: %d workers, queue %d, relevance threshold %.2f\n",
		cfg.Pipeline.Workers, cfg.Pipeline.QueueSize, cfg.Pipeline.RelevanceThreshold)
	for _, b := range cfg.Sentiment.Backends {
		fmt.Printf("Backend %s -> %s\n", b.Name, b.URL)
	}
	fmt.Printf("Signal thresholds: bullish %.2f | bearish %.2f | min confidence %.2f\n",
		cfg.Signal.BullishThreshold, cfg.Signal.BearishThreshold, cfg.Signal.MinConfidence)
	fmt.Printf("News stream: %v | social poller: %v | buzz: %v | bus: %v | stub: %v\n",
		cfg.Ingest.News.Enabled, cfg.Ingest.Social.Enabled, cfg.Ingest.Buzz.Enabled,
		cfg.Ingest.Bus.Enabled, cfg.Ingest.Stub.Enabled)
	fmt.Println("Subreddits:", strings.Join(cfg.Ingest.Social.Subreddits, ", "))
	fmt.Printf("Store: %s | redis: %s\n", cfg.Store.SQLitePath, cfg.Redis.Addr)
}

func editSignals(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Signal Thresholds ---")
	cfg.Signal.BullishThreshold = promptFloat(reader, "Bullish threshold", cfg.Signal.BullishThreshold)
	cfg.Signal.BearishThreshold = promptFloat(reader, "Bearish threshold", cfg.Signal.BearishThreshold)
	cfg.Signal.MinConfidence = promptFloat(reader, "Min confidence", cfg.Signal.MinConfidence)
	cfg.Pipeline.RelevanceThreshold = promptFloat(reader, "Relevance threshold", cfg.Pipeline.RelevanceThreshold)
}

func editIngestion(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Ingestion ---")
	fmt.Printf("Current subreddits: %s\n", strings.Join(cfg.Ingest.Social.Subreddits, ", "))
	fmt.Print("Enter subreddits comma-separated (blank to keep): ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		cfg.Ingest.Social.Subreddits = splitList(line)
	}
	cfg.Ingest.Social.Enabled = promptBool(reader, "Social poller enabled", cfg.Ingest.Social.Enabled)
	cfg.Ingest.Social.IntervalS = int(promptFloat(reader, "Social poll interval (s)", float64(cfg.Ingest.Social.IntervalS)))
	cfg.Ingest.News.Enabled = promptBool(reader, "News stream enabled", cfg.Ingest.News.Enabled)
	cfg.Ingest.Buzz.Enabled = promptBool(reader, "Buzz poller enabled", cfg.Ingest.Buzz.Enabled)
	cfg.Ingest.Stub.Enabled = promptBool(reader, "Stub feed enabled", cfg.Ingest.Stub.Enabled)
}

func editBackends(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Sentiment Backends ---")
	for _, b := range cfg.Sentiment.Backends {
		fmt.Printf("  %s -> %s\n", b.Name, b.URL)
	}
	fmt.Print("Enter backends as name=url comma-separated (blank to keep): ")
	line, _ := reader.ReadString('\n')
	if strings.TrimSpace(line) != "" {
		var backends []config.SentimentBackend
		for _, item := range splitList(line) {
			pair := strings.SplitN(item, "=", 2)
			if len(pair) != 2 || pair[0] == "" || pair[1] == "" {
				fmt.Printf("skipping %q, want name=url\n", item)
				continue
			}
			backends = append(backends, config.SentimentBackend{Name: pair[0], URL: pair[1]})
		}
		if len(backends) > 0 {
			cfg.Sentiment.Backends = backends
		}
	}
	cfg.Sentiment.TimeoutMs = int(promptFloat(reader, "Backend timeout (ms)", float64(cfg.Sentiment.TimeoutMs)))
}

func launchEngine(reader *bufio.Reader, configPath string) {
	fmt.Println("Launching engine with", configPath)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/engine", "-config", configPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start engine: %v\n", err)
		return
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	fmt.Print("\nEngine running. Press ENTER to stop and return to the menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	<-done
	fmt.Println("engine stopped")
}

func splitList(line string) []string {
	var out []string
	for _, part := range strings.Split(strings.TrimSpace(line), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptBool(reader *bufio.Reader, label string, current bool) bool {
	fmt.Printf("%s (y/n) [%v]: ", label, current)
	line, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "true":
		return true
	case "n", "no", "false":
		return false
	case "":
		return current
	default:
		fmt.Printf("invalid answer, keeping %v\n", current)
		return current
	}
}
