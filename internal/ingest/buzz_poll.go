package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// BuzzPublisher receives the latest market-buzz payload.
type BuzzPublisher interface {
	PublishBuzz(ctx context.Context, payload any) error
}

// BuzzPoller polls a social-buzz metrics endpoint and pushes the raw payload
// straight to the live-state cache. Buzz is dashboard telemetry, not a scored
// event source, so it bypasses the pipeline entirely.
type BuzzPoller struct {
	url       string
	interval  time.Duration
	client    *http.Client
	publisher BuzzPublisher
	tracker   *StatusTracker
	log       zerolog.Logger
}

// NewBuzzPoller builds the adapter around the live-state publisher.
func NewBuzzPoller(url string, interval time.Duration, publisher BuzzPublisher, log zerolog.Logger) *BuzzPoller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &BuzzPoller{
		url:       url,
		interval:  interval,
		client:    &http.Client{Timeout: 10 * time.Second},
		publisher: publisher,
		tracker:   NewStatusTracker(),
		log:       log.With().Str("adapter", "buzz").Logger(),
	}
}

// Name identifies the adapter in status reports.
func (b *BuzzPoller) Name() string { return "buzz" }

// Status reports the adapter's lifecycle state.
func (b *BuzzPoller) Status() Status { return b.tracker.Status() }

// Run polls immediately, then on every tick, until the context ends.
func (b *BuzzPoller) Run(ctx context.Context) error {
	defer b.tracker.Set(StatusStopped)
	b.tracker.Set(StatusStarting)

	b.pollOnce(ctx)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.pollOnce(ctx)
		}
	}
}

func (b *BuzzPoller) pollOnce(ctx context.Context) {
	if err := b.fetchAndPublish(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		b.tracker.Set(StatusDegraded)
		b.log.Warn().Err(err).Msg("buzz poll failed")
		return
	}
	b.tracker.Set(StatusRunning)
}

func (b *BuzzPoller) fetchAndPublish(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch buzz: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("buzz endpoint returned status %d", resp.StatusCode)
	}

	var payload json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode buzz payload: %w", err)
	}
	if err := b.publisher.PublishBuzz(ctx, payload); err != nil {
		return fmt.Errorf("publish buzz: %w", err)
	}
	return nil
}
