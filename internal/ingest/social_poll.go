package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/event"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/metrics"
)

const socialUserAgent = "sentiment-engine/0.1"

type redditListing struct {
	Data struct {
		Children []struct {
			Data map[string]any `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// SocialPoller fetches new posts from the configured subreddits on a fixed
// interval. Post ids already seen are skipped; the dedup set lives only as
// long as the adapter, a restart re-reads recent posts.
type SocialPoller struct {
	baseURL    string
	subreddits []string
	interval   time.Duration
	client     *http.Client
	out        chan<- event.Event
	tracker    *StatusTracker
	seen       map[string]struct{}
	log        zerolog.Logger
}

// NewSocialPoller builds the adapter; out receives normalized events.
func NewSocialPoller(baseURL string, subreddits []string, interval time.Duration, out chan<- event.Event, log zerolog.Logger) *SocialPoller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SocialPoller{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		subreddits: subreddits,
		interval:   interval,
		client:     &http.Client{Timeout: 10 * time.Second},
		out:        out,
		tracker:    NewStatusTracker(),
		seen:       make(map[string]struct{}),
		log:        log.With().Str("adapter", "reddit").Logger(),
	}
}

// Name identifies the adapter in status reports.
func (p *SocialPoller) Name() string { return "reddit" }

// Status reports the adapter's lifecycle state.
func (p *SocialPoller) Status() Status { return p.tracker.Status() }

// Run polls immediately, then on every tick, until the context ends.
func (p *SocialPoller) Run(ctx context.Context) error {
	defer p.tracker.Set(StatusStopped)
	p.tracker.Set(StatusStarting)

	p.pollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce fetches every subreddit in the batch. One subreddit failing marks
// the cycle degraded but never aborts the remaining fetches.
func (p *SocialPoller) pollOnce(ctx context.Context) {
	failures := 0
	for _, sub := range p.subreddits {
		if err := p.fetchSubreddit(ctx, sub); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			failures++
			p.log.Warn().Err(err).Str("subreddit", sub).Msg("subreddit fetch failed")
		}
	}
	if failures > 0 {
		p.tracker.Set(StatusDegraded)
	} else {
		p.tracker.Set(StatusRunning)
	}
}

func (p *SocialPoller) fetchSubreddit(ctx context.Context, sub string) error {
	url := fmt.Sprintf("%s/r/%s/new.json?limit=25", p.baseURL, sub)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", socialUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch r/%s: %w", sub, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("r/%s returned status %d", sub, resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return fmt.Errorf("decode r/%s listing: %w", sub, err)
	}

	now := time.Now().UTC()
	for _, child := range listing.Data.Children {
		ev, err := event.NormalizeSocial(child.Data, "reddit", now)
		if err != nil {
			p.log.Debug().Err(err).Msg("skipping malformed post")
			continue
		}
		if ev.Subreddit == "" {
			ev.Subreddit = sub
		}
		if _, dup := p.seen[ev.PostID]; dup {
			continue
		}
		p.seen[ev.PostID] = struct{}{}

		select {
		case p.out <- ev:
			metrics.EventsTotal.WithLabelValues("reddit", string(event.KindSocial)).Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
