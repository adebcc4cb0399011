package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/event"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/metrics"
)

var stubHeadlines = []struct {
	headline string
	summary  string
}{
	{
		headline: "SPY rips higher as earnings beat across the board",
		summary:  "Strong guidance and upbeat margins push index funds to fresh highs.",
	},
	{
		headline: "Markets slide on weak outlook, SPY puts bid up",
		summary:  "Guidance cuts and a miss on revenue drag the broad market lower.",
	},
	{
		headline: "SPY drifts sideways ahead of Fed minutes",
		summary:  "Volume thins out while traders wait for the afternoon release.",
	},
}

// StubFeed emits canned headlines on a ticker. Useful for exercising the
// whole pipeline without any external connectivity.
type StubFeed struct {
	interval time.Duration
	out      chan<- event.Event
	tracker  *StatusTracker
	log      zerolog.Logger
}

// NewStubFeed builds the synthetic feed. Interval defaults to 10s.
func NewStubFeed(interval time.Duration, out chan<- event.Event, log zerolog.Logger) *StubFeed {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &StubFeed{
		interval: interval,
		out:      out,
		tracker:  NewStatusTracker(),
		log:      log.With().Str("adapter", "stub").Logger(),
	}
}

// Name identifies the adapter in status reports.
func (s *StubFeed) Name() string { return "stub" }

// Status reports the adapter's lifecycle state.
func (s *StubFeed) Status() Status { return s.tracker.Status() }

// Run cycles through the canned headlines until the context ends.
func (s *StubFeed) Run(ctx context.Context) error {
	defer s.tracker.Set(StatusStopped)
	s.tracker.Set(StatusStarting)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.tracker.Set(StatusRunning)

	for i := 0; ; i++ {
		s.emit(ctx, i)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *StubFeed) emit(ctx context.Context, i int) {
	pick := stubHeadlines[i%len(stubHeadlines)]
	now := time.Now().UTC()
	ev := &event.NewsEvent{
		ArticleID:  fmt.Sprintf("stub-%d", i),
		Source:     "stub",
		Headline:   pick.headline,
		Summary:    pick.summary,
		Symbols:    []string{"SPY"},
		CreatedAt:  now,
		ReceivedAt: now,
	}
	select {
	case s.out <- ev:
		metrics.EventsTotal.WithLabelValues("stub", string(event.KindNews)).Inc()
	case <-ctx.Done():
	}
}
