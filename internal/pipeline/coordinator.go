// Package pipeline coordinates scoring, gating, persistence, and live-state
// publication for every ingested event.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/event"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/metrics"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/relevance"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/signal"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/store"
)

// Scorer produces a combined sentiment reading for a piece of text.
type Scorer interface {
	Analyze(ctx context.Context, text string) event.SentimentResult
}

// Breaker reads the shared circuit-breaker flag.
type Breaker interface {
	Tripped(ctx context.Context) (bool, error)
}

// Recorder persists scored results and emitted signals.
type Recorder interface {
	InsertSentiment(ctx context.Context, rec *store.SentimentRecord) (uint, error)
	InsertSignal(ctx context.Context, rec *store.SignalRecord) error
}

// Publisher pushes the latest snapshot to the live-state cache.
type Publisher interface {
	PublishSentiment(ctx context.Context, payload any) error
}

const (
	defaultRelevanceThreshold = 0.25
	defaultStepTimeout        = 2 * time.Second
	snapshotHeadlineRunes     = 200
)

// Coordinator runs each event through score, gate, persist, and publish.
// Collaborators left nil are skipped, failing collaborators degrade the run;
// nothing here aborts the pipeline.
type Coordinator struct {
	scorer       Scorer
	signals      signal.Engine
	breaker      Breaker
	recorder     Recorder
	publisher    Publisher
	relevanceMin float64
	stepTimeout  time.Duration
	log          zerolog.Logger
}

// Option configures Coordinator construction.
type Option func(*Coordinator)

// WithBreaker wires the shared circuit-breaker read.
func WithBreaker(b Breaker) Option {
	return func(c *Coordinator) { c.breaker = b }
}

// WithRecorder wires durable persistence for scored rows.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithPublisher wires the live-state cache.
func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

// WithRelevanceThreshold sets the minimum social relevance accepted.
func WithRelevanceThreshold(v float64) Option {
	return func(c *Coordinator) {
		if v >= 0 {
			c.relevanceMin = v
		}
	}
}

// WithStepTimeout bounds each collaborator call.
func WithStepTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.stepTimeout = d
		}
	}
}

// New builds a Coordinator around the scorer and decision engine.
func New(scorer Scorer, signals signal.Engine, log zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		scorer:       scorer,
		signals:      signals,
		log:          log,
		relevanceMin: defaultRelevanceThreshold,
		stepTimeout:  defaultStepTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result carries what one pipeline run produced.
type Result struct {
	Sentiment   *event.SentimentResult
	Signal      *event.Signal
	PersistedID *uint
	Dropped     bool
	DropReason  string
}

// Process runs a single event through every pipeline step. Each step is
// independently failure-tolerant: a dead store or cache degrades the result
// but the signal is still computed and returned. Process never fails.
func (c *Coordinator) Process(ctx context.Context, ev event.Event) Result {
	start := time.Now()
	defer func() { metrics.ProcessSeconds.Observe(time.Since(start).Seconds()) }()

	text := ev.ScoringText()
	if text == "" {
		metrics.RejectsTotal.WithLabelValues("empty_text").Inc()
		c.log.Debug().Str("source", ev.EventSource()).Str("id", ev.EventID()).Msg("nothing to score")
		return Result{Dropped: true, DropReason: "empty_text"}
	}

	if social, ok := ev.(*event.SocialEvent); ok {
		score, matched := relevance.Score(text, social.Likes, social.Replies)
		social.RelevanceScore = score
		social.KeywordsMatched = matched
		if score < c.relevanceMin {
			metrics.RejectsTotal.WithLabelValues("low_relevance").Inc()
			c.log.Debug().Str("id", ev.EventID()).Float64("relevance", score).Msg("post below relevance threshold")
			return Result{Dropped: true, DropReason: "low_relevance"}
		}
	}

	sctx, cancel := c.stepCtx(ctx)
	res := c.scorer.Analyze(sctx, text)
	cancel()

	tripped := false
	if c.breaker != nil {
		bctx, cancel := c.stepCtx(ctx)
		t, err := c.breaker.Tripped(bctx)
		cancel()
		if err != nil {
			c.log.Warn().Err(err).Msg("circuit breaker read failed, treating as clear")
		} else {
			tripped = t
		}
	}

	sig := c.signals.Evaluate(res.Score, res.Confidence(), tripped)
	metrics.SignalsTotal.WithLabelValues(string(sig.Side), sig.Reason).Inc()

	persistedID := c.persist(ctx, ev, text, res, sig)

	snap := buildSnapshot(ev, res, sig)
	if c.publisher != nil {
		pctx, cancel := c.stepCtx(ctx)
		if err := c.publisher.PublishSentiment(pctx, snap); err != nil {
			metrics.PublishFailuresTotal.Inc()
			c.log.Warn().Err(err).Msg("live state publish failed")
		}
		cancel()
	}

	return Result{Sentiment: &res, Signal: &sig, PersistedID: persistedID}
}

// Run consumes events until the channel closes or the context ends.
func (c *Coordinator) Run(ctx context.Context, events <-chan event.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.Process(ctx, ev)
		}
	}
}

// persist writes the sentiment row and the signal row, fire-and-forget. A nil
// return means the row never made it; the caller proceeds regardless.
func (c *Coordinator) persist(ctx context.Context, ev event.Event, text string, res event.SentimentResult, sig event.Signal) *uint {
	if c.recorder == nil {
		return nil
	}

	pctx, cancel := c.stepCtx(ctx)
	defer cancel()

	var persistedID *uint
	id, err := c.recorder.InsertSentiment(pctx, &store.SentimentRecord{
		Source:      ev.EventSource(),
		SourceID:    ev.EventID(),
		ContentHash: store.HashContent(text),
		Score:       res.Score,
		ModelUsed:   res.ModelUsed,
		RawPayload:  rawPayload(ev),
	})
	if err != nil {
		metrics.PersistFailuresTotal.Inc()
		c.log.Warn().Err(err).Str("source", ev.EventSource()).Msg("sentiment persist failed")
	} else {
		persistedID = &id
	}

	if err := c.recorder.InsertSignal(pctx, &store.SignalRecord{
		Side:     string(sig.Side),
		Reason:   sig.Reason,
		Score:    sig.Score,
		Source:   ev.EventSource(),
		SourceID: ev.EventID(),
	}); err != nil {
		metrics.PersistFailuresTotal.Inc()
		c.log.Warn().Err(err).Msg("signal persist failed")
	}
	return persistedID
}

func (c *Coordinator) stepCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.stepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.stepTimeout)
}

func buildSnapshot(ev event.Event, res event.SentimentResult, sig event.Signal) event.Snapshot {
	snap := event.Snapshot{
		Score:        res.Score,
		ModelUsed:    res.ModelUsed,
		Source:       ev.EventSource(),
		SourceID:     ev.EventID(),
		SignalSide:   string(sig.Side),
		SignalReason: sig.Reason,
		At:           sig.At.UTC().Format(time.RFC3339),
	}
	switch e := ev.(type) {
	case *event.NewsEvent:
		snap.Headline = event.TruncateRunes(e.Headline, snapshotHeadlineRunes)
		snap.Symbols = e.Symbols
	case *event.SocialEvent:
		snap.Headline = event.TruncateRunes(e.Title, snapshotHeadlineRunes)
	}
	return snap
}

func rawPayload(ev event.Event) string {
	var raw map[string]any
	switch e := ev.(type) {
	case *event.NewsEvent:
		raw = e.Raw
	case *event.SocialEvent:
		raw = e.Raw
	}
	if len(raw) == 0 {
		return ""
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(data)
}
