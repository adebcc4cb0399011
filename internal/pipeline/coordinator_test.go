package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/event"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/signal"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/store"
)

type fakeScorer struct {
	result   event.SentimentResult
	calls    int
	lastText string
}

func (f *fakeScorer) Analyze(ctx context.Context, text string) event.SentimentResult {
	f.calls++
	f.lastText = text
	return f.result
}

type fakeBreaker struct {
	tripped bool
	err     error
	reads   int
}

func (f *fakeBreaker) Tripped(ctx context.Context) (bool, error) {
	f.reads++
	return f.tripped, f.err
}

type fakeRecorder struct {
	sentiments []store.SentimentRecord
	signals    []store.SignalRecord
	fail       bool
	nextID     uint
}

func (f *fakeRecorder) InsertSentiment(ctx context.Context, rec *store.SentimentRecord) (uint, error) {
	if f.fail {
		return 0, errors.New("disk full")
	}
	f.nextID++
	rec.ID = f.nextID
	f.sentiments = append(f.sentiments, *rec)
	return f.nextID, nil
}

func (f *fakeRecorder) InsertSignal(ctx context.Context, rec *store.SignalRecord) error {
	if f.fail {
		return errors.New("disk full")
	}
	f.signals = append(f.signals, *rec)
	return nil
}

type fakePublisher struct {
	snapshots []event.Snapshot
	err       error
}

func (f *fakePublisher) PublishSentiment(ctx context.Context, payload any) error {
	if f.err != nil {
		return f.err
	}
	if snap, ok := payload.(event.Snapshot); ok {
		f.snapshots = append(f.snapshots, snap)
	}
	return nil
}

func testEngine() signal.Engine {
	return signal.NewEngine(0.6, -0.6, 0.7)
}

func newsEvent(headline string) *event.NewsEvent {
	return &event.NewsEvent{
		ArticleID:  "a1",
		Source:     "alpaca",
		Headline:   headline,
		Symbols:    []string{"SPY"},
		ReceivedAt: time.Now().UTC(),
	}
}

func TestProcessHappyPath(t *testing.T) {
	scorer := &fakeScorer{result: event.SentimentResult{Score: 0.8, ModelUsed: "finbert", PerModel: map[string]float64{"finbert": 0.8}}}
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{}
	breaker := &fakeBreaker{}

	c := New(scorer, testEngine(), zerolog.Nop(),
		WithBreaker(breaker),
		WithRecorder(recorder),
		WithPublisher(publisher),
	)

	res := c.Process(context.Background(), newsEvent("Fed cuts rates by 50bps"))
	if res.Dropped {
		t.Fatalf("unexpected drop: %s", res.DropReason)
	}
	if res.Signal == nil || res.Signal.Side != event.SideBuy || res.Signal.Reason != signal.ReasonBullish {
		t.Fatalf("unexpected signal: %+v", res.Signal)
	}
	if res.PersistedID == nil || *res.PersistedID != 1 {
		t.Fatalf("expected persisted id 1, got %v", res.PersistedID)
	}
	if breaker.reads != 1 {
		t.Fatalf("expected one fresh breaker read, got %d", breaker.reads)
	}
	if len(recorder.sentiments) != 1 || recorder.sentiments[0].ModelUsed != "finbert" {
		t.Fatalf("unexpected persisted rows: %+v", recorder.sentiments)
	}
	if recorder.sentiments[0].ContentHash == "" {
		t.Fatal("expected content hash recorded")
	}
	if len(publisher.snapshots) != 1 {
		t.Fatalf("expected one snapshot published, got %d", len(publisher.snapshots))
	}
	snap := publisher.snapshots[0]
	if snap.SignalSide != "buy" || snap.Source != "alpaca" || snap.SourceID != "a1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Symbols) != 1 || snap.Symbols[0] != "SPY" {
		t.Fatalf("expected symbols carried into snapshot: %+v", snap.Symbols)
	}
	if ts, err := time.Parse(time.RFC3339, snap.At); err != nil || ts.Location() != time.UTC {
		t.Fatalf("snapshot timestamp not UTC RFC3339: %q err %v", snap.At, err)
	}

	c.Process(context.Background(), newsEvent("second headline"))
	if breaker.reads != 2 {
		t.Fatalf("expected a fresh breaker read per event, got %d", breaker.reads)
	}
}

func TestProcessEmptyTextIsNoOp(t *testing.T) {
	scorer := &fakeScorer{}
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{}

	c := New(scorer, testEngine(), zerolog.Nop(), WithRecorder(recorder), WithPublisher(publisher))
	res := c.Process(context.Background(), newsEvent(""))

	if !res.Dropped || res.DropReason != "empty_text" {
		t.Fatalf("expected empty_text drop, got %+v", res)
	}
	if scorer.calls != 0 {
		t.Fatalf("expected no scorer calls, got %d", scorer.calls)
	}
	if len(recorder.sentiments) != 0 || len(publisher.snapshots) != 0 {
		t.Fatal("expected no writes for empty text")
	}
	if res.Sentiment != nil || res.Signal != nil {
		t.Fatalf("expected nil sentiment and signal, got %+v", res)
	}
}

func TestProcessPersistFailureStillPublishes(t *testing.T) {
	scorer := &fakeScorer{result: event.SentimentResult{Score: 0.9, ModelUsed: "finbert"}}
	recorder := &fakeRecorder{fail: true}
	publisher := &fakePublisher{}

	c := New(scorer, testEngine(), zerolog.Nop(), WithRecorder(recorder), WithPublisher(publisher))
	res := c.Process(context.Background(), newsEvent("blowout earnings"))

	if res.Dropped {
		t.Fatalf("unexpected drop: %s", res.DropReason)
	}
	if res.PersistedID != nil {
		t.Fatalf("expected nil persisted id after failure, got %v", *res.PersistedID)
	}
	if res.Signal == nil || res.Signal.Side != event.SideBuy {
		t.Fatalf("expected signal despite persist failure, got %+v", res.Signal)
	}
	if len(publisher.snapshots) != 1 {
		t.Fatalf("expected snapshot still published, got %d", len(publisher.snapshots))
	}
}

func TestProcessBreakerTrippedForcesHold(t *testing.T) {
	scorer := &fakeScorer{result: event.SentimentResult{Score: 0.9, ModelUsed: "finbert"}}
	c := New(scorer, testEngine(), zerolog.Nop(), WithBreaker(&fakeBreaker{tripped: true}))

	res := c.Process(context.Background(), newsEvent("moon mission confirmed"))
	if res.Signal.Side != event.SideHold || res.Signal.Reason != signal.ReasonCircuitBreaker {
		t.Fatalf("expected breaker hold, got %+v", res.Signal)
	}
}

func TestProcessBreakerReadErrorFailsOpen(t *testing.T) {
	scorer := &fakeScorer{result: event.SentimentResult{Score: 0.9, ModelUsed: "finbert"}}
	c := New(scorer, testEngine(), zerolog.Nop(), WithBreaker(&fakeBreaker{err: errors.New("redis down")}))

	res := c.Process(context.Background(), newsEvent("strong guidance"))
	if res.Signal.Side != event.SideBuy {
		t.Fatalf("expected breaker read failure treated as clear, got %+v", res.Signal)
	}
}

func TestProcessPublishFailureNonFatal(t *testing.T) {
	scorer := &fakeScorer{result: event.SentimentResult{Score: 0.9, ModelUsed: "finbert"}}
	recorder := &fakeRecorder{}
	c := New(scorer, testEngine(), zerolog.Nop(),
		WithRecorder(recorder),
		WithPublisher(&fakePublisher{err: errors.New("cache down")}),
	)

	res := c.Process(context.Background(), newsEvent("guidance raised"))
	if res.Signal == nil || res.PersistedID == nil {
		t.Fatalf("expected full result despite publish failure, got %+v", res)
	}
}

func TestProcessSocialRelevanceGate(t *testing.T) {
	scorer := &fakeScorer{result: event.SentimentResult{Score: 0.9, ModelUsed: "finbert"}}
	c := New(scorer, testEngine(), zerolog.Nop(), WithRelevanceThreshold(0.25))

	offTopic := &event.SocialEvent{PostID: "p1", Source: "reddit", Title: "my cat did a thing"}
	res := c.Process(context.Background(), offTopic)
	if !res.Dropped || res.DropReason != "low_relevance" {
		t.Fatalf("expected low_relevance drop, got %+v", res)
	}
	if scorer.calls != 0 {
		t.Fatal("expected scorer skipped for irrelevant post")
	}

	onTopic := &event.SocialEvent{PostID: "p2", Source: "reddit", Title: "SPY calls printing", Likes: 100, Replies: 20}
	res = c.Process(context.Background(), onTopic)
	if res.Dropped {
		t.Fatalf("unexpected drop: %s", res.DropReason)
	}
	if onTopic.RelevanceScore <= 0 || len(onTopic.KeywordsMatched) == 0 {
		t.Fatalf("expected relevance recorded on event, got %v %v", onTopic.RelevanceScore, onTopic.KeywordsMatched)
	}
	if scorer.calls != 1 {
		t.Fatalf("expected scorer called once, got %d", scorer.calls)
	}
}

func TestProcessTruncatesSnapshotHeadline(t *testing.T) {
	scorer := &fakeScorer{result: event.SentimentResult{Score: 0.1, ModelUsed: "finbert"}}
	publisher := &fakePublisher{}
	c := New(scorer, testEngine(), zerolog.Nop(), WithPublisher(publisher))

	c.Process(context.Background(), newsEvent(strings.Repeat("h", 300)))
	if len(publisher.snapshots) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(publisher.snapshots))
	}
	if got := len([]rune(publisher.snapshots[0].Headline)); got != 200 {
		t.Fatalf("expected headline capped at 200 runes, got %d", got)
	}
}

func TestProcessWithoutCollaborators(t *testing.T) {
	scorer := &fakeScorer{result: event.SentimentResult{Score: 0.2, ModelUsed: "finbert"}}
	c := New(scorer, testEngine(), zerolog.Nop())

	res := c.Process(context.Background(), newsEvent("quiet tape"))
	if res.Dropped || res.Signal == nil {
		t.Fatalf("expected degraded-but-complete run, got %+v", res)
	}
	if res.PersistedID != nil {
		t.Fatal("expected nil persisted id without a recorder")
	}
}

func TestRunDrainsChannel(t *testing.T) {
	scorer := &fakeScorer{result: event.SentimentResult{Score: 0.1, ModelUsed: "finbert"}}
	c := New(scorer, testEngine(), zerolog.Nop())

	events := make(chan event.Event, 2)
	events <- newsEvent("first")
	events <- newsEvent("second")
	close(events)

	if err := c.Run(context.Background(), events); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if scorer.calls != 2 {
		t.Fatalf("expected both events processed, got %d", scorer.calls)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	scorer := &fakeScorer{result: event.SentimentResult{Score: 0.1, ModelUsed: "finbert"}}
	c := New(scorer, testEngine(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Run(ctx, make(chan event.Event))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
