// Package event standardizes payloads shared between ingestion adapters and the scoring pipeline.
package event

import (
	"math"
	"strings"
	"time"
)

// Kind discriminates the event families the pipeline knows how to score.
type Kind string

const (
	// KindNews marks events coming from editorial news streams.
	KindNews Kind = "news"
	// KindSocial marks events coming from social chatter sources.
	KindSocial Kind = "social"
)

// Event is the unit of work adapters emit and the coordinator consumes.
type Event interface {
	EventKind() Kind
	EventSource() string
	EventID() string
	ScoringText() string
}

// NewsEvent models one editorial headline with optional enrichment fields.
type NewsEvent struct {
	ArticleID  string
	Source     string
	Headline   string
	Summary    string
	Author     string
	URL        string
	Symbols    []string
	CreatedAt  time.Time // zero when the source omitted or mangled it
	ReceivedAt time.Time
	Raw        map[string]any
}

// EventKind identifies the event family.
func (e *NewsEvent) EventKind() Kind { return KindNews }

// EventSource names the upstream feed the article arrived from.
func (e *NewsEvent) EventSource() string { return e.Source }

// EventID returns the source-unique article identifier.
func (e *NewsEvent) EventID() string { return e.ArticleID }

// ScoringText joins headline and summary into the text handed to sentiment backends.
func (e *NewsEvent) ScoringText() string {
	return strings.TrimSpace(e.Headline + " " + e.Summary)
}

// SocialEvent models a social post plus its engagement counters.
type SocialEvent struct {
	PostID          string
	Source          string
	Subreddit       string
	Title           string
	Content         string
	Author          string
	URL             string
	Likes           int
	Shares          int
	Replies         int
	Views           int
	AuthorVerified  bool
	RelevanceScore  float64  // computed downstream, never source-provided
	KeywordsMatched []string // derived alongside RelevanceScore
	CreatedAt       time.Time
	ReceivedAt      time.Time
	Raw             map[string]any
}

// EventKind identifies the event family.
func (e *SocialEvent) EventKind() Kind { return KindSocial }

// EventSource names the platform the post came from.
func (e *SocialEvent) EventSource() string { return e.Source }

// EventID returns the source-unique post identifier.
func (e *SocialEvent) EventID() string { return e.PostID }

// ScoringText joins title and body into the text handed to sentiment backends.
func (e *SocialEvent) ScoringText() string {
	return strings.TrimSpace(e.Title + " " + e.Content)
}

// SentimentResult aggregates per-model readings into one combined score.
type SentimentResult struct {
	Score     float64
	ModelUsed string
	PerModel  map[string]float64
}

// Neutral returns the zero-signal result used when no model produced a score.
func Neutral() SentimentResult {
	return SentimentResult{Score: 0, ModelUsed: "none", PerModel: map[string]float64{}}
}

// Confidence reads the magnitude of the combined score as model conviction.
func (r SentimentResult) Confidence() float64 { return math.Abs(r.Score) }

// Side enumerates the trade directions a signal can recommend.
type Side string

const (
	// SideBuy recommends opening or adding long exposure.
	SideBuy Side = "buy"
	// SideSell recommends opening or adding short exposure.
	SideSell Side = "sell"
	// SideHold recommends no action.
	SideHold Side = "hold"
)

// Signal expresses the trade bias derived from one scored event.
type Signal struct {
	Side   Side
	Reason string
	Score  float64
	At     time.Time
}

// Snapshot is the compact live-state payload published after each scored event.
type Snapshot struct {
	Score        float64  `json:"score"`
	ModelUsed    string   `json:"model_used"`
	Source       string   `json:"source"`
	SourceID     string   `json:"source_id"`
	Headline     string   `json:"headline"`
	Symbols      []string `json:"symbols"`
	SignalSide   string   `json:"signal_side"`
	SignalReason string   `json:"signal_reason"`
	At           string   `json:"at"`
}
