// Package signal derives trade recommendations from sentiment under a safety gate.
package signal

import (
	"time"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/event"
)

// Reason codes attached to every signal. The dashboard and persistence layers
// treat these as a closed enum.
const (
	ReasonCircuitBreaker = "circuit_breaker"
	ReasonLowConfidence  = "low_confidence"
	ReasonBullish        = "sentiment_bullish"
	ReasonBearish        = "sentiment_bearish"
	ReasonNeutral        = "neutral"
)

// Default thresholds applied when configuration leaves them unset.
const (
	DefaultBullish       = 0.6
	DefaultBearish       = -0.6
	DefaultMinConfidence = 0.7
)

// Engine holds the configured decision thresholds. Bullish and Bearish may be
// asymmetric; neither needs to be the negative of the other.
type Engine struct {
	Bullish       float64
	Bearish       float64
	MinConfidence float64
}

// NewEngine builds an Engine, substituting defaults for zero thresholds.
func NewEngine(bullish, bearish, minConfidence float64) Engine {
	if bullish == 0 {
		bullish = DefaultBullish
	}
	if bearish == 0 {
		bearish = DefaultBearish
	}
	if minConfidence == 0 {
		minConfidence = DefaultMinConfidence
	}
	return Engine{Bullish: bullish, Bearish: bearish, MinConfidence: minConfidence}
}

// Evaluate maps one sentiment reading onto a trade side. Pure and
// deterministic. Check order matters: the breaker overrides everything,
// then the confidence gate, then the score thresholds.
func (e Engine) Evaluate(score, confidence float64, breakerTripped bool) event.Signal {
	sig := event.Signal{Score: score, At: time.Now().UTC()}
	switch {
	case breakerTripped:
		sig.Side, sig.Reason = event.SideHold, ReasonCircuitBreaker
	case confidence < e.MinConfidence:
		sig.Side, sig.Reason = event.SideHold, ReasonLowConfidence
	case score >= e.Bullish:
		sig.Side, sig.Reason = event.SideBuy, ReasonBullish
	case score <= e.Bearish:
		sig.Side, sig.Reason = event.SideSell, ReasonBearish
	default:
		sig.Side, sig.Reason = event.SideHold, ReasonNeutral
	}
	return sig
}
