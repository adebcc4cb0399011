package signal

import (
	"testing"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/event"
)

func TestEvaluateThresholdTable(t *testing.T) {
	engine := NewEngine(0.6, -0.6, 0.7)

	cases := map[string]struct {
		score      float64
		confidence float64
		tripped    bool
		side       event.Side
		reason     string
	}{
		"bullish":            {score: 0.8, confidence: 0.9, side: event.SideBuy, reason: ReasonBullish},
		"bearish":            {score: -0.7, confidence: 0.9, side: event.SideSell, reason: ReasonBearish},
		"neutral":            {score: 0.1, confidence: 0.9, side: event.SideHold, reason: ReasonNeutral},
		"low confidence":     {score: 0.9, confidence: 0.5, side: event.SideHold, reason: ReasonLowConfidence},
		"breaker overrides":  {score: 0.9, confidence: 1.0, tripped: true, side: event.SideHold, reason: ReasonCircuitBreaker},
		"exactly at bullish": {score: 0.6, confidence: 0.9, side: event.SideBuy, reason: ReasonBullish},
		"exactly at bearish": {score: -0.6, confidence: 0.9, side: event.SideSell, reason: ReasonBearish},
	}

	for name, tc := range cases {
		got := engine.Evaluate(tc.score, tc.confidence, tc.tripped)
		if got.Side != tc.side || got.Reason != tc.reason {
			t.Fatalf("%s: expected %s/%s, got %s/%s", name, tc.side, tc.reason, got.Side, got.Reason)
		}
		if got.Score != tc.score {
			t.Fatalf("%s: expected score carried through, got %v", name, got.Score)
		}
		if got.At.IsZero() {
			t.Fatalf("%s: expected signal timestamp set", name)
		}
	}
}

func TestEvaluateBreakerBeatsLowConfidence(t *testing.T) {
	engine := NewEngine(0.6, -0.6, 0.7)
	got := engine.Evaluate(0.9, 0.1, true)
	if got.Reason != ReasonCircuitBreaker {
		t.Fatalf("expected breaker to win over low confidence, got %s", got.Reason)
	}
}

func TestEvaluateAsymmetricThresholds(t *testing.T) {
	engine := NewEngine(0.3, -0.8, 0.1)
	if got := engine.Evaluate(0.4, 1.0, false); got.Side != event.SideBuy {
		t.Fatalf("expected buy at 0.4 with bullish=0.3, got %s", got.Side)
	}
	if got := engine.Evaluate(-0.5, 1.0, false); got.Side != event.SideHold {
		t.Fatalf("expected hold at -0.5 with bearish=-0.8, got %s", got.Side)
	}
}

func TestNewEngineDefaults(t *testing.T) {
	engine := NewEngine(0, 0, 0)
	if engine.Bullish != DefaultBullish || engine.Bearish != DefaultBearish || engine.MinConfidence != DefaultMinConfidence {
		t.Fatalf("unexpected defaults: %+v", engine)
	}
}
