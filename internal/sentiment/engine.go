package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/event"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/metrics"
)

// MaxBackendRunes caps how much text is shipped to a model server per call.
const MaxBackendRunes = 4000

// Engine fans event text out to every configured backend and averages the answers.
type Engine struct {
	backends []Backend
	log      zerolog.Logger
}

// NewEngine builds an Engine over the given backends, queried in order.
func NewEngine(log zerolog.Logger, backends ...Backend) *Engine {
	return &Engine{backends: backends, log: log}
}

// Backends reports the configured backend names in call order.
func (e *Engine) Backends() []string {
	names := make([]string, len(e.backends))
	for i, b := range e.backends {
		names[i] = b.Name()
	}
	return names
}

// Analyze scores text across all backends and combines the successful answers
// into an unweighted mean clamped to [-1, 1]. Empty or whitespace-only text
// short-circuits to the neutral result without touching any backend; total
// backend failure degrades to the same neutral result. Analyze never fails.
func (e *Engine) Analyze(ctx context.Context, text string) event.SentimentResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return event.Neutral()
	}
	capped := event.TruncateRunes(trimmed, MaxBackendRunes)

	perModel := make(map[string]float64, len(e.backends))
	var used []string
	var sum float64
	for _, backend := range e.backends {
		score, err := backend.Score(ctx, capped)
		if err != nil {
			metrics.BackendErrorsTotal.WithLabelValues(backend.Name()).Inc()
			e.log.Warn().Err(err).Str("backend", backend.Name()).Msg("sentiment backend failed")
			continue
		}
		perModel[backend.Name()] = score
		used = append(used, backend.Name())
		sum += score
	}
	if len(used) == 0 {
		return event.Neutral()
	}

	mean := sum / float64(len(used))
	mean = math.Max(-1, math.Min(1, mean))
	return event.SentimentResult{
		Score:     mean,
		ModelUsed: strings.Join(used, "+"),
		PerModel:  perModel,
	}
}
