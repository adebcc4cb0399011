// Package relevance scores social chatter against a fixed finance vocabulary.
package relevance

import (
	"math"
	"strings"
)

// Vocabulary is the fixed keyword set matched against post text. Matching is
// case-insensitive substring containment; each term counts at most once.
var Vocabulary = []string{
	"spy", "spx", "qqq", "dow", "nasdaq", "s&p", "etf",
	"options", "calls", "puts", "0dte", "expiration", "strike",
	"bullish", "bearish", "rally", "crash", "pump", "dump",
	"volatility", "iv", "theta", "premium",
}

const (
	keywordWeight = 0.2
	likesCap      = 0.4
	likesWeight   = 0.1
	likesUnit     = 50.0
	repliesCap    = 0.2
	repliesWeight = 0.05
	repliesUnit   = 10.0
)

// Score rates how on-topic a post is for market chatter. It returns a value in
// [0, 1] plus the vocabulary terms that matched. Deterministic and pure.
func Score(text string, likes, replies int) (float64, []string) {
	lowered := strings.ToLower(text)
	var matched []string
	for _, term := range Vocabulary {
		if strings.Contains(lowered, term) {
			matched = append(matched, term)
		}
	}

	score := keywordWeight * float64(len(matched))
	score += math.Min(likesCap, likesWeight*float64(likes)/likesUnit)
	score += math.Min(repliesCap, repliesWeight*float64(replies)/repliesUnit)
	return math.Min(1.0, score), matched
}
