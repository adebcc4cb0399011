package event

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxTextRunes bounds every free-text field accepted from a source payload.
const MaxTextRunes = 10000

// ErrMissingID rejects payloads that carry no usable identifying key.
var ErrMissingID = fmt.Errorf("payload missing identifying key")

// NormalizeNews builds a NewsEvent from a raw wire payload. Field extraction is
// tolerant: ids may arrive as JSON strings or numbers, timestamps that fail to
// parse leave CreatedAt zero, and unknown keys are ignored.
func NormalizeNews(raw map[string]any, source string, now time.Time) (*NewsEvent, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil payload")
	}
	id := stringField(raw, "id", "article_id")
	if id == "" {
		return nil, ErrMissingID
	}

	ev := &NewsEvent{
		ArticleID:  id,
		Source:     source,
		Headline:   TruncateRunes(stringField(raw, "headline", "title"), MaxTextRunes),
		Summary:    TruncateRunes(stringField(raw, "summary", "description"), MaxTextRunes),
		Author:     stringField(raw, "author"),
		URL:        stringField(raw, "url"),
		Symbols:    stringSliceField(raw, "symbols"),
		ReceivedAt: now.UTC(),
		Raw:        raw,
	}
	if ts, ok := timeField(raw, "created_at", "updated_at"); ok {
		ev.CreatedAt = ts
	}
	return ev, nil
}

// NormalizeSocial builds a SocialEvent from a raw wire payload. Engagement
// counters default to zero and are clamped non-negative; a missing author
// becomes "[deleted]"; a missing timestamp falls back to ingestion time.
func NormalizeSocial(raw map[string]any, source string, now time.Time) (*SocialEvent, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil payload")
	}
	id := stringField(raw, "id", "post_id")
	if id == "" {
		return nil, ErrMissingID
	}

	author := stringField(raw, "author")
	if author == "" {
		author = "[deleted]"
	}
	url := stringField(raw, "url")
	if url == "" {
		if permalink := stringField(raw, "permalink"); permalink != "" {
			url = "https://www.reddit.com" + permalink
		}
	}

	ev := &SocialEvent{
		PostID:         id,
		Source:         source,
		Subreddit:      stringField(raw, "subreddit"),
		Title:          TruncateRunes(stringField(raw, "title"), MaxTextRunes),
		Content:        TruncateRunes(stringField(raw, "content", "selftext", "text"), MaxTextRunes),
		Author:         author,
		URL:            url,
		Likes:          intField(raw, "likes", "score"),
		Shares:         intField(raw, "shares"),
		Replies:        intField(raw, "replies", "num_comments"),
		Views:          intField(raw, "views"),
		AuthorVerified: boolField(raw, "author_verified", "verified"),
		CreatedAt:      now.UTC(),
		ReceivedAt:     now.UTC(),
		Raw:            raw,
	}
	if secs, ok := floatValue(raw["created_utc"]); ok && secs > 0 {
		ev.CreatedAt = time.Unix(int64(secs), 0).UTC()
	} else if ts, ok := timeField(raw, "timestamp", "created_at"); ok {
		ev.CreatedAt = ts
	}
	return ev, nil
}

// TruncateRunes caps s at n runes without splitting a multi-byte character.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func stringField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

func intField(raw map[string]any, keys ...string) int {
	for _, key := range keys {
		if f, ok := floatValue(raw[key]); ok {
			if f < 0 {
				return 0
			}
			return int(f)
		}
	}
	return 0
}

func boolField(raw map[string]any, keys ...string) bool {
	for _, key := range keys {
		if b, ok := raw[key].(bool); ok {
			return b
		}
	}
	return false
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func timeField(raw map[string]any, keys ...string) (time.Time, bool) {
	for _, key := range keys {
		s, ok := raw[key].(string)
		if !ok || s == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func stringSliceField(raw map[string]any, key string) []string {
	items, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
