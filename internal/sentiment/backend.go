// Package sentiment turns event text into bounded sentiment scores by fanning
// out to remote model backends and combining their answers.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Backend scores a piece of text in [-1, 1]. Implementations wrap one model.
type Backend interface {
	Name() string
	Score(ctx context.Context, text string) (float64, error)
}

// HTTPBackend calls a remote classifier that returns a label distribution.
type HTTPBackend struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPBackend builds a backend targeting one model server endpoint.
func NewHTTPBackend(name, url string, timeout time.Duration) *HTTPBackend {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPBackend{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the configured backend identifier.
func (b *HTTPBackend) Name() string { return b.name }

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Score posts the text and reduces the returned label distribution to a single
// polarity: P(positive) minus P(negative). Neutral mass is ignored.
func (b *HTTPBackend) Score(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call %s: %w", b.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%s returned status %d", b.name, resp.StatusCode)
	}

	dist, err := decodeDistribution(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("decode %s response: %w", b.name, err)
	}

	var positive, negative float64
	for _, entry := range dist {
		label := strings.ToLower(entry.Label)
		switch {
		case strings.HasPrefix(label, "pos"):
			positive += entry.Score
		case strings.HasPrefix(label, "neg"):
			negative += entry.Score
		}
	}
	return positive - negative, nil
}

// decodeDistribution accepts both a flat list and the nested list-of-lists
// shape some classifier servers emit for batch-of-one requests.
func decodeDistribution(r io.Reader) ([]labelScore, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}
	return nil, fmt.Errorf("unrecognized distribution shape")
}
