// Package ingest hosts the adapters that feed external events into the pipeline.
package ingest

import (
	"context"
	"encoding/json"
	"sync"
)

// Status describes where an adapter sits in its lifecycle.
type Status string

const (
	// StatusStopped means the adapter is not running; restart is external.
	StatusStopped Status = "stopped"
	// StatusStarting means the adapter is connecting or warming up.
	StatusStarting Status = "starting"
	// StatusRunning means the adapter is healthy and emitting.
	StatusRunning Status = "running"
	// StatusDegraded means the last cycle had failures; not terminal for pollers.
	StatusDegraded Status = "degraded"
)

// Adapter is one event source with its own lifecycle. Run blocks until the
// source terminates or the context ends; a returned error never takes other
// adapters down with it.
type Adapter interface {
	Name() string
	Run(ctx context.Context) error
	Status() Status
}

// StatusTracker holds an adapter's lifecycle state, safe for concurrent reads
// from the status API while the adapter goroutine writes.
type StatusTracker struct {
	mu     sync.RWMutex
	status Status
}

// NewStatusTracker starts in the stopped state.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{status: StatusStopped}
}

// Set records a lifecycle transition.
func (t *StatusTracker) Set(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Status returns the current lifecycle state.
func (t *StatusTracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// decodeFrame accepts a JSON array or a single object as the top-level shape
// and returns only the object items; everything else is skipped.
func decodeFrame(message []byte) []map[string]any {
	var list []any
	if err := json.Unmarshal(message, &list); err == nil {
		items := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if obj, ok := item.(map[string]any); ok {
				items = append(items, obj)
			}
		}
		return items
	}
	var single map[string]any
	if err := json.Unmarshal(message, &single); err == nil {
		return []map[string]any{single}
	}
	return nil
}
