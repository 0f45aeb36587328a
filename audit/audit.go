// Package audit records recent engine invocations in a bounded ring buffer
// and publishes live execution events to an optional observer.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of entries retained when none is configured.
const DefaultCapacity = 100

// EventType identifies a point in an invocation's lifecycle.
type EventType string

const (
	// EventStarted fires when an execution environment begins a run.
	EventStarted EventType = "started"

	// EventDataLoaded fires after input data is serialized for execution.
	EventDataLoaded EventType = "data_loaded"

	// EventOutputGenerated fires when a run produced a parseable summary.
	EventOutputGenerated EventType = "output_generated"

	// EventFailed fires when a run could not produce a summary.
	EventFailed EventType = "failed"
)

// Event is a fire-and-forget notification about an in-flight invocation.
type Event struct {
	Type       EventType `json:"type"`
	Mode       string    `json:"mode"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Observer receives live events. Observers are best-effort: a panicking or
// slow observer must not fail the invocation that produced the event.
type Observer func(Event)

// Entry records the outcome of one engine invocation.
type Entry struct {
	RequestID       string  `json:"request_id"`
	TemplateID      string  `json:"template_id,omitempty"`
	Mode            string  `json:"mode"`
	Events          []Event `json:"events,omitempty"`
	DurationMs      int64   `json:"duration_ms"`
	Success         bool    `json:"success"`
	InputItemCount  int     `json:"input_item_count"`
	OutputItemCount int     `json:"output_item_count"`
}

// NewRequestID returns a unique id for one invocation.
func NewRequestID() string {
	return uuid.NewString()
}

// Log is a bounded FIFO record of recent invocations.
//
// Contract:
// - Concurrency: safe for concurrent use from multiple goroutines.
// - Eviction: once capacity is reached the oldest entries are dropped first.
type Log struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
	observer Observer
}

// NewLog creates a log retaining at most capacity entries. Non-positive
// capacities fall back to DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Record appends an entry, evicting from the front when over capacity.
func (l *Log) Record(e Entry) {
	if e.RequestID == "" {
		e.RequestID = NewRequestID()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(l.entries) - 1; i >= len(l.entries)-limit; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear empties the buffer.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// SetObserver installs the single live-event observer. Passing nil removes it.
func (l *Log) SetObserver(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = o
}

// Notify delivers an event to the observer, if any. A zero timestamp is
// filled in. Observer panics are swallowed.
func (l *Log) Notify(e Event) {
	l.mu.Lock()
	o := l.observer
	l.mu.Unlock()
	if o == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	defer func() { _ = recover() }()
	o(e)
}
