// Package progress is the structured progress/event surface of §4.I: a
// single sink receives typed events, no prose. Mirrors the teacher's habit
// of passing capability objects (e.g. store.CostTrackingStore) through
// constructors rather than reaching for package-level globals, per DESIGN
// NOTES "Global progress handler". There is no process-wide default handler;
// callers that pass none get Silent.
package progress

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventKind enumerates the transitions the core emits (carried over from
// the original implementation's src/logging.rs event set, named exactly).
type EventKind string

const (
	EventProcessingStarted   EventKind = "processing_started"
	EventChunkingStarted     EventKind = "chunking_started"
	EventBatchProgress       EventKind = "batch_progress"
	EventModelCall           EventKind = "model_call"
	EventModelResponse       EventKind = "model_response"
	EventValidationStarted   EventKind = "validation_started"
	EventValidationCompleted EventKind = "validation_completed"
	EventAggregationStarted  EventKind = "aggregation_started"
	EventProcessingCompleted EventKind = "processing_completed"
	EventRetryAttempt        EventKind = "retry_attempt"
	EventError               EventKind = "error"
	EventDebug               EventKind = "debug"
)

// Event is one structured progress notification. Fields is an open bag for
// the kind-specific payload (chunk_id, batch_index, pass, class, ...).
type Event struct {
	Kind   EventKind
	Fields map[string]any
}

// Handler is the capability every orchestrator/controller call accepts
// explicitly (never read from a package global), per DESIGN NOTES.
type Handler interface {
	Handle(Event)
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc func(Event)

func (f HandlerFunc) Handle(e Event) { f(e) }

// Silent discards every event. Used when the caller passes no handler.
type Silent struct{}

func (Silent) Handle(Event) {}

// Logrus forwards every event to a *logrus.Logger at an appropriate level,
// the way the teacher's services log at each retry/switch decision point
// (internal/services/embedding_service.go).
type Logrus struct {
	Log *logrus.Logger
}

// NewLogrus builds a Logrus handler; a nil logger falls back to
// logrus.StandardLogger().
func NewLogrus(log *logrus.Logger) *Logrus {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Logrus{Log: log}
}

func (l *Logrus) Handle(e Event) {
	entry := l.Log.WithFields(logrus.Fields(e.Fields))
	switch e.Kind {
	case EventError:
		entry.Error(e.Kind)
	case EventRetryAttempt:
		entry.Warn(e.Kind)
	case EventDebug:
		entry.Debug(e.Kind)
	default:
		entry.Info(e.Kind)
	}
}

// Collector accumulates events in memory, useful for tests and for UIs that
// want to replay the sequence. Alongside Silent and Logrus it is the third
// built-in consumer; there is no console handler.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func NewCollector() *Collector { return &Collector{} }

func (c *Collector) Handle(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a snapshot of all collected events in emission order.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Fields is a tiny builder to keep call sites terse:
// progress.Fields{"chunk_id": 3, "pass": 1}.
type Fields map[string]any

func f(kind EventKind, fields Fields) Event {
	return Event{Kind: kind, Fields: map[string]any(fields)}
}

// Emit is a convenience that no-ops on a nil handler (so callers never need
// a nil check before notifying).
func Emit(h Handler, kind EventKind, fields Fields) {
	if h == nil {
		return
	}
	h.Handle(f(kind, fields))
}

// Errorf emits an EventError with a formatted message field, mirroring the
// teacher's log.Printf("ERROR: ...") call sites.
func Errorf(h Handler, format string, args ...any) {
	Emit(h, EventError, Fields{"message": fmt.Sprintf(format, args...)})
}
