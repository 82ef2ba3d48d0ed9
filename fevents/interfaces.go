// Package fevents is the analytics event pipeline: it buffers evaluation,
// identify, and custom events, folds repeated evaluations into summary
// counters, deduplicates per-user index events with a bounded LRU cache,
// and flushes batches to the events service through a small pool of
// worker goroutines.
package fevents

import (
	"net/http"
	"time"

	"github.com/flagcore/flagcore-go/flog"
)

// EventProcessor is the public surface the client facade talks to.
type EventProcessor interface {
	// SendEvent records an event asynchronously; never blocks the caller.
	SendEvent(Event)
	// Flush requests an out-of-cycle flush of buffered events.
	Flush()
	// Close flushes any remaining events and stops all background work.
	Close() error
}

// EventSenderResult is returned by attempts to deliver a batch of events.
type EventSenderResult struct {
	Success        bool
	MustShutDown   bool
	TimeFromServer uint64
}

const (
	// DefaultFlushInterval is how often buffered events are flushed automatically.
	DefaultFlushInterval = 5 * time.Second
	// DefaultUserKeysCapacity bounds the per-user index-event dedup cache.
	DefaultUserKeysCapacity = 1000
	// DefaultUserKeysFlushInterval is how often the dedup cache is cleared, so that
	// returning users eventually generate a fresh index event again.
	DefaultUserKeysFlushInterval = 5 * time.Minute
	// DefaultCapacity bounds the number of events buffered between flushes.
	DefaultCapacity = 10000

	maxFlushWorkers    = 5
	eventSchemaHeader  = "X-Flagcore-Event-Schema"
	payloadIDHeader    = "X-Flagcore-Payload-Id"
	currentEventSchema = "3"
)

// Config controls the behavior of the event pipeline.
type Config struct {
	// EventsURI is where batches of events are POSTed.
	EventsURI string
	// Capacity bounds the number of events buffered between flushes; once
	// exceeded, further events are dropped (with a single warning log).
	Capacity int
	// FlushInterval is the automatic flush period.
	FlushInterval time.Duration
	// UserKeysCapacity bounds the LRU cache used to dedup index events.
	UserKeysCapacity int
	// UserKeysFlushInterval is how often the dedup cache is cleared.
	UserKeysFlushInterval time.Duration
	// AllAttributesPrivate, if true, strips every custom/built-in attribute
	// (other than key) from every user sent in an event.
	AllAttributesPrivate bool
	// PrivateAttributeNames marks attributes private globally, in addition to
	// any the user itself marked private via its builder.
	PrivateAttributeNames []string
	// InlineUsersInEvents includes the full (scrubbed) user in every feature
	// event instead of just a key, skipping index-event deduplication.
	InlineUsersInEvents bool
	// HTTPClient is the client used to POST event batches.
	HTTPClient *http.Client
	// Headers are added to every POST (e.g. an SDK key / authorization header).
	Headers http.Header
	// Loggers is the destination for pipeline diagnostics.
	Loggers *flog.Loggers
}
