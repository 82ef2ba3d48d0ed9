package components

import (
	"time"

	"github.com/flagcore/flagcore-go/fevents"
)

// DefaultEventsBaseURI is the default analytics events endpoint.
const DefaultEventsBaseURI = "https://events.flagcore.io"

// EventProcessorFactory builds the EventProcessor a client sends analytics events through.
type EventProcessorFactory interface {
	Build(context ClientContext) (fevents.EventProcessor, error)
}

// EventProcessorBuilder configures analytics event delivery.
//
// The default configuration has events enabled with default settings. To
// customize it, obtain a builder with SendEvents, set its properties, and
// store it as the Events factory of a client Config. To disable analytics
// events entirely, use NoEvents instead.
type EventProcessorBuilder struct {
	baseURI                string
	capacity                int
	flushInterval           time.Duration
	allAttributesPrivate    bool
	privateAttributeNames   []string
	userKeysCapacity        int
	userKeysFlushInterval   time.Duration
	inlineUsersInEvents     bool
}

// SendEvents returns a configuration builder for analytics event delivery.
func SendEvents() *EventProcessorBuilder {
	return &EventProcessorBuilder{
		baseURI:               DefaultEventsBaseURI,
		capacity:              fevents.DefaultCapacity,
		flushInterval:         fevents.DefaultFlushInterval,
		userKeysCapacity:      fevents.DefaultUserKeysCapacity,
		userKeysFlushInterval: fevents.DefaultUserKeysFlushInterval,
	}
}

// BaseURI sets the events service base URI.
func (b *EventProcessorBuilder) BaseURI(uri string) *EventProcessorBuilder {
	if uri != "" {
		b.baseURI = uri
	}
	return b
}

// Capacity sets the maximum number of events buffered between flushes.
// Once exceeded, events are dropped until the next flush, with a single
// warning log.
func (b *EventProcessorBuilder) Capacity(capacity int) *EventProcessorBuilder {
	b.capacity = capacity
	return b
}

// FlushInterval sets the interval between automatic flushes of the event buffer.
func (b *EventProcessorBuilder) FlushInterval(interval time.Duration) *EventProcessorBuilder {
	b.flushInterval = interval
	return b
}

// AllAttributesPrivate strips every user attribute except key from every
// event, regardless of PrivateAttributeNames or per-user private marking.
func (b *EventProcessorBuilder) AllAttributesPrivate(value bool) *EventProcessorBuilder {
	b.allAttributesPrivate = value
	return b
}

// PrivateAttributeNames marks attribute names as private for every user,
// in addition to any a user marked private on its own builder. This
// replaces any names set by a previous call.
func (b *EventProcessorBuilder) PrivateAttributeNames(names ...string) *EventProcessorBuilder {
	b.privateAttributeNames = names
	return b
}

// UserKeysCapacity sets how many user keys the event processor remembers
// in order to avoid emitting duplicate index events.
func (b *EventProcessorBuilder) UserKeysCapacity(capacity int) *EventProcessorBuilder {
	b.userKeysCapacity = capacity
	return b
}

// UserKeysFlushInterval sets how often the user-key dedup cache is cleared.
func (b *EventProcessorBuilder) UserKeysFlushInterval(interval time.Duration) *EventProcessorBuilder {
	b.userKeysFlushInterval = interval
	return b
}

// InlineUsersInEvents includes the full (scrubbed) user in every feature
// event instead of an index event plus a bare user key.
func (b *EventProcessorBuilder) InlineUsersInEvents(value bool) *EventProcessorBuilder {
	b.inlineUsersInEvents = value
	return b
}

// Build is called internally by the client to construct the event processor.
func (b *EventProcessorBuilder) Build(context ClientContext) (fevents.EventProcessor, error) {
	config := fevents.Config{
		EventsURI:             b.baseURI + "/bulk",
		Capacity:              b.capacity,
		FlushInterval:         b.flushInterval,
		UserKeysCapacity:      b.userKeysCapacity,
		UserKeysFlushInterval: b.userKeysFlushInterval,
		AllAttributesPrivate:  b.allAttributesPrivate,
		PrivateAttributeNames: b.privateAttributeNames,
		InlineUsersInEvents:   b.inlineUsersInEvents,
		HTTPClient:            context.HTTP.CreateHTTPClient(),
		Headers:               context.HTTP.Headers,
		Loggers:               context.Loggers,
	}
	return fevents.NewDefaultEventProcessor(config), nil
}

type nullEventProcessorFactory struct{}

// Build implements EventProcessorFactory.
func (nullEventProcessorFactory) Build(context ClientContext) (fevents.EventProcessor, error) {
	return fevents.NewNullEventProcessor(), nil
}

// NoEvents returns a configuration object that disables analytics events:
// the client discards every event instead of sending it.
func NoEvents() EventProcessorFactory {
	return nullEventProcessorFactory{}
}
