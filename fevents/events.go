package fevents

import (
	"github.com/flagcore/flagcore-go/freason"
	"github.com/flagcore/flagcore-go/fuser"
	"github.com/flagcore/flagcore-go/fvalue"
)

// BaseEvent carries the fields common to every event kind.
type BaseEvent struct {
	CreationDate int64
	User         fuser.User
}

// Event is implemented by every event kind the pipeline can buffer.
type Event interface {
	GetBase() BaseEvent
}

// IdentifyEvent records that a user was seen, independent of any flag
// evaluation; it always carries the full (scrubbed) user.
type IdentifyEvent struct {
	BaseEvent
}

// GetBase implements Event.
func (e IdentifyEvent) GetBase() BaseEvent { return e.BaseEvent }

// IndexEvent registers a user's full attributes the first time the
// pipeline notices that user key, so that later feature events can refer
// to it by key alone.
type IndexEvent struct {
	BaseEvent
}

// GetBase implements Event.
func (e IndexEvent) GetBase() BaseEvent { return e.BaseEvent }

// FeatureRequestEvent records (or debugs) a single flag evaluation.
type FeatureRequestEvent struct {
	BaseEvent
	Key                  string
	Version              int
	Variation            int
	Value                fvalue.Value
	Default              fvalue.Value
	Reason               freason.EvaluationReason
	PrereqOf             string
	TrackEvents          bool
	DebugEventsUntilDate int64
	Debug                bool
}

// GetBase implements Event.
func (e FeatureRequestEvent) GetBase() BaseEvent { return e.BaseEvent }

// CustomEvent records an application-defined metric, optionally with a
// numeric value for aggregate dashboards.
type CustomEvent struct {
	BaseEvent
	Key         string
	Data        fvalue.Value
	HasMetric   bool
	MetricValue float64
}

// GetBase implements Event.
func (e CustomEvent) GetBase() BaseEvent { return e.BaseEvent }

// EventFactory builds events with a consistent creation timestamp source
// and a fixed policy for whether evaluation reasons are always attached.
type EventFactory struct {
	withReasons bool
	currentTime func() int64
}

// NewEventFactory creates a factory. currentTimeFn may be nil to use time.Now.
func NewEventFactory(withReasons bool, currentTimeFn func() int64) EventFactory {
	if currentTimeFn == nil {
		currentTimeFn = defaultCurrentTime
	}
	return EventFactory{withReasons: withReasons, currentTime: currentTimeFn}
}

func (f EventFactory) newBase(user fuser.User) BaseEvent {
	return BaseEvent{CreationDate: f.currentTime(), User: user}
}

// NewIdentifyEvent creates an IdentifyEvent for user.
func (f EventFactory) NewIdentifyEvent(user fuser.User) IdentifyEvent {
	return IdentifyEvent{BaseEvent: f.newBase(user)}
}

// NewCustomEvent creates a CustomEvent for eventKey.
func (f EventFactory) NewCustomEvent(eventKey string, user fuser.User, data fvalue.Value, hasMetric bool, metricValue float64) CustomEvent {
	return CustomEvent{
		BaseEvent:   f.newBase(user),
		Key:         eventKey,
		Data:        data,
		HasMetric:   hasMetric,
		MetricValue: metricValue,
	}
}

// FlagEventProperties is the subset of a flag's fields an event needs, so
// that the events package does not depend on fmodel directly.
type FlagEventProperties struct {
	Key                  string
	Version              int
	TrackEvents          bool
	TrackEventsFallthrough bool
	DebugEventsUntilDate int64
	// RuleTrackEvents is indexed identically to the flag's own Rules slice;
	// RuleTrackEvents[i] is true if that rule has tracking enabled.
	RuleTrackEvents []bool
}

// isExperimentationEnabled reports whether reason, on its own, should force
// this event to report full tracking and an always-on reason, independent
// of the caller's withReasons/variationDetail choice: true if a rule with
// tracking enabled was matched, or the fallthrough was reached on a flag
// with TrackEventsFallthrough set.
func (p FlagEventProperties) isExperimentationEnabled(reason freason.EvaluationReason) bool {
	switch reason.Kind() {
	case freason.Fallthrough:
		return p.TrackEventsFallthrough
	case freason.RuleMatch:
		if i, ok := reason.RuleIndex(); ok && i >= 0 && i < len(p.RuleTrackEvents) {
			return p.RuleTrackEvents[i]
		}
	}
	return false
}

// NewEvalEvent creates a FeatureRequestEvent for one evaluation result.
// prereqOfFlagKey is non-empty when this evaluation happened only to
// satisfy another flag's prerequisite chain.
func (f EventFactory) NewEvalEvent(
	flag FlagEventProperties,
	user fuser.User,
	variation int,
	value fvalue.Value,
	defaultValue fvalue.Value,
	reason freason.EvaluationReason,
	prereqOfFlagKey string,
) FeatureRequestEvent {
	e := FeatureRequestEvent{
		BaseEvent:            f.newBase(user),
		Key:                  flag.Key,
		Version:              flag.Version,
		Variation:            variation,
		Value:                value,
		Default:              defaultValue,
		PrereqOf:             prereqOfFlagKey,
		TrackEvents:          flag.TrackEvents,
		DebugEventsUntilDate: flag.DebugEventsUntilDate,
	}
	if f.withReasons || flag.isExperimentationEnabled(reason) {
		e.Reason = reason
	}
	return e
}

func defaultCurrentTime() int64 {
	return nowUnixMillis()
}
