package flagcore

import (
	"encoding/json"
	"time"

	"github.com/flagcore/flagcore-go/fmodel"
	"github.com/flagcore/flagcore-go/freason"
	"github.com/flagcore/flagcore-go/fuser"
	"github.com/flagcore/flagcore-go/fvalue"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

func nowUnixMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// FlagsStateOption alters AllFlagsState's behavior.
type FlagsStateOption int

const (
	// ClientSideOnly restricts the result to flags marked as available to
	// client-side SDKs.
	ClientSideOnly FlagsStateOption = iota
	// WithReasons includes the evaluation reason for each flag.
	WithReasons
	// DetailsOnlyForTrackedFlags omits variation/version/reason metadata for
	// flags that have neither TrackEvents nor an active debug window, to
	// reduce payload size when bootstrapping client-side flags.
	DetailsOnlyForTrackedFlags
)

func hasFlagsStateOption(options []FlagsStateOption, target FlagsStateOption) bool {
	for _, o := range options {
		if o == target {
			return true
		}
	}
	return false
}

type flagMetadata struct {
	variation            int
	version              int
	trackEvents          bool
	debugEventsUntilDate int64
	reason               freason.EvaluationReason
	hasReason            bool
}

// FeatureFlagsState is a snapshot of flag evaluation results for one user,
// suitable for bootstrapping a client-side SDK. Use json.Marshal to produce
// the wire representation client-side SDKs expect.
type FeatureFlagsState struct {
	valid        bool
	flagValues   map[string]fvalue.Value
	flagMetadata map[string]flagMetadata
}

func newFeatureFlagsState() FeatureFlagsState {
	return FeatureFlagsState{
		valid:        true,
		flagValues:   make(map[string]fvalue.Value),
		flagMetadata: make(map[string]flagMetadata),
	}
}

// IsValid reports whether the state was built successfully. A state built
// while the client was offline, while neither the client nor its store was
// initialized, or when the store could not be read is invalid and empty.
func (s FeatureFlagsState) IsValid() bool {
	return s.valid
}

// GetFlagValue returns the evaluated value of the named flag, or
// fvalue.Null() if the flag was not included in this state.
func (s FeatureFlagsState) GetFlagValue(key string) fvalue.Value {
	if v, ok := s.flagValues[key]; ok {
		return v
	}
	return fvalue.Null()
}

// GetFlagReason returns the evaluation reason recorded for the named flag,
// or a zero-value EvaluationReason if none was recorded (e.g. WithReasons
// was not requested).
func (s FeatureFlagsState) GetFlagReason(key string) freason.EvaluationReason {
	return s.flagMetadata[key].reason
}

// ToValuesMap returns a copy of every flag value in this state, keyed by flag key.
func (s FeatureFlagsState) ToValuesMap() map[string]fvalue.Value {
	result := make(map[string]fvalue.Value, len(s.flagValues))
	for k, v := range s.flagValues {
		result[k] = v
	}
	return result
}

func (s *FeatureFlagsState) addFlag(
	flag fmodel.FeatureFlag,
	value fvalue.Value,
	variation int,
	reason freason.EvaluationReason,
	withReason bool,
	omitDetailsUnlessTracked bool,
) {
	s.flagValues[flag.Key] = value

	inDebugWindow := flag.DebugEventsUntilDate != nil && *flag.DebugEventsUntilDate > nowUnixMillis()
	if omitDetailsUnlessTracked && !flag.TrackEvents && !inDebugWindow {
		return
	}

	meta := flagMetadata{variation: variation, version: flag.Version, trackEvents: flag.TrackEvents}
	if flag.DebugEventsUntilDate != nil {
		meta.debugEventsUntilDate = *flag.DebugEventsUntilDate
	}
	if withReason {
		meta.reason = reason
		meta.hasReason = true
	}
	s.flagMetadata[flag.Key] = meta
}

type wireFlagMetadata struct {
	Variation            int                       `json:"variation"`
	Version              int                       `json:"version"`
	TrackEvents           bool                      `json:"trackEvents,omitempty"`
	DebugEventsUntilDate  int64                     `json:"debugEventsUntilDate,omitempty"`
	Reason                *freason.EvaluationReason `json:"reason,omitempty"`
}

// MarshalJSON implements the client-side bootstrap wire format: every flag
// key maps directly to its value, alongside "$flagsState" (per-flag
// metadata) and "$valid".
func (s FeatureFlagsState) MarshalJSON() ([]byte, error) {
	combined := make(map[string]interface{}, len(s.flagValues)+2)
	for key, value := range s.flagValues {
		combined[key] = value
	}

	flagsState := make(map[string]wireFlagMetadata, len(s.flagMetadata))
	for key, meta := range s.flagMetadata {
		wire := wireFlagMetadata{Variation: meta.variation, Version: meta.version,
			TrackEvents: meta.trackEvents, DebugEventsUntilDate: meta.debugEventsUntilDate}
		if meta.hasReason {
			reason := meta.reason
			wire.Reason = &reason
		}
		flagsState[key] = wire
	}
	combined["$flagsState"] = flagsState
	combined["$valid"] = s.valid

	return json.Marshal(combined)
}

// AllFlagsState returns a snapshot of every flag's evaluated value (and,
// optionally, evaluation metadata) for the given user. The most common use
// case is bootstrapping a set of client-side feature flags from a back-end
// service.
func (c *Client) AllFlagsState(user fuser.User, options ...FlagsStateOption) FeatureFlagsState {
	valid := true
	if c.IsOffline() {
		c.loggers.Warn("Called AllFlagsState in offline mode. Returning empty state")
		valid = false
	} else if !c.Initialized() {
		if c.store.Initialized() {
			c.loggers.Warn("Called AllFlagsState before client initialization; using last known values from data store")
		} else {
			c.loggers.Warn("Called AllFlagsState before client initialization. Data store not available; returning empty state")
			valid = false
		}
	}

	if !valid {
		return FeatureFlagsState{valid: false}
	}

	items, err := c.store.All(datastore.Features)
	if err != nil {
		c.loggers.Warnf("Unable to fetch flags from data store. Returning empty state. Error: %s", err)
		return FeatureFlagsState{valid: false}
	}

	state := newFeatureFlagsState()
	clientSideOnly := hasFlagsStateOption(options, ClientSideOnly)
	withReasons := hasFlagsStateOption(options, WithReasons)
	detailsOnlyIfTracked := hasFlagsStateOption(options, DetailsOnlyForTrackedFlags)

	for _, item := range items {
		flag, ok := item.(fmodel.FeatureFlag)
		if !ok {
			continue
		}
		if clientSideOnly && !flag.ClientSide {
			continue
		}
		result := c.evaluator.Evaluate(flag, user, nil)
		state.addFlag(flag, result.Value, result.VariationIndex, result.Reason, withReasons, detailsOnlyIfTracked)
	}

	return state
}
