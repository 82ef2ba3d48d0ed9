package fevents

import (
	"github.com/flagcore/flagcore-go/freason"
	"github.com/flagcore/flagcore-go/fvalue"
)

type outputIdentifyEvent struct {
	Kind         string       `json:"kind"`
	CreationDate int64        `json:"creationDate"`
	Key          string       `json:"key"`
	User         filteredUser `json:"user"`
}

type outputIndexEvent struct {
	Kind         string       `json:"kind"`
	CreationDate int64        `json:"creationDate"`
	User         filteredUser `json:"user"`
}

type outputFeatureEvent struct {
	Kind                 string                     `json:"kind"`
	CreationDate         int64                      `json:"creationDate"`
	Key                  string                     `json:"key"`
	Version              int                        `json:"version,omitempty"`
	Variation            *int                       `json:"variation,omitempty"`
	Value                fvalue.Value               `json:"value"`
	Default              fvalue.Value               `json:"default"`
	Reason               *freason.EvaluationReason  `json:"reason,omitempty"`
	PrereqOf             string                     `json:"prereqOf,omitempty"`
	UserKey              string                     `json:"userKey,omitempty"`
	User                 *filteredUser              `json:"user,omitempty"`
}

type outputCustomEvent struct {
	Kind         string       `json:"kind"`
	CreationDate int64        `json:"creationDate"`
	Key          string       `json:"key"`
	UserKey      string       `json:"userKey,omitempty"`
	User         *filteredUser `json:"user,omitempty"`
	Data         fvalue.Value `json:"data,omitempty"`
	MetricValue  *float64     `json:"metricValue,omitempty"`
}

type outputCounter struct {
	Value     fvalue.Value `json:"value"`
	Variation *int         `json:"variation,omitempty"`
	Version   *int         `json:"version,omitempty"`
	Count     int          `json:"count"`
	Unknown   bool         `json:"unknown,omitempty"`
}

type outputFlagSummary struct {
	Default  fvalue.Value    `json:"default"`
	Counters []outputCounter `json:"counters"`
}

type outputSummaryEvent struct {
	Kind      string                       `json:"kind"`
	StartDate int64                        `json:"startDate"`
	EndDate   int64                        `json:"endDate"`
	Features  map[string]outputFlagSummary `json:"features"`
}

// eventOutputFormatter translates buffered Events and a summary snapshot
// into the JSON-ready structures POSTed to the events service, applying
// the user filter and the inline-vs-indexed user policy along the way.
type eventOutputFormatter struct {
	userFilter userFilter
	config     Config
}

func (f eventOutputFormatter) makeOutputEvents(events []Event, summary summaryState) []interface{} {
	var out []interface{}
	for _, e := range events {
		if converted := f.makeOutputEvent(e); converted != nil {
			out = append(out, converted)
		}
	}
	if len(summary.flags) > 0 {
		out = append(out, f.makeSummaryEvent(summary))
	}
	return out
}

func (f eventOutputFormatter) makeOutputEvent(e Event) interface{} {
	switch evt := e.(type) {
	case IdentifyEvent:
		return outputIdentifyEvent{
			Kind:         "identify",
			CreationDate: evt.CreationDate,
			Key:          evt.User.GetKey(),
			User:         f.userFilter.scrubUser(evt.User).filteredUser,
		}
	case IndexEvent:
		return outputIndexEvent{
			Kind:         "index",
			CreationDate: evt.CreationDate,
			User:         f.userFilter.scrubUser(evt.User).filteredUser,
		}
	case FeatureRequestEvent:
		return f.makeFeatureEvent(evt)
	case CustomEvent:
		out := outputCustomEvent{Kind: "custom", CreationDate: evt.CreationDate, Key: evt.Key}
		if evt.HasMetric {
			v := evt.MetricValue
			out.MetricValue = &v
		}
		if !evt.Data.IsNull() {
			out.Data = evt.Data
		}
		f.attachUser(evt.BaseEvent, &out.UserKey, &out.User)
		return out
	default:
		return nil
	}
}

func (f eventOutputFormatter) makeFeatureEvent(evt FeatureRequestEvent) outputFeatureEvent {
	kind := "feature"
	if evt.Debug {
		kind = "debug"
	}
	out := outputFeatureEvent{
		Kind:         kind,
		CreationDate: evt.CreationDate,
		Key:          evt.Key,
		Version:      evt.Version,
		Value:        evt.Value,
		Default:      evt.Default,
		PrereqOf:     evt.PrereqOf,
	}
	if evt.Variation != freason.NoVariation {
		v := evt.Variation
		out.Variation = &v
	}
	if evt.Reason.Kind() != "" {
		reason := evt.Reason
		out.Reason = &reason
	}
	f.attachUser(evt.BaseEvent, &out.UserKey, &out.User)
	return out
}

// attachUser sets either userKey (the common case, relying on a
// previously emitted index event) or the full scrubbed user when
// InlineUsersInEvents is enabled.
func (f eventOutputFormatter) attachUser(base BaseEvent, userKey *string, user **filteredUser) {
	if f.config.InlineUsersInEvents {
		scrubbed := f.userFilter.scrubUser(base.User).filteredUser
		*user = &scrubbed
		return
	}
	*userKey = base.User.GetKey()
}

func (f eventOutputFormatter) makeSummaryEvent(summary summaryState) outputSummaryEvent {
	features := make(map[string]outputFlagSummary, len(summary.flags))
	for key, fs := range summary.flags {
		counters := make([]outputCounter, 0, len(fs.counters))
		for ck, cv := range fs.counters {
			oc := outputCounter{Value: cv.value, Count: cv.count}
			if ck.variation == undefVariation {
				oc.Unknown = true
			} else {
				v := ck.variation
				oc.Variation = &v
				ver := ck.version
				oc.Version = &ver
			}
			counters = append(counters, oc)
		}
		features[key] = outputFlagSummary{Default: fs.defaultValue, Counters: counters}
	}
	return outputSummaryEvent{
		Kind:      "summary",
		StartDate: summary.startDate,
		EndDate:   summary.endDate,
		Features:  features,
	}
}
