package fevents

import (
	"github.com/flagcore/flagcore-go/fvalue"
)

const undefVariation = -1

// counterKey groups evaluations of the same flag that produced the same
// variation index against the same flag version.
type counterKey struct {
	variation int
	version   int
}

type counterValue struct {
	count int
	value fvalue.Value
}

// flagSummary accumulates every distinct (variation, version) outcome seen
// for one flag key during a summarization window.
type flagSummary struct {
	defaultValue fvalue.Value
	counters     map[counterKey]*counterValue
}

// summaryState is an immutable snapshot of the counters accumulated so
// far, along with the window they cover.
type summaryState struct {
	startDate int64
	endDate   int64
	flags     map[string]*flagSummary
}

// eventSummarizer folds individual feature-request events into per-flag
// variation counters, so that routine (untracked) evaluations cost one
// summary record per distinct outcome instead of one event each.
type eventSummarizer struct {
	flags     map[string]*flagSummary
	startDate int64
	endDate   int64
}

func newEventSummarizer() *eventSummarizer {
	return &eventSummarizer{flags: make(map[string]*flagSummary)}
}

func (s *eventSummarizer) summarizeEvent(e FeatureRequestEvent) {
	fs, ok := s.flags[e.Key]
	if !ok {
		fs = &flagSummary{defaultValue: e.Default, counters: make(map[counterKey]*counterValue)}
		s.flags[e.Key] = fs
	}
	variation := e.Variation
	if variation < 0 {
		variation = undefVariation
	}
	key := counterKey{variation: variation, version: e.Version}
	if cv, ok := fs.counters[key]; ok {
		cv.count++
	} else {
		fs.counters[key] = &counterValue{count: 1, value: e.Value}
	}

	if s.startDate == 0 || e.CreationDate < s.startDate {
		s.startDate = e.CreationDate
	}
	if e.CreationDate > s.endDate {
		s.endDate = e.CreationDate
	}
}

func (s *eventSummarizer) snapshot() summaryState {
	return summaryState{startDate: s.startDate, endDate: s.endDate, flags: s.flags}
}

func (s *eventSummarizer) isEmpty() bool {
	return len(s.flags) == 0
}
