// Package evaluation implements the pure flag-rule interpreter: given a
// flag, a user, and a DataProvider for resolving prerequisites and
// segments, it computes an EvaluationDetail. No I/O, no locking beyond
// what the DataProvider exposes for reads.
package evaluation

import (
	"github.com/flagcore/flagcore-go/fmodel"
	"github.com/flagcore/flagcore-go/freason"
	"github.com/flagcore/flagcore-go/fuser"
)

// DataProvider resolves flags and segments referenced during evaluation
// (prerequisites and segmentMatch clauses). Implementations are typically
// backed by the feature store.
type DataProvider interface {
	GetFeatureFlag(key string) (fmodel.FeatureFlag, bool)
	GetSegment(key string) (fmodel.Segment, bool)
}

// PrerequisiteFlagEvent describes one prerequisite evaluation performed
// while evaluating a dependent flag, for the caller to turn into an
// analytics event.
type PrerequisiteFlagEvent struct {
	PrereqOfFlagKey string
	User            fuser.User
	PrerequisiteFlag fmodel.FeatureFlag
	Result          freason.EvaluationDetail
}

// PrerequisiteFlagEventRecorder receives a PrerequisiteFlagEvent for every
// prerequisite evaluated, in evaluation order. May be nil.
type PrerequisiteFlagEventRecorder func(event PrerequisiteFlagEvent)

// Evaluator interprets a flag's rule structure against a user.
type Evaluator interface {
	Evaluate(
		flag fmodel.FeatureFlag,
		user fuser.User,
		prerequisiteFlagEventRecorder PrerequisiteFlagEventRecorder,
	) freason.EvaluationDetail
}

type evaluator struct {
	dataProvider DataProvider
}

// NewEvaluator creates an Evaluator backed by the given DataProvider.
func NewEvaluator(dataProvider DataProvider) Evaluator {
	return &evaluator{dataProvider: dataProvider}
}
