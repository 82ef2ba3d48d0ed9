package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flagcore/flagcore-go/fmodel"
	"github.com/flagcore/flagcore-go/freason"
	"github.com/flagcore/flagcore-go/fuser"
	"github.com/flagcore/flagcore-go/fvalue"
)

type testDataProvider struct {
	flags    map[string]fmodel.FeatureFlag
	segments map[string]fmodel.Segment
}

func newTestDataProvider() *testDataProvider {
	return &testDataProvider{flags: map[string]fmodel.FeatureFlag{}, segments: map[string]fmodel.Segment{}}
}

func (p *testDataProvider) GetFeatureFlag(key string) (fmodel.FeatureFlag, bool) {
	f, ok := p.flags[key]
	return f, ok
}

func (p *testDataProvider) GetSegment(key string) (fmodel.Segment, bool) {
	s, ok := p.segments[key]
	return s, ok
}

func boolVariations() []fvalue.Value {
	return []fvalue.Value{fvalue.Bool(false), fvalue.Bool(true)}
}

func TestTargetMatch(t *testing.T) {
	flag := fmodel.FeatureFlag{
		Key:         "flag",
		On:          true,
		Variations:  boolVariations(),
		Targets:     []fmodel.Target{{Variation: 1, Values: []string{"alice"}}},
		Fallthrough: fmodel.VariationOrRollout{Variation: intPtr(0)},
	}
	user := fuser.NewUser("alice")
	detail := NewEvaluator(newTestDataProvider()).Evaluate(flag, user, nil)
	assert.Equal(t, true, detail.Value.Bool())
	assert.Equal(t, freason.TargetMatch, detail.Reason.Kind())
}

func TestFallthroughRollout(t *testing.T) {
	flag := fmodel.FeatureFlag{
		Key:        "f",
		Salt:       "abc",
		On:         true,
		Variations: []fvalue.Value{fvalue.String("a"), fvalue.String("b")},
		Fallthrough: fmodel.VariationOrRollout{
			Rollout: &fmodel.Rollout{
				Variations: []fmodel.WeightedVariation{
					{Variation: 0, Weight: 50000},
					{Variation: 1, Weight: 50000},
				},
			},
		},
	}
	user := fuser.NewUser("userkey-1")
	detail := NewEvaluator(newTestDataProvider()).Evaluate(flag, user, nil)
	assert.Equal(t, freason.Fallthrough, detail.Reason.Kind())
	assert.Contains(t, []string{"a", "b"}, detail.Value.String())
}

func TestPrerequisiteFailed(t *testing.T) {
	provider := newTestDataProvider()
	provider.flags["B"] = fmodel.FeatureFlag{
		Key:        "B",
		On:         false,
		Variations: boolVariations(),
		OffVariation: intPtr(0),
	}
	flagA := fmodel.FeatureFlag{
		Key:           "A",
		On:            true,
		Variations:    boolVariations(),
		OffVariation:  intPtr(0),
		Prerequisites: []fmodel.Prerequisite{{Key: "B", Variation: 1}},
		Fallthrough:   fmodel.VariationOrRollout{Variation: intPtr(1)},
	}
	var events []PrerequisiteFlagEvent
	detail := NewEvaluator(provider).Evaluate(flagA, fuser.NewUser("x"), func(e PrerequisiteFlagEvent) {
		events = append(events, e)
	})
	assert.Equal(t, freason.PrerequisitesFailed, detail.Reason.Kind())
	key, ok := detail.Reason.PrerequisiteKey()
	assert.True(t, ok)
	assert.Equal(t, "B", key)
	assert.Len(t, events, 1)
	assert.Equal(t, "B", events[0].PrerequisiteFlag.Key)
}

func TestUnknownOperatorDoesNotAbortEvaluation(t *testing.T) {
	flag := fmodel.FeatureFlag{
		Key:        "f",
		On:         true,
		Variations: boolVariations(),
		Rules: []fmodel.FlagRule{
			{
				Clauses:            []fmodel.Clause{{Attribute: "name", Op: "bananas", Values: []fvalue.Value{fvalue.String("x")}}},
				VariationOrRollout: fmodel.VariationOrRollout{Variation: intPtr(0)},
			},
			{
				Clauses:            []fmodel.Clause{{Attribute: "key", Op: fmodel.OperatorIn, Values: []fvalue.Value{fvalue.String("bob")}}},
				VariationOrRollout: fmodel.VariationOrRollout{Variation: intPtr(1)},
			},
		},
		Fallthrough: fmodel.VariationOrRollout{Variation: intPtr(0)},
	}
	detail := NewEvaluator(newTestDataProvider()).Evaluate(flag, fuser.NewUser("bob"), nil)
	assert.Equal(t, 1, detail.VariationIndex)
	assert.Equal(t, freason.RuleMatch, detail.Reason.Kind())
}

func TestMissingUserKeyIsError(t *testing.T) {
	flag := fmodel.FeatureFlag{Key: "f", On: true, Variations: boolVariations()}
	detail := NewEvaluator(newTestDataProvider()).Evaluate(flag, fuser.NewUser(""), nil)
	assert.Equal(t, freason.Error, detail.Reason.Kind())
	assert.Equal(t, freason.UserNotSpecified, detail.Reason.ErrorKind())
}

func TestEmptyVariationsIsMalformedFlag(t *testing.T) {
	flag := fmodel.FeatureFlag{Key: "f", On: true, OffVariation: intPtr(0)}
	detail := NewEvaluator(newTestDataProvider()).Evaluate(flag, fuser.NewUser("u"), nil)
	assert.Equal(t, freason.Error, detail.Reason.Kind())
	assert.Equal(t, freason.MalformedFlag, detail.Reason.ErrorKind())
}

func TestSegmentMatchMissingSegmentIsFalseNotError(t *testing.T) {
	flag := fmodel.FeatureFlag{
		Key:        "f",
		On:         true,
		Variations: boolVariations(),
		Rules: []fmodel.FlagRule{
			{
				Clauses:            []fmodel.Clause{{Op: fmodel.OperatorSegmentMatch, Values: []fvalue.Value{fvalue.String("nonexistent")}}},
				VariationOrRollout: fmodel.VariationOrRollout{Variation: intPtr(1)},
			},
		},
		Fallthrough: fmodel.VariationOrRollout{Variation: intPtr(0)},
	}
	detail := NewEvaluator(newTestDataProvider()).Evaluate(flag, fuser.NewUser("u"), nil)
	assert.Equal(t, freason.Fallthrough, detail.Reason.Kind())
}

func TestRolloutWeightsSummingToFullRouteEveryUser(t *testing.T) {
	flag := fmodel.FeatureFlag{
		Key:        "f",
		Salt:       "abc",
		On:         true,
		Variations: boolVariations(),
		Fallthrough: fmodel.VariationOrRollout{
			Rollout: &fmodel.Rollout{Variations: []fmodel.WeightedVariation{{Variation: 1, Weight: 100000}}},
		},
	}
	for _, key := range []string{"u1", "u2", "u3", "u4", "u5"} {
		detail := NewEvaluator(newTestDataProvider()).Evaluate(flag, fuser.NewUser(key), nil)
		assert.Equal(t, true, detail.Value.Bool(), "user %s", key)
	}
}

func intPtr(i int) *int { return &i }
