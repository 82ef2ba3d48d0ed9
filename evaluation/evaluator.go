package evaluation

import (
	"github.com/flagcore/flagcore-go/fmodel"
	"github.com/flagcore/flagcore-go/freason"
	"github.com/flagcore/flagcore-go/fuser"
	"github.com/flagcore/flagcore-go/fvalue"
)

// Evaluate interprets flag's rules against user, in this order: prerequisites,
// individual targets, rules, then fallthrough. It never panics; internal
// inconsistencies in the flag data surface as freason.MalformedFlag.
func (e *evaluator) Evaluate(
	flag fmodel.FeatureFlag,
	user fuser.User,
	prerequisiteFlagEventRecorder PrerequisiteFlagEventRecorder,
) freason.EvaluationDetail {
	if user.GetKey() == "" {
		return freason.EvaluationDetail{
			Value:          fvalue.Null(),
			VariationIndex: freason.NoVariation,
			Reason:         freason.NewErrorReason(freason.UserNotSpecified),
		}
	}
	return e.evaluate(flag, user, prerequisiteFlagEventRecorder, map[string]bool{})
}

func (e *evaluator) evaluate(
	flag fmodel.FeatureFlag,
	user fuser.User,
	recorder PrerequisiteFlagEventRecorder,
	visited map[string]bool,
) freason.EvaluationDetail {
	if !flag.On {
		return e.getOffValue(&flag, freason.NewOffReason())
	}

	prereqErrorReason, ok := e.checkPrerequisites(&flag, user, recorder, visited)
	if !ok {
		return e.getOffValue(&flag, prereqErrorReason)
	}

	key := user.GetKey()
	for _, target := range flag.Targets {
		for _, value := range target.Values {
			if value == key {
				return e.getVariation(&flag, target.Variation, freason.NewTargetMatchReason())
			}
		}
	}

	for ruleIndex, rule := range flag.Rules {
		if e.ruleMatchesUser(&rule, &user) {
			reason := freason.NewRuleMatchReason(ruleIndex, rule.ID)
			return e.getValueForVariationOrRollout(&flag, rule.VariationOrRollout, &user, reason)
		}
	}

	return e.getValueForVariationOrRollout(&flag, flag.Fallthrough, &user, freason.NewFallthroughReason())
}

// checkPrerequisites returns a zero-value reason and true if all prerequisites
// are satisfied; otherwise a PrerequisitesFailed reason naming the first
// offending prerequisite, and false. A prerequisite that is missing,
// recursively errors, or forms a cycle counts as failed.
func (e *evaluator) checkPrerequisites(
	f *fmodel.FeatureFlag,
	user fuser.User,
	recorder PrerequisiteFlagEventRecorder,
	visited map[string]bool,
) (freason.EvaluationReason, bool) {
	if len(f.Prerequisites) == 0 {
		return freason.EvaluationReason{}, true
	}

	if visited[f.Key] {
		return freason.NewPrerequisitesFailedReason(f.Key), false
	}
	visited[f.Key] = true
	defer delete(visited, f.Key)

	for _, prereq := range f.Prerequisites {
		prereqFlag, found := e.dataProvider.GetFeatureFlag(prereq.Key)
		if !found {
			return freason.NewPrerequisitesFailedReason(prereq.Key), false
		}

		prereqResult := e.evaluate(prereqFlag, user, recorder, visited)
		prereqOK := prereqFlag.On &&
			prereqResult.VariationIndex != freason.NoVariation &&
			prereqResult.VariationIndex == prereq.Variation

		if recorder != nil {
			recorder(PrerequisiteFlagEvent{
				PrereqOfFlagKey:  f.Key,
				User:             user,
				PrerequisiteFlag: prereqFlag,
				Result:           prereqResult,
			})
		}

		if !prereqOK {
			return freason.NewPrerequisitesFailedReason(prereq.Key), false
		}
	}
	return freason.EvaluationReason{}, true
}

func (e *evaluator) getVariation(f *fmodel.FeatureFlag, index int, reason freason.EvaluationReason) freason.EvaluationDetail {
	if index < 0 || index >= len(f.Variations) {
		return freason.EvaluationDetail{
			Value:          fvalue.Null(),
			VariationIndex: freason.NoVariation,
			Reason:         freason.NewErrorReason(freason.MalformedFlag),
		}
	}
	return freason.EvaluationDetail{Value: f.Variations[index], VariationIndex: index, Reason: reason}
}

func (e *evaluator) getOffValue(f *fmodel.FeatureFlag, reason freason.EvaluationReason) freason.EvaluationDetail {
	if f.OffVariation == nil {
		return freason.EvaluationDetail{Value: fvalue.Null(), VariationIndex: freason.NoVariation, Reason: reason}
	}
	return e.getVariation(f, *f.OffVariation, reason)
}

func (e *evaluator) getValueForVariationOrRollout(
	f *fmodel.FeatureFlag,
	vr fmodel.VariationOrRollout,
	user *fuser.User,
	reason freason.EvaluationReason,
) freason.EvaluationDetail {
	index, ok := variationIndexForUser(vr, user, f.Key, f.Salt)
	if !ok {
		return freason.EvaluationDetail{
			Value:          fvalue.Null(),
			VariationIndex: freason.NoVariation,
			Reason:         freason.NewErrorReason(freason.MalformedFlag),
		}
	}
	return e.getVariation(f, index, reason)
}

func (e *evaluator) ruleMatchesUser(rule *fmodel.FlagRule, user *fuser.User) bool {
	for _, clause := range rule.Clauses {
		c := clause
		if !e.clauseMatchesUser(&c, user) {
			return false
		}
	}
	return true
}

func (e *evaluator) clauseMatchesUser(clause *fmodel.Clause, user *fuser.User) bool {
	if clause.Op == fmodel.OperatorSegmentMatch {
		for _, value := range clause.Values {
			if value.Type() == fvalue.StringType {
				if segment, ok := e.dataProvider.GetSegment(value.String()); ok {
					if segmentContainsUser(segment, user) {
						return maybeNegate(clause, true)
					}
				}
			}
		}
		return maybeNegate(clause, false)
	}
	return clauseMatchesUserNoSegments(clause, user)
}

func clauseMatchesUserNoSegments(clause *fmodel.Clause, user *fuser.User) bool {
	uValue, ok := user.ValueOf(clause.Attribute)
	if !ok {
		return false
	}
	value := fvalue.CopyArbitrary(uValue)
	matchFn := operatorFn(clause.Op)

	if value.Type() == fvalue.ArrayType {
		for i := 0; i < value.Count(); i++ {
			if matchAny(matchFn, value.GetByIndex(i), clause.Values) {
				return maybeNegate(clause, true)
			}
		}
		return maybeNegate(clause, false)
	}

	return maybeNegate(clause, matchAny(matchFn, value, clause.Values))
}

func maybeNegate(clause *fmodel.Clause, b bool) bool {
	if clause.Negate {
		return !b
	}
	return b
}

func matchAny(fn opFn, value fvalue.Value, values []fvalue.Value) bool {
	for _, v := range values {
		if fn(value, v) {
			return true
		}
	}
	return false
}
