// Package freason defines the tagged-variant evaluation reason and error
// taxonomy returned alongside every flag evaluation.
package freason

import (
	"encoding/json"

	"github.com/flagcore/flagcore-go/fvalue"
)

// Kind describes the general category of an EvaluationReason.
type Kind string

const (
	// Off indicates the flag was off and returned its configured off value.
	Off Kind = "OFF"
	// TargetMatch indicates the user key was individually targeted.
	TargetMatch Kind = "TARGET_MATCH"
	// RuleMatch indicates the user matched one of the flag's rules. RuleIndex/RuleID are set.
	RuleMatch Kind = "RULE_MATCH"
	// PrerequisitesFailed indicates at least one prerequisite flag was off or
	// did not return the required variation. PrerequisiteKey is set.
	PrerequisitesFailed Kind = "PREREQUISITES_FAILED"
	// Fallthrough indicates the flag was on but matched no target or rule.
	Fallthrough Kind = "FALLTHROUGH"
	// Error indicates the flag could not be evaluated; ErrorKind is set and
	// Value carries the caller-supplied default.
	Error Kind = "ERROR"
)

// ErrorKind enumerates the reasons an evaluation can fail.
type ErrorKind string

const (
	// ClientNotReady indicates the caller evaluated before the client finished initializing.
	ClientNotReady ErrorKind = "CLIENT_NOT_READY"
	// FlagNotFound indicates the flag key did not match any known flag.
	FlagNotFound ErrorKind = "FLAG_NOT_FOUND"
	// MalformedFlag indicates an internal inconsistency in the flag data, e.g.
	// a rule referencing a nonexistent variation index.
	MalformedFlag ErrorKind = "MALFORMED_FLAG"
	// UserNotSpecified indicates the user parameter had no key.
	UserNotSpecified ErrorKind = "USER_NOT_SPECIFIED"
	// WrongType indicates the flag's value type did not match the requested accessor.
	WrongType ErrorKind = "WRONG_TYPE"
	// Exception indicates an unexpected error interrupted evaluation.
	Exception ErrorKind = "EXCEPTION"
)

// EvaluationReason describes why a flag evaluation produced its value.
type EvaluationReason struct {
	kind             Kind
	errorKind        ErrorKind
	ruleIndex        int
	ruleID           string
	prerequisiteKey  string
	hasRuleIndex     bool
	hasPrereqKey     bool
}

// NewOffReason creates an EvaluationReason for the OFF case.
func NewOffReason() EvaluationReason { return EvaluationReason{kind: Off} }

// NewTargetMatchReason creates an EvaluationReason for an individual target match.
func NewTargetMatchReason() EvaluationReason { return EvaluationReason{kind: TargetMatch} }

// NewRuleMatchReason creates an EvaluationReason for a rule match.
func NewRuleMatchReason(ruleIndex int, ruleID string) EvaluationReason {
	return EvaluationReason{kind: RuleMatch, ruleIndex: ruleIndex, ruleID: ruleID, hasRuleIndex: true}
}

// NewPrerequisitesFailedReason creates an EvaluationReason naming the first
// failed prerequisite flag key.
func NewPrerequisitesFailedReason(prereqKey string) EvaluationReason {
	return EvaluationReason{kind: PrerequisitesFailed, prerequisiteKey: prereqKey, hasPrereqKey: true}
}

// NewFallthroughReason creates an EvaluationReason for the fallthrough case.
func NewFallthroughReason() EvaluationReason { return EvaluationReason{kind: Fallthrough} }

// NewErrorReason creates an EvaluationReason describing an evaluation error.
func NewErrorReason(kind ErrorKind) EvaluationReason {
	return EvaluationReason{kind: Error, errorKind: kind}
}

// Kind returns the reason's category.
func (r EvaluationReason) Kind() Kind { return r.kind }

// ErrorKind returns the error kind, valid only when Kind() == Error.
func (r EvaluationReason) ErrorKind() ErrorKind { return r.errorKind }

// RuleIndex returns the matched rule's index and whether it is set.
func (r EvaluationReason) RuleIndex() (int, bool) { return r.ruleIndex, r.hasRuleIndex }

// RuleID returns the matched rule's unique id.
func (r EvaluationReason) RuleID() string { return r.ruleID }

// PrerequisiteKey returns the failed prerequisite's flag key, and whether it is set.
func (r EvaluationReason) PrerequisiteKey() (string, bool) { return r.prerequisiteKey, r.hasPrereqKey }

// String implements fmt.Stringer for logging.
func (r EvaluationReason) String() string {
	switch r.kind {
	case RuleMatch:
		return string(r.kind) + "(" + r.ruleID + ")"
	case PrerequisitesFailed:
		return string(r.kind) + "(" + r.prerequisiteKey + ")"
	case Error:
		return string(r.kind) + "(" + string(r.errorKind) + ")"
	default:
		return string(r.kind)
	}
}

// wireReason is the JSON wire shape for an EvaluationReason, matching the
// analytics-event reason format: every field besides "kind" is omitted
// unless the variant carries it.
type wireReason struct {
	Kind            Kind      `json:"kind"`
	RuleIndex       *int      `json:"ruleIndex,omitempty"`
	RuleID          string    `json:"ruleId,omitempty"`
	PrerequisiteKey string    `json:"prerequisiteKey,omitempty"`
	ErrorKind       ErrorKind `json:"errorKind,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r EvaluationReason) MarshalJSON() ([]byte, error) {
	w := wireReason{Kind: r.kind}
	if r.hasRuleIndex {
		idx := r.ruleIndex
		w.RuleIndex = &idx
		w.RuleID = r.ruleID
	}
	if r.hasPrereqKey {
		w.PrerequisiteKey = r.prerequisiteKey
	}
	if r.kind == Error {
		w.ErrorKind = r.errorKind
	}
	return json.Marshal(w)
}

// EvaluationDetail combines a flag evaluation's result value with an
// explanation of how it was derived.
type EvaluationDetail struct {
	// Value is the result: one of the flag's variations, or the caller's default.
	Value fvalue.Value
	// VariationIndex is the index into the flag's variations list that
	// produced Value, or -1 if the default was returned.
	VariationIndex int
	// Reason explains the evaluation.
	Reason EvaluationReason
}

// NoVariation is the sentinel VariationIndex meaning "the default was used".
const NoVariation = -1
