// Package fmodel defines the wire data model for feature flags and
// segments: the structures the data source decodes from the service and
// the feature store holds, interpreted by the evaluation package.
package fmodel

import "github.com/flagcore/flagcore-go/fvalue"

// Operator names a clause comparison function. Unrecognized wire values
// decode unchanged (keeping their wire text), and the evaluator treats any
// operator it does not recognize as never matching rather than as an error.
type Operator string

const (
	OperatorIn                 Operator = "in"
	OperatorEndsWith           Operator = "endsWith"
	OperatorStartsWith         Operator = "startsWith"
	OperatorMatches            Operator = "matches"
	OperatorContains           Operator = "contains"
	OperatorLessThan           Operator = "lessThan"
	OperatorLessThanOrEqual    Operator = "lessThanOrEqual"
	OperatorGreaterThan        Operator = "greaterThan"
	OperatorGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OperatorBefore             Operator = "before"
	OperatorAfter              Operator = "after"
	OperatorSemVerEqual        Operator = "semVerEqual"
	OperatorSemVerLessThan     Operator = "semVerLessThan"
	OperatorSemVerGreaterThan  Operator = "semVerGreaterThan"
	OperatorSegmentMatch       Operator = "segmentMatch"
	OperatorUnknown            Operator = ""
)

// FeatureFlag is the full wire/store representation of a feature flag.
type FeatureFlag struct {
	Key           string              `json:"key"`
	Version       int                 `json:"version"`
	On            bool                `json:"on"`
	Prerequisites []Prerequisite      `json:"prerequisites,omitempty"`
	Targets       []Target            `json:"targets,omitempty"`
	Rules         []FlagRule          `json:"rules,omitempty"`
	Fallthrough   VariationOrRollout  `json:"fallthrough"`
	OffVariation  *int                `json:"offVariation,omitempty"`
	Variations    []fvalue.Value      `json:"variations"`
	Salt          string              `json:"salt"`
	TrackEvents   bool                `json:"trackEvents,omitempty"`
	TrackEventsFallthrough bool       `json:"trackEventsFallthrough,omitempty"`
	DebugEventsUntilDate   *int64     `json:"debugEventsUntilDate,omitempty"`
	ClientSide    bool                `json:"clientSide,omitempty"`
	Deleted       bool                `json:"deleted,omitempty"`
}

// Prerequisite names another flag and the variation index it must return
// for this flag to consider the prerequisite satisfied.
type Prerequisite struct {
	Key       string `json:"key"`
	Variation int    `json:"variation"`
}

// Target assigns a fixed variation to an explicit list of user keys.
type Target struct {
	Values    []string `json:"values"`
	Variation int      `json:"variation"`
}

// FlagRule is an ordered, AND-composed set of clauses with a variation or
// rollout to apply when all clauses match.
type FlagRule struct {
	ID                 string `json:"id,omitempty"`
	Clauses             []Clause `json:"clauses,omitempty"`
	VariationOrRollout
	TrackEvents bool `json:"trackEvents,omitempty"`
}

// VariationOrRollout selects either a fixed variation index or a weighted
// rollout. Exactly one of Variation or Rollout must be set; a rule with
// neither is malformed.
type VariationOrRollout struct {
	Variation *int     `json:"variation,omitempty"`
	Rollout   *Rollout `json:"rollout,omitempty"`
}

// Rollout is a weighted selection across variations, bucketed deterministically per user.
type Rollout struct {
	Variations []WeightedVariation `json:"variations"`
	BucketBy   *string             `json:"bucketBy,omitempty"`
}

// WeightedVariation is one entry in a Rollout; Weight ranges 0..100000.
type WeightedVariation struct {
	Variation int `json:"variation"`
	Weight    int `json:"weight"`
}

// Clause is a single condition within a rule or segment rule.
type Clause struct {
	Attribute string         `json:"attribute"`
	Op        Operator       `json:"op"`
	Values    []fvalue.Value `json:"values"`
	Negate    bool           `json:"negate,omitempty"`
}

// Segment is a named, versioned user cohort referenced by clauses with Op == OperatorSegmentMatch.
type Segment struct {
	Key      string        `json:"key"`
	Version  int           `json:"version"`
	Included []string      `json:"included,omitempty"`
	Excluded []string      `json:"excluded,omitempty"`
	Rules    []SegmentRule `json:"rules,omitempty"`
	Salt     string        `json:"salt"`
	Deleted  bool          `json:"deleted,omitempty"`
}

// SegmentRule is an AND-composed set of clauses (no nested segmentMatch)
// with an optional bucketing weight.
type SegmentRule struct {
	Clauses  []Clause `json:"clauses,omitempty"`
	Weight   *int     `json:"weight,omitempty"`
	BucketBy *string  `json:"bucketBy,omitempty"`
}
