package evaluation

import (
	"regexp"
	"strings"
	"time"

	"github.com/blang/semver"

	"github.com/flagcore/flagcore-go/fmodel"
	"github.com/flagcore/flagcore-go/fvalue"
)

type opFn func(fvalue.Value, fvalue.Value) bool

var versionNumericComponentsRegex = regexp.MustCompile(`^\d+(\.\d+)?(\.\d+)?`)

var allOps = map[fmodel.Operator]opFn{
	fmodel.OperatorIn:                 operatorInFn,
	fmodel.OperatorEndsWith:           operatorEndsWithFn,
	fmodel.OperatorStartsWith:         operatorStartsWithFn,
	fmodel.OperatorMatches:            operatorMatchesFn,
	fmodel.OperatorContains:           operatorContainsFn,
	fmodel.OperatorLessThan:           operatorLessThanFn,
	fmodel.OperatorLessThanOrEqual:    operatorLessThanOrEqualFn,
	fmodel.OperatorGreaterThan:        operatorGreaterThanFn,
	fmodel.OperatorGreaterThanOrEqual: operatorGreaterThanOrEqualFn,
	fmodel.OperatorBefore:             operatorBeforeFn,
	fmodel.OperatorAfter:              operatorAfterFn,
	fmodel.OperatorSemVerEqual:        operatorSemVerEqualFn,
	fmodel.OperatorSemVerLessThan:     operatorSemVerLessThanFn,
	fmodel.OperatorSemVerGreaterThan:  operatorSemVerGreaterThanFn,
}

// operatorFn looks up the match function for op. An unrecognized operator
// (including OperatorSegmentMatch, which is handled upstream, or any
// unknown wire value) yields a function that always returns false rather
// than raising an error.
func operatorFn(op fmodel.Operator) opFn {
	if fn, ok := allOps[op]; ok {
		return fn
	}
	return operatorNoneFn
}

func operatorInFn(u, c fvalue.Value) bool {
	if u.Type() != c.Type() {
		return false
	}
	switch u.Type() {
	case fvalue.BoolType:
		return u.Bool() == c.Bool()
	case fvalue.NumberType:
		return u.Float64() == c.Float64()
	case fvalue.StringType:
		return u.String() == c.String()
	case fvalue.NullType:
		return true
	default:
		return u.JSONString() == c.JSONString()
	}
}

func stringOperator(u, c fvalue.Value, fn func(string, string) bool) bool {
	if u.Type() == fvalue.StringType && c.Type() == fvalue.StringType {
		return fn(u.String(), c.String())
	}
	return false
}

func operatorStartsWithFn(u, c fvalue.Value) bool { return stringOperator(u, c, strings.HasPrefix) }
func operatorEndsWithFn(u, c fvalue.Value) bool   { return stringOperator(u, c, strings.HasSuffix) }
func operatorContainsFn(u, c fvalue.Value) bool   { return stringOperator(u, c, strings.Contains) }

func operatorMatchesFn(u, c fvalue.Value) bool {
	return stringOperator(u, c, func(us, cs string) bool {
		matched, err := regexp.MatchString(cs, us)
		return err == nil && matched
	})
}

func numericOperator(u, c fvalue.Value, fn func(float64, float64) bool) bool {
	if u.IsNumber() && c.IsNumber() {
		return fn(u.Float64(), c.Float64())
	}
	return false
}

func operatorLessThanFn(u, c fvalue.Value) bool {
	return numericOperator(u, c, func(a, b float64) bool { return a < b })
}
func operatorLessThanOrEqualFn(u, c fvalue.Value) bool {
	return numericOperator(u, c, func(a, b float64) bool { return a <= b })
}
func operatorGreaterThanFn(u, c fvalue.Value) bool {
	return numericOperator(u, c, func(a, b float64) bool { return a > b })
}
func operatorGreaterThanOrEqualFn(u, c fvalue.Value) bool {
	return numericOperator(u, c, func(a, b float64) bool { return a >= b })
}

func dateOperator(u, c fvalue.Value, fn func(time.Time, time.Time) bool) bool {
	if ut, ok := parseDateTime(u); ok {
		if ct, ok := parseDateTime(c); ok {
			return fn(ut, ct)
		}
	}
	return false
}

func operatorBeforeFn(u, c fvalue.Value) bool { return dateOperator(u, c, time.Time.Before) }
func operatorAfterFn(u, c fvalue.Value) bool  { return dateOperator(u, c, time.Time.After) }

func semVerOperator(u, c fvalue.Value, fn func(semver.Version, semver.Version) bool) bool {
	if uv, ok := parseSemVer(u); ok {
		if cv, ok := parseSemVer(c); ok {
			return fn(uv, cv)
		}
	}
	return false
}

func operatorSemVerEqualFn(u, c fvalue.Value) bool {
	return semVerOperator(u, c, semver.Version.EQ)
}
func operatorSemVerLessThanFn(u, c fvalue.Value) bool {
	return semVerOperator(u, c, semver.Version.LT)
}
func operatorSemVerGreaterThanFn(u, c fvalue.Value) bool {
	return semVerOperator(u, c, semver.Version.GT)
}

func operatorNoneFn(fvalue.Value, fvalue.Value) bool { return false }

func parseDateTime(v fvalue.Value) (time.Time, bool) {
	switch v.Type() {
	case fvalue.StringType:
		t, err := time.Parse(time.RFC3339Nano, v.String())
		if err == nil {
			return t.UTC(), true
		}
	case fvalue.NumberType:
		return unixMillisToUTCTime(v.Float64()), true
	}
	return time.Time{}, false
}

func unixMillisToUTCTime(unixMillis float64) time.Time {
	return time.Unix(0, int64(unixMillis)*int64(time.Millisecond)).UTC()
}

func parseSemVer(v fvalue.Value) (semver.Version, bool) {
	if v.Type() != fvalue.StringType {
		return semver.Version{}, false
	}
	versionStr := v.String()
	if sv, err := semver.Parse(versionStr); err == nil {
		return sv, true
	}
	// Failed to parse as-is; try padding missing minor/patch components with zero.
	matchParts := versionNumericComponentsRegex.FindStringSubmatch(versionStr)
	if matchParts == nil {
		return semver.Version{}, false
	}
	transformed := matchParts[0]
	for i := 1; i < len(matchParts); i++ {
		if matchParts[i] == "" {
			transformed += ".0"
		}
	}
	transformed += versionStr[len(matchParts[0]):]
	if sv, err := semver.Parse(transformed); err == nil {
		return sv, true
	}
	return semver.Version{}, false
}
