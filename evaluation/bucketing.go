package evaluation

import (
	"crypto/sha1" //nolint:gosec // not used for anything security-sensitive
	"encoding/hex"
	"io"
	"strconv"

	"github.com/flagcore/flagcore-go/fmodel"
	"github.com/flagcore/flagcore-go/fuser"
	"github.com/flagcore/flagcore-go/fvalue"
)

const longScale = float32(0xFFFFFFFFFFFFFFF)

// variationIndexForUser resolves a VariationOrRollout to a concrete
// variation index for the given user. ok is false only on malformed flag
// data (neither Variation nor Rollout set, or an empty Rollout.Variations).
func variationIndexForUser(r fmodel.VariationOrRollout, user *fuser.User, key, salt string) (int, bool) {
	if r.Variation != nil {
		return *r.Variation, true
	}
	if r.Rollout == nil || len(r.Rollout.Variations) == 0 {
		return 0, false
	}

	bucketBy := "key"
	if r.Rollout.BucketBy != nil {
		bucketBy = *r.Rollout.BucketBy
	}

	bucket := bucketUser(user, key, bucketBy, salt)
	var sum float32
	for _, wv := range r.Rollout.Variations {
		sum += float32(wv.Weight) / 100000.0
		if bucket < sum {
			return wv.Variation, true
		}
	}
	// Weights summed to less than 1 (a malformed rollout): fall back to the
	// last listed variation rather than erroring.
	last := r.Rollout.Variations[len(r.Rollout.Variations)-1]
	return last.Variation, true
}

func bucketUser(user *fuser.User, key, attr, salt string) float32 {
	uValue, ok := user.ValueOf(attr)
	if !ok {
		return 0
	}
	idHash, ok := bucketableStringValue(fvalue.CopyArbitrary(uValue))
	if !ok {
		return 0
	}

	if secondary := user.GetSecondaryKey(); secondary.IsDefined() {
		idHash = idHash + "." + secondary.StringValue()
	}

	h := sha1.New() //nolint:gosec
	_, _ = io.WriteString(h, key+"."+salt+"."+idHash)
	hash := hex.EncodeToString(h.Sum(nil))[:15]

	intVal, _ := strconv.ParseInt(hash, 16, 64)
	return float32(intVal) / longScale
}

func bucketableStringValue(v fvalue.Value) (string, bool) {
	if v.Type() == fvalue.StringType {
		return v.String(), true
	}
	if v.IsInt() {
		return strconv.Itoa(v.Int()), true
	}
	return "", false
}

// segmentContainsUser evaluates membership in segment: explicit inclusion,
// then exclusion, then segment rules in order.
func segmentContainsUser(segment fmodel.Segment, user *fuser.User) bool {
	key := user.GetKey()
	for _, k := range segment.Included {
		if k == key {
			return true
		}
	}
	for _, k := range segment.Excluded {
		if k == key {
			return false
		}
	}
	for _, rule := range segment.Rules {
		if segmentRuleMatchesUser(rule, user, segment.Key, segment.Salt) {
			return true
		}
	}
	return false
}

func segmentRuleMatchesUser(r fmodel.SegmentRule, user *fuser.User, key, salt string) bool {
	for _, clause := range r.Clauses {
		c := clause
		if !clauseMatchesUserNoSegments(&c, user) {
			return false
		}
	}

	if r.Weight == nil {
		return true
	}

	bucketBy := "key"
	if r.BucketBy != nil {
		bucketBy = *r.BucketBy
	}
	bucket := bucketUser(user, key, bucketBy, salt)
	weight := float32(*r.Weight) / 100000.0
	return bucket < weight
}
