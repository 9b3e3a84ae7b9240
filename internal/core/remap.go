package core

import (
	"fmt"
	"strings"
)

// perfLevels maps raw performance-level codes to their display values.
var perfLevels = map[string]string{
	"F":  "1 - F",
	"W":  "2 - W",
	"NI": "3 - NI",
	"P":  "4 - P",
	"A":  "5 - A",
	"P+": "6 - P+",
}

// UnknownLevelPolicy decides what happens to a performance-level code that
// is not in the lookup table.
type UnknownLevelPolicy string

const (
	PolicyFail        UnknownLevelPolicy = "fail"
	PolicyPassThrough UnknownLevelPolicy = "passthrough"
)

// ParsePolicy converts a configuration string to an UnknownLevelPolicy.
func ParsePolicy(s string) (UnknownLevelPolicy, error) {
	switch p := UnknownLevelPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyFail, PolicyPassThrough:
		return p, nil
	}
	return "", fmt.Errorf("invalid performance level policy %q: must be %q or %q", s, PolicyFail, PolicyPassThrough)
}

// PerformanceLevel returns the display value for a raw code.
// Blank codes map to themselves. Surrounding whitespace is ignored when
// matching; case is not.
func PerformanceLevel(code string) (string, bool) {
	if isBlank(code) {
		return code, true
	}
	v, ok := perfLevels[strings.TrimSpace(code)]
	return v, ok
}

// PerformanceLevelRemapper rewrites score slot 1 from a raw code to its
// labeled display value.
type PerformanceLevelRemapper struct {
	Policy UnknownLevelPolicy
}

// Remap returns copies of records with slot-1 values remapped.
// Under PolicyFail the first unrecognized code aborts with
// *UnknownPerformanceLevelError; under PolicyPassThrough it is kept verbatim.
func (m PerformanceLevelRemapper) Remap(records []CanonicalRecord) ([]CanonicalRecord, error) {
	out := make([]CanonicalRecord, len(records))
	for i, r := range records {
		code := r.Scores[0].Value
		v, ok := PerformanceLevel(code)
		if !ok {
			if m.Policy != PolicyPassThrough {
				return nil, &UnknownPerformanceLevelError{
					Code:          code,
					StudentTestID: r.StudentTestID,
					Subject:       r.TestSubjectName,
				}
			}
			v = code
		}
		r.Scores[0].Value = v
		out[i] = r
	}
	return out, nil
}
