package core

import "strings"

// FilterBlankScores drops records whose first three score values are all blank
// (empty or whitespace only). A single non-blank score keeps the record.
// Surviving records keep their relative order; the input slice is not modified.
func FilterBlankScores(records []CanonicalRecord) []CanonicalRecord {
	out := make([]CanonicalRecord, 0, len(records))
	for _, r := range records {
		if hasScore(r) {
			out = append(out, r)
		}
	}
	return out
}

func hasScore(r CanonicalRecord) bool {
	for i := 0; i < 3; i++ {
		if !isBlank(r.Scores[i].Value) {
			return true
		}
	}
	return false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
