package core

// expand.go turns one wide input row into one canonical row per subject.
//
// The result is laid out subject-major: every record for subjects[0] comes
// first, in input order, then every record for subjects[1], and so on. Each
// slot of the output is computed independently from its (record, subject)
// pair, so len(out) == len(records)*len(subjects) by construction.

// Expand produces one CanonicalRecord per (subject, record) pair.
func Expand(records []InputRecord, subjects []Subject) []CanonicalRecord {
	n := len(records)
	out := make([]CanonicalRecord, n*len(subjects))
	for si, s := range subjects {
		def := s.Definition()
		for ri := range records {
			out[si*n+ri] = expandOne(records[ri], s, def)
		}
	}
	return out
}

// ExpandKeys resolves subject keys and expands records.
// An unknown key fails before any record is produced.
func ExpandKeys(records []InputRecord, keys []string) ([]CanonicalRecord, error) {
	subjects, err := ParseSubjects(keys)
	if err != nil {
		return nil, err
	}
	return Expand(records, subjects), nil
}

// expandOne builds the canonical record for a single student and subject.
func expandOne(r InputRecord, s Subject, def SubjectDefinition) CanonicalRecord {
	raw := r.Scores[s]
	return CanonicalRecord{
		NCESID:            InstitutionID,
		StudentTestID:     r.SASID,
		StudentLocalID:    BlankValue,
		StudentGradeLevel: r.Grade,
		TestDate:          def.TestDate,
		TestName:          TestName,
		TestTypeName:      TestName + " " + def.DisplayName,
		TestSubjectName:   def.DisplayName,
		TestGradeLevel:    r.Grade,
		Scores: [ScoreSlotCount]ScoreSlot{
			{Label: LabelPerformanceLevel, Type: TypeLevel, Value: raw.PerformanceLevel},
			{Label: LabelScaledScore, Type: TypeScale, Value: raw.ScaledScore},
			{Label: LabelCPI, Type: TypeScale, Value: raw.CPI},
			{Label: BlankValue, Type: BlankValue, Value: BlankValue},
		},
	}
}
