package core

import (
	"fmt"
	"strings"
)

// Subject is one of the tested disciplines the converter understands.
// The set is closed: adding a subject means adding a constant here and a
// case in Definition.
type Subject int

const (
	SubjectELA Subject = iota
	SubjectMath
	SubjectScience
)

// allSubjects lists every supported subject in catalog order.
var allSubjects = [...]Subject{SubjectELA, SubjectMath, SubjectScience}

// SubjectDefinition holds the fixed display metadata for a subject.
type SubjectDefinition struct {
	Key         string // Configuration key: "ela"
	DisplayName string // Name used in TestTypeName and TestSubjectName: "ELA"
	Abbrev      string // Input column prefix: "e" for eperf2, escaleds, ecpi
	TestDate    string // Administration date written to TestDate
}

// Definition returns the metadata for s.
// Panics on a value outside the enum, which can only come from a bad conversion.
func (s Subject) Definition() SubjectDefinition {
	switch s {
	case SubjectELA:
		return SubjectDefinition{Key: "ela", DisplayName: "ELA", Abbrev: "e", TestDate: "4/1/20"}
	case SubjectMath:
		return SubjectDefinition{Key: "math", DisplayName: "Math", Abbrev: "m", TestDate: "5/1/20"}
	case SubjectScience:
		return SubjectDefinition{Key: "science", DisplayName: "Science", Abbrev: "s", TestDate: "6/1/20"}
	}
	panic(fmt.Sprintf("core: invalid subject %d", int(s)))
}

// String returns the subject's configuration key.
func (s Subject) String() string {
	return s.Definition().Key
}

// PerfColumn returns the input column holding the raw performance-level code.
func (s Subject) PerfColumn() string {
	return s.Definition().Abbrev + "perf2"
}

// ScaledColumn returns the input column holding the scaled score.
func (s Subject) ScaledColumn() string {
	return s.Definition().Abbrev + "scaleds"
}

// CPIColumn returns the input column holding the composite performance index.
func (s Subject) CPIColumn() string {
	return s.Definition().Abbrev + "cpi"
}

// Subjects returns all supported subjects in catalog order.
func Subjects() []Subject {
	out := make([]Subject, len(allSubjects))
	copy(out, allSubjects[:])
	return out
}

// ParseSubject resolves a configuration key to a Subject.
// Matching ignores case and surrounding whitespace.
func ParseSubject(key string) (Subject, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, s := range allSubjects {
		if s.Definition().Key == k {
			return s, nil
		}
	}
	return 0, &UnknownSubjectError{Key: key}
}

// LookupSubject returns the definition registered for key.
func LookupSubject(key string) (SubjectDefinition, error) {
	s, err := ParseSubject(key)
	if err != nil {
		return SubjectDefinition{}, err
	}
	return s.Definition(), nil
}

// ParseSubjects resolves keys in order. The first unknown key fails the whole list.
func ParseSubjects(keys []string) ([]Subject, error) {
	out := make([]Subject, len(keys))
	for i, k := range keys {
		s, err := ParseSubject(k)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// SubjectKeys returns the catalog keys of all supported subjects.
func SubjectKeys() []string {
	keys := make([]string, len(allSubjects))
	for i, s := range allSubjects {
		keys[i] = s.Definition().Key
	}
	return keys
}
