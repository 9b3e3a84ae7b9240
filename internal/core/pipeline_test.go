package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func rowMap(r OrderedRecord) map[Column]string {
	m := make(map[Column]string, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}

func mustPipeline(t *testing.T, keys []string, policy UnknownLevelPolicy) *Pipeline {
	t.Helper()
	cfg, err := NewConfig(keys, DefaultColumns(), policy)
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	return p
}

// ----------------------------------------------------------------------------
// End-to-end Tests
// ----------------------------------------------------------------------------

func TestPipeline_SingleStudentELA(t *testing.T) {
	p := mustPipeline(t, []string{"ela"}, PolicyFail)

	in := []InputRecord{{
		SASID: "123",
		Grade: "5",
		Scores: map[Subject]RawScores{
			SubjectELA: {PerformanceLevel: "P", ScaledScore: "450", CPI: "70"},
		},
	}}

	got, err := p.Run(in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	row := rowMap(got[0])
	want := map[Column]string{
		ColStudentTestID:     "123",
		ColStudentGradeLevel: "5",
		ColTestSubjectName:   "ELA",
		ColScore1Value:       "4 - P",
		ColScore2Value:       "450",
		ColScore3Value:       "70",
		ColScore4Value:       " ",
	}
	for c, w := range want {
		if row[c] != w {
			t.Errorf("%s = %q, want %q", c, row[c], w)
		}
	}
}

func TestPipeline_AllBlankScoresYieldsNothing(t *testing.T) {
	p := mustPipeline(t, []string{"ela"}, PolicyFail)

	in := []InputRecord{{
		SASID: "123",
		Grade: "5",
		Scores: map[Subject]RawScores{
			SubjectELA: {PerformanceLevel: " ", ScaledScore: " ", CPI: " "},
		},
	}}

	got, stats, err := p.RunWithStats(in)
	if err != nil {
		t.Fatalf("RunWithStats() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
	want := RunStats{InputRows: 1, Expanded: 1, Dropped: 1, Output: 0}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_GroupedBySubject(t *testing.T) {
	p := mustPipeline(t, []string{"math", "ela"}, PolicyFail)

	in := []InputRecord{
		{SASID: "1", Grade: "3", Scores: map[Subject]RawScores{
			SubjectELA:  {PerformanceLevel: "F", ScaledScore: "210", CPI: "25"},
			SubjectMath: {PerformanceLevel: " ", ScaledScore: " ", CPI: " "},
		}},
		{SASID: "2", Grade: "4", Scores: map[Subject]RawScores{
			SubjectELA:  {PerformanceLevel: "A", ScaledScore: "260", CPI: "100"},
			SubjectMath: {PerformanceLevel: "P+", ScaledScore: "270", CPI: "100"},
		}},
		{SASID: "3", Grade: "5", Scores: map[Subject]RawScores{
			SubjectELA:  {PerformanceLevel: " ", ScaledScore: "", CPI: "50"},
			SubjectMath: {PerformanceLevel: "W", ScaledScore: "200", CPI: "0"},
		}},
	}

	got, err := p.Run(in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	type key struct{ subject, id, level string }
	var keys []key
	for _, r := range got {
		m := rowMap(r)
		keys = append(keys, key{m[ColTestSubjectName], m[ColStudentTestID], m[ColScore1Value]})
	}

	want := []key{
		{"Math", "2", "6 - P+"},
		{"Math", "3", "2 - W"},
		{"ELA", "1", "1 - F"},
		{"ELA", "2", "5 - A"},
		{"ELA", "3", " "},
	}
	if diff := cmp.Diff(want, keys, cmp.AllowUnexported(key{})); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_UnknownLevel(t *testing.T) {
	in := []InputRecord{{
		SASID: "77",
		Grade: "8",
		Scores: map[Subject]RawScores{
			SubjectScience: {PerformanceLevel: "INV", ScaledScore: "", CPI: ""},
		},
	}}

	t.Run("fail policy aborts", func(t *testing.T) {
		p := mustPipeline(t, []string{"science"}, PolicyFail)
		_, err := p.Run(in)
		var levelErr *UnknownPerformanceLevelError
		if !errors.As(err, &levelErr) {
			t.Fatalf("Run() error = %v, want *UnknownPerformanceLevelError", err)
		}
	})

	t.Run("passthrough keeps code", func(t *testing.T) {
		p := mustPipeline(t, []string{"science"}, PolicyPassThrough)
		got, err := p.Run(in)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if v := rowMap(got[0])[ColScore1Value]; v != "INV" {
			t.Errorf("Score1Value = %q, want %q", v, "INV")
		}
	})
}

// ----------------------------------------------------------------------------
// Config Tests
// ----------------------------------------------------------------------------

func TestNewConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		columns []Column
		policy  UnknownLevelPolicy
		check   func(error) bool
	}{
		{
			name:    "unknown subject",
			keys:    []string{"ela", "latin"},
			columns: DefaultColumns(),
			check: func(err error) bool {
				var e *UnknownSubjectError
				return errors.As(err, &e)
			},
		},
		{
			name:    "unknown output column",
			keys:    []string{"ela"},
			columns: []Column{ColNCESID, "Score9Value"},
			check: func(err error) bool {
				var e *MissingColumnError
				return errors.As(err, &e) && e.Stage == StageOutput
			},
		},
		{
			name:    "no subjects",
			keys:    nil,
			columns: DefaultColumns(),
			check:   func(err error) bool { return err != nil },
		},
		{
			name:    "no columns",
			keys:    []string{"ela"},
			columns: nil,
			check:   func(err error) bool { return err != nil },
		},
		{
			name:    "bad policy",
			keys:    []string{"ela"},
			columns: DefaultColumns(),
			policy:  "sometimes",
			check:   func(err error) bool { return err != nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.keys, tt.columns, tt.policy)
			if !tt.check(err) {
				t.Errorf("NewConfig() error = %v", err)
			}
		})
	}
}

func TestConfig_Immutable(t *testing.T) {
	cols := []Column{ColStudentTestID, ColScore1Value}
	cfg, err := NewConfig([]string{"ela", "math"}, cols, "")
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	cols[0] = ColTestDate
	cfg.Columns()[1] = ColTestName
	cfg.Subjects()[0] = SubjectScience

	if diff := cmp.Diff([]Column{ColStudentTestID, ColScore1Value}, cfg.Columns()); diff != "" {
		t.Errorf("columns changed (-want +got):\n%s", diff)
	}
	if cfg.Subjects()[0] != SubjectELA {
		t.Error("subjects changed")
	}
	if cfg.Policy() != PolicyFail {
		t.Errorf("empty policy should default to %q, got %q", PolicyFail, cfg.Policy())
	}
}

func TestConfig_InputColumns(t *testing.T) {
	got := DefaultConfig().InputColumns()
	want := []string{
		"sasid", "stugrade",
		"eperf2", "escaleds", "ecpi",
		"mperf2", "mscaleds", "mcpi",
		"sperf2", "sscaleds", "scpi",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("InputColumns() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewPipeline_ZeroConfig(t *testing.T) {
	if _, err := NewPipeline(Config{}); err == nil {
		t.Error("NewPipeline(Config{}) should fail")
	}
}
