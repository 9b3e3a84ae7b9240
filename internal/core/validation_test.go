package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ============================================================================
// ValidateHeaders Tests
// ============================================================================

func TestValidateHeaders(t *testing.T) {
	required := DefaultConfig().InputColumns()

	tests := []struct {
		name        string
		headers     []string
		wantMissing []string
	}{
		{
			name:    "exact columns",
			headers: required,
		},
		{
			name: "extra columns and different order",
			headers: []string{
				"scpi", "lastname", "sasid", "stugrade", "eperf2", "escaleds", "ecpi",
				"mperf2", "mscaleds", "mcpi", "sperf2", "sscaleds", "firstname",
			},
		},
		{
			name: "upper case and excel artifacts",
			headers: []string{
				`="SASID"`, "StuGrade", " EPERF2 ", "escaleds", "ecpi",
				"mperf2", "mscaleds", "mcpi", `"sperf2"`, "sscaleds", "scpi",
			},
		},
		{
			name:        "missing science cpi",
			headers:     required[:len(required)-1],
			wantMissing: []string{"scpi"},
		},
		{
			name:        "missing identity columns",
			headers:     required[2:],
			wantMissing: []string{"sasid", "stugrade"},
		},
		{
			name:        "empty header",
			headers:     nil,
			wantMissing: required,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := ValidateHeaders(tt.headers, required)
			if tt.wantMissing == nil {
				if err != nil {
					t.Fatalf("ValidateHeaders() error = %v", err)
				}
				if len(idx) == 0 {
					t.Error("ValidateHeaders() returned empty index")
				}
				return
			}

			var colErr *MissingColumnError
			if !errors.As(err, &colErr) {
				t.Fatalf("ValidateHeaders() error = %v, want *MissingColumnError", err)
			}
			if colErr.Stage != StageInput {
				t.Errorf("Stage = %q, want %q", colErr.Stage, StageInput)
			}
			if diff := cmp.Diff(tt.wantMissing, colErr.Columns); diff != "" {
				t.Errorf("missing columns (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateHeaders_OnlyConfiguredSubjects(t *testing.T) {
	cfg, err := NewConfig([]string{"ela"}, DefaultColumns(), PolicyFail)
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	_, err = ValidateHeaders([]string{"sasid", "stugrade", "eperf2", "escaleds", "ecpi"}, cfg.InputColumns())
	if err != nil {
		t.Errorf("math/science columns should not be required for an ELA-only run: %v", err)
	}
}

// ============================================================================
// BuildInputRecord Tests
// ============================================================================

func TestBuildInputRecord(t *testing.T) {
	header := []string{"stugrade", "sasid", "eperf2", "escaleds", "ecpi", "mperf2", "mscaleds", "mcpi"}
	idx := MakeHeaderIndex(header)

	row := []string{"05", "1001", "P", "450", " ", "NI", "", "55"}
	got := BuildInputRecord(row, idx, []Subject{SubjectELA, SubjectMath})

	want := InputRecord{
		SASID: "1001",
		Grade: "05",
		Scores: map[Subject]RawScores{
			SubjectELA:  {PerformanceLevel: "P", ScaledScore: "450", CPI: " "},
			SubjectMath: {PerformanceLevel: "NI", ScaledScore: "", CPI: "55"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildInputRecord() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildInputRecord_ShortRow(t *testing.T) {
	idx := MakeHeaderIndex([]string{"sasid", "stugrade", "eperf2", "escaleds", "ecpi"})
	got := BuildInputRecord([]string{"7", "3"}, idx, []Subject{SubjectELA})
	if got.Scores[SubjectELA] != (RawScores{}) {
		t.Errorf("short row scores = %+v, want blanks", got.Scores[SubjectELA])
	}
}
