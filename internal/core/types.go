package core

// Fixed values written into every canonical record.
const (
	InstitutionID  = "373737"
	TestName       = "MCAS"
	BlankValue     = " "
	IdentityColumn = "sasid"
	GradeColumn    = "stugrade"
)

// Score slot labels and types.
const (
	LabelPerformanceLevel = "Performance Level"
	LabelScaledScore      = "Scaled Score"
	LabelCPI              = "CPI"

	TypeLevel = "Level"
	TypeScale = "Scale"
)

// ScoreSlotCount is the number of (label, type, value) triples in the canonical schema.
const ScoreSlotCount = 4

// RawScores holds one subject's raw fields from the wide input.
type RawScores struct {
	PerformanceLevel string // <abbrev>perf2
	ScaledScore      string // <abbrev>scaleds
	CPI              string // <abbrev>cpi
}

// InputRecord is one student row from the wide export.
// Values are kept exactly as read, including whitespace-only cells.
type InputRecord struct {
	SASID  string
	Grade  string
	Scores map[Subject]RawScores
}

// ScoreSlot is one labeled score in a canonical record.
type ScoreSlot struct {
	Label string
	Type  string
	Value string
}

// CanonicalRecord is one (student, subject) row in the canonical schema.
type CanonicalRecord struct {
	NCESID            string
	StudentTestID     string
	StudentLocalID    string
	StudentGradeLevel string
	TestDate          string
	TestName          string
	TestTypeName      string
	TestSubjectName   string
	TestGradeLevel    string
	Scores            [ScoreSlotCount]ScoreSlot
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// RunStats summarizes how many rows each pipeline stage saw.
type RunStats struct {
	InputRows int // Records handed to the pipeline
	Expanded  int // Records after subject expansion
	Dropped   int // Records removed by the blank-score filter
	Output    int // Records projected
}
