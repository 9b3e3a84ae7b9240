package core

// Column names a field of the canonical output schema.
type Column string

const (
	ColNCESID            Column = "NCESID"
	ColStudentTestID     Column = "StudentTestID"
	ColStudentLocalID    Column = "StudentLocalID"
	ColStudentGradeLevel Column = "StudentGradeLevel"
	ColTestDate          Column = "TestDate"
	ColTestName          Column = "TestName"
	ColTestTypeName      Column = "TestTypeName"
	ColTestSubjectName   Column = "TestSubjectName"
	ColTestGradeLevel    Column = "TestGradeLevel"
	ColScore1Label       Column = "Score1Label"
	ColScore1Type        Column = "Score1Type"
	ColScore1Value       Column = "Score1Value"
	ColScore2Label       Column = "Score2Label"
	ColScore2Type        Column = "Score2Type"
	ColScore2Value       Column = "Score2Value"
	ColScore3Label       Column = "Score3Label"
	ColScore3Type        Column = "Score3Type"
	ColScore3Value       Column = "Score3Value"
	ColScore4Label       Column = "Score4Label"
	ColScore4Type        Column = "Score4Type"
	ColScore4Value       Column = "Score4Value"
)

// defaultColumns is the column order expected by the student-records import.
var defaultColumns = [...]Column{
	ColNCESID, ColStudentTestID, ColStudentLocalID, ColStudentGradeLevel,
	ColTestDate, ColTestName, ColTestTypeName, ColTestSubjectName, ColTestGradeLevel,
	ColScore1Label, ColScore1Type, ColScore1Value,
	ColScore2Label, ColScore2Type, ColScore2Value,
	ColScore3Label, ColScore3Type, ColScore3Value,
	ColScore4Label, ColScore4Type, ColScore4Value,
}

// DefaultColumns returns a fresh copy of the canonical output column order.
func DefaultColumns() []Column {
	out := make([]Column, len(defaultColumns))
	copy(out, defaultColumns[:])
	return out
}

// ParseColumns converts header names to Columns, rejecting any name that is
// not a canonical field.
func ParseColumns(names []string) ([]Column, error) {
	cols := make([]Column, len(names))
	var missing []string
	for i, n := range names {
		c := Column(n)
		if !c.Known() {
			missing = append(missing, n)
			continue
		}
		cols[i] = c
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing, Stage: StageOutput}
	}
	return cols, nil
}

// Known reports whether c is a field of CanonicalRecord.
func (c Column) Known() bool {
	_, ok := CanonicalRecord{}.Field(c)
	return ok
}

// ColumnNames converts columns to plain strings, e.g. for a CSV header row.
func ColumnNames(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c)
	}
	return out
}

// Fielder is anything a column projection can read from.
type Fielder interface {
	Field(c Column) (string, bool)
}

// Field returns the value stored under column c.
func (r CanonicalRecord) Field(c Column) (string, bool) {
	switch c {
	case ColNCESID:
		return r.NCESID, true
	case ColStudentTestID:
		return r.StudentTestID, true
	case ColStudentLocalID:
		return r.StudentLocalID, true
	case ColStudentGradeLevel:
		return r.StudentGradeLevel, true
	case ColTestDate:
		return r.TestDate, true
	case ColTestName:
		return r.TestName, true
	case ColTestTypeName:
		return r.TestTypeName, true
	case ColTestSubjectName:
		return r.TestSubjectName, true
	case ColTestGradeLevel:
		return r.TestGradeLevel, true
	case ColScore1Label:
		return r.Scores[0].Label, true
	case ColScore1Type:
		return r.Scores[0].Type, true
	case ColScore1Value:
		return r.Scores[0].Value, true
	case ColScore2Label:
		return r.Scores[1].Label, true
	case ColScore2Type:
		return r.Scores[1].Type, true
	case ColScore2Value:
		return r.Scores[1].Value, true
	case ColScore3Label:
		return r.Scores[2].Label, true
	case ColScore3Type:
		return r.Scores[2].Type, true
	case ColScore3Value:
		return r.Scores[2].Value, true
	case ColScore4Label:
		return r.Scores[3].Label, true
	case ColScore4Type:
		return r.Scores[3].Type, true
	case ColScore4Value:
		return r.Scores[3].Value, true
	}
	return "", false
}

// OrderedRecord is a projected row: Values[i] belongs to Columns[i].
type OrderedRecord struct {
	Columns []Column
	Values  []string
}

// Field returns the value stored under column c.
func (r OrderedRecord) Field(c Column) (string, bool) {
	for i, col := range r.Columns {
		if col == c {
			return r.Values[i], true
		}
	}
	return "", false
}
