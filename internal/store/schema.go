package store

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/mcasconvert/internal/batch"
	"github.com/JonMunkholm/mcasconvert/internal/core"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS processed_files (
    checksum     TEXT PRIMARY KEY,
    source_file  TEXT NOT NULL,
    run_id       UUID NOT NULL,
    row_count    INTEGER NOT NULL,
    processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS canonical_scores (
    id                  BIGSERIAL PRIMARY KEY,
    run_id              UUID NOT NULL,
    source_file         TEXT NOT NULL,
    checksum            TEXT NOT NULL REFERENCES processed_files (checksum) ON DELETE CASCADE,
    row_num             INTEGER NOT NULL,
    nces_id             TEXT,
    student_test_id     TEXT,
    student_local_id    TEXT,
    student_grade_level TEXT,
    test_date           DATE,
    test_name           TEXT,
    test_type_name      TEXT,
    test_subject_name   TEXT,
    test_grade_level    TEXT,
    score1_label        TEXT,
    score1_type         TEXT,
    score1_value        TEXT,
    score2_label        TEXT,
    score2_type         TEXT,
    score2_value        TEXT,
    score3_label        TEXT,
    score3_type         TEXT,
    score3_value        TEXT,
    score4_label        TEXT,
    score4_type         TEXT,
    score4_value        TEXT
);

CREATE INDEX IF NOT EXISTS canonical_scores_student_idx
    ON canonical_scores (student_test_id, test_subject_name);
`

// scoreColumns maps canonical columns to their canonical_scores column.
var scoreColumns = []struct {
	col  core.Column
	name string
}{
	{core.ColNCESID, "nces_id"},
	{core.ColStudentTestID, "student_test_id"},
	{core.ColStudentLocalID, "student_local_id"},
	{core.ColStudentGradeLevel, "student_grade_level"},
	{core.ColTestDate, "test_date"},
	{core.ColTestName, "test_name"},
	{core.ColTestTypeName, "test_type_name"},
	{core.ColTestSubjectName, "test_subject_name"},
	{core.ColTestGradeLevel, "test_grade_level"},
	{core.ColScore1Label, "score1_label"},
	{core.ColScore1Type, "score1_type"},
	{core.ColScore1Value, "score1_value"},
	{core.ColScore2Label, "score2_label"},
	{core.ColScore2Type, "score2_type"},
	{core.ColScore2Value, "score2_value"},
	{core.ColScore3Label, "score3_label"},
	{core.ColScore3Type, "score3_type"},
	{core.ColScore3Value, "score3_value"},
	{core.ColScore4Label, "score4_label"},
	{core.ColScore4Type, "score4_type"},
	{core.ColScore4Value, "score4_value"},
}

// copyColumns is the COPY column list, matching copyRow.
var copyColumns = func() []string {
	cols := []string{"run_id", "source_file", "checksum", "row_num"}
	for _, sc := range scoreColumns {
		cols = append(cols, sc.name)
	}
	return cols
}()

// copyRow builds the COPY values for row i of out. Columns a row does not
// carry are stored as NULL, as are blank placeholder cells.
func copyRow(runID pgtype.UUID, out batch.Output, i int) []any {
	r := out.Rows[i]
	vals := make([]any, 0, len(copyColumns))
	vals = append(vals, runID, out.Source, out.Checksum, int32(i+1))

	for _, sc := range scoreColumns {
		v, _ := r.Field(sc.col)
		if sc.col == core.ColTestDate {
			vals = append(vals, ToPgDate(v))
			continue
		}
		vals = append(vals, ToPgText(v))
	}
	return vals
}
