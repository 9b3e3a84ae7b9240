package core

// validation.go checks a file header against the columns a pipeline config
// needs and builds InputRecords from raw CSV rows.
//
// Header validation happens once per file and reports every missing column
// at once. Row building never fails: a short row simply yields blank cells,
// which the blank-score filter then handles like any other empty score.

import "strings"

// ValidateHeaders checks that every required column exists in headers.
// Returns the header index on success, or *MissingColumnError listing all
// missing columns.
func ValidateHeaders(headers []string, required []string) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, col := range required {
		if _, ok := idx[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing, Stage: StageInput}
	}
	return idx, nil
}

// BuildInputRecord reads the identity and score columns for subjects from row.
// Cell values are copied verbatim; only header names are cleaned.
func BuildInputRecord(row []string, idx HeaderIndex, subjects []Subject) InputRecord {
	rec := InputRecord{
		SASID:  getCell(row, idx, IdentityColumn),
		Grade:  getCell(row, idx, GradeColumn),
		Scores: make(map[Subject]RawScores, len(subjects)),
	}
	for _, s := range subjects {
		rec.Scores[s] = RawScores{
			PerformanceLevel: getCell(row, idx, s.PerfColumn()),
			ScaledScore:      getCell(row, idx, s.ScaledColumn()),
			CPI:              getCell(row, idx, s.CPIColumn()),
		}
	}
	return rec
}

// getCell returns the cell for column name, or "" if the row is too short.
func getCell(row []string, idx HeaderIndex, name string) string {
	pos, ok := idx[strings.ToLower(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	return row[pos]
}
