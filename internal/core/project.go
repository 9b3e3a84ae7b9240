package core

// Project selects exactly the named columns, in order, from every record.
// Columns are checked before any record is read, so an unknown column fails
// even when records is empty.
func Project[R Fielder](records []R, columns []Column) ([]OrderedRecord, error) {
	if err := checkColumns(columns); err != nil {
		return nil, err
	}

	out := make([]OrderedRecord, len(records))
	for i, r := range records {
		values := make([]string, len(columns))
		for j, c := range columns {
			v, ok := r.Field(c)
			if !ok {
				return nil, &MissingColumnError{Columns: []string{string(c)}, Stage: StageOutput}
			}
			values[j] = v
		}
		cols := make([]Column, len(columns))
		copy(cols, columns)
		out[i] = OrderedRecord{Columns: cols, Values: values}
	}
	return out, nil
}

func checkColumns(columns []Column) error {
	var missing []string
	for _, c := range columns {
		if !c.Known() {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Columns: missing, Stage: StageOutput}
	}
	return nil
}
