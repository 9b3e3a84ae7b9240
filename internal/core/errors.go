package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for file-level problems detected by readers around the pipeline.
var (
	ErrEmptyFile      = errors.New("empty file")
	ErrHeaderNotFound = errors.New("header row not found")
	ErrFileTooLarge   = errors.New("file too large")
)

// UnknownSubjectError is returned when a configured subject key has no definition.
type UnknownSubjectError struct {
	Key string
}

func (e *UnknownSubjectError) Error() string {
	return fmt.Sprintf("unknown subject %q: must be one of %s", e.Key, strings.Join(SubjectKeys(), ", "))
}

// Column stages reported by MissingColumnError.
const (
	StageInput  = "input"
	StageOutput = "output"
)

// MissingColumnError is returned when a required input column is absent from
// a file header, or an output column names a field records do not have.
type MissingColumnError struct {
	Columns []string // Every missing column, in the order they were checked
	Stage   string   // StageInput or StageOutput
}

func (e *MissingColumnError) Error() string {
	noun := "column"
	if len(e.Columns) != 1 {
		noun = "columns"
	}
	return fmt.Sprintf("missing %s %s: %s", e.Stage, noun, strings.Join(e.Columns, ", "))
}

// UnknownPerformanceLevelError is returned by the remapper under PolicyFail
// when a slot-1 value is not a recognized performance-level code.
type UnknownPerformanceLevelError struct {
	Code          string
	StudentTestID string
	Subject       string
}

func (e *UnknownPerformanceLevelError) Error() string {
	return fmt.Sprintf("unknown performance level %q for student %s (%s)", e.Code, e.StudentTestID, e.Subject)
}
