// Package core provides the record-transformation pipeline for MCAS exports.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When an operator hits an error, they can quote the code to whoever maintains
// the export job.
//
// # Configuration Errors (SUBJ001, COL002)
//
//	SUBJ001 - Unknown subject: A configured subject is not supported
//	          Action: Use one of ela, math, science
//	          Match: *UnknownSubjectError
//
//	COL002 - Unknown output column: An output column is not in the canonical schema
//	         Action: Check the output column list against the canonical format
//	         Match: *MissingColumnError with Stage "output"
//
// # Data Errors (COL001, PERF001)
//
//	COL001 - Missing input column: The export lacks a required score column
//	         Action: Re-export including sasid, stugrade, and the perf2/scaleds/cpi columns
//	         Match: *MissingColumnError with Stage "input"
//
//	PERF001 - Unknown performance level: A performance level code is not recognized
//	          Action: Expected one of F, W, NI, P, A, P+ or blank
//	          Match: *UnknownPerformanceLevelError
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the configured size limit
//	          Action: Split the export into smaller files
//	          Match: ErrFileTooLarge
//
//	FILE002 - Invalid CSV: File could not be parsed as CSV
//	          Action: Ensure the file is comma-separated with balanced quotes
//	          Patterns: "parse error", "invalid csv"
//
//	FILE003 - Header not found: No header row with the expected columns
//	          Action: Make sure the first rows of the file contain the column names
//	          Match: ErrHeaderNotFound
//
//	FILE004 - Empty file: The file has no header or data
//	          Action: Check that the export finished writing
//	          Match: ErrEmptyFile
//
// # Context Errors (CTX001-CTX099)
//
//	CTX001 - Cancelled: The run was cancelled
//	         Match: context.Canceled
//
//	CTX002 - Timed out: The run took longer than allowed
//	         Match: context.DeadlineExceeded
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Check the logs for the underlying error
//
// Typed errors are matched with errors.As / errors.Is first, so wrapping with
// fmt.Errorf("...: %w") never hides them. Text patterns are matched
// case-insensitively afterwards, first match wins.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgUnknownSubject = UserMessage{
		Message: "A configured subject is not supported",
		Action:  "Use one of: " + strings.Join(SubjectKeys(), ", "),
		Code:    "SUBJ001",
	}
	msgMissingInput = UserMessage{
		Message: "Required column is missing from the export",
		Action:  "Re-export including sasid, stugrade, and the perf2/scaleds/cpi columns for each subject",
		Code:    "COL001",
	}
	msgUnknownOutput = UserMessage{
		Message: "Output column is not part of the canonical format",
		Action:  "Check the output column list against the canonical format",
		Code:    "COL002",
	}
	msgUnknownLevel = UserMessage{
		Message: "Unrecognized performance level code",
		Action:  "Expected one of F, W, NI, P, A, P+ or blank",
		Code:    "PERF001",
	}
	msgFileTooLarge = UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the export into smaller files",
		Code:    "FILE001",
	}
	msgHeaderNotFound = UserMessage{
		Message: "No header row with the expected columns was found",
		Action:  "Make sure the first rows of the file contain the column names",
		Code:    "FILE003",
	}
	msgEmptyFile = UserMessage{
		Message: "The file is empty",
		Action:  "Check that the export finished writing",
		Code:    "FILE004",
	}
	msgCancelled = UserMessage{
		Message: "The run was cancelled",
		Action:  "Start the run again when ready",
		Code:    "CTX001",
	}
	msgTimeout = UserMessage{
		Message: "The run timed out",
		Action:  "Try a smaller file or raise the timeout",
		Code:    "CTX002",
	}
)

// errorPattern defines a text pattern and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors that arrive without a typed cause, such as
// encoding/csv parse errors.
var errorPatterns = []errorPattern{
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with balanced quotes",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with balanced quotes",
			Code:    "FILE002",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for the underlying error",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := core.ParseSubject("history")
//	msg := core.MapError(err)
//	// msg.Code == "SUBJ001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var subjErr *UnknownSubjectError
	var colErr *MissingColumnError
	var levelErr *UnknownPerformanceLevelError

	switch {
	case errors.As(err, &subjErr):
		return msgUnknownSubject
	case errors.As(err, &colErr):
		if colErr.Stage == StageOutput {
			return msgUnknownOutput
		}
		return msgMissingInput
	case errors.As(err, &levelErr):
		return msgUnknownLevel
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge
	case errors.Is(err, ErrHeaderNotFound):
		return msgHeaderNotFound
	case errors.Is(err, ErrEmptyFile):
		return msgEmptyFile
	case errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
