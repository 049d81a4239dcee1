package pgload

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := loader.Load(ctx, config)
//	if errors.Is(err, pgload.ErrTimestampParse) {
//	    var tsErr *pgload.TimestampParseError
//	    errors.As(err, &tsErr)
//	    // tsErr.Column, tsErr.Value
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSource indicates the source file could not be opened, decoded or read.
	ErrSource = errors.New("source error")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrTimestampParse indicates a timestamp column held a value that is not a date/time.
	ErrTimestampParse = errors.New("timestamp parse error")

	// ErrAppend indicates the destination rejected a batch.
	ErrAppend = errors.New("append failed")

	// ErrEmptySource indicates the source has no data rows.
	ErrEmptySource = errors.New("source contains no rows")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// SourceError reports a failure to open or read the tabular source.
// Line is the 1-based input line when known, 0 otherwise.
type SourceError struct {
	Location string
	Line     int
	Err      error
}

func (e *SourceError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("source %s, line %d: %v", e.Location, e.Line, e.Err)
	}
	return fmt.Sprintf("source %s: %v", e.Location, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Is matches ErrSource.
func (e *SourceError) Is(target error) bool { return target == ErrSource }

// ConnectionError reports that the destination database could not be reached.
type ConnectionError struct {
	Host     string
	Port     int
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to database %q at %s:%d: %v", e.Database, e.Host, e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is matches ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool { return target == ErrConnectionFailed }

// TimestampParseError reports a timestamp column value that could not be parsed.
// Batch is zero-based, Row is zero-based within the batch.
type TimestampParseError struct {
	Column string
	Value  string
	Batch  int
	Row    int
	Err    error
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("batch %d, row %d: column %q: cannot parse %q as timestamp: %v",
		e.Batch, e.Row, e.Column, Truncate(e.Value, MaxErrorPreviewLength), e.Err)
}

func (e *TimestampParseError) Unwrap() error { return e.Err }

// Is matches ErrTimestampParse.
func (e *TimestampParseError) Is(target error) bool { return target == ErrTimestampParse }

// AppendError reports that a batch could not be written to the target table.
// Batch is zero-based.
type AppendError struct {
	Table string
	Batch int
	Err   error
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("append batch %d to table %q: %v", e.Batch, e.Table, e.Err)
}

func (e *AppendError) Unwrap() error { return e.Err }

// Is matches ErrAppend.
func (e *AppendError) Is(target error) bool { return target == ErrAppend }

// Truncate shortens s to at most n bytes, marking the cut with "...".
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrEmptySource):
		return ExitEmptySourceError
	case errors.Is(err, ErrTimestampParse):
		return ExitTimestampError
	case errors.Is(err, ErrAppend):
		return ExitAppendError
	case errors.Is(err, ErrSource):
		return ExitSourceError
	}

	// Cobra reports usage problems as plain errors
	errStr := err.Error()
	usagePatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"required flag",
		"invalid argument",
		"flag needs an argument",
		"none of the others can be",
	}
	for _, p := range usagePatterns {
		if strings.Contains(errStr, p) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
