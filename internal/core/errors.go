package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed pipeline run for logs and metrics.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindParse     ErrorKind = "parse"
	KindUnknown   ErrorKind = "unknown"
)

// FetchError reports a non-success HTTP status or a network failure before a
// response was received (StatusCode is 0 in that case).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	if e.Err != nil {
		return "fetch source: " + e.Err.Error()
	}
	return "fetch source failed"
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a structural failure reading the delimited table.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse table (line %d): %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse table: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrorKindOf returns the kind of a pipeline error.
func ErrorKindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return KindTransport
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return KindParse
	}
	return KindUnknown
}

// ErrorMessage renders the single human-readable message shown to viewers.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if ErrorKindOf(err) == KindUnknown {
		return "Failed to fetch data: " + err.Error()
	}
	return err.Error()
}
