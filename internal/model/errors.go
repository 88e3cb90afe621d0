package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid parameters; the run never begins
	ErrConfiguration = errors.New("invalid configuration")

	// ErrConcurrentRun is returned when a run is requested while another is running
	ErrConcurrentRun = errors.New("a research run is already active")

	// ErrNoRun is returned by run controls when no run exists
	ErrNoRun = errors.New("no research run")

	// ErrRunStopped is returned when resuming a stopped run
	ErrRunStopped = errors.New("research run was stopped")

	// ErrBelowThreshold drops a candidate whose relevance is under the threshold
	ErrBelowThreshold = errors.New("relevance below threshold")

	// ErrBlacklisted is returned for URLs that permanently failed to fetch
	ErrBlacklisted = errors.New("url permanently failed")

	// ErrNotFound is returned when a verdict id is unknown
	ErrNotFound = errors.New("not found")
)

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// FetchError is a timeout or non-2xx failure of the fetch collaborator
type FetchError struct {
	URL      string
	Status   int // HTTP status, 0 for transport errors
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	msg := "fetch " + e.URL
	if e.Status != 0 {
		msg += fmt.Sprintf(": unexpected status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" (after %d attempts)", e.Attempts)
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed (5xx, 429, transient network failures)
func (e *FetchError) Retryable() bool {
	if e.Status >= 500 && e.Status < 600 || e.Status == 429 {
		return true
	}
	if e.Status != 0 || e.Err == nil {
		return false
	}
	s := strings.ToLower(e.Err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "deadline exceeded") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "eof")
}

// ExtractionError means content was too short or unparseable
type ExtractionError struct {
	URL    string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.URL, e.Reason)
}

// AnalysisError wraps a failure while analysing a single item
type AnalysisError struct {
	URL string
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze %s: %v", e.URL, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
