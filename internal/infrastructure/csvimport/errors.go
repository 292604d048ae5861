package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	ErrCodeRequired     = "REQUIRED"
	ErrCodeInvalidType  = "INVALID_TYPE"
	ErrCodeTooLong      = "TOO_LONG"
	ErrCodeOutOfRange   = "OUT_OF_RANGE"
	ErrCodeInvalidValue = "INVALID_VALUE"
	ErrCodeMalformedRow = "MALFORMED_ROW"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeNotSaved     = "NOT_SAVED"
)

var (
	// ErrEmptyFile is returned when the file has no content
	ErrEmptyFile = errors.New("csvimport: file is empty")
	// ErrMissingHeader is returned when the file has no header row
	ErrMissingHeader = errors.New("csvimport: missing header row")
	// ErrTooManyRows is returned when the file exceeds the row limit
	ErrTooManyRows = errors.New("csvimport: too many rows")
)

// RowError is a problem found on one line of the file
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("line %d, column %s: %s", e.Line, e.Column, e.Message)
}

// ErrorCollection keeps the first max errors and counts the rest
type ErrorCollection struct {
	max    int
	errors []RowError
	total  int
}

// NewErrorCollection creates a collection; max <= 0 means 100
func NewErrorCollection(max int) *ErrorCollection {
	if max <= 0 {
		max = 100
	}
	return &ErrorCollection{max: max}
}

// Add records err
func (c *ErrorCollection) Add(err RowError) {
	c.total++
	if len(c.errors) < c.max {
		c.errors = append(c.errors, err)
	}
}

// Errors returns the kept errors
func (c *ErrorCollection) Errors() []RowError { return c.errors }

// Total returns how many errors were added, kept or not
func (c *ErrorCollection) Total() int { return c.total }

// HasErrors reports whether anything was added
func (c *ErrorCollection) HasErrors() bool { return c.total > 0 }

// Truncated reports whether errors were dropped
func (c *ErrorCollection) Truncated() bool { return c.total > len(c.errors) }
