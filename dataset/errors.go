// SPDX-License-Identifier: MIT

package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is returned for a cell that is not a finite number.
	ErrParse = errors.New("dataset: parse error")

	// ErrEmpty is returned for a source with no data rows.
	ErrEmpty = errors.New("dataset: no data rows")

	// ErrRagged is returned when rows have different field counts.
	ErrRagged = errors.New("dataset: ragged rows")

	// ErrColumn is returned for an out-of-range index or unknown column name.
	ErrColumn = errors.New("dataset: no such column")

	// ErrClasses is returned for a label that is not a non-negative integer
	// or, by OneHot, one outside [0, classes).
	ErrClasses = errors.New("dataset: label outside class range")
)

// ParseError locates a bad cell. Row and Col are zero-based over the data
// rows (the header, if any, is not counted).
type ParseError struct {
	Row, Col int
	Value    string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dataset: row %d col %d: %q: %v", e.Row, e.Col, e.Value, e.Err)
}

// Unwrap exposes ErrParse so callers can use errors.Is.
func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }
