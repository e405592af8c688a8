// SPDX-License-Identifier: MIT

package pca

import "errors"

var (
	// ErrNotFitted is returned by Transform/InverseTransform before Fit.
	ErrNotFitted = errors.New("pca: estimator is not fitted")

	// ErrInvalidComponents is returned when k is outside [1, features].
	ErrInvalidComponents = errors.New("pca: invalid number of components")

	// ErrTooFewSamples is returned when fewer than two observations are given.
	ErrTooFewSamples = errors.New("pca: at least two samples are required")

	// ErrUnknownBackend is returned for an unrecognized eigen backend.
	ErrUnknownBackend = errors.New("pca: unknown eigen backend")
)

func pcaErrorf(op string, err error) error {
	return &opError{op: op, err: err}
}

// opError tags an error with the failing operation while keeping errors.Is working.
type opError struct {
	op  string
	err error
}

func (e *opError) Error() string { return "pca." + e.op + ": " + e.err.Error() }
func (e *opError) Unwrap() error { return e.err }
