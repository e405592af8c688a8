// SPDX-License-Identifier: MIT

package pca

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/lvlearn/matrix"
)

// Backend selects the symmetric eigen solver.
type Backend int

const (
	// Jacobi uses matrix.Eigen (cyclic Jacobi rotations).
	Jacobi Backend = iota
	// Gonum uses gonum.org/v1/gonum/mat.EigenSym.
	Gonum
)

// String implements fmt.Stringer.
func (b Backend) String() string {
	switch b {
	case Jacobi:
		return "jacobi"
	case Gonum:
		return "gonum"
	default:
		return fmt.Sprintf("backend(%d)", int(b))
	}
}

// ParseBackend maps "jacobi"/"gonum" (case-insensitive) to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "jacobi":
		return Jacobi, nil
	case "gonum":
		return Gonum, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrUnknownBackend)
	}
}

// Options is the resolved configuration of Decompose and PCA.
type Options struct {
	Components int // 0 keeps every component
	Backend    Backend
	Whiten     bool
	Unsorted   bool
	Tolerance  float64
	MaxIter    int
	Logger     zerolog.Logger

	eigen []matrix.EigenOption
}

// Option mutates Options.
type Option func(*Options)

// WithComponents keeps the top k components (0 keeps all).
func WithComponents(k int) Option { return func(o *Options) { o.Components = k } }

// WithBackend selects the eigen solver.
func WithBackend(b Backend) Option { return func(o *Options) { o.Backend = b } }

// WithWhiten scales the scores to unit variance per component.
func WithWhiten() Option { return func(o *Options) { o.Whiten = true } }

// WithUnsorted keeps eigenpairs in solver order and skips sign normalization.
func WithUnsorted() Option { return func(o *Options) { o.Unsorted = true } }

// WithTolerance sets the Jacobi convergence tolerance (ignored by Gonum).
// It panics on a negative or non-finite tolerance, like matrix.WithTolerance.
func WithTolerance(tol float64) Option {
	eo := matrix.WithTolerance(tol)
	return func(o *Options) {
		o.Tolerance = tol
		o.eigen = append(o.eigen, eo)
	}
}

// WithMaxIterations caps Jacobi rotations (ignored by Gonum); 0 restores the
// size-based default. It panics on a negative count.
func WithMaxIterations(n int) Option {
	eo := matrix.WithMaxIterations(n)
	return func(o *Options) {
		o.MaxIter = n
		o.eigen = append(o.eigen, eo)
	}
}

// WithLogger attaches a structured logger; the default discards output.
func WithLogger(l zerolog.Logger) Option { return func(o *Options) { o.Logger = l } }

func gatherOptions(user ...Option) Options {
	o := Options{
		Backend:   Jacobi,
		Tolerance: matrix.DefaultEigenTolerance,
		Logger:    zerolog.Nop(),
	}
	for _, fn := range user {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
