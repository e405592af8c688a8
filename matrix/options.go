// SPDX-License-Identifier: MIT

// Package matrix: numeric policy defaults and functional options for the
// spectral kernels.
//
// Design goals:
//   - One source of truth for tolerances and iteration budgets.
//   - Option constructors panic only on nonsensical values (programmer error).
package matrix

import (
	"fmt"
	"math"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultValidateNaNInf toggles strict finite-value validation on ingestion and Set.
	DefaultValidateNaNInf = true

	// DefaultSymmetryTolerance bounds |A[i,j]-A[j,i]| accepted by Eigen.
	DefaultSymmetryTolerance = 1e-9

	// DefaultEigenTolerance is the relative off-diagonal threshold (scaled by ‖A‖_F)
	// at which the Jacobi iteration is considered converged.
	DefaultEigenTolerance = 1e-12

	// DefaultEigenSweeps bounds the rotation budget as sweeps*n*n (+ a small floor).
	DefaultEigenSweeps = 50

	minEigenIterations = 100
)

const (
	panicToleranceInvalid = "matrix: tolerance must be finite and non-negative"
	panicMaxIterInvalid   = "matrix: max iterations must be non-negative"
)

// EigenOption mutates EigenOptions. Safe to apply repeatedly.
type EigenOption func(*EigenOptions)

// EigenOptions holds the effective Jacobi configuration.
type EigenOptions struct {
	tol         float64 // relative convergence threshold
	symTol      float64 // symmetry validation tolerance
	maxIter     int     // 0 means derive from n
	validateSym bool
}

// WithTolerance sets the relative convergence threshold of the Jacobi iteration.
// Panics on NaN/Inf/negative values.
func WithTolerance(tol float64) EigenOption {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		panic(fmt.Sprintf("%s (got %v)", panicToleranceInvalid, tol))
	}
	return func(o *EigenOptions) { o.tol = tol }
}

// WithSymmetryTolerance sets the tolerance used by the symmetry precheck.
func WithSymmetryTolerance(tol float64) EigenOption {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		panic(fmt.Sprintf("%s (got %v)", panicToleranceInvalid, tol))
	}
	return func(o *EigenOptions) { o.symTol = tol }
}

// WithMaxIterations caps the number of Jacobi rotations. Zero restores the
// size-derived default.
func WithMaxIterations(n int) EigenOption {
	if n < 0 {
		panic(fmt.Sprintf("%s (got %d)", panicMaxIterInvalid, n))
	}
	return func(o *EigenOptions) { o.maxIter = n }
}

// WithoutSymmetryCheck skips the O(n²) symmetry precheck; only the upper
// triangle is trusted in that case.
func WithoutSymmetryCheck() EigenOption {
	return func(o *EigenOptions) { o.validateSym = false }
}

func gatherEigenOptions(n int, user ...EigenOption) EigenOptions {
	o := EigenOptions{
		tol:         DefaultEigenTolerance,
		symTol:      DefaultSymmetryTolerance,
		validateSym: true,
	}
	for _, fn := range user {
		if fn != nil {
			fn(&o)
		}
	}
	if o.maxIter == 0 {
		o.maxIter = DefaultEigenSweeps*n*n + minEigenIterations
	}

	return o
}
