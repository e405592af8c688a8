// SPDX-License-Identifier: MIT
// Package matrix - symmetric eigen-decomposition and eigenpair post-processing.
//
// Purpose:
//   - Eigen: classic Jacobi rotations (largest off-diagonal pivot first).
//   - SortEigenDesc: order eigenpairs by eigenvalue, largest first.
//   - FlipSigns: pick a deterministic sign for every eigenvector column.
//
// Determinism:
//   - Pivot search scans the strict upper triangle in i→j order; ties keep the first pivot.
//   - Sorting is stable, so equal eigenvalues keep solver order.

package matrix

import (
	"math"
	"sort"
)

const (
	opEigen     = "Eigen"
	opSortEigen = "SortEigenDesc"
	opFlipSigns = "FlipSigns"
)

// signTieTolerance treats two magnitudes within this relative distance as equal
// when FlipSigns picks the dominant entry of a column.
const signTieTolerance = 1e-9

// Eigen computes eigenvalues and eigenvectors of a symmetric matrix using
// Jacobi rotations.
// Implementation:
//   - Stage 1: validate non-nil, square and (unless disabled) symmetric input.
//   - Stage 2: copy into a working *Dense A and set Q = I.
//   - Stage 3: repeat: find pivot (p,q) maximizing |A[p,q]|; stop once it drops
//     below tol*max(1, ‖A‖_F); otherwise rotate A and accumulate into Q.
//   - Stage 4: eigenvalues are diag(A); eigenvectors are the columns of Q.
//
// Returns:
//   - []float64: eigenvalues in solver order (see SortEigenDesc).
//   - *Dense  : n×n matrix whose column k is the eigenvector of value k.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch, ErrAsymmetry, ErrNaNInf,
//     ErrEigenFailed (rotation budget exhausted).
//
// Complexity:
//   - O(n²) per pivot search + O(n) per rotation; typically O(n³)…O(n⁴) overall.
func Eigen(m Matrix, opts ...EigenOption) ([]float64, *Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	if err := ValidateSquare(m); err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	n := m.Rows()
	o := gatherEigenOptions(n, opts...)
	if o.validateSym {
		if err := ValidateSymmetric(m, o.symTol); err != nil {
			return nil, nil, matrixErrorf(opEigen, err)
		}
	}
	if err := ValidateFinite(m); err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}

	src, err := asDense(m)
	if err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	a := make([]float64, n*n)
	copy(a, src.data)
	// Mirror the upper triangle so the rotations see an exactly symmetric matrix.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a[j*n+i] = a[i*n+j]
		}
	}
	q := make([]float64, n*n)
	for i := 0; i < n; i++ {
		q[i*n+i] = 1.0
	}

	var frob float64
	for _, v := range a {
		frob += v * v
	}
	threshold := o.tol * math.Max(1.0, math.Sqrt(frob))

	var (
		iter, i, j, p, qi  int
		maxOff, off        float64
		app, aqq, apq      float64
		aip, aiq, qip, qiq float64
		theta, t, c, s     float64
		converged          bool
	)
	for iter = 0; iter <= o.maxIter; iter++ {
		// J.1: pivot search over the strict upper triangle.
		maxOff = 0
		for i = 0; i < n; i++ {
			for j = i + 1; j < n; j++ {
				off = math.Abs(a[i*n+j])
				if off > maxOff {
					maxOff, p, qi = off, i, j
				}
			}
		}
		// J.2: convergence.
		if maxOff <= threshold {
			converged = true
			break
		}
		if iter == o.maxIter {
			break
		}

		// J.3: rotation parameters.
		app = a[p*n+p]
		aqq = a[qi*n+qi]
		apq = a[p*n+qi]
		theta = (aqq - app) / (2 * apq)
		t = math.Copysign(1.0/(math.Abs(theta)+math.Hypot(theta, 1)), theta)
		c = 1.0 / math.Sqrt(t*t+1)
		s = t * c

		// J.4: apply rotation to A (rows/cols p and q).
		for i = 0; i < n; i++ {
			if i == p || i == qi {
				continue
			}
			aip = a[i*n+p]
			aiq = a[i*n+qi]
			a[i*n+p] = c*aip - s*aiq
			a[p*n+i] = a[i*n+p]
			a[i*n+qi] = s*aip + c*aiq
			a[qi*n+i] = a[i*n+qi]
		}
		a[p*n+p] = c*c*app - 2*c*s*apq + s*s*aqq
		a[qi*n+qi] = s*s*app + 2*c*s*apq + c*c*aqq
		a[p*n+qi], a[qi*n+p] = 0, 0

		// J.5: accumulate rotation into Q.
		for i = 0; i < n; i++ {
			qip = q[i*n+p]
			qiq = q[i*n+qi]
			q[i*n+p] = c*qip - s*qiq
			q[i*n+qi] = s*qip + c*qiq
		}
	}
	if !converged {
		return nil, nil, matrixErrorf(opEigen, ErrEigenFailed)
	}

	vals := make([]float64, n)
	for i = 0; i < n; i++ {
		vals[i] = a[i*n+i]
	}

	return vals, newDenseRaw(n, n, q), nil
}

// SortEigenDesc reorders eigenpairs so eigenvalues are non-increasing.
// The column k of vecs must belong to vals[k]. Ties keep their input order.
//
// Errors: ErrNilMatrix, ErrDimensionMismatch (len(vals) != Cols(vecs)).
// Complexity: O(n log n + n²).
func SortEigenDesc(vals []float64, vecs Matrix) ([]float64, *Dense, error) {
	if err := ValidateNotNil(vecs); err != nil {
		return nil, nil, matrixErrorf(opSortEigen, err)
	}
	if err := ValidateVecLen(vals, vecs.Cols()); err != nil {
		return nil, nil, matrixErrorf(opSortEigen, err)
	}
	src, err := asDense(vecs)
	if err != nil {
		return nil, nil, matrixErrorf(opSortEigen, err)
	}

	n := len(vals)
	order := make([]int, n)
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(x, y int) bool { return vals[order[x]] > vals[order[y]] })

	r := src.r
	outVals := make([]float64, n)
	out, err := NewDense(r, n)
	if err != nil {
		return nil, nil, matrixErrorf(opSortEigen, err)
	}
	for dst, from := range order {
		outVals[dst] = vals[from]
		for i := 0; i < r; i++ {
			out.data[i*n+dst] = src.data[i*n+from]
		}
	}

	return outVals, out, nil
}

// FlipSigns returns a copy of vecs where, in every column, the entry with the
// largest magnitude is positive. Near-ties (within a relative 1e-9) resolve to
// the first such entry, which keeps different solvers in agreement.
//
// Complexity: O(r*c).
func FlipSigns(vecs Matrix) (*Dense, error) {
	if err := ValidateNotNil(vecs); err != nil {
		return nil, matrixErrorf(opFlipSigns, err)
	}
	src, err := asDense(vecs)
	if err != nil {
		return nil, matrixErrorf(opFlipSigns, err)
	}
	out := src.Clone().(*Dense)
	r, c := out.r, out.c

	var maxAbs, v float64
	for j := 0; j < c; j++ {
		maxAbs = 0
		for i := 0; i < r; i++ {
			if v = math.Abs(out.data[i*c+j]); v > maxAbs {
				maxAbs = v
			}
		}
		if maxAbs == 0 {
			continue
		}
		for i := 0; i < r; i++ {
			v = out.data[i*c+j]
			if math.Abs(v) < maxAbs*(1-signTieTolerance) {
				continue
			}
			if v < 0 {
				for k := 0; k < r; k++ {
					out.data[k*c+j] = -out.data[k*c+j]
				}
			}
			break
		}
	}

	return out, nil
}
