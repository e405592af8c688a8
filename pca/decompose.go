// SPDX-License-Identifier: MIT

package pca

import (
	"github.com/katalvlaran/lvlearn/matrix"
)

const opDecompose = "Decompose"

// Steps holds every intermediate of the covariance-method recipe.
type Steps struct {
	// Means are the per-column means M of A (length m).
	Means []float64
	// Centered is C = A − M (n×m).
	Centered matrix.Matrix
	// Covariance is V = cov(Cᵀ) (m×m, n−1 denominator).
	Covariance matrix.Matrix
	// Eigenvalues of V; descending unless WithUnsorted was given.
	Eigenvalues []float64
	// Eigenvectors of V as columns (m×m); column j belongs to Eigenvalues[j].
	Eigenvectors *matrix.Dense
	// Basis B holds the first k eigenvector columns (m×k).
	Basis *matrix.Dense
	// Projection is P = Bᵀ · Cᵀ (k×n): column i is the score vector of row i.
	Projection matrix.Matrix
}

// Decompose runs the covariance-method recipe on A keeping k components.
// Implementation:
//   - Stage 1: validate A (non-nil, finite, n ≥ 2) and k ∈ [1, m].
//   - Stage 2: M, C via matrix.CenterColumns; V via matrix.Covariance(C).
//   - Stage 3: eigenpairs via the selected backend; sort desc + FlipSigns.
//   - Stage 4: B = leading k columns; P = Bᵀ · Cᵀ.
//
// Errors:
//   - matrix.ErrNilMatrix, matrix.ErrNaNInf, ErrTooFewSamples,
//     ErrInvalidComponents, matrix.ErrEigenFailed, ErrUnknownBackend.
//
// Complexity:
//   - O(n·m²) for the covariance plus the eigen solver cost on m×m.
func Decompose(A matrix.Matrix, k int, opts ...Option) (*Steps, error) {
	o := gatherOptions(opts...)
	if err := matrix.ValidateFinite(A); err != nil {
		return nil, pcaErrorf(opDecompose, err)
	}
	n, m := A.Rows(), A.Cols()
	if n < 2 {
		return nil, pcaErrorf(opDecompose, ErrTooFewSamples)
	}
	if k < 1 || k > m {
		return nil, pcaErrorf(opDecompose, ErrInvalidComponents)
	}
	solver, err := newSolver(o)
	if err != nil {
		return nil, pcaErrorf(opDecompose, err)
	}

	C, means, err := matrix.CenterColumns(A)
	if err != nil {
		return nil, pcaErrorf(opDecompose, err)
	}
	V, _, err := matrix.Covariance(C)
	if err != nil {
		return nil, pcaErrorf(opDecompose, err)
	}
	Vd, ok := V.(*matrix.Dense)
	if !ok {
		return nil, pcaErrorf(opDecompose, matrix.ErrNilMatrix)
	}

	vals, vecs, err := solver.solve(Vd)
	if err != nil {
		return nil, pcaErrorf(opDecompose, err)
	}
	if !o.Unsorted {
		if vals, vecs, err = matrix.SortEigenDesc(vals, vecs); err != nil {
			return nil, pcaErrorf(opDecompose, err)
		}
		if vecs, err = matrix.FlipSigns(vecs); err != nil {
			return nil, pcaErrorf(opDecompose, err)
		}
	}

	B, err := leadingColumns(vecs, k)
	if err != nil {
		return nil, pcaErrorf(opDecompose, err)
	}
	Bt, err := matrix.Transpose(B)
	if err != nil {
		return nil, pcaErrorf(opDecompose, err)
	}
	Ct, err := matrix.Transpose(C)
	if err != nil {
		return nil, pcaErrorf(opDecompose, err)
	}
	P, err := matrix.Mul(Bt, Ct)
	if err != nil {
		return nil, pcaErrorf(opDecompose, err)
	}

	o.Logger.Debug().
		Int("rows", n).
		Int("cols", m).
		Int("components", k).
		Stringer("backend", o.Backend).
		Floats64("eigenvalues", vals).
		Msg("pca decomposition complete")

	return &Steps{
		Means:        means,
		Centered:     C,
		Covariance:   V,
		Eigenvalues:  vals,
		Eigenvectors: vecs,
		Basis:        B,
		Projection:   P,
	}, nil
}

// Scores returns the projection in row-per-sample layout (n×k), i.e. Pᵀ.
func (s *Steps) Scores() (matrix.Matrix, error) {
	return matrix.Transpose(s.Projection)
}

// leadingColumns copies the first k columns of v into a fresh m×k Dense.
func leadingColumns(v *matrix.Dense, k int) (*matrix.Dense, error) {
	m := v.Rows()
	data := make([]float64, 0, m*k)
	for i := 0; i < m; i++ {
		row, err := v.Row(i)
		if err != nil {
			return nil, err
		}
		data = append(data, row[:k]...)
	}

	return matrix.NewDenseData(m, k, data)
}
