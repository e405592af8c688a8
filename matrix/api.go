// SPDX-License-Identifier: MIT
// Package matrix: public API facades.
//
// Purpose:
//   - Thin, documented entry points over the canonical kernels.
//   - Facades never change loop orders or numeric policy; validation lives in kernels.

package matrix

// NewZeros returns a new zero-initialized *Dense of size rows×cols.
// Thin alias of NewDense with an intention-revealing name.
func NewZeros(rows, cols int) (*Dense, error) { return NewDense(rows, cols) }

// NewIdentity returns I_n (ones on the diagonal, zeros elsewhere).
// Complexity: O(n²) zeroing + O(n) diagonal writes.
func NewIdentity(n int) (*Dense, error) {
	I, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		I.data[i*n+i] = 1.0
	}

	return I, nil
}

// ColumnMeans returns the per-column means of X (length = Cols(X)).
// Time: O(r*c). Space: O(c).
func ColumnMeans(X Matrix) ([]float64, error) { return columnMeans(X) }

// CenterColumns returns a centered copy Xc = X − mean(X, by columns) and the column means.
// Time: O(r*c). Space: O(r*c). Deterministic.
func CenterColumns(X Matrix) (Matrix, []float64, error) { return centerColumns(X) }

// UncenterColumns adds means back to every row: the inverse of CenterColumns.
// Errors: ErrNilMatrix, ErrDimensionMismatch (len(means) != Cols).
func UncenterColumns(Xc Matrix, means []float64) (Matrix, error) {
	return ewBroadcastAddCols(Xc, means)
}

// BroadcastSubRow returns X with v subtracted from every row (out[i,j] = X[i,j] - v[j]).
// Errors: ErrNilMatrix, ErrDimensionMismatch (len(v) != Cols).
func BroadcastSubRow(X Matrix, v []float64) (Matrix, error) { return ewBroadcastSubCols(X, v) }

// BroadcastAddRow returns X with v added to every row (out[i,j] = X[i,j] + v[j]).
func BroadcastAddRow(X Matrix, v []float64) (Matrix, error) { return ewBroadcastAddCols(X, v) }

// Covariance computes the sample covariance of columns: Cov = (Xcᵀ Xc)/(n-1).
// Returns Cov and column means.
//
// Notes:
//   - Requires r >= 2; else ErrDimensionMismatch.
//   - Matches numpy's cov(Xᵀ) (rows are observations, n-1 denominator).
func Covariance(X Matrix) (Matrix, []float64, error) { return covariance(X) }

// AllClose checks element-wise |a-b| ≤ atol + rtol*|b| for identical shapes.
// Returns (true,nil) when every element satisfies the relation; (false,nil) otherwise.
func AllClose(a, b Matrix, rtol, atol float64) (bool, error) {
	return ewAllClose(a, b, rtol, atol)
}
