// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Centralize tight element-wise loops (broadcast subtraction, tolerance
//     comparison) so the statistics and comparison facades stay compositions.

package matrix

import "math"

const (
	opBroadcastSubCols = "broadcastSubCols"
	opBroadcastAddCols = "broadcastAddCols"
	opAllClose         = "AllClose"
)

// ewBroadcastSubCols computes out[i,j] = X[i,j] - colVals[j].
// Time: O(r*c). Space: O(r*c). Deterministic i→j loops.
func ewBroadcastSubCols(X Matrix, colVals []float64) (Matrix, error) {
	return ewBroadcastCols(X, colVals, -1, opBroadcastSubCols)
}

// ewBroadcastAddCols computes out[i,j] = X[i,j] + colVals[j].
// Used to undo centering.
func ewBroadcastAddCols(X Matrix, colVals []float64) (Matrix, error) {
	return ewBroadcastCols(X, colVals, +1, opBroadcastAddCols)
}

func ewBroadcastCols(X Matrix, colVals []float64, sign float64, tag string) (Matrix, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(tag, err)
	}
	r, c := X.Rows(), X.Cols()
	if len(colVals) != c {
		return nil, matrixErrorf(tag, ErrDimensionMismatch)
	}
	out, err := NewDense(r, c)
	if err != nil {
		return nil, matrixErrorf(tag, err)
	}

	if d, ok := X.(*Dense); ok {
		for i := 0; i < r; i++ {
			base := i * c
			for j := 0; j < c; j++ {
				out.data[base+j] = d.data[base+j] + sign*colVals[j]
			}
		}
		return out, nil
	}

	var v float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v, err = X.At(i, j); err != nil {
				return nil, matrixErrorf(tag, err)
			}
			out.data[i*c+j] = v + sign*colVals[j]
		}
	}

	return out, nil
}

// ewAllClose checks |a-b| ≤ atol + rtol*|b| element-wise for identical shapes.
// Tolerances are normalized to their absolute values; NaN/Inf tolerances are rejected.
// NaN never compares close; equal infinities do.
func ewAllClose(a, b Matrix, rtol, atol float64) (bool, error) {
	if math.IsNaN(rtol) || math.IsNaN(atol) || math.IsInf(rtol, 0) || math.IsInf(atol, 0) {
		return false, matrixErrorf(opAllClose, ErrNaNInf)
	}
	rtol, atol = math.Abs(rtol), math.Abs(atol)
	if err := ValidateBinarySameShape(a, b); err != nil {
		return false, matrixErrorf(opAllClose, err)
	}

	r, c := a.Rows(), a.Cols()
	var av, bv float64
	var err error
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if av, err = a.At(i, j); err != nil {
				return false, matrixErrorf(opAllClose, err)
			}
			if bv, err = b.At(i, j); err != nil {
				return false, matrixErrorf(opAllClose, err)
			}
			if !closeScalar(av, bv, rtol, atol) {
				return false, nil
			}
		}
	}

	return true, nil
}

func closeScalar(a, b, rtol, atol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}

	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}
