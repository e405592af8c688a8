// SPDX-License-Identifier: MIT

// Package matrix provides the dense linear-algebra and statistics primitives
// behind covariance-method PCA.
//
// What & Why:
//
//	The Matrix interface is a uniform abstraction over two-dimensional mutable
//	arrays of float64 values. Dense is its row-major implementation; every
//	kernel has a flat-slice fast path for *Dense and an At/Set fallback for
//	any other implementation, so results never depend on the concrete type.
//
// The package covers:
//
//   - Construction: NewDense, NewDenseFrom, NewIdentity, NewZeros.
//   - Kernels: Add, Sub, Mul, Transpose, Scale, MatVec.
//   - Statistics: ColumnMeans, CenterColumns, Covariance.
//   - Spectral: Eigen (cyclic Jacobi rotations on symmetric input),
//     SortEigenDesc, FlipSigns.
//   - Numeric comparison: AllClose.
//
// Quick example (the classic 3×2 walkthrough):
//
//	A, _ := matrix.NewDenseFrom([][]float64{{1, 2}, {3, 4}, {5, 6}})
//	C, M, _ := matrix.CenterColumns(A)   // M = [3 4]
//	V, _, _ := matrix.Covariance(C)      // V = [[4 4] [4 4]]
//	vals, vecs, _ := matrix.Eigen(V)     // vals ≈ {0, 8}
//
// Errors are package sentinels (ErrDimensionMismatch, ErrEigenFailed, ...)
// wrapped with the failing operation name; match them with errors.Is.
//
// Complexity:
//
//	Rows/Cols/At/Set are O(1). Elementwise kernels are O(r*c), Mul is
//	O(r*n*c), Covariance is O(r*c²) and one Jacobi sweep is O(n²) per rotation.
package matrix
