// SPDX-License-Identifier: MIT

package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlearn/matrix"
)

func TestBroadcastRow(t *testing.T) {
	A := walkthrough(t)

	sub, err := matrix.BroadcastSubRow(A, []float64{1, 2})
	require.NoError(t, err)
	CompareClose(t, sub, NewFilledDense(t, 3, 2, []float64{0, 0, 2, 2, 4, 4}), 0, 0)

	add, err := matrix.BroadcastAddRow(hide{sub}, []float64{1, 2})
	require.NoError(t, err)
	CompareClose(t, add, A, 0, 0)

	_, err = matrix.BroadcastSubRow(A, []float64{1})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = matrix.BroadcastAddRow(nil, []float64{1})
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestAllClose(t *testing.T) {
	a := grid{{1, 100, math.Inf(1)}}
	b := grid{{1 + 1e-10, 100.001, math.Inf(1)}}

	ok, err := matrix.AllClose(a, b, 1e-5, 1e-8)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = matrix.AllClose(a, b, 0, 1e-12)
	require.NoError(t, err)
	require.False(t, ok)

	nan := grid{{math.NaN(), 100, math.Inf(1)}}
	ok, err = matrix.AllClose(nan, nan, 1, 1)
	require.NoError(t, err)
	require.False(t, ok, "NaN never compares close")

	_, err = matrix.AllClose(a, b, math.Inf(1), 0)
	require.ErrorIs(t, err, matrix.ErrNaNInf)
	_, err = matrix.AllClose(a, MustDense(t, 3, 1), 0, 0)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestEigenOptionsPanicOnNonsense(t *testing.T) {
	require.Panics(t, func() { matrix.WithTolerance(-1) })
	require.Panics(t, func() { matrix.WithSymmetryTolerance(math.NaN()) })
	require.Panics(t, func() { matrix.WithMaxIterations(-5) })
	require.NotPanics(t, func() { matrix.WithMaxIterations(0) })
}
