// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   • Provide small, deterministic fixtures and utilities for kernels.
//   • Keep all data finite and well-formed to avoid numeric-policy interference.

package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/lvlearn/matrix"
)

// hide wraps any Matrix to hide its concrete type from type assertions,
// forcing the At/Set fallback paths in code under test.
type hide struct{ matrix.Matrix }

// grid is a Matrix without the finite-value policy, used to feed NaN/Inf.
type grid [][]float64

func (g grid) Rows() int { return len(g) }
func (g grid) Cols() int { return len(g[0]) }

func (g grid) At(i, j int) (float64, error) {
	if i < 0 || i >= len(g) || j < 0 || j >= len(g[0]) {
		return 0, matrix.ErrOutOfRange
	}
	return g[i][j], nil
}

func (g grid) Set(i, j int, v float64) error {
	if i < 0 || i >= len(g) || j < 0 || j >= len(g[0]) {
		return matrix.ErrOutOfRange
	}
	g[i][j] = v
	return nil
}

func (g grid) Clone() matrix.Matrix {
	out := make(grid, len(g))
	for i := range g {
		out[i] = append([]float64(nil), g[i]...)
	}
	return out
}

// MustDense allocates an r×c *Dense or fails the test.
func MustDense(t testing.TB, r, c int) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDense(r, c)
	if err != nil {
		t.Fatalf("NewDense(%d,%d): %v", r, c, err)
	}
	return m
}

// NewFilledDense builds an r×c *Dense from a row-major slice.
func NewFilledDense(t testing.TB, r, c int, vals []float64) *matrix.Dense {
	t.Helper()
	if len(vals) != r*c {
		t.Fatalf("NewFilledDense: got %d values for %dx%d", len(vals), r, c)
	}
	m := MustDense(t, r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if err := m.Set(i, j, vals[i*c+j]); err != nil {
				t.Fatalf("Set(%d,%d): %v", i, j, err)
			}
		}
	}
	return m
}

// MustAt reads (i,j) or fails the test.
func MustAt(t testing.TB, m matrix.Matrix, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	if err != nil {
		t.Fatalf("At(%d,%d): %v", i, j, err)
	}
	return v
}

// CompareClose fails unless a and b agree element-wise within atol + rtol*|b|.
func CompareClose(t testing.TB, a, b matrix.Matrix, rtol, atol float64) {
	t.Helper()
	ok, err := matrix.AllClose(a, b, rtol, atol)
	if err != nil {
		t.Fatalf("AllClose: %v", err)
	}
	if !ok {
		t.Fatalf("matrices differ:\n%v\nvs\n%v", a, b)
	}
}

// sliceClose compares two vectors element-wise.
func sliceClose(t testing.TB, got, want []float64, rtol, atol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > atol+rtol*math.Abs(want[i]) {
			t.Fatalf("index %d: got %g, want %g", i, got[i], want[i])
		}
	}
}

// walkthrough returns the 3×2 matrix used throughout the PCA walkthrough.
func walkthrough(t testing.TB) *matrix.Dense {
	t.Helper()
	A, err := matrix.NewDenseFrom([][]float64{{1, 2}, {3, 4}, {5, 6}})
	if err != nil {
		t.Fatalf("NewDenseFrom: %v", err)
	}
	return A
}
