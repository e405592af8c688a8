// SPDX-License-Identifier: MIT

package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sequence generator parameters.
const (
	trendStep  = 0.1
	trendNoise = 0.03
)

// Sequences generates n univariate sequences of the given length for binary
// classification: label 1 for a rising trend, 0 for a falling one. Rows of X
// are the flattened (timesteps × 1) samples; y is n×1. Classes are balanced
// and shuffled, and the output depends only on seed.
func Sequences(n, timesteps int, seed uint64) (*mat.Dense, *mat.Dense, error) {
	if n <= 0 || timesteps <= 1 {
		return nil, nil, fmt.Errorf("sequences n=%d timesteps=%d: %w", n, timesteps, ErrEmpty)
	}

	src := rand.NewPCG(seed, seed^0x5851f42d4c957f2d)
	rng := rand.New(src)
	noise := distuv.Normal{Mu: 0, Sigma: trendNoise, Src: src}
	start := distuv.Uniform{Min: -0.5, Max: 0.5, Src: src}

	labels := make([]float64, n)
	for i := range labels {
		if i%2 == 0 {
			labels[i] = 1
		}
	}
	rng.Shuffle(n, func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })

	X := mat.NewDense(n, timesteps, nil)
	for i, label := range labels {
		dir := -1.0
		if label == 1 {
			dir = 1
		}
		slope := dir * trendStep * (0.5 + rng.Float64())
		x0 := start.Rand()
		row := X.RawRowView(i)
		for t := range row {
			row[t] = x0 + slope*float64(t) + noise.Rand()
		}
	}

	return X, mat.NewDense(n, 1, labels), nil
}

// Column returns v as an n×1 gonum matrix.
func Column(v []float64) *mat.Dense {
	return mat.NewDense(len(v), 1, append([]float64(nil), v...))
}

// OneHot encodes integer-valued labels as rows with a single 1 at the label index.
func OneHot(labels []float64, classes int) (*mat.Dense, error) {
	if len(labels) == 0 {
		return nil, ErrEmpty
	}
	if classes <= 0 {
		return nil, fmt.Errorf("classes=%d: %w", classes, ErrClasses)
	}

	out := mat.NewDense(len(labels), classes, nil)
	for i, l := range labels {
		k := int(l)
		if float64(k) != l || k < 0 || k >= classes || math.IsNaN(l) {
			return nil, fmt.Errorf("row %d label %v of %d classes: %w", i, l, classes, ErrClasses)
		}
		out.Set(i, k, 1)
	}

	return out, nil
}

// CountClasses returns 1 + the largest label, the class count OneHot needs.
// Every label must be a non-negative integer; anything else is ErrClasses.
func CountClasses(labels []float64) (int, error) {
	if len(labels) == 0 {
		return 0, ErrEmpty
	}

	hi := 0
	for i, l := range labels {
		k := int(l)
		if l < 0 || float64(k) != l || math.IsInf(l, 0) {
			return 0, fmt.Errorf("row %d label %v: %w", i, l, ErrClasses)
		}
		hi = max(hi, k)
	}

	return hi + 1, nil
}
