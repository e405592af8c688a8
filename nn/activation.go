// SPDX-License-Identifier: MIT

package nn

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Activation names accepted by Dense and SimpleRNN.
const (
	Linear  = "linear"
	ReLU    = "relu"
	Tanh    = "tanh"
	Sigmoid = "sigmoid"
	Softmax = "softmax"
)

// activation is a forward map z -> a and its vector-Jacobian product.
// backward receives the pre-activation z, the cached output a and dL/da.
type activation struct {
	name     string
	forward  func(z *mat.Dense) *mat.Dense
	backward func(z, a, da *mat.Dense) *mat.Dense
}

// lookupActivation resolves a name (case-insensitive, "" means linear).
func lookupActivation(name string) (activation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Linear:
		return activation{name: Linear, forward: identityForward, backward: identityBackward}, nil
	case ReLU:
		return elementwise(ReLU,
			func(v float64) float64 { return math.Max(v, 0) },
			func(z, _ float64) float64 {
				if z > 0 {
					return 1
				}
				return 0
			}), nil
	case Tanh:
		return elementwise(Tanh, math.Tanh, func(_, a float64) float64 { return 1 - a*a }), nil
	case Sigmoid:
		return elementwise(Sigmoid, sigmoid, func(_, a float64) float64 { return a * (1 - a) }), nil
	case Softmax:
		return activation{name: Softmax, forward: softmaxForward, backward: softmaxBackward}, nil
	default:
		return activation{}, fmt.Errorf("%q: %w", name, ErrUnknownActivation)
	}
}

// elementwise builds an activation whose derivative depends only on (z, a) of the same cell.
func elementwise(name string, f func(float64) float64, df func(z, a float64) float64) activation {
	return activation{
		name: name,
		forward: func(z *mat.Dense) *mat.Dense {
			var out mat.Dense
			out.Apply(func(_, _ int, v float64) float64 { return f(v) }, z)
			return &out
		},
		backward: func(z, a, da *mat.Dense) *mat.Dense {
			var out mat.Dense
			out.Apply(func(i, j int, g float64) float64 { return g * df(z.At(i, j), a.At(i, j)) }, da)
			return &out
		},
	}
}

func identityForward(z *mat.Dense) *mat.Dense { return mat.DenseCopyOf(z) }

func identityBackward(_, _, da *mat.Dense) *mat.Dense { return mat.DenseCopyOf(da) }

func sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

// softmaxForward normalizes every row, shifting by the row max for stability.
func softmaxForward(z *mat.Dense) *mat.Dense {
	r, c := z.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		src, dst := z.RawRowView(i), out.RawRowView(i)
		hi := floats.Max(src)
		var sum float64
		for j, v := range src {
			dst[j] = math.Exp(v - hi)
			sum += dst[j]
		}
		floats.Scale(1/sum, dst)
	}

	return out
}

// softmaxBackward applies the row Jacobian: dz_j = a_j * (da_j - <da, a>).
func softmaxBackward(_, a, da *mat.Dense) *mat.Dense {
	r, c := a.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		ar, gr, dst := a.RawRowView(i), da.RawRowView(i), out.RawRowView(i)
		dot := floats.Dot(ar, gr)
		for j := range dst {
			dst[j] = ar[j] * (gr[j] - dot)
		}
	}

	return out
}
