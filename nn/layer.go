// SPDX-License-Identifier: MIT

package nn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Layer kinds as they appear in LayerConfig.Kind.
const (
	KindDense     = "dense"
	KindSimpleRNN = "simple_rnn"
)

// Shape is the per-sample input shape. A flattened sample row holds
// Timesteps*Features values, timestep-major.
type Shape struct {
	Timesteps int `json:"timesteps"`
	Features  int `json:"features"`
}

// Size is the flattened width of one sample.
func (s Shape) Size() int { return s.Timesteps * s.Features }

func (s Shape) valid() bool { return s.Timesteps > 0 && s.Features > 0 }

// LayerConfig is the serializable architecture of one layer.
type LayerConfig struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Units      int    `json:"units"`
	Activation string `json:"activation"`
}

// Param is a trainable tensor and its gradient from the last backward pass.
type Param struct {
	Name  string
	Value *mat.Dense
	Grad  *mat.Dense
}

// Tensor is a named, row-major copy of a matrix used for snapshots and checkpoints.
type Tensor struct {
	Name string    `json:"name"`
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"-"`
}

// NewTensor copies m into a Tensor.
func NewTensor(name string, m mat.Matrix) Tensor {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}

	return Tensor{Name: name, Rows: r, Cols: c, Data: data}
}

// Dense returns a fresh gonum matrix backed by a copy of t.Data.
func (t Tensor) Dense() (*mat.Dense, error) {
	if t.Rows <= 0 || t.Cols <= 0 || len(t.Data) != t.Rows*t.Cols {
		return nil, fmt.Errorf("tensor %q: %dx%d with %d values: %w", t.Name, t.Rows, t.Cols, len(t.Data), ErrShape)
	}

	return mat.NewDense(t.Rows, t.Cols, append([]float64(nil), t.Data...)), nil
}

// Layer is one stage of a Sequential model. Layers are created with Dense or
// SimpleRNN and built by NewSequential; forward never mutates the layer, so a
// built layer may serve concurrent inference.
type Layer interface {
	// Config returns the serializable architecture.
	Config() LayerConfig
	// OutputShape is valid after the model is built.
	OutputShape() Shape
	// Params lists trainable tensors in a stable order.
	Params() []*Param

	build(name string, in Shape, src rand.Source) error
	forward(x *mat.Dense) (*mat.Dense, any)
	backward(cache any, grad *mat.Dense) *mat.Dense
}

// layerFromConfig creates an unbuilt layer from its serialized form.
func layerFromConfig(cfg LayerConfig) (Layer, error) {
	switch cfg.Kind {
	case KindDense:
		return Dense(cfg.Units, cfg.Activation), nil
	case KindSimpleRNN:
		return SimpleRNN(cfg.Units, cfg.Activation), nil
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Kind, ErrUnknownLayer)
	}
}

// glorotUniform draws a fanIn×fanOut matrix from U(-l, l), l = sqrt(6/(fanIn+fanOut)).
func glorotUniform(fanIn, fanOut int, src rand.Source) *mat.Dense {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}
	data := make([]float64, fanIn*fanOut)
	for i := range data {
		data[i] = dist.Rand()
	}

	return mat.NewDense(fanIn, fanOut, data)
}

// orthogonal draws an n×n orthogonal matrix: Q of the QR factorization of a
// standard normal sample, with columns signed by diag(R) so the draw is unique.
func orthogonal(n int, src rand.Source) *mat.Dense {
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	data := make([]float64, n*n)
	for i := range data {
		data[i] = dist.Rand()
	}

	var qr mat.QR
	qr.Factorize(mat.NewDense(n, n, data))
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)
	for j := 0; j < n; j++ {
		if r.At(j, j) < 0 {
			for i := 0; i < n; i++ {
				q.Set(i, j, -q.At(i, j))
			}
		}
	}

	return &q
}

// addRowVector adds the 1×c bias b to every row of z in place.
func addRowVector(z, b *mat.Dense) {
	r, _ := z.Dims()
	bias := b.RawRowView(0)
	for i := 0; i < r; i++ {
		row := z.RawRowView(i)
		for j, v := range bias {
			row[j] += v
		}
	}
}

// sumRows collapses g (r×c) into a 1×c row of column sums.
func sumRows(g *mat.Dense) *mat.Dense {
	r, c := g.Dims()
	out := mat.NewDense(1, c, nil)
	acc := out.RawRowView(0)
	for i := 0; i < r; i++ {
		for j, v := range g.RawRowView(i) {
			acc[j] += v
		}
	}

	return out
}
