// SPDX-License-Identifier: MIT

package nn

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// rnnLayer is an Elman recurrence h_t = act(x_t·Wx + h_{t-1}·Wh + b), h_0 = 0.
// Only the last hidden state is emitted.
type rnnLayer struct {
	cfg       LayerConfig
	act       activation
	in        Shape
	kernel    *Param // features × units
	recurrent *Param // units × units
	bias      *Param // 1 × units
}

type rnnCache struct {
	xs []*mat.Dense // per timestep, n × features
	zs []*mat.Dense // pre-activations, n × units
	hs []*mat.Dense // hs[0] = h_0, hs[t+1] = h after step t
}

// SimpleRNN returns a fully connected recurrent layer over the declared timesteps.
// An empty activation defaults to tanh.
func SimpleRNN(units int, act string) Layer {
	if act == "" {
		act = Tanh
	}
	return &rnnLayer{cfg: LayerConfig{Kind: KindSimpleRNN, Units: units, Activation: act}}
}

func (l *rnnLayer) Config() LayerConfig { return l.cfg }

func (l *rnnLayer) OutputShape() Shape { return Shape{Timesteps: 1, Features: l.cfg.Units} }

func (l *rnnLayer) Params() []*Param { return []*Param{l.kernel, l.recurrent, l.bias} }

func (l *rnnLayer) build(name string, in Shape, src rand.Source) error {
	if l.cfg.Units <= 0 {
		return fmt.Errorf("%s: %d: %w", name, l.cfg.Units, ErrInvalidUnits)
	}
	act, err := lookupActivation(l.cfg.Activation)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	l.cfg.Name, l.cfg.Activation, l.act, l.in = name, act.name, act, in

	u := l.cfg.Units
	l.kernel = &Param{
		Name:  name + "/kernel",
		Value: glorotUniform(in.Features, u, src),
		Grad:  mat.NewDense(in.Features, u, nil),
	}
	l.recurrent = &Param{
		Name:  name + "/recurrent_kernel",
		Value: orthogonal(u, src),
		Grad:  mat.NewDense(u, u, nil),
	}
	l.bias = &Param{
		Name:  name + "/bias",
		Value: mat.NewDense(1, u, nil),
		Grad:  mat.NewDense(1, u, nil),
	}

	return nil
}

// step extracts timestep t from the flattened batch as an n×features copy.
func (l *rnnLayer) step(x *mat.Dense, t int) *mat.Dense {
	n, _ := x.Dims()
	f := l.in.Features
	return mat.DenseCopyOf(x.Slice(0, n, t*f, (t+1)*f))
}

func (l *rnnLayer) forward(x *mat.Dense) (*mat.Dense, any) {
	n, _ := x.Dims()
	steps := l.in.Timesteps
	c := rnnCache{
		xs: make([]*mat.Dense, steps),
		zs: make([]*mat.Dense, steps),
		hs: make([]*mat.Dense, steps+1),
	}
	c.hs[0] = mat.NewDense(n, l.cfg.Units, nil)

	for t := 0; t < steps; t++ {
		c.xs[t] = l.step(x, t)

		var z, rec mat.Dense
		z.Mul(c.xs[t], l.kernel.Value)
		rec.Mul(c.hs[t], l.recurrent.Value)
		z.Add(&z, &rec)
		addRowVector(&z, l.bias.Value)

		c.zs[t] = &z
		c.hs[t+1] = l.act.forward(&z)
	}

	return c.hs[steps], c
}

// backward runs truncation-free backpropagation through time from the last state.
func (l *rnnLayer) backward(cache any, grad *mat.Dense) *mat.Dense {
	c := cache.(rnnCache)
	n, _ := grad.Dims()
	steps, f := l.in.Timesteps, l.in.Features

	l.kernel.Grad.Zero()
	l.recurrent.Grad.Zero()
	l.bias.Grad.Zero()

	dx := mat.NewDense(n, steps*f, nil)
	dh := grad
	for t := steps - 1; t >= 0; t-- {
		dz := l.act.backward(c.zs[t], c.hs[t+1], dh)

		var gk, gr mat.Dense
		gk.Mul(c.xs[t].T(), dz)
		gr.Mul(c.hs[t].T(), dz)
		l.kernel.Grad.Add(l.kernel.Grad, &gk)
		l.recurrent.Grad.Add(l.recurrent.Grad, &gr)
		l.bias.Grad.Add(l.bias.Grad, sumRows(dz))

		var dxt mat.Dense
		dxt.Mul(dz, l.kernel.Value.T())
		for i := 0; i < n; i++ {
			copy(dx.RawRowView(i)[t*f:(t+1)*f], dxt.RawRowView(i))
		}

		var next mat.Dense
		next.Mul(dz, l.recurrent.Value.T())
		dh = &next
	}

	return dx
}
