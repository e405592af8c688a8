// SPDX-License-Identifier: MIT

package nn

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// denseLayer computes act(x·W + b) on the flattened sample.
type denseLayer struct {
	cfg    LayerConfig
	act    activation
	in     Shape
	kernel *Param // in.Size() × units
	bias   *Param // 1 × units
}

type denseCache struct {
	x, z, a *mat.Dense
}

// Dense returns a fully connected layer. Its input is the flattened sample,
// so a Dense after the input flattens every timestep.
func Dense(units int, act string) Layer {
	return &denseLayer{cfg: LayerConfig{Kind: KindDense, Units: units, Activation: act}}
}

func (l *denseLayer) Config() LayerConfig { return l.cfg }

func (l *denseLayer) OutputShape() Shape { return Shape{Timesteps: 1, Features: l.cfg.Units} }

func (l *denseLayer) Params() []*Param { return []*Param{l.kernel, l.bias} }

func (l *denseLayer) build(name string, in Shape, src rand.Source) error {
	if l.cfg.Units <= 0 {
		return fmt.Errorf("%s: %d: %w", name, l.cfg.Units, ErrInvalidUnits)
	}
	act, err := lookupActivation(l.cfg.Activation)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	l.cfg.Name, l.cfg.Activation, l.act, l.in = name, act.name, act, in

	fanIn := in.Size()
	l.kernel = &Param{
		Name:  name + "/kernel",
		Value: glorotUniform(fanIn, l.cfg.Units, src),
		Grad:  mat.NewDense(fanIn, l.cfg.Units, nil),
	}
	l.bias = &Param{
		Name:  name + "/bias",
		Value: mat.NewDense(1, l.cfg.Units, nil),
		Grad:  mat.NewDense(1, l.cfg.Units, nil),
	}

	return nil
}

func (l *denseLayer) forward(x *mat.Dense) (*mat.Dense, any) {
	var z mat.Dense
	z.Mul(x, l.kernel.Value)
	addRowVector(&z, l.bias.Value)
	a := l.act.forward(&z)

	return a, denseCache{x: x, z: &z, a: a}
}

func (l *denseLayer) backward(cache any, grad *mat.Dense) *mat.Dense {
	c := cache.(denseCache)
	dz := l.act.backward(c.z, c.a, grad)

	l.kernel.Grad.Mul(c.x.T(), dz)
	l.bias.Grad.Copy(sumRows(dz))

	var dx mat.Dense
	dx.Mul(dz, l.kernel.Value.T())

	return &dx
}
