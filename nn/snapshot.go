// SPDX-License-Identifier: MIT

package nn

import (
	"fmt"
)

const (
	opSnapshot     = "Snapshot"
	opFromSnapshot = "FromSnapshot"
)

// Snapshot is a deep, self-contained copy of a model: architecture, weights,
// loss, optimizer config and optimizer state. It is the unit that checkpoint
// codecs persist.
type Snapshot struct {
	Name           string           `json:"name"`
	Input          Shape            `json:"input_shape"`
	Layers         []LayerConfig    `json:"layers"`
	Loss           string           `json:"loss,omitempty"`
	Optimizer      *OptimizerConfig `json:"optimizer,omitempty"`
	OptimizerState OptimizerState   `json:"-"`
	Weights        []Tensor         `json:"-"`
}

// Snapshot copies the current model state.
func (m *Sequential) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := &Snapshot{
		Name:   m.name,
		Input:  m.input,
		Layers: make([]LayerConfig, len(m.layers)),
	}
	for i, l := range m.layers {
		s.Layers[i] = l.Config()
	}
	for _, p := range m.params() {
		s.Weights = append(s.Weights, NewTensor(p.Name, p.Value))
	}
	if m.compiled {
		cfg := m.opt.Config()
		s.Loss = m.loss.name
		s.Optimizer = &cfg
		s.OptimizerState = m.opt.State()
	}

	return s
}

// FromSnapshot rebuilds an equivalent model. Every weight tensor must match a
// parameter by name and shape; a snapshot with a loss and optimizer comes back
// compiled with its optimizer state restored.
//
// Errors: ErrEmptyModel, ErrUnknownLayer, ErrUnknownActivation, ErrUnknownLoss,
// ErrUnknownOptimizer, ErrShape.
func FromSnapshot(s *Snapshot) (*Sequential, error) {
	if s == nil || len(s.Layers) == 0 {
		return nil, nnErrorf(opFromSnapshot, ErrEmptyModel)
	}

	layers := make([]Layer, len(s.Layers))
	for i, cfg := range s.Layers {
		l, err := layerFromConfig(cfg)
		if err != nil {
			return nil, nnErrorf(opFromSnapshot, err)
		}
		layers[i] = l
	}
	m, err := NewSequential(s.Input, layers...)
	if err != nil {
		return nil, nnErrorf(opFromSnapshot, err)
	}
	if s.Name != "" {
		m.name = s.Name
	}

	// Layer names are regenerated by build; they must agree with the stored ones.
	for i, l := range m.layers {
		if want := s.Layers[i].Name; want != "" && want != l.Config().Name {
			return nil, nnErrorf(opFromSnapshot, fmt.Errorf("layer %d named %q, rebuilt as %q: %w", i, want, l.Config().Name, ErrShape))
		}
	}

	params := m.params()
	if len(s.Weights) != len(params) {
		return nil, nnErrorf(opFromSnapshot, fmt.Errorf("%d weight tensors for %d parameters: %w", len(s.Weights), len(params), ErrShape))
	}
	byName := make(map[string]Tensor, len(s.Weights))
	for _, t := range s.Weights {
		byName[t.Name] = t
	}
	for _, p := range params {
		t, ok := byName[p.Name]
		if !ok {
			return nil, nnErrorf(opFromSnapshot, fmt.Errorf("missing weight %q: %w", p.Name, ErrShape))
		}
		r, c := p.Value.Dims()
		if t.Rows != r || t.Cols != c {
			return nil, nnErrorf(opFromSnapshot, fmt.Errorf("weight %q: want %dx%d, got %dx%d: %w", p.Name, r, c, t.Rows, t.Cols, ErrShape))
		}
		v, err := t.Dense()
		if err != nil {
			return nil, nnErrorf(opFromSnapshot, err)
		}
		p.Value.Copy(v)
	}

	if s.Optimizer == nil || s.Loss == "" {
		return m, nil
	}
	opt, err := NewOptimizer(*s.Optimizer)
	if err != nil {
		return nil, nnErrorf(opFromSnapshot, err)
	}
	if err = opt.restore(params, s.OptimizerState); err != nil {
		return nil, nnErrorf(opFromSnapshot, err)
	}
	if err = m.Compile(s.Loss, opt); err != nil {
		return nil, nnErrorf(opFromSnapshot, err)
	}

	return m, nil
}
