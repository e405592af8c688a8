// SPDX-License-Identifier: MIT

package nn

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Optimizer kinds as they appear in OptimizerConfig.Kind.
const (
	KindSGD  = "sgd"
	KindAdam = "adam"
)

// Default hyperparameters.
const (
	DefaultSGDLearningRate  = 0.01
	DefaultAdamLearningRate = 0.001
	DefaultAdamBeta1        = 0.9
	DefaultAdamBeta2        = 0.999
	DefaultAdamEpsilon      = 1e-7
)

// OptimizerConfig is the serializable optimizer description.
type OptimizerConfig struct {
	Kind         string  `json:"kind"`
	LearningRate float64 `json:"learning_rate"`
	Momentum     float64 `json:"momentum,omitempty"`
	Beta1        float64 `json:"beta_1,omitempty"`
	Beta2        float64 `json:"beta_2,omitempty"`
	Epsilon      float64 `json:"epsilon,omitempty"`
}

// OptimizerState is the resumable optimizer state: the step counter and one
// slot tensor per (parameter, slot) pair, named "<param>/<slot>".
type OptimizerState struct {
	Step  int      `json:"step"`
	Slots []Tensor `json:"slots"`
}

// Optimizer updates parameters from their gradients.
type Optimizer interface {
	Config() OptimizerConfig
	// State returns a deep copy of the slot tensors in parameter order.
	State() OptimizerState

	apply(params []*Param)
	restore(params []*Param, st OptimizerState) error
	reset()
}

// NewOptimizer builds an optimizer from its config; zero hyperparameters take defaults.
func NewOptimizer(cfg OptimizerConfig) (Optimizer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case KindSGD:
		return NewSGD(cfg.LearningRate, cfg.Momentum), nil
	case KindAdam:
		a := NewAdam(cfg.LearningRate)
		if cfg.Beta1 != 0 {
			a.beta1 = cfg.Beta1
		}
		if cfg.Beta2 != 0 {
			a.beta2 = cfg.Beta2
		}
		if cfg.Epsilon != 0 {
			a.epsilon = cfg.Epsilon
		}
		return a, nil
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Kind, ErrUnknownOptimizer)
	}
}

// slots keeps per-parameter state tensors in first-seen parameter order.
type slots struct {
	names []string
	byKey map[string]*mat.Dense
}

func (s *slots) get(param *Param, slot string) *mat.Dense {
	key := param.Name + "/" + slot
	if m, ok := s.byKey[key]; ok {
		return m
	}
	if s.byKey == nil {
		s.byKey = make(map[string]*mat.Dense)
	}
	r, c := param.Value.Dims()
	m := mat.NewDense(r, c, nil)
	s.byKey[key] = m
	s.names = append(s.names, key)

	return m
}

func (s *slots) tensors() []Tensor {
	out := make([]Tensor, 0, len(s.names))
	for _, key := range s.names {
		out = append(out, NewTensor(key, s.byKey[key]))
	}

	return out
}

// load replaces the slots with st, checking every tensor against its parameter.
func (s *slots) load(params []*Param, kinds []string, st []Tensor) error {
	shapes := make(map[string][2]int, len(params)*len(kinds))
	for _, p := range params {
		r, c := p.Value.Dims()
		for _, k := range kinds {
			shapes[p.Name+"/"+k] = [2]int{r, c}
		}
	}

	next := slots{byKey: make(map[string]*mat.Dense, len(st))}
	for _, t := range st {
		want, ok := shapes[t.Name]
		if !ok {
			return fmt.Errorf("optimizer slot %q has no parameter: %w", t.Name, ErrShape)
		}
		if t.Rows != want[0] || t.Cols != want[1] {
			return fmt.Errorf("optimizer slot %q: want %dx%d, got %dx%d: %w", t.Name, want[0], want[1], t.Rows, t.Cols, ErrShape)
		}
		m, err := t.Dense()
		if err != nil {
			return err
		}
		next.byKey[t.Name] = m
		next.names = append(next.names, t.Name)
	}
	*s = next

	return nil
}

// SGD is stochastic gradient descent with optional classical momentum:
// v = momentum*v - lr*g; w += v.
type SGD struct {
	lr, momentum float64
	step         int
	state        slots
}

// NewSGD returns SGD; lr <= 0 selects DefaultSGDLearningRate.
func NewSGD(lr, momentum float64) *SGD {
	if lr <= 0 {
		lr = DefaultSGDLearningRate
	}
	return &SGD{lr: lr, momentum: momentum}
}

func (o *SGD) Config() OptimizerConfig {
	return OptimizerConfig{Kind: KindSGD, LearningRate: o.lr, Momentum: o.momentum}
}

func (o *SGD) State() OptimizerState {
	return OptimizerState{Step: o.step, Slots: o.state.tensors()}
}

func (o *SGD) apply(params []*Param) {
	o.step++
	for _, p := range params {
		if o.momentum == 0 {
			p.Value.Apply(func(i, j int, w float64) float64 { return w - o.lr*p.Grad.At(i, j) }, p.Value)
			continue
		}
		v := o.state.get(p, "velocity")
		v.Apply(func(i, j int, vel float64) float64 { return o.momentum*vel - o.lr*p.Grad.At(i, j) }, v)
		p.Value.Add(p.Value, v)
	}
}

func (o *SGD) restore(params []*Param, st OptimizerState) error {
	if err := o.state.load(params, []string{"velocity"}, st.Slots); err != nil {
		return err
	}
	o.step = st.Step

	return nil
}

func (o *SGD) reset() { o.step, o.state = 0, slots{} }

// Adam keeps bias-corrected first and second moment estimates per parameter.
type Adam struct {
	lr, beta1, beta2, epsilon float64
	step                      int
	state                     slots
}

// NewAdam returns Adam with default betas and epsilon; lr <= 0 selects DefaultAdamLearningRate.
func NewAdam(lr float64) *Adam {
	if lr <= 0 {
		lr = DefaultAdamLearningRate
	}
	return &Adam{lr: lr, beta1: DefaultAdamBeta1, beta2: DefaultAdamBeta2, epsilon: DefaultAdamEpsilon}
}

func (o *Adam) Config() OptimizerConfig {
	return OptimizerConfig{Kind: KindAdam, LearningRate: o.lr, Beta1: o.beta1, Beta2: o.beta2, Epsilon: o.epsilon}
}

func (o *Adam) State() OptimizerState {
	return OptimizerState{Step: o.step, Slots: o.state.tensors()}
}

func (o *Adam) apply(params []*Param) {
	o.step++
	t := float64(o.step)
	lrT := o.lr * math.Sqrt(1-math.Pow(o.beta2, t)) / (1 - math.Pow(o.beta1, t))

	for _, p := range params {
		m := o.state.get(p, "m")
		v := o.state.get(p, "v")
		m.Apply(func(i, j int, mv float64) float64 {
			return o.beta1*mv + (1-o.beta1)*p.Grad.At(i, j)
		}, m)
		v.Apply(func(i, j int, vv float64) float64 {
			g := p.Grad.At(i, j)
			return o.beta2*vv + (1-o.beta2)*g*g
		}, v)
		p.Value.Apply(func(i, j int, w float64) float64 {
			return w - lrT*m.At(i, j)/(math.Sqrt(v.At(i, j))+o.epsilon)
		}, p.Value)
	}
}

func (o *Adam) restore(params []*Param, st OptimizerState) error {
	if err := o.state.load(params, []string{"m", "v"}, st.Slots); err != nil {
		return err
	}
	o.step = st.Step

	return nil
}

func (o *Adam) reset() { o.step, o.state = 0, slots{} }
