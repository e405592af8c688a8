// SPDX-License-Identifier: MIT

package nn

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	opNew      = "NewSequential"
	opCompile  = "Compile"
	opFit      = "Fit"
	opEvaluate = "Evaluate"
	opPredict  = "Predict"
	opReseed   = "Reseed"
)

// History holds per-epoch training metrics.
type History struct {
	Loss     []float64 `json:"loss"`
	Accuracy []float64 `json:"accuracy"`
}

// Sequential is a linear stack of layers.
//
// Predict, PredictClasses, PredictProba and Evaluate may run concurrently with
// each other; Fit, Compile and Reseed take the model exclusively.
type Sequential struct {
	mu       sync.RWMutex
	name     string
	input    Shape
	layers   []Layer
	loss     loss
	opt      Optimizer
	compiled bool
}

// NewSequential builds layers in order against input, drawing initial weights
// from a PCG stream seeded with DefaultSeed.
//
// Errors: ErrEmptyModel, ErrShape (invalid input), ErrInvalidUnits, ErrUnknownActivation.
func NewSequential(input Shape, layers ...Layer) (*Sequential, error) {
	if len(layers) == 0 {
		return nil, nnErrorf(opNew, ErrEmptyModel)
	}
	if !input.valid() {
		return nil, nnErrorf(opNew, fmt.Errorf("input shape %+v: %w", input, ErrShape))
	}

	m := &Sequential{name: "sequential", input: input, layers: layers}
	if err := m.build(DefaultSeed); err != nil {
		return nil, nnErrorf(opNew, err)
	}

	return m, nil
}

// build names every layer Keras-style ("dense", "dense_1", ...) and initializes weights.
func (m *Sequential) build(seed uint64) error {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	seen := make(map[string]int)
	in := m.input
	for _, l := range m.layers {
		kind := l.Config().Kind
		name := kind
		if n := seen[kind]; n > 0 {
			name = fmt.Sprintf("%s_%d", kind, n)
		}
		seen[kind]++

		if err := l.build(name, in, src); err != nil {
			return err
		}
		in = l.OutputShape()
	}

	return nil
}

// Reseed redraws every weight from seed and clears optimizer state.
func (m *Sequential) Reseed(seed uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.build(seed); err != nil {
		return nnErrorf(opReseed, err)
	}
	if m.opt != nil {
		m.opt.reset()
	}

	return nil
}

// Compile attaches a loss (by name) and an optimizer. Recompiling replaces both.
func (m *Sequential) Compile(lossName string, opt Optimizer) error {
	l, err := lookupLoss(lossName)
	if err != nil {
		return nnErrorf(opCompile, err)
	}
	if opt == nil {
		return nnErrorf(opCompile, ErrUnknownOptimizer)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loss, m.opt, m.compiled = l, opt, true

	return nil
}

// Name returns the model name.
func (m *Sequential) Name() string { return m.name }

// InputShape returns the declared per-sample shape.
func (m *Sequential) InputShape() Shape { return m.input }

// OutputUnits is the width of a prediction row.
func (m *Sequential) OutputUnits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.outputUnits()
}

// outputUnits requires m.mu to be held.
func (m *Sequential) outputUnits() int { return m.layers[len(m.layers)-1].OutputShape().Features }

// Layers returns the layer configs in order.
func (m *Sequential) Layers() []LayerConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]LayerConfig, len(m.layers))
	for i, l := range m.layers {
		out[i] = l.Config()
	}

	return out
}

// Compiled reports whether Compile has been called.
func (m *Sequential) Compiled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.compiled
}

// Optimizer returns the attached optimizer, or nil before Compile.
func (m *Sequential) Optimizer() Optimizer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opt
}

// LossName returns the compiled loss name, or "" before Compile.
func (m *Sequential) LossName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loss.name
}

func (m *Sequential) params() []*Param {
	var ps []*Param
	for _, l := range m.layers {
		ps = append(ps, l.Params()...)
	}

	return ps
}

// ParamCount is the number of trainable scalars.
func (m *Sequential) ParamCount() int {
	var n int
	for _, p := range m.params() {
		r, c := p.Value.Dims()
		n += r * c
	}

	return n
}

func (m *Sequential) checkInput(op string, X mat.Matrix) error {
	if X == nil {
		return nnErrorf(op, fmt.Errorf("nil input: %w", ErrShape))
	}
	r, c := X.Dims()
	if r == 0 {
		return nnErrorf(op, ErrEmptyModel)
	}
	if c != m.input.Size() {
		return shapeErrorf(op, "input", r, m.input.Size(), r, c)
	}

	return nil
}

func (m *Sequential) checkTarget(op string, X, y mat.Matrix) error {
	if y == nil {
		return nnErrorf(op, fmt.Errorf("nil target: %w", ErrShape))
	}
	xr, _ := X.Dims()
	yr, yc := y.Dims()
	if yr != xr || yc != m.outputUnits() {
		return shapeErrorf(op, "target", xr, m.outputUnits(), yr, yc)
	}

	return nil
}

// forward runs the stack, returning the output and per-layer caches for backward.
func (m *Sequential) forward(x *mat.Dense) (*mat.Dense, []any) {
	caches := make([]any, len(m.layers))
	out := x
	for i, l := range m.layers {
		out, caches[i] = l.forward(out)
	}

	return out, caches
}

func (m *Sequential) backward(caches []any, grad *mat.Dense) {
	for i := len(m.layers) - 1; i >= 0; i-- {
		grad = m.layers[i].backward(caches[i], grad)
	}
}

// Fit trains on the full (X, y) for the configured epochs with mini-batch
// updates. Cancellation is checked between batches; the History collected so
// far is returned together with the context error.
//
// Errors: ErrNotCompiled, ErrShape, ErrEmptyModel (no samples), ctx.Err().
func (m *Sequential) Fit(ctx context.Context, X, y mat.Matrix, opts ...FitOption) (History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var hist History
	if !m.compiled {
		return hist, nnErrorf(opFit, ErrNotCompiled)
	}
	if err := m.checkInput(opFit, X); err != nil {
		return hist, err
	}
	if err := m.checkTarget(opFit, X, y); err != nil {
		return hist, err
	}
	n, _ := X.Dims()
	o := gatherFitOptions(opts...)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	var rng *rand.Rand
	if o.Shuffle {
		rng = rand.New(rand.NewPCG(o.Seed, o.Seed+1))
	}
	params := m.params()

	for epoch := 0; epoch < o.Epochs; epoch++ {
		if rng != nil {
			rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		var lossSum float64
		var correct int
		for start := 0; start < n; start += o.BatchSize {
			if err := ctx.Err(); err != nil {
				return hist, nnErrorf(opFit, err)
			}
			end := min(start+o.BatchSize, n)
			xb, yb := gatherRows(X, order[start:end]), gatherRows(y, order[start:end])

			pred, caches := m.forward(xb)
			lossSum += m.loss.value(pred, yb) * float64(end-start)
			correct += countCorrect(pred, yb)

			m.backward(caches, m.loss.gradient(pred, yb))
			m.opt.apply(params)
		}

		hist.Loss = append(hist.Loss, lossSum/float64(n))
		hist.Accuracy = append(hist.Accuracy, float64(correct)/float64(n))
		o.Logger.Info().
			Int("epoch", epoch+1).
			Int("epochs", o.Epochs).
			Float64("loss", hist.Loss[epoch]).
			Float64("accuracy", hist.Accuracy[epoch]).
			Msg("epoch done")
	}

	return hist, nil
}

// Evaluate returns the loss and accuracy of the model on (X, y) without training.
func (m *Sequential) Evaluate(X, y mat.Matrix) (lossValue, accuracy float64, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.compiled {
		return 0, 0, nnErrorf(opEvaluate, ErrNotCompiled)
	}
	if err = m.checkInput(opEvaluate, X); err != nil {
		return 0, 0, err
	}
	if err = m.checkTarget(opEvaluate, X, y); err != nil {
		return 0, 0, err
	}
	n, _ := X.Dims()
	yd := mat.DenseCopyOf(y)
	pred, _ := m.forward(mat.DenseCopyOf(X))

	return m.loss.value(pred, yd), float64(countCorrect(pred, yd)) / float64(n), nil
}

// Predict returns the raw output of the last layer, one row per sample.
func (m *Sequential) Predict(X mat.Matrix) (*mat.Dense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkInput(opPredict, X); err != nil {
		return nil, err
	}
	pred, _ := m.forward(mat.DenseCopyOf(X))

	return pred, nil
}

// PredictClasses returns a class index per sample: argmax over a multi-unit
// output, or 1 when a single output exceeds 0.5.
func (m *Sequential) PredictClasses(X mat.Matrix) ([]int, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return nil, err
	}
	r, _ := pred.Dims()
	out := make([]int, r)
	for i := range out {
		out[i] = classOf(pred.RawRowView(i))
	}

	return out, nil
}

// PredictProba returns class probabilities. Sigmoid and softmax heads already
// emit probabilities, so this is Predict under a name that states the intent.
func (m *Sequential) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	return m.Predict(X)
}

func classOf(row []float64) int {
	if len(row) == 1 {
		if row[0] > 0.5 {
			return 1
		}
		return 0
	}

	return floats.MaxIdx(row)
}

// countCorrect compares predicted and target classes row by row.
func countCorrect(pred, target *mat.Dense) int {
	r, _ := pred.Dims()
	var n int
	for i := 0; i < r; i++ {
		if classOf(pred.RawRowView(i)) == classOf(target.RawRowView(i)) {
			n++
		}
	}

	return n
}

// gatherRows copies the listed rows of a into a new dense matrix.
func gatherRows(a mat.Matrix, idx []int) *mat.Dense {
	_, c := a.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for k, i := range idx {
		mat.Row(out.RawRowView(k), i, a)
	}

	return out
}
