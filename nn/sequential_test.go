// SPDX-License-Identifier: MIT

package nn_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlearn/nn"
)

// separable returns n points in 2-D labeled by the sign of x0 + x1, keeping a
// margin around the boundary.
func separable(seed uint64, n int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; {
		a, b := 4*rng.Float64()-2, 4*rng.Float64()-2
		if s := a + b; s > -0.3 && s < 0.3 {
			continue
		}
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		if a+b > 0 {
			y.Set(i, 0, 1)
		}
		i++
	}
	return X, y
}

// trends returns n sequences of the given length that either rise or fall,
// with labels 1 (rising) and 0 (falling).
func trends(seed uint64, n, steps int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	X := mat.NewDense(n, steps, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		dir := -1.0
		if i%2 == 0 {
			dir = 1
			y.Set(i, 0, 1)
		}
		start := rng.Float64() - 0.5
		for t := 0; t < steps; t++ {
			X.Set(i, t, start+dir*0.15*float64(t)+0.02*rng.NormFloat64())
		}
	}
	return X, y
}

type SequentialSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *SequentialSuite) SetupTest() { s.ctx = context.Background() }

func (s *SequentialSuite) TestLogisticRegressionLearns() {
	X, y := separable(11, 200)
	m, err := nn.NewSequential(nn.Shape{Timesteps: 1, Features: 2}, nn.Dense(1, nn.Sigmoid))
	s.Require().NoError(err)
	s.Require().NoError(m.Compile(nn.BinaryCrossentropy, nn.NewAdam(0.05)))

	hist, err := m.Fit(s.ctx, X, y, nn.WithEpochs(40), nn.WithBatchSize(16), nn.WithShuffle(3))
	s.Require().NoError(err)
	s.Require().Len(hist.Loss, 40)
	s.Require().Less(hist.Loss[39], hist.Loss[0])

	_, acc, err := m.Evaluate(X, y)
	s.Require().NoError(err)
	s.Require().GreaterOrEqual(acc, 0.95)
}

func (s *SequentialSuite) TestRNNLossDecreases() {
	X, y := trends(5, 120, 6)
	m, err := nn.NewSequential(nn.Shape{Timesteps: 6, Features: 1},
		nn.SimpleRNN(8, nn.Tanh),
		nn.Dense(1, nn.Sigmoid),
	)
	s.Require().NoError(err)
	s.Require().NoError(m.Compile(nn.BinaryCrossentropy, nn.NewAdam(0.01)))

	hist, err := m.Fit(s.ctx, X, y, nn.WithEpochs(25), nn.WithBatchSize(20), nn.WithShuffle(9))
	s.Require().NoError(err)
	s.Require().Less(hist.Loss[len(hist.Loss)-1], hist.Loss[0])
}

func (s *SequentialSuite) TestSoftmaxPredictions() {
	m, err := nn.NewSequential(nn.Shape{Timesteps: 1, Features: 4},
		nn.Dense(8, nn.ReLU),
		nn.Dense(3, nn.Softmax),
	)
	s.Require().NoError(err)
	s.Require().Equal(4*8+8+8*3+3, m.ParamCount())

	X := randomBatch(rand.New(rand.NewPCG(1, 1)), 7, 4)
	proba, err := m.PredictProba(X)
	s.Require().NoError(err)
	classes, err := m.PredictClasses(X)
	s.Require().NoError(err)

	r, c := proba.Dims()
	s.Require().Equal(7, r)
	s.Require().Equal(3, c)
	for i := 0; i < r; i++ {
		row := proba.RawRowView(i)
		s.Require().InDelta(1.0, floats.Sum(row), 1e-12)
		s.Require().Equal(floats.MaxIdx(row), classes[i])
	}
}

func (s *SequentialSuite) TestSingleUnitClassesThreshold() {
	m, err := nn.NewSequential(nn.Shape{Timesteps: 1, Features: 1}, nn.Dense(1, nn.Linear))
	s.Require().NoError(err)

	X := mat.NewDense(3, 1, []float64{-5, 0, 5})
	raw, err := m.Predict(X)
	s.Require().NoError(err)
	classes, err := m.PredictClasses(X)
	s.Require().NoError(err)
	for i, cl := range classes {
		want := 0
		if raw.At(i, 0) > 0.5 {
			want = 1
		}
		s.Require().Equal(want, cl)
	}
}

func (s *SequentialSuite) TestDeterministicInit() {
	build := func() *nn.Sequential {
		m, err := nn.NewSequential(nn.Shape{Timesteps: 3, Features: 2}, nn.SimpleRNN(4, ""), nn.Dense(2, nn.Softmax))
		s.Require().NoError(err)
		return m
	}
	a, b := build().Snapshot(), build().Snapshot()
	s.Require().Equal(a.Weights, b.Weights)

	c := build()
	s.Require().NoError(c.Reseed(99))
	s.Require().NotEqual(a.Weights[0].Data, c.Snapshot().Weights[0].Data)
}

func (s *SequentialSuite) TestLayerNaming() {
	m, err := nn.NewSequential(nn.Shape{Timesteps: 2, Features: 3},
		nn.SimpleRNN(4, nn.Tanh),
		nn.Dense(4, nn.ReLU),
		nn.Dense(1, nn.Sigmoid),
	)
	s.Require().NoError(err)

	names := make([]string, 0, 3)
	for _, cfg := range m.Layers() {
		names = append(names, cfg.Name)
	}
	s.Require().Equal([]string{"simple_rnn", "dense", "dense_1"}, names)
	s.Require().Equal(1, m.OutputUnits())
}

// TestReseedWhileReading is meant for -race: describing the model must not
// observe a half-rebuilt layer stack.
func (s *SequentialSuite) TestReseedWhileReading() {
	m, err := nn.NewSequential(nn.Shape{Timesteps: 2, Features: 1}, nn.SimpleRNN(3, nn.Tanh), nn.Dense(1, nn.Sigmoid))
	s.Require().NoError(err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := uint64(0); i < 50; i++ {
			_ = m.Reseed(i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_ = m.OutputUnits()
			_ = m.Layers()
		}
	}()
	wg.Wait()

	s.Require().Equal(1, m.OutputUnits())
	s.Require().Len(m.Layers(), 2)
}

func (s *SequentialSuite) TestErrors() {
	_, err := nn.NewSequential(nn.Shape{Timesteps: 1, Features: 2})
	s.Require().ErrorIs(err, nn.ErrEmptyModel)

	_, err = nn.NewSequential(nn.Shape{}, nn.Dense(1, ""))
	s.Require().ErrorIs(err, nn.ErrShape)

	_, err = nn.NewSequential(nn.Shape{Timesteps: 1, Features: 2}, nn.Dense(1, "swish"))
	s.Require().ErrorIs(err, nn.ErrUnknownActivation)

	_, err = nn.NewSequential(nn.Shape{Timesteps: 1, Features: 2}, nn.Dense(0, ""))
	s.Require().ErrorIs(err, nn.ErrInvalidUnits)

	m, err := nn.NewSequential(nn.Shape{Timesteps: 1, Features: 2}, nn.Dense(1, nn.Sigmoid))
	s.Require().NoError(err)

	X, y := separable(1, 10)
	_, err = m.Fit(s.ctx, X, y)
	s.Require().ErrorIs(err, nn.ErrNotCompiled)
	_, _, err = m.Evaluate(X, y)
	s.Require().ErrorIs(err, nn.ErrNotCompiled)

	s.Require().ErrorIs(m.Compile("hinge", nn.NewSGD(0, 0)), nn.ErrUnknownLoss)
	s.Require().ErrorIs(m.Compile(nn.MSE, nil), nn.ErrUnknownOptimizer)
	s.Require().NoError(m.Compile(nn.MSE, nn.NewSGD(0, 0)))

	_, err = m.Predict(mat.NewDense(2, 3, nil))
	s.Require().ErrorIs(err, nn.ErrShape)
	_, err = m.Fit(s.ctx, X, mat.NewDense(10, 2, nil))
	s.Require().ErrorIs(err, nn.ErrShape)
	_, err = m.Fit(s.ctx, X, mat.NewDense(9, 1, nil))
	s.Require().ErrorIs(err, nn.ErrShape)

	_, err = nn.NewOptimizer(nn.OptimizerConfig{Kind: "rmsprop"})
	s.Require().ErrorIs(err, nn.ErrUnknownOptimizer)
}

func (s *SequentialSuite) TestFitHonoursCancellation() {
	m, err := nn.NewSequential(nn.Shape{Timesteps: 1, Features: 2}, nn.Dense(1, nn.Sigmoid))
	s.Require().NoError(err)
	s.Require().NoError(m.Compile(nn.BinaryCrossentropy, nn.NewAdam(0)))

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	X, y := separable(2, 20)
	hist, err := m.Fit(ctx, X, y, nn.WithEpochs(3))
	s.Require().True(errors.Is(err, context.Canceled))
	s.Require().Empty(hist.Loss)
	s.Require().Zero(m.Optimizer().State().Step)
}

func (s *SequentialSuite) TestOptimizerStepCount() {
	m, err := nn.NewSequential(nn.Shape{Timesteps: 1, Features: 2}, nn.Dense(1, nn.Sigmoid))
	s.Require().NoError(err)
	s.Require().NoError(m.Compile(nn.BinaryCrossentropy, nn.NewSGD(0.1, 0.9)))

	X, y := separable(4, 50)
	_, err = m.Fit(s.ctx, X, y, nn.WithEpochs(2), nn.WithBatchSize(16))
	s.Require().NoError(err)

	st := m.Optimizer().State()
	s.Require().Equal(2*4, st.Step) // ceil(50/16) batches per epoch
	s.Require().Len(st.Slots, 2)
	s.Require().Equal("dense/kernel/velocity", st.Slots[0].Name)
}

func TestSequentialSuite(t *testing.T) {
	suite.Run(t, new(SequentialSuite))
}

func TestActivationsRange(t *testing.T) {
	z := mat.NewDense(2, 3, []float64{-3, 0, 3, 1000, -1000, 0.5})
	for _, name := range nn.ActivationNames {
		a, err := nn.Activate(name, z)
		require.NoError(t, err, name)
		r, c := a.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				v := a.At(i, j)
				require.False(t, v != v, "%s produced NaN", name)
				switch name {
				case nn.Sigmoid, nn.Softmax:
					require.GreaterOrEqual(t, v, 0.0)
					require.LessOrEqual(t, v, 1.0)
				case nn.Tanh:
					require.LessOrEqual(t, v, 1.0)
					require.GreaterOrEqual(t, v, -1.0)
				case nn.ReLU:
					require.GreaterOrEqual(t, v, 0.0)
				}
			}
		}
	}
	_, err := nn.Activate("gelu", z)
	require.ErrorIs(t, err, nn.ErrUnknownActivation)
}
