// SPDX-License-Identifier: MIT

package pca_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/lvlearn/matrix"
	"github.com/katalvlaran/lvlearn/pca"
)

// EstimatorSuite exercises the fit/transform surface on a correlated 3-D cloud.
type EstimatorSuite struct {
	suite.Suite
	X *matrix.Dense
}

func (s *EstimatorSuite) SetupTest() {
	rng := rand.New(rand.NewSource(7))
	rows := make([][]float64, 40)
	for i := range rows {
		a, b := rng.NormFloat64(), rng.NormFloat64()
		rows[i] = []float64{3*a + 1, a + 0.2*b - 2, 0.5*b + 4}
	}
	X, err := matrix.NewDenseFrom(rows)
	require.NoError(s.T(), err)
	s.X = X
}

func (s *EstimatorSuite) TestFitTransformMatchesRecipe() {
	p := pca.New(pca.WithComponents(2))
	Y, err := p.FitTransform(s.X)
	require.NoError(s.T(), err)

	steps, err := pca.Decompose(s.X, 2)
	require.NoError(s.T(), err)
	scores, err := steps.Scores()
	require.NoError(s.T(), err)

	ok, err := matrix.AllClose(Y, scores, 0, 1e-9)
	require.NoError(s.T(), err)
	require.True(s.T(), ok)
	require.Equal(s.T(), 2, p.NComponents())
}

func (s *EstimatorSuite) TestBackendsAgree() {
	pj := pca.New(pca.WithBackend(pca.Jacobi))
	pg := pca.New(pca.WithBackend(pca.Gonum))
	Yj, err := pj.FitTransform(s.X)
	require.NoError(s.T(), err)
	Yg, err := pg.FitTransform(s.X)
	require.NoError(s.T(), err)

	ok, err := matrix.AllClose(Yj, Yg, 0, 1e-8)
	require.NoError(s.T(), err)
	require.True(s.T(), ok)

	for j, v := range pj.ExplainedVariance() {
		require.InDelta(s.T(), v, pg.ExplainedVariance()[j], 1e-9)
	}
}

func (s *EstimatorSuite) TestExplainedVarianceRatio() {
	p := pca.New()
	require.NoError(s.T(), p.Fit(s.X))

	ratio := p.ExplainedVarianceRatio()
	var sum float64
	for j, r := range ratio {
		sum += r
		if j > 0 {
			require.LessOrEqual(s.T(), r, ratio[j-1])
		}
	}
	require.InDelta(s.T(), 1.0, sum, 1e-12)
	// The cloud is dominated by the first latent direction.
	require.Greater(s.T(), ratio[0], 0.8)
}

func (s *EstimatorSuite) TestInverseTransformFullRankIsExact() {
	p := pca.New()
	Y, err := p.FitTransform(s.X)
	require.NoError(s.T(), err)
	back, err := p.InverseTransform(Y)
	require.NoError(s.T(), err)

	ok, err := matrix.AllClose(back, s.X, 0, 1e-9)
	require.NoError(s.T(), err)
	require.True(s.T(), ok)
}

func (s *EstimatorSuite) TestWhitenGivesUnitVariance() {
	p := pca.New(pca.WithWhiten(), pca.WithComponents(2))
	Y, err := p.FitTransform(s.X)
	require.NoError(s.T(), err)

	V, _, err := matrix.Covariance(Y)
	require.NoError(s.T(), err)
	I, err := matrix.NewIdentity(2)
	require.NoError(s.T(), err)
	ok, err := matrix.AllClose(V, I, 0, 1e-9)
	require.NoError(s.T(), err)
	require.True(s.T(), ok)

	back, err := p.InverseTransform(Y)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 3, back.Cols())
}

func (s *EstimatorSuite) TestErrors() {
	p := pca.New()
	_, err := p.Transform(s.X)
	require.ErrorIs(s.T(), err, pca.ErrNotFitted)
	_, err = p.InverseTransform(s.X)
	require.ErrorIs(s.T(), err, pca.ErrNotFitted)
	require.Nil(s.T(), p.Components())

	require.NoError(s.T(), p.Fit(s.X))
	narrow, err := matrix.NewDense(2, 2)
	require.NoError(s.T(), err)
	_, err = p.Transform(narrow)
	require.ErrorIs(s.T(), err, matrix.ErrDimensionMismatch)

	tooMany := pca.New(pca.WithComponents(4))
	require.ErrorIs(s.T(), tooMany.Fit(s.X), pca.ErrInvalidComponents)
}

func TestEstimatorSuite(t *testing.T) {
	suite.Run(t, new(EstimatorSuite))
}

func TestPCA_WalkthroughTopComponent(t *testing.T) {
	p := pca.New(pca.WithComponents(1))
	Y, err := p.FitTransform(walkthrough(t))
	require.NoError(t, err)
	requireMatrix(t, [][]float64{{-2.8284271247}, {0}, {2.8284271247}}, Y)
	requireMatrix(t, [][]float64{{invSqrt2, invSqrt2}}, p.Components())
	require.Equal(t, []float64{3, 4}, p.Mean())
	require.InDelta(t, 1.0, p.ExplainedVarianceRatio()[0], 1e-12)
}

func TestSolverOptionsValidateEagerly(t *testing.T) {
	require.Panics(t, func() { pca.WithTolerance(-1) })
	require.Panics(t, func() { pca.WithTolerance(math.NaN()) })
	require.Panics(t, func() { pca.WithMaxIterations(-1) })

	p := pca.New(pca.WithTolerance(1e-10), pca.WithMaxIterations(500), pca.WithComponents(1))
	Y, err := p.FitTransform(walkthrough(t))
	require.NoError(t, err)
	requireMatrix(t, [][]float64{{-2.8284271247}, {0}, {2.8284271247}}, Y)
}
