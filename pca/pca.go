// SPDX-License-Identifier: MIT

package pca

import (
	"math"

	"github.com/katalvlaran/lvlearn/matrix"
)

const (
	opFit              = "Fit"
	opTransform        = "Transform"
	opInverseTransform = "InverseTransform"
)

// PCA is a fit/transform estimator over the covariance-method recipe.
// A fitted PCA is read-only and safe for concurrent Transform calls.
type PCA struct {
	opts Options

	fitted     bool
	nFeatures  int
	nSamples   int
	mean       []float64
	components *matrix.Dense // k×m, rows are components
	variance   []float64     // explained variance per kept component
	total      float64       // total variance (trace of the covariance)
}

// New returns an unfitted estimator.
func New(opts ...Option) *PCA {
	return &PCA{opts: gatherOptions(opts...)}
}

// Fit learns the mean and the principal axes of X (rows are samples).
//
// Errors: see Decompose; ErrInvalidComponents when WithComponents exceeds Cols(X).
func (p *PCA) Fit(X matrix.Matrix) error {
	if err := matrix.ValidateNotNil(X); err != nil {
		return pcaErrorf(opFit, err)
	}
	k := p.opts.Components
	if k == 0 {
		k = X.Cols()
	}
	steps, err := Decompose(X, k, p.withOpts()...)
	if err != nil {
		return pcaErrorf(opFit, err)
	}

	comps, err := matrix.Transpose(steps.Basis)
	if err != nil {
		return pcaErrorf(opFit, err)
	}
	p.components = comps.(*matrix.Dense)
	p.mean = steps.Means
	p.nFeatures = X.Cols()
	p.nSamples = X.Rows()

	p.variance = make([]float64, k)
	p.total = 0
	for j, v := range steps.Eigenvalues {
		v = math.Max(v, 0) // rounding can leave tiny negatives on rank-deficient data
		p.total += v
		if j < k {
			p.variance[j] = v
		}
	}
	p.fitted = true

	p.opts.Logger.Info().
		Int("samples", p.nSamples).
		Int("features", p.nFeatures).
		Int("components", k).
		Floats64("explained_variance", p.variance).
		Msg("pca fitted")

	return nil
}

// Transform projects X onto the fitted components: Y = (X − mean) · Componentsᵀ.
//
// Errors: ErrNotFitted, matrix.ErrNilMatrix, matrix.ErrDimensionMismatch.
func (p *PCA) Transform(X matrix.Matrix) (matrix.Matrix, error) {
	if !p.fitted {
		return nil, pcaErrorf(opTransform, ErrNotFitted)
	}
	if err := matrix.ValidateNotNil(X); err != nil {
		return nil, pcaErrorf(opTransform, err)
	}
	if X.Cols() != p.nFeatures {
		return nil, pcaErrorf(opTransform, matrix.ErrDimensionMismatch)
	}

	Xc, err := matrix.BroadcastSubRow(X, p.mean)
	if err != nil {
		return nil, pcaErrorf(opTransform, err)
	}
	Ct, err := matrix.Transpose(p.components)
	if err != nil {
		return nil, pcaErrorf(opTransform, err)
	}
	Y, err := matrix.Mul(Xc, Ct)
	if err != nil {
		return nil, pcaErrorf(opTransform, err)
	}
	if p.opts.Whiten {
		if Y, err = p.scaleScores(Y, true); err != nil {
			return nil, pcaErrorf(opTransform, err)
		}
	}

	return Y, nil
}

// FitTransform fits on X and returns its scores.
func (p *PCA) FitTransform(X matrix.Matrix) (matrix.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}

	return p.Transform(X)
}

// InverseTransform maps scores back to feature space: X ≈ Y · Components + mean.
// The reconstruction is exact only when every component was kept.
func (p *PCA) InverseTransform(Y matrix.Matrix) (matrix.Matrix, error) {
	if !p.fitted {
		return nil, pcaErrorf(opInverseTransform, ErrNotFitted)
	}
	if err := matrix.ValidateNotNil(Y); err != nil {
		return nil, pcaErrorf(opInverseTransform, err)
	}
	if Y.Cols() != p.components.Rows() {
		return nil, pcaErrorf(opInverseTransform, matrix.ErrDimensionMismatch)
	}

	var err error
	if p.opts.Whiten {
		if Y, err = p.scaleScores(Y, false); err != nil {
			return nil, pcaErrorf(opInverseTransform, err)
		}
	}
	Xc, err := matrix.Mul(Y, p.components)
	if err != nil {
		return nil, pcaErrorf(opInverseTransform, err)
	}
	X, err := matrix.BroadcastAddRow(Xc, p.mean)
	if err != nil {
		return nil, pcaErrorf(opInverseTransform, err)
	}

	return X, nil
}

// scaleScores divides (whiten=true) or multiplies column j by sqrt(variance[j]).
// Zero-variance components are left untouched.
func (p *PCA) scaleScores(Y matrix.Matrix, whiten bool) (matrix.Matrix, error) {
	out := Y.Clone()
	r, c := out.Rows(), out.Cols()
	for j := 0; j < c; j++ {
		sd := math.Sqrt(p.variance[j])
		if sd == 0 {
			continue
		}
		for i := 0; i < r; i++ {
			v, err := out.At(i, j)
			if err != nil {
				return nil, err
			}
			if whiten {
				v /= sd
			} else {
				v *= sd
			}
			if err = out.Set(i, j, v); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// Components returns a copy of the k×m component matrix (rows are axes), or nil before Fit.
func (p *PCA) Components() *matrix.Dense {
	if !p.fitted {
		return nil
	}
	return p.components.Clone().(*matrix.Dense)
}

// Mean returns the fitted per-feature mean.
func (p *PCA) Mean() []float64 { return append([]float64(nil), p.mean...) }

// NComponents returns the number of kept components (0 before Fit).
func (p *PCA) NComponents() int {
	if !p.fitted {
		return 0
	}
	return p.components.Rows()
}

// ExplainedVariance returns the variance captured by each kept component.
func (p *PCA) ExplainedVariance() []float64 { return append([]float64(nil), p.variance...) }

// ExplainedVarianceRatio returns ExplainedVariance divided by the total variance.
// A zero-variance dataset yields all zeros.
func (p *PCA) ExplainedVarianceRatio() []float64 {
	out := make([]float64, len(p.variance))
	if p.total == 0 {
		return out
	}
	for j, v := range p.variance {
		out[j] = v / p.total
	}

	return out
}

func (p *PCA) withOpts() []Option {
	o := p.opts
	return []Option{func(dst *Options) { *dst = o }}
}
