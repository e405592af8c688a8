// SPDX-License-Identifier: MIT

package pca

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlearn/matrix"
)

// eigenSolver factorizes a symmetric covariance matrix into (values, vector columns).
type eigenSolver interface {
	solve(S *matrix.Dense) ([]float64, *matrix.Dense, error)
}

func newSolver(o Options) (eigenSolver, error) {
	switch o.Backend {
	case Jacobi:
		return jacobiSolver{opts: o.eigen}, nil
	case Gonum:
		return gonumSolver{}, nil
	default:
		return nil, fmt.Errorf("%v: %w", o.Backend, ErrUnknownBackend)
	}
}

type jacobiSolver struct {
	opts []matrix.EigenOption
}

func (s jacobiSolver) solve(S *matrix.Dense) ([]float64, *matrix.Dense, error) {
	return matrix.Eigen(S, s.opts...)
}

type gonumSolver struct{}

func (gonumSolver) solve(S *matrix.Dense) ([]float64, *matrix.Dense, error) {
	if err := matrix.ValidateSymmetric(S, matrix.DefaultSymmetryTolerance); err != nil {
		return nil, nil, err
	}
	n := S.Rows()
	sym := mat.NewSymDense(n, S.RawData())

	var es mat.EigenSym
	if ok := es.Factorize(sym, true); !ok {
		return nil, nil, matrix.ErrEigenFailed
	}
	vals := es.Values(nil)

	var vecs mat.Dense
	es.VectorsTo(&vecs)
	data := make([]float64, 0, n*n)
	for i := 0; i < n; i++ {
		data = append(data, mat.Row(nil, i, &vecs)...)
	}
	out, err := matrix.NewDenseData(n, n, data)
	if err != nil {
		return nil, nil, err
	}

	return vals, out, nil
}
