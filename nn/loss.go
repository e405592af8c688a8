// SPDX-License-Identifier: MIT

package nn

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Loss names accepted by Compile.
const (
	MSE                     = "mse"
	BinaryCrossentropy      = "binary_crossentropy"
	CategoricalCrossentropy = "categorical_crossentropy"
)

// probEpsilon clips probabilities away from 0 and 1 before taking logs.
const probEpsilon = 1e-7

// loss returns the batch-mean value and dL/dpred for one batch.
type loss struct {
	name     string
	value    func(pred, target *mat.Dense) float64
	gradient func(pred, target *mat.Dense) *mat.Dense
}

func lookupLoss(name string) (loss, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case MSE, "mean_squared_error":
		return loss{name: MSE, value: mseValue, gradient: mseGradient}, nil
	case BinaryCrossentropy:
		return loss{name: BinaryCrossentropy, value: bceValue, gradient: bceGradient}, nil
	case CategoricalCrossentropy:
		return loss{name: CategoricalCrossentropy, value: cceValue, gradient: cceGradient}, nil
	default:
		return loss{}, fmt.Errorf("%q: %w", name, ErrUnknownLoss)
	}
}

func clipProb(p float64) float64 {
	return math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
}

// mseValue averages over every output cell.
func mseValue(pred, target *mat.Dense) float64 {
	r, c := pred.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		p, t := pred.RawRowView(i), target.RawRowView(i)
		for j := range p {
			d := p[j] - t[j]
			sum += d * d
		}
	}

	return sum / float64(r*c)
}

func mseGradient(pred, target *mat.Dense) *mat.Dense {
	r, c := pred.Dims()
	scale := 2 / float64(r*c)
	var out mat.Dense
	out.Apply(func(i, j int, p float64) float64 { return scale * (p - target.At(i, j)) }, pred)
	return &out
}

func bceValue(pred, target *mat.Dense) float64 {
	r, c := pred.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		p, t := pred.RawRowView(i), target.RawRowView(i)
		for j := range p {
			q := clipProb(p[j])
			sum -= t[j]*math.Log(q) + (1-t[j])*math.Log(1-q)
		}
	}

	return sum / float64(r*c)
}

func bceGradient(pred, target *mat.Dense) *mat.Dense {
	r, c := pred.Dims()
	n := float64(r * c)
	var out mat.Dense
	out.Apply(func(i, j int, p float64) float64 {
		q := clipProb(p)
		return (q - target.At(i, j)) / (q * (1 - q)) / n
	}, pred)
	return &out
}

// cceValue sums over classes and averages over samples; targets are one-hot rows.
func cceValue(pred, target *mat.Dense) float64 {
	r, _ := pred.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		p, t := pred.RawRowView(i), target.RawRowView(i)
		for j := range p {
			if t[j] != 0 {
				sum -= t[j] * math.Log(clipProb(p[j]))
			}
		}
	}

	return sum / float64(r)
}

func cceGradient(pred, target *mat.Dense) *mat.Dense {
	r, _ := pred.Dims()
	n := float64(r)
	var out mat.Dense
	out.Apply(func(i, j int, p float64) float64 {
		return -target.At(i, j) / clipProb(p) / n
	}, pred)
	return &out
}
