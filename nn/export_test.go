// SPDX-License-Identifier: MIT

package nn

import "gonum.org/v1/gonum/mat"

// LossAndGrads runs one forward/backward pass without updating weights and
// returns the batch loss together with the parameters holding fresh gradients.
func LossAndGrads(m *Sequential, X, y *mat.Dense) (float64, []*Param) {
	pred, caches := m.forward(X)
	m.backward(caches, m.loss.gradient(pred, y))

	return m.loss.value(pred, y), m.params()
}

// BatchLoss evaluates the compiled loss on (X, y).
func BatchLoss(m *Sequential, X, y *mat.Dense) float64 {
	pred, _ := m.forward(X)
	return m.loss.value(pred, y)
}

// ActivationNames lists every registered activation.
var ActivationNames = []string{Linear, ReLU, Tanh, Sigmoid, Softmax}

// Activate applies the named activation.
func Activate(name string, z *mat.Dense) (*mat.Dense, error) {
	act, err := lookupActivation(name)
	if err != nil {
		return nil, err
	}
	return act.forward(z), nil
}
