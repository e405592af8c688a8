// SPDX-License-Identifier: MIT

// Package nn implements a small sequential neural network: Dense and
// SimpleRNN layers, the usual activations and losses, SGD and Adam
// optimizers with resumable state, and mini-batch training.
//
// Data layout:
//   - Matrices are gonum *mat.Dense; one row per sample.
//   - A model declares its per-sample Shape{Timesteps, Features}; each input
//     row holds the flattened timestep-major sample, so a plain tabular model
//     uses Timesteps = 1.
//
// Typical flow:
//
//	m, _ := nn.NewSequential(nn.Shape{Timesteps: 10, Features: 1},
//		nn.SimpleRNN(16, nn.Tanh),
//		nn.Dense(1, nn.Sigmoid),
//	)
//	_ = m.Compile(nn.BinaryCrossentropy, nn.NewAdam(0.01))
//	hist, err := m.Fit(ctx, X, y, nn.WithEpochs(20), nn.WithShuffle(7))
//	classes, err := m.PredictClasses(Xnew)
//
// Snapshot and FromSnapshot convert a model to and from a plain value holding
// architecture, weights and optimizer state; package checkpoint stores that
// value in a single file.
package nn
