// SPDX-License-Identifier: MIT

// Package lvlearn is a small, dependency-light workbench for two classic
// machine-learning workflows, written so every step can be printed and checked.
//
// What is inside?
//
//	PCA by hand, then by library:
//		matrix → means → centered → covariance → eigenpairs → basis → projection
//		and a fit/transform estimator that returns the same scores.
//
//	Sequence models that survive a restart:
//		train a Sequential (Dense, SimpleRNN) → save one checkpoint file →
//		reload it → predict raw outputs, classes or probabilities.
//
// Under the hood:
//
//	matrix/       dense row-major matrix, validators, statistics, Jacobi eigen
//	pca/          covariance-method recipe (Decompose) and the PCA estimator
//	nn/           layers, activations, losses, SGD/Adam, Fit/Predict, snapshots
//	checkpoint/   single-file model container: zstd archive or SQLite
//	dataset/      CSV tables and synthetic rising/falling sequences
//	serve/        HTTP inference server and client
//	cmd/lvlearn/  command line: pca, train, predict, serve, inspect
//
// Quick example (the 3×2 walkthrough matrix):
//
//	A = | 1 2 |      M = [3 4]      V = | 4 4 |      λ = {8, 0}
//	    | 3 4 |                         | 4 4 |
//	    | 5 6 |      P = [-2.828  0  2.828]
//
// See examples/pca_walkthrough and examples/model_persistence for runnable
// versions of both workflows.
//
//	go install github.com/katalvlaran/lvlearn/cmd/lvlearn@latest
package lvlearn
