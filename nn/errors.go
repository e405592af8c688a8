// SPDX-License-Identifier: MIT

package nn

import (
	"errors"
	"fmt"
)

var (
	// ErrNotCompiled is returned by Fit and Evaluate before Compile.
	ErrNotCompiled = errors.New("nn: model is not compiled")

	// ErrShape indicates an input, target or weight tensor of the wrong shape.
	ErrShape = errors.New("nn: shape mismatch")

	// ErrUnknownActivation is returned for an unregistered activation name.
	ErrUnknownActivation = errors.New("nn: unknown activation")

	// ErrUnknownLoss is returned for an unregistered loss name.
	ErrUnknownLoss = errors.New("nn: unknown loss")

	// ErrUnknownOptimizer is returned for an unregistered or nil optimizer.
	ErrUnknownOptimizer = errors.New("nn: unknown optimizer")

	// ErrUnknownLayer is returned when a snapshot names a layer kind this package cannot build.
	ErrUnknownLayer = errors.New("nn: unknown layer kind")

	// ErrEmptyModel is returned when a model has no layers or no samples to train on.
	ErrEmptyModel = errors.New("nn: empty model")

	// ErrInvalidUnits is returned for a layer with units <= 0.
	ErrInvalidUnits = errors.New("nn: units must be positive")
)

// nnErrorf prefixes err with the failing operation, keeping the sentinel reachable.
func nnErrorf(op string, err error) error {
	return fmt.Errorf("nn.%s: %w", op, err)
}

// shapeErrorf reports a concrete shape mismatch as ErrShape.
func shapeErrorf(op, what string, wantR, wantC, gotR, gotC int) error {
	return fmt.Errorf("nn.%s: %s want %dx%d, got %dx%d: %w", op, what, wantR, wantC, gotR, gotC, ErrShape)
}
