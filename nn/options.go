// SPDX-License-Identifier: MIT

package nn

import "github.com/rs/zerolog"

// Training defaults.
const (
	DefaultEpochs    = 1
	DefaultBatchSize = 32
	// DefaultSeed seeds weight initialization in NewSequential.
	DefaultSeed uint64 = 42
)

// FitOptions is the resolved configuration of a Fit call.
type FitOptions struct {
	Epochs    int
	BatchSize int
	Shuffle   bool
	Seed      uint64
	Logger    zerolog.Logger
}

// FitOption mutates FitOptions.
type FitOption func(*FitOptions)

// WithEpochs sets the number of passes over the data (n <= 0 keeps the default).
func WithEpochs(n int) FitOption {
	return func(o *FitOptions) {
		if n > 0 {
			o.Epochs = n
		}
	}
}

// WithBatchSize sets the mini-batch size (n <= 0 keeps the default).
func WithBatchSize(n int) FitOption {
	return func(o *FitOptions) {
		if n > 0 {
			o.BatchSize = n
		}
	}
}

// WithShuffle permutes samples every epoch with a PCG stream seeded by seed.
func WithShuffle(seed uint64) FitOption {
	return func(o *FitOptions) {
		o.Shuffle = true
		o.Seed = seed
	}
}

// WithLogger reports per-epoch metrics; the default discards them.
func WithLogger(l zerolog.Logger) FitOption {
	return func(o *FitOptions) { o.Logger = l }
}

func gatherFitOptions(user ...FitOption) FitOptions {
	o := FitOptions{
		Epochs:    DefaultEpochs,
		BatchSize: DefaultBatchSize,
		Logger:    zerolog.Nop(),
	}
	for _, fn := range user {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
