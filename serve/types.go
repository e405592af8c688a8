// SPDX-License-Identifier: MIT

package serve

import (
	"time"

	"github.com/katalvlaran/lvlearn/nn"
)

// Config configures the server and client.
type Config struct {
	Address       string
	BodySizeLimit int
	ClientTimeout time.Duration
	RetryMax      int
	RetryWait     time.Duration
	// Compress makes the client send zstd request bodies and accept zstd responses.
	Compress bool
}

// DefaultConfig listens on 127.0.0.1:8080 with a 4 MiB body limit.
func DefaultConfig() Config {
	return Config{
		Address:       "127.0.0.1:8080",
		BodySizeLimit: 4 << 20,
		ClientTimeout: 30 * time.Second,
		RetryMax:      2,
		RetryWait:     200 * time.Millisecond,
	}
}

// PredictRequest carries one flattened sample per row.
type PredictRequest struct {
	Inputs [][]float64 `json:"inputs"`
}

// PredictResponse is returned by /v1/predict.
type PredictResponse struct {
	Outputs [][]float64 `json:"outputs"`
}

// ClassesResponse is returned by /v1/predict/classes.
type ClassesResponse struct {
	Classes []int `json:"classes"`
}

// ProbaResponse is returned by /v1/predict/proba.
type ProbaResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
}

// ModelInfo is returned by /v1/model.
type ModelInfo struct {
	Name        string           `json:"name"`
	InputShape  nn.Shape         `json:"input_shape"`
	Layers      []nn.LayerConfig `json:"layers"`
	OutputUnits int              `json:"output_units"`
	Params      int              `json:"params"`
	Loss        string           `json:"loss,omitempty"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
