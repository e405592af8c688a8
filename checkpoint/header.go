// SPDX-License-Identifier: MIT

package checkpoint

import (
	"math"

	"github.com/bytedance/sonic"

	"github.com/katalvlaran/lvlearn/nn"
)

// Version is the container version written by this package.
const Version uint16 = 1

const formatName = "lvlearn.sequential"

// Tensor groups.
const (
	groupWeights   = "weights"
	groupOptimizer = "optimizer"
)

// Header is the JSON document stored in every checkpoint. It describes the
// model and indexes the tensors that follow it.
type Header struct {
	Format        string            `json:"format"`
	Version       uint16            `json:"version"`
	Model         *nn.Snapshot      `json:"model"`
	OptimizerStep int               `json:"optimizer_step"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Tensors       []TensorEntry     `json:"tensors"`
}

// TensorEntry locates one tensor. Offset counts bytes from the start of the
// tensor data region and is only meaningful for the Archive codec.
type TensorEntry struct {
	Name   string `json:"name"`
	Group  string `json:"group"`
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
	Offset int64  `json:"offset"`
}

func (e TensorEntry) byteLen() int64 { return int64(e.Rows) * int64(e.Cols) * 8 }

// newHeader indexes the snapshot tensors: weights first, then optimizer slots.
func newHeader(snap *nn.Snapshot, meta map[string]string) (*Header, []nn.Tensor) {
	h := &Header{
		Format:        formatName,
		Version:       Version,
		Model:         snap,
		OptimizerStep: snap.OptimizerState.Step,
		Metadata:      meta,
	}

	tensors := make([]nn.Tensor, 0, len(snap.Weights)+len(snap.OptimizerState.Slots))
	var off int64
	add := func(group string, ts []nn.Tensor) {
		for _, t := range ts {
			e := TensorEntry{Name: t.Name, Group: group, Rows: t.Rows, Cols: t.Cols, Offset: off}
			h.Tensors = append(h.Tensors, e)
			tensors = append(tensors, t)
			off += e.byteLen()
		}
	}
	add(groupWeights, snap.Weights)
	add(groupOptimizer, snap.OptimizerState.Slots)

	return h, tensors
}

// snapshot attaches decoded tensor data (parallel to h.Tensors) to the model description.
func (h *Header) snapshot(data [][]float64) *nn.Snapshot {
	snap := *h.Model
	snap.Weights = nil
	snap.OptimizerState = nn.OptimizerState{Step: h.OptimizerStep}
	for i, e := range h.Tensors {
		t := nn.Tensor{Name: e.Name, Rows: e.Rows, Cols: e.Cols, Data: data[i]}
		if e.Group == groupOptimizer {
			snap.OptimizerState.Slots = append(snap.OptimizerState.Slots, t)
		} else {
			snap.Weights = append(snap.Weights, t)
		}
	}

	return &snap
}

// marshalHeader uses the std-compatible config so map keys are sorted and output is stable.
func marshalHeader(h *Header) ([]byte, error) {
	return sonic.ConfigStd.Marshal(h)
}

func unmarshalHeader(b []byte) (*Header, error) {
	var h Header
	if err := sonic.ConfigStd.Unmarshal(b, &h); err != nil {
		return nil, corruptf("header json: %v", err)
	}
	if h.Format != formatName {
		return nil, corruptf("header format %q", h.Format)
	}
	if h.Version > Version {
		return nil, ErrUnsupportedVersion
	}
	if h.Model == nil {
		return nil, corruptf("header has no model")
	}
	for _, e := range h.Tensors {
		if e.Rows <= 0 || e.Cols <= 0 || e.Offset < 0 {
			return nil, corruptf("tensor %q: %dx%d at %d", e.Name, e.Rows, e.Cols, e.Offset)
		}
		// byteLen must not overflow int64.
		if int64(e.Rows) > math.MaxInt64/8/int64(e.Cols) {
			return nil, corruptf("tensor %q: %dx%d too large", e.Name, e.Rows, e.Cols)
		}
	}

	return &h, nil
}
