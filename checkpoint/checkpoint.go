// SPDX-License-Identifier: MIT

package checkpoint

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/katalvlaran/lvlearn/nn"
)

const (
	opSave    = "Save"
	opLoad    = "Load"
	opInspect = "Inspect"
)

// Save writes model to path as a single container file. The file is written
// to a temporary sibling and renamed into place, so readers never observe a
// partial checkpoint.
func Save(path string, model *nn.Sequential, opts ...Option) error {
	if model == nil {
		return checkpointErrorf(opSave, path, ErrNilModel)
	}
	o := gatherOptions(opts...)
	format := o.Format
	if format == Auto {
		format = formatForPath(path)
	}

	h, tensors := newHeader(model.Snapshot(), o.Metadata)
	write := func(tmp string) error {
		switch format {
		case SQLite:
			return writeSQLite(context.Background(), tmp, h, tensors)
		case Archive:
			return writeArchiveFile(tmp, h, tensors, o)
		default:
			return fmt.Errorf("%v: %w", format, ErrUnknownFormat)
		}
	}
	if err := writeAtomic(path, write); err != nil {
		return checkpointErrorf(opSave, path, err)
	}

	o.Logger.Debug().
		Str("path", path).
		Stringer("format", format).
		Int("tensors", len(tensors)).
		Int("params", model.ParamCount()).
		Msg("checkpoint saved")

	return nil
}

// Load reconstructs a model from a file written by Save. The codec is detected
// from the file signature, not the extension.
//
// Errors: fs.ErrNotExist (wrapped), ErrBadMagic, ErrUnsupportedVersion,
// ErrChecksum, ErrCorrupt, and nn errors for an inconsistent model.
func Load(path string, opts ...Option) (*nn.Sequential, error) {
	o := gatherOptions(opts...)
	h, data, format, err := read(path)
	if err != nil {
		return nil, checkpointErrorf(opLoad, path, err)
	}

	m, err := nn.FromSnapshot(h.snapshot(data))
	if err != nil {
		return nil, checkpointErrorf(opLoad, path, fmt.Errorf("%w: %w", ErrCorrupt, err))
	}

	o.Logger.Debug().
		Str("path", path).
		Stringer("format", format).
		Int("tensors", len(data)).
		Bool("compiled", m.Compiled()).
		Msg("checkpoint loaded")

	return m, nil
}

// Inspect reads and verifies a checkpoint and returns its header without
// building the model.
func Inspect(path string) (*Header, error) {
	h, _, _, err := read(path)
	if err != nil {
		return nil, checkpointErrorf(opInspect, path, err)
	}

	return h, nil
}

func read(path string) (*Header, [][]float64, Format, error) {
	format, err := sniff(path)
	if err != nil {
		return nil, nil, format, err
	}

	var (
		h    *Header
		data [][]float64
	)
	switch format {
	case SQLite:
		h, data, err = readSQLite(context.Background(), path)
	default:
		var raw []byte
		if raw, err = os.ReadFile(path); err != nil {
			return nil, nil, format, err
		}
		h, data, err = decodeArchive(raw)
	}

	return h, data, format, err
}

func writeArchiveFile(path string, h *Header, tensors []nn.Tensor, o Options) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err = encodeArchive(w, h, tensors, o.Level); err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	return err
}

// writeAtomic lets write fill a temporary file in the target directory, then
// renames it over path. The temporary file is removed on any failure.
func writeAtomic(path string, write func(tmp string) error) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err = f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err = write(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err = os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return nil
}
