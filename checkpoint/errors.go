// SPDX-License-Identifier: MIT

package checkpoint

import (
	"errors"
	"fmt"
)

var (
	// ErrBadMagic is returned when a file is neither a model archive nor a SQLite checkpoint.
	ErrBadMagic = errors.New("checkpoint: unrecognized file signature")

	// ErrUnsupportedVersion is returned for a container version newer than this package writes.
	ErrUnsupportedVersion = errors.New("checkpoint: unsupported format version")

	// ErrChecksum is returned when the payload digest does not match the stored one.
	ErrChecksum = errors.New("checkpoint: checksum mismatch")

	// ErrCorrupt is returned for structurally invalid content (truncation, bad offsets, bad JSON).
	ErrCorrupt = errors.New("checkpoint: corrupt content")

	// ErrUnknownFormat is returned by WithFormat/ParseFormat for an unknown codec.
	ErrUnknownFormat = errors.New("checkpoint: unknown format")

	// ErrNilModel is returned by Save for a nil model.
	ErrNilModel = errors.New("checkpoint: nil model")
)

func checkpointErrorf(op, path string, err error) error {
	return fmt.Errorf("checkpoint.%s(%s): %w", op, path, err)
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrCorrupt)
}
