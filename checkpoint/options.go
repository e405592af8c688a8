// SPDX-License-Identifier: MIT

package checkpoint

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

// Format selects the container codec.
type Format int

const (
	// Auto picks SQLite for ".db"/".sqlite"/".sqlite3" paths and Archive otherwise.
	Auto Format = iota
	// Archive is the zstd-compressed single-stream container.
	Archive
	// SQLite stores the header and tensors in a SQLite database file.
	SQLite
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case Auto:
		return "auto"
	case Archive:
		return "archive"
	case SQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps "auto", "archive" and "sqlite" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "archive", "lvm":
		return Archive, nil
	case "sqlite", "db":
		return SQLite, nil
	default:
		return Auto, fmt.Errorf("%q: %w", s, ErrUnknownFormat)
	}
}

// formatForPath resolves Auto from the file extension.
func formatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return SQLite
	default:
		return Archive
	}
}

// Options is the resolved configuration of Save.
type Options struct {
	Format   Format
	Level    zstd.EncoderLevel
	Metadata map[string]string
	Logger   zerolog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithFormat forces a codec regardless of the file extension.
func WithFormat(f Format) Option { return func(o *Options) { o.Format = f } }

// WithCompressionLevel sets the zstd level used by the Archive codec.
func WithCompressionLevel(l zstd.EncoderLevel) Option { return func(o *Options) { o.Level = l } }

// WithMetadata attaches free-form string pairs stored in the header.
func WithMetadata(kv map[string]string) Option {
	return func(o *Options) {
		if o.Metadata == nil {
			o.Metadata = make(map[string]string, len(kv))
		}
		for k, v := range kv {
			o.Metadata[k] = v
		}
	}
}

// WithLogger reports saves and loads at debug level.
func WithLogger(l zerolog.Logger) Option { return func(o *Options) { o.Logger = l } }

func gatherOptions(user ...Option) Options {
	o := Options{
		Format: Auto,
		Level:  zstd.SpeedDefault,
		Logger: zerolog.Nop(),
	}
	for _, fn := range user {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
