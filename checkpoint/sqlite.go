// SPDX-License-Identifier: MIT

package checkpoint

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"

	"github.com/katalvlaran/lvlearn/nn"
)

//go:embed schema.sql
var sqliteSchema string

// sqliteMagic is the fixed 16-byte prefix of every SQLite 3 database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// Meta keys.
const (
	metaVersion = "version"
	metaHeader  = "header"
)

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	return db, nil
}

// writeSQLite creates a fresh database at path holding h and tensors.
// The per-tensor checksum is the hex xxhash64 of the data blob.
func writeSQLite(ctx context.Context, path string, h *Header, tensors []nn.Tensor) (err error) {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close sqlite db: %w", cerr)
		}
	}()

	hdr, err := marshalHeader(h)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES (?, ?), (?, ?)`,
		metaVersion, strconv.Itoa(int(Version)), metaHeader, string(hdr),
	); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tensors(position, name, grp, rows, cols, checksum, data) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare tensors: %w", err)
	}
	defer stmt.Close()

	for i, t := range tensors {
		e := h.Tensors[i]
		blob := encodeFloats(t.Data)
		sum := strconv.FormatUint(xxhash.Sum64(blob), 16)
		if _, err = stmt.ExecContext(ctx, i, e.Name, e.Group, e.Rows, e.Cols, sum, blob); err != nil {
			return fmt.Errorf("insert tensor %q: %w", e.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// readSQLite loads and verifies a SQLite checkpoint.
func readSQLite(ctx context.Context, path string) (*Header, [][]float64, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	var version string
	if err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaVersion).Scan(&version); err != nil {
		return nil, nil, sqliteCorrupt("version", err)
	}
	v, err := strconv.ParseUint(version, 10, 16)
	if err != nil {
		return nil, nil, corruptf("version %q", version)
	}
	if v == 0 || uint16(v) > Version {
		return nil, nil, ErrUnsupportedVersion
	}

	var hdr string
	if err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaHeader).Scan(&hdr); err != nil {
		return nil, nil, sqliteCorrupt("header", err)
	}
	h, err := unmarshalHeader([]byte(hdr))
	if err != nil {
		return nil, nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT position, name, rows, cols, checksum, data FROM tensors ORDER BY position`)
	if err != nil {
		return nil, nil, sqliteCorrupt("tensors", err)
	}
	defer rows.Close()

	data := make([][]float64, 0, len(h.Tensors))
	for rows.Next() {
		var (
			pos, r, c int
			name, sum string
			blob      []byte
		)
		if err = rows.Scan(&pos, &name, &r, &c, &sum, &blob); err != nil {
			return nil, nil, sqliteCorrupt("scan tensor", err)
		}
		if pos != len(data) || pos >= len(h.Tensors) {
			return nil, nil, corruptf("tensor %q at unexpected position %d", name, pos)
		}
		e := h.Tensors[pos]
		if e.Name != name || e.Rows != r || e.Cols != c || int64(len(blob)) != e.byteLen() {
			return nil, nil, corruptf("tensor %q does not match header entry %q", name, e.Name)
		}
		if strconv.FormatUint(xxhash.Sum64(blob), 16) != sum {
			return nil, nil, ErrChecksum
		}
		data = append(data, decodeFloats(blob))
	}
	if err = rows.Err(); err != nil {
		return nil, nil, sqliteCorrupt("tensors", err)
	}
	if len(data) != len(h.Tensors) {
		return nil, nil, corruptf("%d tensors stored, header lists %d", len(data), len(h.Tensors))
	}

	return h, data, nil
}

func sqliteCorrupt(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return corruptf("missing %s", what)
	}
	return fmt.Errorf("%s: %v: %w", what, err, ErrCorrupt)
}

// sniff reports the codec of an existing file from its leading bytes.
func sniff(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Auto, err
	}
	defer f.Close()

	buf := make([]byte, len(sqliteMagic))
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Auto, err
	}
	buf = buf[:n]

	switch {
	case len(buf) >= len(archiveMagic) && string(buf[:len(archiveMagic)]) == string(archiveMagic[:]):
		return Archive, nil
	case n == len(sqliteMagic) && string(buf) == string(sqliteMagic):
		return SQLite, nil
	default:
		return Auto, ErrBadMagic
	}
}
