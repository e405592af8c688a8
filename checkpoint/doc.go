// SPDX-License-Identifier: MIT

// Package checkpoint persists an nn.Sequential to a single container file
// and restores it.
//
// A checkpoint holds the architecture, every weight tensor, the loss name,
// the optimizer configuration and the optimizer state, so a reloaded model
// predicts bit-for-bit like the original and can resume training.
//
// Two codecs share one JSON header (see Header):
//   - Archive (default): magic "LVLMODEL", a uint16 version, a zstd frame of
//     {header, raw float64 tensors} and an xxhash64 trailer.
//   - SQLite (".db", ".sqlite", ".sqlite3" or WithFormat(SQLite)): tables
//     meta(key, value) and tensors(position, name, grp, rows, cols, checksum, data).
//
// Load detects the codec from the file signature.
package checkpoint
