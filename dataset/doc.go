// SPDX-License-Identifier: MIT

// Package dataset loads numeric tables and produces training data for the
// pca and nn packages: CSV ingestion, feature/label split, conversion to
// matrix.Dense or gonum mat.Dense, one-hot encoding and a deterministic
// "rising vs falling" sequence generator.
package dataset
