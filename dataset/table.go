// SPDX-License-Identifier: MIT

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlearn/matrix"
)

// Table is an in-memory numeric table, one []float64 per row.
type Table struct {
	header []string
	rows   [][]float64
}

// NewTable wraps rows (copied). header may be nil; otherwise its length must match.
func NewTable(header []string, rows [][]float64) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	width := len(rows[0])
	if width == 0 {
		return nil, ErrEmpty
	}
	if header != nil && len(header) != width {
		return nil, fmt.Errorf("header has %d names for %d columns: %w", len(header), width, ErrRagged)
	}
	t := &Table{header: append([]string(nil), header...), rows: make([][]float64, len(rows))}
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("row %d has %d fields, want %d: %w", i, len(r), width, ErrRagged)
		}
		t.rows[i] = append([]float64(nil), r...)
	}

	return t, nil
}

// ReadCSV parses every record of r as float64 cells.
func ReadCSV(r io.Reader, opts ...Option) (*Table, error) {
	o := gatherOptions(opts...)
	cr := csv.NewReader(r)
	cr.Comma = o.Comma
	cr.Comment = o.Comment
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	t := &Table{}
	width := -1
	for line := 0; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				return nil, fmt.Errorf("%v: %w", err, ErrRagged)
			}
			return nil, err
		}
		if line == 0 && o.Header {
			t.header = make([]string, len(rec))
			for j, name := range rec {
				t.header[j] = strings.TrimSpace(name)
			}
			width = len(rec)
			continue
		}
		if width >= 0 && len(rec) != width {
			return nil, fmt.Errorf("row %d has %d fields, want %d: %w", len(t.rows), len(rec), width, ErrRagged)
		}
		width = len(rec)

		row := make([]float64, len(rec))
		for j, cell := range rec {
			v, perr := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if perr == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
				perr = errors.New("not finite")
			}
			if perr != nil {
				return nil, &ParseError{Row: len(t.rows), Col: j, Value: cell, Err: perr}
			}
			row[j] = v
		}
		t.rows = append(t.rows, row)
	}
	if len(t.rows) == 0 {
		return nil, ErrEmpty
	}

	return t, nil
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string, opts ...Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadCSV(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return t, nil
}

// Rows returns the number of data rows.
func (t *Table) Rows() int { return len(t.rows) }

// Cols returns the number of columns.
func (t *Table) Cols() int { return len(t.rows[0]) }

// Header returns the column names, or nil when the source had none.
func (t *Table) Header() []string { return append([]string(nil), t.header...) }

// Row returns a copy of row i.
func (t *Table) Row(i int) []float64 { return append([]float64(nil), t.rows[i]...) }

// Records returns a deep copy of the rows.
func (t *Table) Records() [][]float64 {
	out := make([][]float64, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}

	return out
}

// ColumnIndex resolves a header name; numeric strings are accepted as indices.
func (t *Table) ColumnIndex(name string) (int, error) {
	for j, h := range t.header {
		if h == name {
			return j, nil
		}
	}
	if j, err := strconv.Atoi(name); err == nil && j >= 0 && j < t.Cols() {
		return j, nil
	}

	return 0, fmt.Errorf("%q: %w", name, ErrColumn)
}

// Split separates column labelCol (negative counts from the end) from the features.
func (t *Table) Split(labelCol int) (*Table, []float64, error) {
	c := t.Cols()
	if labelCol < 0 {
		labelCol += c
	}
	if labelCol < 0 || labelCol >= c {
		return nil, nil, fmt.Errorf("label column %d of %d: %w", labelCol, c, ErrColumn)
	}
	if c == 1 {
		return nil, nil, fmt.Errorf("no feature columns left: %w", ErrColumn)
	}

	features := &Table{rows: make([][]float64, len(t.rows))}
	if t.header != nil {
		features.header = make([]string, 0, c-1)
		features.header = append(features.header, t.header[:labelCol]...)
		features.header = append(features.header, t.header[labelCol+1:]...)
	}
	labels := make([]float64, len(t.rows))
	for i, r := range t.rows {
		row := make([]float64, 0, c-1)
		row = append(row, r[:labelCol]...)
		row = append(row, r[labelCol+1:]...)
		features.rows[i] = row
		labels[i] = r[labelCol]
	}

	return features, labels, nil
}

// ToMatrix copies the table into a matrix.Dense.
func (t *Table) ToMatrix() (*matrix.Dense, error) {
	return matrix.NewDenseFrom(t.rows)
}

// ToGonum copies the table into a gonum dense matrix.
func (t *Table) ToGonum() *mat.Dense {
	r, c := t.Rows(), t.Cols()
	data := make([]float64, 0, r*c)
	for _, row := range t.rows {
		data = append(data, row...)
	}

	return mat.NewDense(r, c, data)
}
