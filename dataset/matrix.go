// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
)

// Pair is a (user, item) interaction.
type Pair struct {
	User int32
	Item int32
}

// Matrix is a sparse boolean matrix. Each row is stored as a bitset, so a row of an
// interaction matrix is the set of items a user interacted with.
type Matrix struct {
	rows []*bitset.BitSet
	cols int
}

// NewMatrix creates an empty rows x cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	m := &Matrix{rows: make([]*bitset.BitSet, rows), cols: cols}
	for i := range m.rows {
		m.rows[i] = bitset.New(uint(cols))
	}
	return m
}

// NewMatrixFromPairs creates a matrix with a cell set for every pair. Pairs outside the
// shape are rejected.
func NewMatrixFromPairs(rows, cols int, pairs []Pair) (*Matrix, error) {
	m := NewMatrix(rows, cols)
	for _, p := range pairs {
		if !m.inRange(int(p.User), int(p.Item)) {
			return nil, errors.NotValidf("pair (%d, %d) in %dx%d matrix", p.User, p.Item, rows, cols)
		}
		m.rows[p.User].Set(uint(p.Item))
	}
	return m, nil
}

func (m *Matrix) Rows() int {
	return len(m.rows)
}

func (m *Matrix) Cols() int {
	return m.cols
}

func (m *Matrix) inRange(r, c int) bool {
	return r >= 0 && r < len(m.rows) && c >= 0 && c < m.cols
}

func (m *Matrix) mustInRange(r, c int) {
	if !m.inRange(r, c) {
		panic(fmt.Sprintf("cell (%d, %d) out of range of %dx%d matrix", r, c, len(m.rows), m.cols))
	}
}

// Contains reports whether cell (r, c) is set. Cells outside the matrix are never set.
func (m *Matrix) Contains(r, c int) bool {
	if !m.inRange(r, c) {
		return false
	}
	return m.rows[r].Test(uint(c))
}

// Set marks cell (r, c). It panics if the cell is out of range.
func (m *Matrix) Set(r, c int) {
	m.mustInRange(r, c)
	m.rows[r].Set(uint(c))
}

// Clear unmarks cell (r, c). It panics if the cell is out of range.
func (m *Matrix) Clear(r, c int) {
	m.mustInRange(r, c)
	m.rows[r].Clear(uint(c))
}

// Flip toggles cell (r, c) and returns its new value. It panics if the cell is out of range.
func (m *Matrix) Flip(r, c int) bool {
	m.mustInRange(r, c)
	m.rows[r].Flip(uint(c))
	return m.rows[r].Test(uint(c))
}

// Row returns the bitset of row r. Callers must not modify it.
func (m *Matrix) Row(r int) *bitset.BitSet {
	return m.rows[r]
}

// RowCount returns the number of cells set in row r.
func (m *Matrix) RowCount(r int) int {
	return int(m.rows[r].Count())
}

// Count returns the number of cells set in the matrix.
func (m *Matrix) Count() int {
	count := 0
	for _, row := range m.rows {
		count += int(row.Count())
	}
	return count
}

// Transpose returns a new cols x rows matrix.
func (m *Matrix) Transpose() *Matrix {
	t := NewMatrix(m.cols, len(m.rows))
	for r, row := range m.rows {
		for c, ok := row.NextSet(0); ok; c, ok = row.NextSet(c + 1) {
			t.rows[c].Set(uint(r))
		}
	}
	return t
}

func (m *Matrix) Clone() *Matrix {
	c := &Matrix{rows: make([]*bitset.BitSet, len(m.rows)), cols: m.cols}
	for i, row := range m.rows {
		c.rows[i] = row.Clone()
	}
	return c
}

// Nonzero returns the set cells in row-major order.
func (m *Matrix) Nonzero() []Pair {
	pairs := make([]Pair, 0, m.Count())
	for r, row := range m.rows {
		for c, ok := row.NextSet(0); ok; c, ok = row.NextSet(c + 1) {
			pairs = append(pairs, Pair{User: int32(r), Item: int32(c)})
		}
	}
	return pairs
}

// Dense returns row r as a 0/1 vector of length Cols().
func (m *Matrix) Dense(r int) []float32 {
	vec := make([]float32, m.cols)
	row := m.rows[r]
	for c, ok := row.NextSet(0); ok; c, ok = row.NextSet(c + 1) {
		vec[c] = 1
	}
	return vec
}
