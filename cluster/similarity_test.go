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

package cluster

import (
	"testing"

	"github.com/gorse-io/flip/dataset"
	"github.com/stretchr/testify/assert"
)

func TestCosineRanker(t *testing.T) {
	m, err := dataset.NewMatrixFromPairs(5, 4, []dataset.Pair{
		{User: 0, Item: 0}, {User: 0, Item: 1},
		{User: 1, Item: 0},
		{User: 2, Item: 2}, {User: 2, Item: 3},
		{User: 3, Item: 0}, {User: 3, Item: 1},
		// row 4 is empty
	})
	assert.NoError(t, err)
	ranker := NewCosineRanker(m, 1)
	assert.Equal(t, 5, ranker.Len())
	assert.InDelta(t, 1, ranker.Similarity(0, 3), 1e-6)
	assert.InDelta(t, 0.70710677, ranker.Similarity(0, 1), 1e-6)
	assert.Zero(t, ranker.Similarity(0, 2))
	assert.Zero(t, ranker.Similarity(4, 4))

	assert.Equal(t, []int32{0, 3, 1, 2, 4}, ranker.Rank(0))
	// self first even when another row is identical
	assert.Equal(t, []int32{3, 0, 1, 2, 4}, ranker.Rank(3))
	// ties keep index order
	assert.Equal(t, []int32{4, 0, 1, 2, 3}, ranker.Rank(4))
	assert.Equal(t, []int32{2, 0, 1, 3, 4}, ranker.Rank(2))
}

func TestCosineRanker_Parallel(t *testing.T) {
	m := dataset.NewMatrix(50, 10)
	for i := 0; i < 50; i++ {
		m.Set(i, i%10)
		m.Set(i, (i*7)%10)
	}
	serial := NewCosineRanker(m, 1)
	parallel := NewCosineRanker(m, 4)
	for i := 0; i < 50; i++ {
		assert.Equal(t, serial.Rank(i), parallel.Rank(i))
	}
}

func TestCosineRanker_Items(t *testing.T) {
	m, err := dataset.NewMatrixFromPairs(3, 3, []dataset.Pair{{User: 0, Item: 0}, {User: 0, Item: 2}, {User: 1, Item: 0}, {User: 1, Item: 2}, {User: 2, Item: 1}})
	assert.NoError(t, err)
	ranker := NewCosineRanker(m.Transpose(), 2)
	assert.Equal(t, 3, ranker.Len())
	assert.Equal(t, []int32{0, 2, 1}, ranker.Rank(0))
}
