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

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/flip/base"
	"github.com/gorse-io/flip/base/log"
	"github.com/gorse-io/flip/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func init() {
	log.CloseLogger()
}

// fixedRanker returns predefined rankings.
type fixedRanker [][]int32

func (r fixedRanker) Len() int {
	return len(r)
}

func (r fixedRanker) Rank(i int) []int32 {
	return r[i]
}

func TestAssign_Remainder(t *testing.T) {
	ranker := fixedRanker{
		{0, 1, 2, 3, 4},
		{1, 0, 2, 3, 4},
		{2, 3, 0, 1, 4},
		{3, 2, 0, 1, 4},
		{4, 0, 1, 2, 3},
	}
	a, err := Assign(5, 2, ranker)
	assert.NoError(t, err)
	assert.Equal(t, 3, a.Num)
	assert.Equal(t, 2, a.GroupSize)
	assert.Equal(t, []int32{0, 0, 1, 1, 2}, a.Ids)
	assert.Equal(t, []int32{0, 1}, a.Members(0))
	assert.Equal(t, []int32{2, 3}, a.Members(1))
	assert.Equal(t, []int32{4}, a.Members(2))
	assert.Equal(t, []int{2, 2, 1}, a.Sizes())
}

func TestAssign_FollowSimilarity(t *testing.T) {
	// 0 is closest to 3, then 1 is closest to 2
	ranker := fixedRanker{
		{0, 3, 1, 2},
		{1, 2, 0, 3},
		{2, 1, 0, 3},
		{3, 0, 1, 2},
	}
	a, err := Assign(4, 2, ranker)
	assert.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 1, 0}, a.Ids)
}

func TestAssign_SkipAssigned(t *testing.T) {
	// 1 prefers 0, which is taken, so it falls back to 2
	ranker := fixedRanker{
		{0, 3, 1, 2},
		{1, 0, 3, 2},
		{2, 1, 0, 3},
		{3, 0, 1, 2},
	}
	a, err := Assign(4, 2, ranker)
	assert.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 1, 0}, a.Ids)
}

func TestAssign_TrailingCluster(t *testing.T) {
	ranker := fixedRanker{
		{0, 1, 2, 3, 4},
		{1, 0, 2, 3, 4},
		{2, 0, 1, 3, 4},
		{3, 0, 1, 2, 4},
		{4, 0, 1, 2, 3},
	}
	a, err := Assign(5, 4, ranker)
	assert.NoError(t, err)
	assert.Equal(t, 2, a.Num)
	assert.Equal(t, []int32{0, 0, 0, 0, 1}, a.Ids)

	// fewer entities than a group
	a, err = Assign(3, 5, ranker[:3])
	assert.NoError(t, err)
	assert.Equal(t, 1, a.Num)
	assert.Equal(t, []int32{0, 0, 0}, a.Ids)
}

func TestAssign_GroupSizeOne(t *testing.T) {
	ranker := fixedRanker{{0, 1, 2}, {1, 0, 2}, {2, 0, 1}}
	a, err := Assign(3, 1, ranker)
	assert.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 2}, a.Ids)
}

func TestAssign_InvalidGroupSize(t *testing.T) {
	_, err := Assign(3, 0, fixedRanker{{0}, {1}, {2}})
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestAssign_IncompleteRanking(t *testing.T) {
	// rankings without neighbors leave clusters underfilled, and the remainder spills into
	// an extra cluster
	_, err := Assign(4, 2, fixedRanker{{0}, {1}, {2}, {3}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "distinct clusters")
}

func TestAssign_Coverage(t *testing.T) {
	rng := base.NewRandomGenerator(0)
	for n := 1; n <= 30; n++ {
		m := dataset.NewMatrix(n, 20)
		for i := 0; i < n; i++ {
			for k := 0; k < 4; k++ {
				m.Set(i, rng.Intn(20))
			}
		}
		ranker := NewCosineRanker(m, 1)
		for g := 1; g <= 8; g++ {
			a, err := Assign(n, g, ranker)
			assert.NoError(t, err)
			expected := (n + g - 1) / g
			assert.Equal(t, expected, a.Num)
			assert.Len(t, a.Ids, n)
			for _, id := range a.Ids {
				assert.GreaterOrEqual(t, id, int32(0))
				assert.Less(t, int(id), expected)
			}
			assert.Equal(t, expected, mapset.NewSet(a.Ids...).Cardinality())
			// all clusters but the trailing one are full
			sizes := a.Sizes()
			for c := 0; c < n/g; c++ {
				assert.Equal(t, g, sizes[c])
			}
		}
	}
}

func TestAssign_Deterministic(t *testing.T) {
	m, err := dataset.NewMatrixFromPairs(6, 4, []dataset.Pair{
		{User: 0, Item: 0}, {User: 0, Item: 1}, {User: 1, Item: 2}, {User: 1, Item: 3}, {User: 2, Item: 0}, {User: 2, Item: 1}, {User: 3, Item: 2}, {User: 4, Item: 3}, {User: 5, Item: 0},
	})
	assert.NoError(t, err)
	a, err := Assign(6, 2, NewCosineRanker(m, 1))
	assert.NoError(t, err)
	b, err := Assign(6, 2, NewCosineRanker(m, 4))
	assert.NoError(t, err)
	assert.Equal(t, a.Ids, b.Ids)
	// rows 0 and 2 are identical
	assert.Equal(t, a.Ids[0], a.Ids[2])
}
