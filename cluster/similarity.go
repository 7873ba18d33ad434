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
	"context"
	"sort"

	"github.com/chewxy/math32"
	"github.com/gorse-io/flip/common/parallel"
	"github.com/gorse-io/flip/dataset"
	"github.com/samber/lo"
)

// Ranker ranks entities by similarity.
type Ranker interface {
	// Len returns the number of entities.
	Len() int
	// Rank returns every entity sorted by descending similarity to i. Entity i comes first
	// and ties keep ascending index order.
	Rank(i int) []int32
}

// CosineRanker ranks rows of a binary matrix by cosine similarity:
//
//	cos(a, b) = |a ∩ b| / sqrt(|a| * |b|)
//
// Empty rows have zero similarity to every row.
type CosineRanker struct {
	matrix *dataset.Matrix
	norms  []float32
	jobs   int
}

// NewCosineRanker creates a ranker over the rows of m. Similarities of a single Rank call are
// computed by jobs workers.
func NewCosineRanker(m *dataset.Matrix, jobs int) *CosineRanker {
	norms := make([]float32, m.Rows())
	for i := range norms {
		norms[i] = math32.Sqrt(float32(m.RowCount(i)))
	}
	return &CosineRanker{matrix: m, norms: norms, jobs: jobs}
}

func (r *CosineRanker) Len() int {
	return r.matrix.Rows()
}

// Similarity returns the cosine similarity between rows i and j.
func (r *CosineRanker) Similarity(i, j int) float32 {
	if r.norms[i] == 0 || r.norms[j] == 0 {
		return 0
	}
	common := r.matrix.Row(i).IntersectionCardinality(r.matrix.Row(j))
	return float32(common) / (r.norms[i] * r.norms[j])
}

func (r *CosineRanker) Rank(i int) []int32 {
	n := r.Len()
	scores := make([]float32, n)
	chunks := parallel.Split(lo.Range(n), r.jobs)
	// the background context is never canceled
	_ = parallel.For(context.Background(), len(chunks), r.jobs, func(c int) {
		for _, j := range chunks[c] {
			scores[j] = r.Similarity(i, j)
		}
	})
	ranking := make([]int32, 0, n)
	ranking = append(ranking, int32(i))
	for j := 0; j < n; j++ {
		if j != i {
			ranking = append(ranking, int32(j))
		}
	}
	others := ranking[1:]
	sort.SliceStable(others, func(a, b int) bool {
		return scores[others[a]] > scores[others[b]]
	})
	return ranking
}
