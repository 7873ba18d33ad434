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

package ncf

import (
	"github.com/gorse-io/flip/base/log"
	"github.com/gorse-io/flip/cluster"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// NeighborType selects whether clusters are formed over users or items.
type NeighborType string

const (
	NeighborUser NeighborType = "user"
	NeighborItem NeighborType = "item"
)

// Group is the set of rows sharing a grouping key. Indices are positions in Dataset.Samples
// and can be passed to Dataset.Flip.
type Group struct {
	Users       []int32
	Items       []int32
	Labels      []int32
	TrainLabels []int32
	TrueLabels  []int32
	Indices     []int
}

func (g *Group) Len() int {
	return len(g.Indices)
}

// View groups the rows of a dataset.
type View interface {
	// Count returns the number of groups.
	Count() int
	// Group returns the rows of group id. A group without rows is empty, not an error.
	Group(id int) (*Group, error)
}

// groupedView buckets rows by a grouping key. Buckets are rebuilt when the dataset is
// resampled.
type groupedView struct {
	dataset *Dataset
	count   func() int
	// key returns the group of a row; nil means every row is its own group
	key func(s *Samples, row int) int

	buckets [][]int
	samples *Samples
}

// NewPointView serves every row as a group of its own.
func NewPointView(d *Dataset) View {
	return &groupedView{dataset: d, count: d.Len}
}

// NewUserView groups rows by user.
func NewUserView(d *Dataset) View {
	return &groupedView{
		dataset: d,
		count:   d.UserNum,
		key: func(s *Samples, row int) int {
			return int(s.Users[row])
		},
	}
}

// NewItemView groups rows by item.
func NewItemView(d *Dataset) View {
	return &groupedView{
		dataset: d,
		count:   d.ItemNum,
		key: func(s *Samples, row int) int {
			return int(s.Items[row])
		},
	}
}

// NewClusterView groups rows by the cluster of their user or item.
func NewClusterView(d *Dataset, assignment *cluster.Assignment, neighborType NeighborType) (View, error) {
	var entity func(s *Samples, row int) int32
	switch neighborType {
	case NeighborUser:
		if len(assignment.Ids) != d.UserNum() {
			return nil, errors.NotValidf("assignment of %d users for %d users", len(assignment.Ids), d.UserNum())
		}
		entity = func(s *Samples, row int) int32 { return s.Users[row] }
	case NeighborItem:
		if len(assignment.Ids) != d.ItemNum() {
			return nil, errors.NotValidf("assignment of %d items for %d items", len(assignment.Ids), d.ItemNum())
		}
		entity = func(s *Samples, row int) int32 { return s.Items[row] }
	default:
		return nil, errors.NotValidf("neighbor type %q", neighborType)
	}
	return &groupedView{
		dataset: d,
		count:   func() int { return assignment.Num },
		key: func(s *Samples, row int) int {
			return int(assignment.Ids[entity(s, row)])
		},
	}, nil
}

// NewNeighborView clusters users or items of the training matrix by cosine similarity into
// groups of groupSize and groups rows by cluster.
func NewNeighborView(d *Dataset, groupSize int, neighborType NeighborType, jobs int) (View, *cluster.Assignment, error) {
	var (
		ranker cluster.Ranker
		count  int
	)
	if d.Matrix() == nil {
		return nil, nil, errors.NotValidf("neighbor view without interaction matrix")
	}
	switch neighborType {
	case NeighborUser:
		ranker, count = cluster.NewCosineRanker(d.Matrix(), jobs), d.UserNum()
	case NeighborItem:
		ranker, count = cluster.NewCosineRanker(d.Matrix().Transpose(), jobs), d.ItemNum()
	default:
		return nil, nil, errors.NotValidf("neighbor type %q", neighborType)
	}
	if ranker.Len() != count {
		return nil, nil, errors.NotValidf("similarity over %d entities for %d %ss", ranker.Len(), count, neighborType)
	}
	assignment, err := cluster.Assign(count, groupSize, ranker)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	log.Logger().Info("create neighbor view",
		zap.String("neighbor_type", string(neighborType)),
		zap.Int("cluster_num", assignment.Num),
		zap.Int("group_size", groupSize))
	view, err := NewClusterView(d, assignment, neighborType)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return view, assignment, nil
}

func (v *groupedView) Count() int {
	return v.count()
}

func (v *groupedView) Group(id int) (*Group, error) {
	if id < 0 || id >= v.Count() {
		return nil, errors.NotValidf("group %d of %d groups", id, v.Count())
	}
	s := v.dataset.Samples()
	var rows []int
	if v.key == nil {
		rows = []int{id}
	} else {
		if v.samples != s {
			v.index(s)
		}
		rows = v.buckets[id]
	}
	g := &Group{
		Users:       make([]int32, len(rows)),
		Items:       make([]int32, len(rows)),
		Labels:      make([]int32, len(rows)),
		TrainLabels: make([]int32, len(rows)),
		TrueLabels:  make([]int32, len(rows)),
		Indices:     make([]int, len(rows)),
	}
	for i, row := range rows {
		g.Users[i] = s.Users[row]
		g.Items[i] = s.Items[row]
		g.Labels[i] = s.Labels[row]
		g.TrainLabels[i] = s.TrainLabels[row]
		g.TrueLabels[i] = s.TrueLabels[row]
		g.Indices[i] = row
	}
	return g, nil
}

func (v *groupedView) index(s *Samples) {
	v.buckets = make([][]int, v.Count())
	for row := 0; row < s.Len(); row++ {
		k := v.key(s, row)
		v.buckets[k] = append(v.buckets[k], row)
	}
	v.samples = s
}
