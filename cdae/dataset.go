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

package cdae

import (
	"github.com/gorse-io/flip/base/log"
	"github.com/gorse-io/flip/cluster"
	"github.com/gorse-io/flip/dataset"
	"github.com/gorse-io/flip/label"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Format names the matrix data format in logs and metrics.
const Format = "cdae"

// Dataset serves users as rows of the user-item matrix. Training labels are matrix cells and
// can be flipped anywhere, while label state is only measured over observed interactions.
type Dataset struct {
	train     *dataset.Matrix
	observed  *dataset.Matrix
	trueLabel *dataset.Matrix
}

// NewDataset creates a dataset from the training interaction matrix and the matrix of
// interactions whose ground-truth label is positive.
func NewDataset(train, trueLabel *dataset.Matrix) (*Dataset, error) {
	if train.Rows() != trueLabel.Rows() || train.Cols() != trueLabel.Cols() {
		return nil, errors.NotValidf("true label matrix %dx%d for %dx%d training matrix",
			trueLabel.Rows(), trueLabel.Cols(), train.Rows(), train.Cols())
	}
	return &Dataset{
		train:     train.Clone(),
		observed:  train,
		trueLabel: trueLabel,
	}, nil
}

// Len returns the number of users.
func (d *Dataset) Len() int {
	return d.train.Rows()
}

func (d *Dataset) ItemNum() int {
	return d.train.Cols()
}

// Row is the dense view of a user.
type Row struct {
	User int32
	// Items holds the current training labels.
	Items []float32
	// Labels marks observed interactions.
	Labels     []float32
	TrueLabels []float32
}

func (d *Dataset) Row(user int) (*Row, error) {
	if user < 0 || user >= d.Len() {
		return nil, errors.NotValidf("user %d of %d users", user, d.Len())
	}
	return &Row{
		User:       int32(user),
		Items:      d.train.Dense(user),
		Labels:     d.observed.Dense(user),
		TrueLabels: d.trueLabel.Dense(user),
	}, nil
}

// Flip toggles training labels of the given cells. Cells outside the matrix are ignored.
func (d *Dataset) Flip(cells []dataset.Pair) label.FlipStats {
	var stats label.FlipStats
	for _, c := range cells {
		user, item := int(c.User), int(c.Item)
		if user < 0 || user >= d.train.Rows() || item < 0 || item >= d.train.Cols() {
			continue
		}
		stats.Add(d.train.Contains(user, item))
		d.train.Flip(user, item)
	}
	stats.Report(Format)
	state := d.Summarize()
	state.Report(Format)
	return stats
}

// Summarize counts training labels of observed interactions against ground truth.
func (d *Dataset) Summarize() label.State {
	var state label.State
	for _, c := range d.observed.Nonzero() {
		user, item := int(c.User), int(c.Item)
		state.Add(d.train.Contains(user, item), d.trueLabel.Contains(user, item))
	}
	return state
}

// Export writes observed interactions with their current training labels to
// <dir>/<tag>_<epoch>.csv.
func (d *Dataset) Export(dir, tag string, epoch int) (string, error) {
	cells := d.observed.Nonzero()
	return label.Export(dir, tag, epoch, len(cells), func(i int) label.Row {
		c := cells[i]
		var value int32
		if d.train.Contains(int(c.User), int(c.Item)) {
			value = 1
		}
		return label.Row{User: c.User, Item: c.Item, Label: value}
	})
}

// NeighborDataset serves clusters of similar users.
type NeighborDataset struct {
	*Dataset
	assignment *cluster.Assignment
}

// NewNeighborDataset clusters users by cosine similarity of their training rows into groups
// of groupSize.
func NewNeighborDataset(d *Dataset, groupSize, jobs int) (*NeighborDataset, error) {
	assignment, err := cluster.Assign(d.Len(), groupSize, cluster.NewCosineRanker(d.train, jobs))
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("create neighbor dataset",
		zap.Int("cluster_num", assignment.Num),
		zap.Int("group_size", groupSize))
	return &NeighborDataset{Dataset: d, assignment: assignment}, nil
}

// Count returns the number of clusters.
func (n *NeighborDataset) Count() int {
	return n.assignment.Num
}

func (n *NeighborDataset) Assignment() *cluster.Assignment {
	return n.assignment
}

// Group is the dense view of a cluster of users.
type Group struct {
	Users      []int32
	Items      [][]float32
	Labels     [][]float32
	TrueLabels [][]float32
}

func (n *NeighborDataset) Group(c int) (*Group, error) {
	if c < 0 || c >= n.Count() {
		return nil, errors.NotValidf("cluster %d of %d clusters", c, n.Count())
	}
	g := &Group{Users: n.assignment.Members(c)}
	for _, user := range g.Users {
		row, err := n.Row(int(user))
		if err != nil {
			return nil, errors.Trace(err)
		}
		g.Items = append(g.Items, row.Items)
		g.Labels = append(g.Labels, row.Labels)
		g.TrueLabels = append(g.TrueLabels, row.TrueLabels)
	}
	return g, nil
}
