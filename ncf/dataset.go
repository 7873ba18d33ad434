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
	"github.com/gorse-io/flip/base"
	"github.com/gorse-io/flip/base/log"
	"github.com/gorse-io/flip/dataset"
	"github.com/gorse-io/flip/label"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Format names the pointwise data format in logs and metrics.
const Format = "ncf"

// Mode selects which samples a dataset serves.
type Mode int

const (
	// ModeTrain serves positives augmented with negatives drawn by Sample.
	ModeTrain Mode = iota
	// ModeValidate serves augmented samples like ModeTrain.
	ModeValidate
	// ModeEvaluate serves the loaded records as they are. Sampling and flipping are refused.
	ModeEvaluate
)

func (m Mode) String() string {
	switch m {
	case ModeTrain:
		return "train"
	case ModeValidate:
		return "valid"
	case ModeEvaluate:
		return "test"
	}
	return "unknown"
}

// Samples are rows aligned by position. Positive rows come first, followed by negatives.
type Samples struct {
	Users       []int32
	Items       []int32
	Labels      []int32
	TrainLabels []int32
	TrueLabels  []int32
}

func (s *Samples) Len() int {
	return len(s.Users)
}

// Dataset holds interaction records with their mutable training labels and immutable
// ground-truth labels. Labels are mutated in place, so a dataset must have a single writer.
type Dataset struct {
	userNum      int
	itemNum      int
	matrix       *dataset.Matrix
	mode         Mode
	numNegatives int
	// records as loaded, training labels of positives persist here across epochs
	records *Samples
	// records augmented by the last Sample call
	augmented *Samples
	epoch     int
}

// NewDataset creates a dataset over records. matrix holds the training interactions that
// negatives must avoid. It may be nil only in ModeEvaluate.
func NewDataset(userNum, itemNum int, records dataset.Records, matrix *dataset.Matrix, mode Mode, numNegatives int) (*Dataset, error) {
	if numNegatives < 0 {
		return nil, errors.NotValidf("number of negatives %d", numNegatives)
	}
	if matrix == nil && mode != ModeEvaluate {
		return nil, errors.NotValidf("%v mode without interaction matrix", mode)
	}
	if len(records.Pairs) != len(records.Labels) {
		return nil, errors.NotValidf("%d pairs with %d labels", len(records.Pairs), len(records.Labels))
	}
	n := records.Len()
	d := &Dataset{
		userNum:      userNum,
		itemNum:      itemNum,
		matrix:       matrix,
		mode:         mode,
		numNegatives: numNegatives,
		records: &Samples{
			Users:       make([]int32, n),
			Items:       make([]int32, n),
			Labels:      make([]int32, n),
			TrainLabels: make([]int32, n),
			TrueLabels:  make([]int32, n),
		},
	}
	for i, p := range records.Pairs {
		if int(p.User) >= userNum || int(p.Item) >= itemNum || p.User < 0 || p.Item < 0 {
			return nil, errors.NotValidf("pair (%d, %d) with %d users and %d items", p.User, p.Item, userNum, itemNum)
		}
		d.records.Users[i] = p.User
		d.records.Items[i] = p.Item
		d.records.Labels[i] = 1
		d.records.TrainLabels[i] = 1
		d.records.TrueLabels[i] = records.Labels[i]
	}
	return d, nil
}

func (d *Dataset) UserNum() int {
	return d.userNum
}

func (d *Dataset) ItemNum() int {
	return d.itemNum
}

func (d *Dataset) Mode() Mode {
	return d.mode
}

func (d *Dataset) Matrix() *dataset.Matrix {
	return d.matrix
}

// Epoch returns the number of Sample calls so far.
func (d *Dataset) Epoch() int {
	return d.epoch
}

// Samples returns the rows currently served: the augmented rows once Sample has been
// called in a training mode, otherwise the loaded records.
func (d *Dataset) Samples() *Samples {
	if d.mode != ModeEvaluate && d.augmented != nil {
		return d.augmented
	}
	return d.records
}

// Len returns the number of rows currently served.
func (d *Dataset) Len() int {
	return d.Samples().Len()
}

// Sample draws numNegatives negatives per positive and replaces the augmented rows.
// Negatives carry zero labels.
func (d *Dataset) Sample(rng base.RandomGenerator) error {
	if d.mode == ModeEvaluate {
		return errors.NotValidf("negative sampling in %v mode", d.mode)
	}
	n := d.records.Len()
	positives := make([]dataset.Pair, n)
	for i := range positives {
		positives[i] = dataset.Pair{User: d.records.Users[i], Item: d.records.Items[i]}
	}
	negatives := SampleNegatives(rng, positives, d.matrix, d.itemNum, d.numNegatives)

	total := n + len(negatives)
	s := &Samples{
		Users:       make([]int32, total),
		Items:       make([]int32, total),
		Labels:      make([]int32, total),
		TrainLabels: make([]int32, total),
		TrueLabels:  make([]int32, total),
	}
	copy(s.Users, d.records.Users)
	copy(s.Items, d.records.Items)
	copy(s.Labels, d.records.Labels)
	copy(s.TrainLabels, d.records.TrainLabels)
	copy(s.TrueLabels, d.records.TrueLabels)
	for i, p := range negatives {
		s.Users[n+i] = p.User
		s.Items[n+i] = p.Item
	}
	if s.Len() != n*(d.numNegatives+1) {
		return errors.Errorf("augmented %d rows, expected %d", s.Len(), n*(d.numNegatives+1))
	}
	d.augmented = s
	d.epoch++
	log.Logger().Debug("sample negatives",
		zap.Stringer("mode", d.mode),
		zap.Int("epoch", d.epoch),
		zap.Int("positives", n),
		zap.Int("negatives", len(negatives)))
	return nil
}

// Flip toggles training labels of the given rows of Samples. Indices out of range are
// ignored. Flips of positive rows persist across Sample calls.
func (d *Dataset) Flip(indices []int) (label.FlipStats, error) {
	var stats label.FlipStats
	if d.mode == ModeEvaluate {
		return stats, errors.NotValidf("flipping labels in %v mode", d.mode)
	}
	s := d.Samples()
	for _, idx := range indices {
		if idx < 0 || idx >= s.Len() {
			continue
		}
		stats.Add(s.TrainLabels[idx] == 1)
		s.TrainLabels[idx] = 1 - s.TrainLabels[idx]
		if s != d.records && idx < d.records.Len() {
			d.records.TrainLabels[idx] = s.TrainLabels[idx]
		}
	}
	stats.Report(Format)
	if state, err := d.Summarize(); err == nil {
		state.Report(Format)
	}
	return stats, nil
}

// Summarize counts training labels of Samples against ground truth.
func (d *Dataset) Summarize() (label.State, error) {
	var state label.State
	if d.mode == ModeEvaluate {
		return state, errors.NotValidf("label state in %v mode", d.mode)
	}
	s := d.Samples()
	for i := range s.TrainLabels {
		state.Add(s.TrainLabels[i] == 1, s.TrueLabels[i] == 1)
	}
	return state, nil
}

// Export writes the loaded records with their current training labels to
// <dir>/<mode>_<epoch>.csv.
func (d *Dataset) Export(dir string, epoch int) (string, error) {
	return label.Export(dir, d.mode.String(), epoch, d.records.Len(), func(i int) label.Row {
		return label.Row{User: d.records.Users[i], Item: d.records.Items[i], Label: d.records.TrainLabels[i]}
	})
}
