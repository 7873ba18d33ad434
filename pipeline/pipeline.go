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

package pipeline

import (
	"context"
	"io"
	"strconv"

	"github.com/gorse-io/flip/base"
	"github.com/gorse-io/flip/base/log"
	"github.com/gorse-io/flip/cdae"
	"github.com/gorse-io/flip/config"
	"github.com/gorse-io/flip/dataset"
	"github.com/gorse-io/flip/label"
	"github.com/gorse-io/flip/ncf"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Report describes the training samples of an epoch.
type Report struct {
	Epoch  int
	State  label.State
	Groups GroupStats
	// Path is the exported label file, empty if export is disabled.
	Path string
	// Valid is the label state of the validation split, nil without validation records.
	Valid     *label.State
	ValidPath string
}

// GroupStats summarizes group sizes of a grouping.
type GroupStats struct {
	Count    int
	NonEmpty int
	MaxSize  int
	Rows     int
}

func (s *GroupStats) add(size int) {
	s.Count++
	s.Rows += size
	if size > 0 {
		s.NonEmpty++
	}
	s.MaxSize = max(s.MaxSize, size)
}

// Options control the output of Run.
type Options struct {
	// Table receives the label state table. Nil disables it.
	Table io.Writer
	// Progress receives the progress bar. Nil disables it.
	Progress io.Writer
}

// Run loads the dataset of conf and prepares training samples for every epoch.
func Run(ctx context.Context, conf *config.Config, opts Options) ([]Report, error) {
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	data, err := dataset.LoadData(conf.Dataset.Name, conf.Dataset.Path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("load dataset",
		zap.String("name", conf.Dataset.Name),
		zap.Int("users", data.UserNum),
		zap.Int("items", data.ItemNum),
		zap.Int("train", data.Train.Len()),
		zap.Int("valid", data.Valid.Len()),
		zap.Int("test", data.TestAll.Len()))

	var epochs epochRunner
	switch conf.Dataset.Format {
	case config.FormatNCF:
		epochs, err = newNCFRunner(conf, data)
	case config.FormatCDAE:
		epochs, err = newCDAERunner(conf, data)
	default:
		err = errors.NotValidf("data format %s", conf.Dataset.Format)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(conf.Sampling.Epochs,
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("prepare samples"),
			progressbar.OptionShowCount())
	}
	reports := make([]Report, 0, conf.Sampling.Epochs)
	for epoch := 0; epoch < conf.Sampling.Epochs; epoch++ {
		if err = ctx.Err(); err != nil {
			return reports, errors.Trace(err)
		}
		report, err := epochs.run(epoch)
		if err != nil {
			return reports, errors.Annotatef(err, "epoch %d", epoch)
		}
		reports = append(reports, report)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if opts.Table != nil {
		if err = RenderReports(opts.Table, reports); err != nil {
			return reports, errors.Trace(err)
		}
	}
	return reports, nil
}

// RenderReports writes reports as a table.
func RenderReports(w io.Writer, reports []Report) error {
	table := tablewriter.NewWriter(w)
	table.Header("epoch", "split", "groups", "non-empty", "max size",
		"train_pos", "train_neg", "true_pos", "true_neg", "false_pos", "false_neg")
	for _, r := range reports {
		if err := table.Append(stateRow(r.Epoch, "train", r.Groups, r.State)); err != nil {
			return errors.Trace(err)
		}
		if r.Valid != nil {
			if err := table.Append(stateRow(r.Epoch, "valid", GroupStats{}, *r.Valid)); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return errors.Trace(table.Render())
}

func stateRow(epoch int, split string, groups GroupStats, state label.State) []string {
	return []string{
		strconv.Itoa(epoch),
		split,
		strconv.Itoa(groups.Count),
		strconv.Itoa(groups.NonEmpty),
		strconv.Itoa(groups.MaxSize),
		strconv.Itoa(state.TrainPositive),
		strconv.Itoa(state.TrainNegative),
		strconv.Itoa(state.TruePositive),
		strconv.Itoa(state.TrueNegative),
		strconv.Itoa(state.FalsePositive),
		strconv.Itoa(state.FalseNegative),
	}
}

type epochRunner interface {
	run(epoch int) (Report, error)
}

type ncfRunner struct {
	conf    *config.Config
	dataset *ncf.Dataset
	// valid is nil without validation records
	valid *ncf.Dataset
	view  ncf.View
	rng   base.RandomGenerator
}

func newNCFRunner(conf *config.Config, data *dataset.Data) (*ncfRunner, error) {
	matrix, err := data.TrainMatrix()
	if err != nil {
		return nil, errors.Trace(err)
	}
	d, err := ncf.NewDataset(data.UserNum, data.ItemNum, data.Train, matrix, ncf.ModeTrain, conf.Sampling.NumNegatives)
	if err != nil {
		return nil, errors.Trace(err)
	}
	r := &ncfRunner{conf: conf, dataset: d, rng: base.NewRandomGenerator(conf.Sampling.Seed)}
	// validation negatives avoid training interactions
	if data.Valid.Len() > 0 {
		r.valid, err = ncf.NewDataset(data.UserNum, data.ItemNum, data.Valid, matrix, ncf.ModeValidate, conf.Sampling.NumNegatives)
		if err != nil {
			return nil, errors.Annotate(err, "validation split")
		}
	}
	switch conf.Grouping.Type {
	case config.GroupPoint:
		r.view = ncf.NewPointView(d)
	case config.GroupUser:
		r.view = ncf.NewUserView(d)
	case config.GroupItem:
		r.view = ncf.NewItemView(d)
	case config.GroupNeighbor:
		r.view, _, err = ncf.NewNeighborView(d, conf.Grouping.GroupSize,
			ncf.NeighborType(conf.Grouping.NeighborType), conf.Grouping.Jobs)
		if err != nil {
			return nil, errors.Trace(err)
		}
	default:
		return nil, errors.NotValidf("grouping %s", conf.Grouping.Type)
	}
	// inject label noise into the loaded records
	if conf.Sampling.FlipRatio > 0 {
		n := data.Train.Len()
		indices := r.rng.Sample(0, n, int(conf.Sampling.FlipRatio*float64(n)))
		if _, err = d.Flip(indices); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return r, nil
}

func (r *ncfRunner) run(epoch int) (Report, error) {
	report := Report{Epoch: epoch}
	if err := r.dataset.Sample(r.rng); err != nil {
		return report, errors.Trace(err)
	}
	var err error
	if report.State, err = r.dataset.Summarize(); err != nil {
		return report, errors.Trace(err)
	}
	for g := 0; g < r.view.Count(); g++ {
		group, err := r.view.Group(g)
		if err != nil {
			return report, errors.Trace(err)
		}
		report.Groups.add(group.Len())
	}
	if r.conf.Export.Enable {
		if report.Path, err = r.dataset.Export(r.conf.Export.Dir, epoch); err != nil {
			return report, errors.Trace(err)
		}
	}
	if r.valid != nil {
		if err = r.valid.Sample(r.rng); err != nil {
			return report, errors.Trace(err)
		}
		state, err := r.valid.Summarize()
		if err != nil {
			return report, errors.Trace(err)
		}
		report.Valid = &state
		if r.conf.Export.Enable {
			if report.ValidPath, err = r.valid.Export(r.conf.Export.Dir, epoch); err != nil {
				return report, errors.Trace(err)
			}
		}
	}
	return report, nil
}

type cdaeRunner struct {
	conf     *config.Config
	dataset  *cdae.Dataset
	neighbor *cdae.NeighborDataset
	// valid is nil without validation records
	valid *cdae.Dataset
}

func newCDAERunner(conf *config.Config, data *dataset.Data) (*cdaeRunner, error) {
	train, err := data.TrainMatrix()
	if err != nil {
		return nil, errors.Trace(err)
	}
	trueLabel, err := data.TrueLabelMatrix(data.Train)
	if err != nil {
		return nil, errors.Trace(err)
	}
	d, err := cdae.NewDataset(train, trueLabel)
	if err != nil {
		return nil, errors.Trace(err)
	}
	r := &cdaeRunner{conf: conf, dataset: d}
	if data.Valid.Len() > 0 {
		validMatrix, err := data.ValidMatrix()
		if err != nil {
			return nil, errors.Annotate(err, "validation split")
		}
		validTrueLabel, err := data.TrueLabelMatrix(data.Valid)
		if err != nil {
			return nil, errors.Annotate(err, "validation split")
		}
		if r.valid, err = cdae.NewDataset(validMatrix, validTrueLabel); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if conf.Grouping.Type == config.GroupNeighbor {
		if r.neighbor, err = cdae.NewNeighborDataset(d, conf.Grouping.GroupSize, conf.Grouping.Jobs); err != nil {
			return nil, errors.Trace(err)
		}
	}
	// inject label noise into observed interactions
	if conf.Sampling.FlipRatio > 0 {
		cells := train.Nonzero()
		rng := base.NewRandomGenerator(conf.Sampling.Seed)
		indices := rng.Sample(0, len(cells), int(conf.Sampling.FlipRatio*float64(len(cells))))
		flips := make([]dataset.Pair, len(indices))
		for i, idx := range indices {
			flips[i] = cells[idx]
		}
		d.Flip(flips)
	}
	return r, nil
}

func (r *cdaeRunner) run(epoch int) (Report, error) {
	report := Report{Epoch: epoch, State: r.dataset.Summarize()}
	if r.neighbor != nil {
		for c := 0; c < r.neighbor.Count(); c++ {
			group, err := r.neighbor.Group(c)
			if err != nil {
				return report, errors.Trace(err)
			}
			report.Groups.add(len(group.Users))
		}
	} else {
		for u := 0; u < r.dataset.Len(); u++ {
			row, err := r.dataset.Row(u)
			if err != nil {
				return report, errors.Trace(err)
			}
			report.Groups.add(int(lo.Sum(row.Items)))
		}
	}
	if r.conf.Export.Enable {
		var err error
		if report.Path, err = r.dataset.Export(r.conf.Export.Dir, "train", epoch); err != nil {
			return report, errors.Trace(err)
		}
	}
	if r.valid != nil {
		state := r.valid.Summarize()
		report.Valid = &state
		if r.conf.Export.Enable {
			var err error
			if report.ValidPath, err = r.valid.Export(r.conf.Export.Dir, "valid", epoch); err != nil {
				return report, errors.Trace(err)
			}
		}
	}
	return report, nil
}
