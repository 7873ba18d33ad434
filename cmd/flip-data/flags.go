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

package main

import (
	"github.com/gorse-io/flip/config"
	"github.com/juju/errors"
	"github.com/spf13/pflag"
)

func addFlags(flagSet *pflag.FlagSet) {
	flagSet.String("dataset", "", "dataset name")
	flagSet.String("data-path", "", "directory of dataset files")
	flagSet.String("format", "", "data format (ncf, cdae)")
	flagSet.Int("num-negatives", 0, "negative samples per positive")
	flagSet.Int("epochs", 0, "number of epochs")
	flagSet.Int64("seed", 0, "random seed")
	flagSet.Float64("flip-ratio", 0, "ratio of training labels flipped before sampling")
	flagSet.String("group-type", "", "grouping of samples (point, user, item, neighbor)")
	flagSet.String("neighbor-type", "", "entities clustered by neighbor grouping (user, item)")
	flagSet.Int("group-size", 0, "size of neighbor groups")
	flagSet.Int("jobs", 0, "number of jobs for similarity ranking")
	flagSet.String("save-dir", "", "export labels into this directory")
}

// applyFlags overrides conf with flags set on the command line.
func applyFlags(flagSet *pflag.FlagSet, conf *config.Config) error {
	var err error
	if flagSet.Changed("dataset") {
		conf.Dataset.Name, err = flagSet.GetString("dataset")
	}
	if err == nil && flagSet.Changed("data-path") {
		conf.Dataset.Path, err = flagSet.GetString("data-path")
	}
	if err == nil && flagSet.Changed("format") {
		conf.Dataset.Format, err = flagSet.GetString("format")
	}
	if err == nil && flagSet.Changed("num-negatives") {
		conf.Sampling.NumNegatives, err = flagSet.GetInt("num-negatives")
	}
	if err == nil && flagSet.Changed("epochs") {
		conf.Sampling.Epochs, err = flagSet.GetInt("epochs")
	}
	if err == nil && flagSet.Changed("seed") {
		conf.Sampling.Seed, err = flagSet.GetInt64("seed")
	}
	if err == nil && flagSet.Changed("flip-ratio") {
		conf.Sampling.FlipRatio, err = flagSet.GetFloat64("flip-ratio")
	}
	if err == nil && flagSet.Changed("group-type") {
		conf.Grouping.Type, err = flagSet.GetString("group-type")
	}
	if err == nil && flagSet.Changed("neighbor-type") {
		conf.Grouping.NeighborType, err = flagSet.GetString("neighbor-type")
	}
	if err == nil && flagSet.Changed("group-size") {
		conf.Grouping.GroupSize, err = flagSet.GetInt("group-size")
	}
	if err == nil && flagSet.Changed("jobs") {
		conf.Grouping.Jobs, err = flagSet.GetInt("jobs")
	}
	if err == nil && flagSet.Changed("save-dir") {
		conf.Export.Dir, err = flagSet.GetString("save-dir")
		conf.Export.Enable = conf.Export.Dir != ""
	}
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(conf.Validate())
}
