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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorse-io/flip/base/log"
	"github.com/gorse-io/flip/config"
	"github.com/gorse-io/flip/dataset"
	"github.com/gorse-io/flip/label"
	"github.com/juju/errors"
	"github.com/stretchr/testify/suite"
)

func init() {
	log.CloseLogger()
}

type PipelineTestSuite struct {
	suite.Suite
	conf *config.Config
	dir  string
}

func (suite *PipelineTestSuite) SetupTest() {
	dir := suite.T().TempDir()
	suite.dir = dir
	files := map[string]string{
		"ml" + dataset.TrainSuffix:        "0\t0\t1\n0\t2\t0\n1\t1\t1\n2\t3\t1\n",
		"ml" + dataset.ValidSuffix:        "1\t4\t1\n",
		"ml" + dataset.TestPositiveSuffix: "0\t5\t1\n",
		"ml" + dataset.TestAllSuffix:      "0\t5\t1\n0\t7\t0\n",
	}
	for name, content := range files {
		suite.NoError(os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	suite.conf = config.GetDefaultConfig()
	suite.conf.Dataset.Name = "ml"
	suite.conf.Dataset.Path = dir
	suite.conf.Sampling.Epochs = 2
}

func (suite *PipelineTestSuite) TestPointNCF() {
	var table bytes.Buffer
	reports, err := Run(context.Background(), suite.conf, Options{Table: &table})
	suite.NoError(err)
	suite.Len(reports, 2)
	for i, r := range reports {
		suite.Equal(i, r.Epoch)
		suite.Equal(label.State{
			TrainPositive: 4,
			TrainNegative: 4,
			TruePositive:  3,
			TrueNegative:  4,
			FalsePositive: 1,
		}, r.State)
		suite.Equal(GroupStats{Count: 8, NonEmpty: 8, MaxSize: 1, Rows: 8}, r.Groups)
		suite.Empty(r.Path)
		// one validation positive and its negative
		suite.Equal(&label.State{
			TrainPositive: 1,
			TrainNegative: 1,
			TruePositive:  1,
			TrueNegative:  1,
		}, r.Valid)
		suite.Empty(r.ValidPath)
	}
	suite.NotEmpty(table.String())
}

func (suite *PipelineTestSuite) TestNeighborNCF() {
	suite.conf.Grouping.Type = config.GroupNeighbor
	suite.conf.Grouping.GroupSize = 2
	suite.conf.Sampling.NumNegatives = 2
	reports, err := Run(context.Background(), suite.conf, Options{})
	suite.NoError(err)
	for _, r := range reports {
		suite.Equal(2, r.Groups.Count)
		suite.Equal(12, r.Groups.Rows)
		suite.Equal(12, r.State.Count())
	}
}

func (suite *PipelineTestSuite) TestFlipRatio() {
	suite.conf.Sampling.FlipRatio = 1
	suite.conf.Export.Enable = true
	suite.conf.Export.Dir = suite.T().TempDir()
	reports, err := Run(context.Background(), suite.conf, Options{})
	suite.NoError(err)
	suite.Equal(label.State{
		TrainNegative: 8,
		TrueNegative:  5,
		FalseNegative: 3,
	}, reports[1].State)
	suite.Equal(filepath.Join(suite.conf.Export.Dir, "train_1.csv"), reports[1].Path)
	content, err := os.ReadFile(reports[1].Path)
	suite.NoError(err)
	suite.Equal("0\t0\t0\n0\t2\t0\n1\t1\t0\n2\t3\t0\n", string(content))
	// noise is only injected into the training split
	suite.Equal(filepath.Join(suite.conf.Export.Dir, "valid_1.csv"), reports[1].ValidPath)
	content, err = os.ReadFile(reports[1].ValidPath)
	suite.NoError(err)
	suite.Equal("1\t4\t1\n", string(content))
}

func (suite *PipelineTestSuite) TestWithoutValidation() {
	suite.NoError(os.WriteFile(filepath.Join(suite.dir, "ml"+dataset.ValidSuffix), nil, 0644))
	reports, err := Run(context.Background(), suite.conf, Options{})
	suite.NoError(err)
	for _, r := range reports {
		suite.Nil(r.Valid)
	}
}

func (suite *PipelineTestSuite) TestCDAE() {
	suite.conf.Dataset.Format = config.FormatCDAE
	suite.conf.Export.Enable = true
	suite.conf.Export.Dir = suite.T().TempDir()
	reports, err := Run(context.Background(), suite.conf, Options{})
	suite.NoError(err)
	suite.Len(reports, 2)
	suite.Equal(label.State{TrainPositive: 4, TruePositive: 3, FalsePositive: 1}, reports[0].State)
	suite.Equal(GroupStats{Count: 3, NonEmpty: 3, MaxSize: 2, Rows: 4}, reports[0].Groups)
	suite.Equal(filepath.Join(suite.conf.Export.Dir, "train_0.csv"), reports[0].Path)
	suite.Equal(&label.State{TrainPositive: 1, TruePositive: 1}, reports[0].Valid)
	content, err := os.ReadFile(reports[0].ValidPath)
	suite.NoError(err)
	suite.Equal("1\t4\t1\n", string(content))

	suite.conf.Grouping.Type = config.GroupNeighbor
	suite.conf.Grouping.GroupSize = 2
	reports, err = Run(context.Background(), suite.conf, Options{})
	suite.NoError(err)
	suite.Equal(GroupStats{Count: 2, NonEmpty: 2, MaxSize: 2, Rows: 3}, reports[0].Groups)
}

func (suite *PipelineTestSuite) TestInvalidConfig() {
	suite.conf.Sampling.Epochs = 0
	_, err := Run(context.Background(), suite.conf, Options{})
	suite.True(errors.Is(err, errors.NotValid))
}

func (suite *PipelineTestSuite) TestCanceled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reports, err := Run(ctx, suite.conf, Options{})
	suite.True(errors.Is(err, context.Canceled))
	suite.Empty(reports)
}

func TestPipeline(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}
