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

package label

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gorse-io/flip/base/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func init() {
	log.CloseLogger()
}

func TestState(t *testing.T) {
	var s State
	s.Add(true, true)
	s.Add(true, false)
	s.Add(false, true)
	s.Add(false, false)
	s.Add(false, false)
	assert.Equal(t, State{
		TrainPositive: 2,
		TrainNegative: 3,
		TruePositive:  1,
		TrueNegative:  2,
		FalsePositive: 1,
		FalseNegative: 1,
	}, s)
	assert.Equal(t, 5, s.Count())

	s.Report("test")
	assert.Equal(t, float64(2), testutil.ToFloat64(LabelState.WithLabelValues("test", "true_neg")))
	assert.Equal(t, float64(1), testutil.ToFloat64(LabelState.WithLabelValues("test", "false_pos")))
}

func TestFlipStats(t *testing.T) {
	var f FlipStats
	f.Add(true)
	f.Add(false)
	f.Add(false)
	assert.Equal(t, FlipStats{ZeroToOne: 2, OneToZero: 1}, f)

	f.Report("flip_test")
	f.Report("flip_test")
	assert.Equal(t, float64(4), testutil.ToFloat64(Flips.WithLabelValues("flip_test", "0_to_1")))
	assert.Equal(t, float64(2), testutil.ToFloat64(Flips.WithLabelValues("flip_test", "1_to_0")))
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	rows := []Row{{0, 1, 1}, {2, 3, 0}}
	path, err := Export(dir, "train", 3, len(rows), func(i int) Row { return rows[i] })
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "train_3.csv"), path)
	content, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "0\t1\t1\n2\t3\t0\n", string(content))

	// overwrite
	path, err = Export(dir, "train", 3, 1, func(i int) Row { return rows[1] })
	assert.NoError(t, err)
	content, err = os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "2\t3\t0\n", string(content))

	assert.Equal(t, "valid_0.csv", FileName("valid", 0))
}
