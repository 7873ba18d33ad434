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
	"github.com/gorse-io/flip/base/log"
	"go.uber.org/zap"
)

// State counts training labels against ground truth.
type State struct {
	TrainPositive int
	TrainNegative int
	TruePositive  int
	TrueNegative  int
	FalsePositive int
	FalseNegative int
}

// Add counts a sample with training label train and ground-truth label truth.
func (s *State) Add(train, truth bool) {
	switch {
	case train && truth:
		s.TrainPositive++
		s.TruePositive++
	case train && !truth:
		s.TrainPositive++
		s.FalsePositive++
	case !train && truth:
		s.TrainNegative++
		s.FalseNegative++
	default:
		s.TrainNegative++
		s.TrueNegative++
	}
}

// Count returns the number of counted samples.
func (s *State) Count() int {
	return s.TrainPositive + s.TrainNegative
}

// Report logs the state and publishes it as metrics of the given data format.
func (s *State) Report(format string) {
	log.Logger().Info("label state",
		zap.String("format", format),
		zap.Int("train_pos", s.TrainPositive),
		zap.Int("train_neg", s.TrainNegative),
		zap.Int("true_pos", s.TruePositive),
		zap.Int("true_neg", s.TrueNegative),
		zap.Int("false_pos", s.FalsePositive),
		zap.Int("false_neg", s.FalseNegative))
	LabelState.WithLabelValues(format, "train_pos").Set(float64(s.TrainPositive))
	LabelState.WithLabelValues(format, "train_neg").Set(float64(s.TrainNegative))
	LabelState.WithLabelValues(format, "true_pos").Set(float64(s.TruePositive))
	LabelState.WithLabelValues(format, "true_neg").Set(float64(s.TrueNegative))
	LabelState.WithLabelValues(format, "false_pos").Set(float64(s.FalsePositive))
	LabelState.WithLabelValues(format, "false_neg").Set(float64(s.FalseNegative))
}

// FlipStats counts flipped training labels by direction.
type FlipStats struct {
	ZeroToOne int
	OneToZero int
}

// Add counts a flip of a label whose value was positive before the flip.
func (f *FlipStats) Add(positive bool) {
	if positive {
		f.OneToZero++
	} else {
		f.ZeroToOne++
	}
}

// Report logs the flips and adds them to metrics of the given data format.
func (f FlipStats) Report(format string) {
	log.Logger().Info("flip labels",
		zap.String("format", format),
		zap.Int("flips_0_to_1", f.ZeroToOne),
		zap.Int("flips_1_to_0", f.OneToZero))
	Flips.WithLabelValues(format, "0_to_1").Add(float64(f.ZeroToOne))
	Flips.WithLabelValues(format, "1_to_0").Add(float64(f.OneToZero))
}
