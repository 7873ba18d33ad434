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
	"github.com/gorse-io/flip/dataset"
)

// SampleNegatives draws numNegatives items per positive, uniformly from [0, itemNum) and
// redrawn while the user has interacted with the item. Negatives are returned one pass over
// the positives after another.
//
// There is no retry bound: a user who has interacted with every item makes this loop
// forever.
func SampleNegatives(rng base.RandomGenerator, positives []dataset.Pair, matrix *dataset.Matrix, itemNum, numNegatives int) []dataset.Pair {
	negatives := make([]dataset.Pair, 0, len(positives)*numNegatives)
	for k := 0; k < numNegatives; k++ {
		for _, p := range positives {
			user := int(p.User)
			j := rng.Int32nExcept(int32(itemNum), func(j int32) bool {
				return matrix.Contains(user, int(j))
			})
			negatives = append(negatives, dataset.Pair{User: p.User, Item: j})
		}
	}
	return negatives
}
