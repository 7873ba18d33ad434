// Copyright 2020 gorse Project Authors
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

package base

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

func TestRandomGenerator_Sample(t *testing.T) {
	excludeSet := mapset.NewSet(0, 1, 2, 3, 4)
	rng := NewRandomGenerator(0)
	for i := 1; i <= 10; i++ {
		sampled := rng.Sample(0, 10, i, excludeSet)
		assert.Len(t, sampled, min(i, 5))
		assert.Equal(t, len(sampled), mapset.NewSet(sampled...).Cardinality())
		for j := range sampled {
			assert.False(t, excludeSet.Contains(sampled[j]))
		}
	}
}

func TestRandomGenerator_Int32nExcept(t *testing.T) {
	rng := NewRandomGenerator(0)
	for i := 0; i < 1000; i++ {
		v := rng.Int32nExcept(10, func(v int32) bool { return v != 7 })
		assert.Equal(t, int32(7), v)
	}
	// same seed, same sequence
	a, b := NewRandomGenerator(42), NewRandomGenerator(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Int31n(100), b.Int31n(100))
	}
}
