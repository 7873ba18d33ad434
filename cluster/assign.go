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

package cluster

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/flip/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const unassigned = -1

// Assignment maps every entity to a cluster in [0, Num).
type Assignment struct {
	Ids       []int32
	Num       int
	GroupSize int
}

// Assign partitions entities into clusters of groupSize by greedy nearest-neighbor chaining.
//
// Entities are visited in index order. An unassigned entity opens a new cluster and pulls
// in its most similar unassigned neighbors until the cluster is full. The walk stops once
// entityCount/groupSize clusters are opened, and every entity left over joins the cluster
// after the last one opened, so the trailing cluster holds the remainder.
//
// The number of distinct clusters must equal ceil(entityCount/groupSize). Rankers that do not
// rank every entity can break this, and the violation is returned as an error.
func Assign(entityCount, groupSize int, ranker Ranker) (*Assignment, error) {
	if groupSize < 1 {
		return nil, errors.NotValidf("group size %d (must be at least 1)", groupSize)
	}
	if entityCount < 0 {
		return nil, errors.NotValidf("entity count %d", entityCount)
	}
	clusterNum := (entityCount + groupSize - 1) / groupSize
	ids := make([]int32, entityCount)
	for i := range ids {
		ids[i] = unassigned
	}

	clusterId := int32(0)
	for i := 0; i < entityCount; i++ {
		if int(clusterId) == entityCount/groupSize {
			break
		}
		if ids[i] != unassigned {
			continue
		}
		ids[i] = clusterId
		size := 1
		if size < groupSize {
			// i itself is assigned, so the walk skips it
			for _, j := range ranker.Rank(i) {
				if ids[j] != unassigned {
					continue
				}
				ids[j] = clusterId
				size++
				if size >= groupSize {
					break
				}
			}
		}
		clusterId++
	}
	// the remainder joins a trailing cluster
	for i := range ids {
		if ids[i] == unassigned {
			ids[i] = clusterId
		}
	}

	log.Logger().Info("assign clusters",
		zap.Int("entity_count", entityCount),
		zap.Int("cluster_num", clusterNum),
		zap.Int("group_size", groupSize))
	if distinct := mapset.NewThreadUnsafeSet(ids...).Cardinality(); distinct != clusterNum {
		return nil, errors.Errorf("cluster assignment produced %d distinct clusters, expected %d", distinct, clusterNum)
	}
	for _, id := range ids {
		if int(id) >= clusterNum {
			return nil, errors.Errorf("cluster id %d out of range [0, %d)", id, clusterNum)
		}
	}
	return &Assignment{Ids: ids, Num: clusterNum, GroupSize: groupSize}, nil
}

// Members returns entities of cluster c in index order.
func (a *Assignment) Members(c int) []int32 {
	var members []int32
	for i, id := range a.Ids {
		if int(id) == c {
			members = append(members, int32(i))
		}
	}
	return members
}

// Sizes returns the number of entities in each cluster.
func (a *Assignment) Sizes() []int {
	sizes := make([]int, a.Num)
	for _, id := range a.Ids {
		sizes[id]++
	}
	return sizes
}
