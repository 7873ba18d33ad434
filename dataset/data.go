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

package dataset

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

const (
	TrainSuffix        = ".train.rating"
	ValidSuffix        = ".valid.rating"
	TestPositiveSuffix = ".test.positive"
	TestAllSuffix      = ".test.rating"
)

// Records are interactions aligned with their ground-truth labels.
type Records struct {
	Pairs  []Pair
	Labels []int32
}

func (r *Records) Len() int {
	return len(r.Pairs)
}

func (r *Records) maxUser() int32 {
	return lo.MaxBy(r.Pairs, func(a, b Pair) bool { return a.User > b.User }).User
}

func (r *Records) maxItem() int32 {
	return lo.MaxBy(r.Pairs, func(a, b Pair) bool { return a.Item > b.Item }).Item
}

// Data is a loaded dataset split. Users and items are dense zero-based indices.
type Data struct {
	UserNum int
	ItemNum int
	Train   Records
	Valid   Records
	TestAll Records
	// UserPositive lists train and valid items of each user in file order.
	UserPositive map[int32][]int32
	// TestPositive lists positive test items of each user in file order.
	TestPositive map[int32][]int32
}

// LoadData loads <name>.train.rating, <name>.valid.rating, <name>.test.positive and
// <name>.test.rating from dir.
func LoadData(name, dir string) (*Data, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("data path '%s'", dir)
		}
		return nil, errors.Trace(err)
	}
	train, err := readRecords(filepath.Join(dir, name+TrainSuffix))
	if err != nil {
		return nil, err
	}
	valid, err := readRecords(filepath.Join(dir, name+ValidSuffix))
	if err != nil {
		return nil, err
	}
	if train.Len() == 0 {
		return nil, errors.NotValidf("empty train file of dataset %s", name)
	}
	d := &Data{
		UserNum:      int(train.maxUser()) + 1,
		ItemNum:      int(train.maxItem()) + 1,
		Train:        train,
		Valid:        valid,
		UserPositive: make(map[int32][]int32),
		TestPositive: make(map[int32][]int32),
	}
	if valid.Len() > 0 {
		d.ItemNum = max(d.ItemNum, int(valid.maxItem())+1)
	}
	for _, p := range append(append([]Pair{}, train.Pairs...), valid.Pairs...) {
		d.UserPositive[p.User] = append(d.UserPositive[p.User], p.Item)
	}
	// test positives only contribute items
	testPositive, err := readRecords(filepath.Join(dir, name+TestPositiveSuffix))
	if err != nil {
		return nil, err
	}
	for _, p := range testPositive.Pairs {
		d.ItemNum = max(d.ItemNum, int(p.Item)+1)
		d.TestPositive[p.User] = append(d.TestPositive[p.User], p.Item)
	}
	d.TestAll, err = readRecords(filepath.Join(dir, name+TestAllSuffix))
	if err != nil {
		return nil, err
	}
	if d.TestAll.Len() > 0 {
		d.ItemNum = max(d.ItemNum, int(d.TestAll.maxItem())+1)
	}
	return d, nil
}

// TrainMatrix returns the user-item matrix of training interactions.
func (d *Data) TrainMatrix() (*Matrix, error) {
	return NewMatrixFromPairs(d.UserNum, d.ItemNum, d.Train.Pairs)
}

// ValidMatrix returns the user-item matrix of validation interactions.
func (d *Data) ValidMatrix() (*Matrix, error) {
	return NewMatrixFromPairs(d.UserNum, d.ItemNum, d.Valid.Pairs)
}

// ObservedMatrix returns the user-item matrix of training and validation interactions.
func (d *Data) ObservedMatrix() (*Matrix, error) {
	pairs := make([]Pair, 0, d.Train.Len()+d.Valid.Len())
	pairs = append(pairs, d.Train.Pairs...)
	pairs = append(pairs, d.Valid.Pairs...)
	return NewMatrixFromPairs(d.UserNum, d.ItemNum, pairs)
}

// TrueLabelMatrix returns the user-item matrix of records whose ground-truth label is 1.
func (d *Data) TrueLabelMatrix(records Records) (*Matrix, error) {
	positives := make([]Pair, 0, len(records.Pairs))
	for i, p := range records.Pairs {
		if records.Labels[i] == 1 {
			positives = append(positives, p)
		}
	}
	return NewMatrixFromPairs(d.UserNum, d.ItemNum, positives)
}

func readRecords(path string) (Records, error) {
	var records Records
	// Open
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, errors.NotFoundf("file '%s'", path)
		}
		return records, errors.Trace(err)
	}
	defer file.Close()
	// Read lines
	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return records, errors.NotValidf("line %d of %s (%q)", lineNumber, path, line)
		}
		values := make([]int32, 3)
		for i := range values {
			value, err := strconv.ParseInt(strings.TrimSpace(fields[i]), 10, 32)
			if errors.Is(err, strconv.ErrRange) {
				return records, errors.NotValidf("field %q out of range in line %d of %s", fields[i], lineNumber, path)
			} else if err != nil {
				return records, errors.Annotatef(err, "line %d of %s", lineNumber, path)
			}
			if value < 0 {
				return records, errors.NotValidf("negative field in line %d of %s", lineNumber, path)
			}
			values[i] = int32(value)
		}
		records.Pairs = append(records.Pairs, Pair{User: values[0], Item: values[1]})
		records.Labels = append(records.Labels, values[2])
	}
	return records, errors.Trace(scanner.Err())
}
