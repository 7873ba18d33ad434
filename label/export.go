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
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

// Row is an exported (user, item, training label) triple.
type Row struct {
	User  int32
	Item  int32
	Label int32
}

// FileName returns the export file name of an epoch, for example train_3.csv.
func FileName(tag string, epoch int) string {
	return fmt.Sprintf("%s_%d.csv", tag, epoch)
}

// Export writes n rows to <dir>/<tag>_<epoch>.csv as tab-separated values without a header.
// The directory is created if absent and an existing file is overwritten. An empty dir means
// the working directory.
func Export(dir, tag string, epoch, n int, row func(i int) Row) (string, error) {
	path := FileName(tag, epoch)
	if dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return "", errors.Trace(err)
		}
		path = filepath.Join(dir, path)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", errors.Trace(err)
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	for i := 0; i < n; i++ {
		r := row(i)
		if _, err = fmt.Fprintf(w, "%d\t%d\t%d\n", r.User, r.Item, r.Label); err != nil {
			return "", errors.Trace(err)
		}
	}
	if err = w.Flush(); err != nil {
		return "", errors.Trace(err)
	}
	return path, nil
}
