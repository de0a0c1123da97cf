// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package output

import "encoding/json"

// SnapshotWriter persists successive snapshots of the output document.
// Each call replaces whatever an earlier call wrote.
type SnapshotWriter interface {
	// WriteSnapshot serializes stories as {"stories":[...]} and replaces the
	// destination contents with it.
	WriteSnapshot(stories []json.RawMessage) error

	// Snapshots returns the number of successful writes.
	Snapshots() int

	// Close releases the destination.
	Close() error
}

// Options configures NewWriter.
type Options struct {
	// Overwrite allows an existing destination to be replaced.
	Overwrite bool

	// Atomic selects temp-file-and-rename writes instead of in-place rewrites.
	Atomic bool
}

// NewWriter returns the SnapshotWriter selected by opts.
func NewWriter(path string, opts Options) (SnapshotWriter, error) {
	if opts.Atomic {
		return NewAtomicWriter(path, opts.Overwrite)
	}
	return NewFileWriter(path, opts.Overwrite)
}
