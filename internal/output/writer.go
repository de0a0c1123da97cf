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

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	relaierrors "github.com/sirseerhq/starred-export/internal/errors"
)

// FileWriter rewrites a single open file in place on every snapshot.
// The file is opened once and never truncated until the first snapshot,
// so a run that fails before collecting anything leaves an existing
// destination untouched. A file the writer created itself is removed on
// Close if no snapshot was ever written.
type FileWriter struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	created   bool
	snapshots int
}

// NewFileWriter opens path for snapshot writes. Without overwrite the file
// must not exist yet; an existing file yields ErrDestinationExists.
func NewFileWriter(path string, overwrite bool) (*FileWriter, error) {
	flags := os.O_RDWR | os.O_CREATE
	created := true
	if !overwrite {
		flags |= os.O_EXCL
	} else if _, err := os.Stat(path); err == nil {
		created = false
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", relaierrors.ErrDestinationExists, path)
		}
		return nil, fmt.Errorf("%w: failed to open output file: %w", relaierrors.ErrPersist, err)
	}

	return &FileWriter{
		path:    path,
		file:    file,
		created: created,
	}, nil
}

// WriteSnapshot replaces the file contents with the serialized stories and
// syncs the file before returning.
func (w *FileWriter) WriteSnapshot(stories []json.RawMessage) error {
	data, err := Marshal(stories)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("%w: writer for %s is closed", relaierrors.ErrPersist, w.path)
	}

	if _, err := w.file.Seek(0, 0); err != nil {
		return fmt.Errorf("%w: failed to rewind output file: %w", relaierrors.ErrPersist, err)
	}
	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("%w: failed to truncate output file: %w", relaierrors.ErrPersist, err)
	}
	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("%w: failed to write output file: %w", relaierrors.ErrPersist, err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("%w: failed to sync output file: %w", relaierrors.ErrPersist, err)
	}

	w.snapshots++
	return nil
}

// Snapshots returns the number of snapshots written.
func (w *FileWriter) Snapshots() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshots
}

// Path returns the destination path.
func (w *FileWriter) Path() string {
	return w.path
}

// Close closes the underlying file and removes it if this writer created it
// and never wrote a snapshot. Closing twice is a no-op.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	if err != nil {
		return fmt.Errorf("%w: failed to close output file: %w", relaierrors.ErrPersist, err)
	}

	if w.created && w.snapshots == 0 {
		if err := os.Remove(w.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: failed to remove empty output file: %w", relaierrors.ErrPersist, err)
		}
	}
	return nil
}
