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
	"fmt"
	"os"
	"path/filepath"
	"sync"

	relaierrors "github.com/sirseerhq/starred-export/internal/errors"
)

// AtomicWriter replaces the destination on every snapshot using a
// write-to-temp-and-rename pattern, so readers never observe a partially
// written document.
type AtomicWriter struct {
	mu        sync.Mutex
	path      string
	snapshots int
}

// NewAtomicWriter prepares atomic snapshot writes to path. Nothing is created
// until the first snapshot.
func NewAtomicWriter(path string, overwrite bool) (*AtomicWriter, error) {
	if !overwrite {
		if err := CheckDestination(path, false); err != nil {
			return nil, err
		}
	}

	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: output directory %s does not exist", relaierrors.ErrPersist, filepath.Dir(path))
	}

	return &AtomicWriter{
		path: path,
	}, nil
}

// WriteSnapshot writes the serialized stories to a temporary file next to
// the destination, syncs it and renames it into place.
func (w *AtomicWriter) WriteSnapshot(stories []json.RawMessage) error {
	data, err := Marshal(stories)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	tempFile := w.path + ".tmp"

	file, err := os.OpenFile(tempFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary file: %w", relaierrors.ErrPersist, err)
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("%w: failed to write temporary file: %w", relaierrors.ErrPersist, err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("%w: failed to sync temporary file: %w", relaierrors.ErrPersist, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("%w: failed to close temporary file: %w", relaierrors.ErrPersist, err)
	}

	if err := os.Rename(tempFile, w.path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("%w: failed to rename temporary file: %w", relaierrors.ErrPersist, err)
	}

	w.snapshots++
	return nil
}

// Snapshots returns the number of snapshots written.
func (w *AtomicWriter) Snapshots() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshots
}

// Close is a no-op; every snapshot is complete once WriteSnapshot returns.
func (w *AtomicWriter) Close() error {
	return nil
}
