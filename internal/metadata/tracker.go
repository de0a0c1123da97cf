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

// Package metadata records statistics about export runs. Each successful
// run can leave a small JSON file describing how many pages and stories
// were collected, how many API calls were made and how long it took.
//
// Metadata files are named export-metadata-{timestamp}-{run id}.json so
// that a directory listing sorts them chronologically.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tracker collects statistics during an export run. Create one at the
// start of the run and record activity as pages arrive.
type Tracker struct {
	mu           sync.Mutex
	runID        string
	startTime    time.Time
	apiCallCount int
	pages        int
	stories      int
	snapshots    int
}

// New creates a tracker with a fresh run ID and the current time.
func New() *Tracker {
	return &Tracker{
		runID:     uuid.NewString(),
		startTime: time.Now(),
	}
}

// RunID returns the unique identifier of this run.
func (t *Tracker) RunID() string {
	return t.runID
}

// IncrementAPICall records one request to NewsBlur, login included.
func (t *Tracker) IncrementAPICall() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apiCallCount++
}

// RecordPage records a non-empty page of stories.
func (t *Tracker) RecordPage(stories int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pages++
	t.stories += stories
}

// RecordSnapshot records one successful write of the output document.
func (t *Tracker) RecordSnapshot() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshots++
}

// GenerateMetadata builds the metadata record for the finished run.
func (t *Tracker) GenerateMetadata(version string, params ExportParams) *ExportMetadata {
	t.mu.Lock()
	defer t.mu.Unlock()

	completedAt := time.Now()

	return &ExportMetadata{
		ExporterVersion: version,
		RunID:           t.runID,
		Parameters:      params,
		Results: ExportResults{
			PagesFetched:     t.pages,
			StoriesCollected: t.stories,
			SnapshotsWritten: t.snapshots,
			APICallCount:     t.apiCallCount,
			Duration:         completedAt.Sub(t.startTime).String(),
			StartedAt:        t.startTime,
			CompletedAt:      completedAt,
		},
	}
}

// SaveMetadata writes the record into dir using a temporary file and rename.
// It returns the path of the written file.
func SaveMetadata(metadata *ExportMetadata, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create metadata directory: %w", err)
	}

	filename := fmt.Sprintf("export-metadata-%d-%s.json", metadata.Results.StartedAt.Unix(), metadata.RunID)
	path := filepath.Join(dir, filename)

	tmpFile := path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return "", fmt.Errorf("failed to create metadata file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(metadata); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return "", fmt.Errorf("failed to close metadata file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return "", fmt.Errorf("failed to save metadata file: %w", err)
	}

	return path, nil
}

// LoadLatestMetadata returns the most recent record in dir, or nil when
// the directory holds none.
func LoadLatestMetadata(dir string) (*ExportMetadata, error) {
	files, err := filepath.Glob(filepath.Join(dir, "export-metadata-*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	records := make([]*ExportMetadata, 0, len(files))
	for _, f := range files {
		data, readErr := os.ReadFile(f)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read metadata file: %w", readErr)
		}
		var m ExportMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse metadata file %s: %w", f, err)
		}
		records = append(records, &m)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Results.CompletedAt.Before(records[j].Results.CompletedAt)
	})
	return records[len(records)-1], nil
}
