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

package metadata

import (
	"time"
)

// ExportMetadata is the record written for a single successful export run.
// It holds counts, timing and the destination, never credentials.
type ExportMetadata struct {
	ExporterVersion string        `json:"exporter_version"`
	RunID           string        `json:"run_id"`
	Parameters      ExportParams  `json:"parameters"`
	Results         ExportResults `json:"results"`
}

// ExportParams captures the inputs that shaped the run.
type ExportParams struct {
	BaseURI     string   `json:"base_uri"`
	Username    string   `json:"username"`
	OutputPath  string   `json:"output_path"`
	Force       bool     `json:"force"`
	Atomic      bool     `json:"atomic"`
	StoryHashes []string `json:"story_hashes,omitempty"`
}

// ExportResults contains the statistics of a completed run.
type ExportResults struct {
	PagesFetched     int       `json:"pages_fetched"`
	StoriesCollected int       `json:"stories_collected"`
	SnapshotsWritten int       `json:"snapshots_written"`
	APICallCount     int       `json:"api_calls_made"`
	Duration         string    `json:"export_duration"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
}
