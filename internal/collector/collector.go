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

// Package collector drives an export run: it requests starred story pages
// in order starting at page 0, appends every non-empty page to the
// accumulated list, and persists the whole list after each page. The run
// ends at the first page that holds no stories.
package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sirseerhq/starred-export/internal/metadata"
	"github.com/sirseerhq/starred-export/internal/newsblur"
	"github.com/sirseerhq/starred-export/internal/output"
)

// Options configures a Collector. The zero value is usable.
type Options struct {
	// StoryHashes is sent with every page request. Empty means no filter.
	StoryHashes []string

	// Progress receives one "Getting page N" line per request. Nil discards.
	Progress io.Writer

	// Logger receives debug diagnostics. Nil discards.
	Logger *slog.Logger

	// Tracker records run statistics when set.
	Tracker *metadata.Tracker
}

// Result summarizes a completed run.
type Result struct {
	// Pages is the number of non-empty pages collected.
	Pages int
	// Requests counts every page request, including the terminating empty one.
	Requests int
	// Stories is the number of stories in the last persisted document.
	Stories int
	// Snapshots is the number of times the document was persisted.
	Snapshots int
}

// Collector runs the page loop for one authenticated session.
type Collector struct {
	client newsblur.Client
	writer output.SnapshotWriter
	opts   Options
	logger *slog.Logger
}

// New creates a Collector that fetches with client and persists with writer.
func New(client newsblur.Client, writer output.SnapshotWriter, opts Options) *Collector {
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collector{
		client: client,
		writer: writer,
		opts:   opts,
		logger: logger,
	}
}

// Run collects every starred story visible to cred. Any fetch, decode or
// persist failure aborts the run; whatever was last persisted stays on disk.
// When page 0 is already empty the empty document is persisted once.
func (c *Collector) Run(ctx context.Context, cred newsblur.Credential) (*Result, error) {
	var (
		stories []newsblur.Story
		result  Result
	)

	for page := 0; ; page++ {
		fmt.Fprintf(c.opts.Progress, "Getting page %d\n", page)

		collection, err := c.client.FetchStarredStories(ctx, cred, newsblur.FetchOptions{
			Page:        page,
			StoryHashes: c.opts.StoryHashes,
		})
		result.Requests++
		if c.opts.Tracker != nil {
			c.opts.Tracker.IncrementAPICall()
		}
		if err != nil {
			return &result, err
		}

		if len(collection.Stories) == 0 {
			c.logger.DebugContext(ctx, "empty page, export complete", "page", page, "stories", len(stories))
			break
		}

		stories = append(stories, collection.Stories...)
		result.Pages++
		if c.opts.Tracker != nil {
			c.opts.Tracker.RecordPage(len(collection.Stories))
		}

		if err := c.persist(stories, &result); err != nil {
			return &result, err
		}
		c.logger.DebugContext(ctx, "page persisted",
			"page", page,
			"page_stories", len(collection.Stories),
			"total_stories", len(stories),
		)
	}

	if result.Snapshots == 0 {
		if err := c.persist(stories, &result); err != nil {
			return &result, err
		}
	}

	return &result, nil
}

func (c *Collector) persist(stories []newsblur.Story, result *Result) error {
	if err := c.writer.WriteSnapshot(stories); err != nil {
		return err
	}
	result.Snapshots++
	result.Stories = len(stories)
	if c.opts.Tracker != nil {
		c.opts.Tracker.RecordSnapshot()
	}
	return nil
}
