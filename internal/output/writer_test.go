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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	relaierrors "github.com/sirseerhq/starred-export/internal/errors"
)

func stories(raw ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(raw))
	for i, r := range raw {
		out[i] = json.RawMessage(r)
	}
	return out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	return string(data)
}

func TestMarshal(t *testing.T) {
	tests := []struct {
		name    string
		stories []json.RawMessage
		want    string
	}{
		{
			name:    "nil stories",
			stories: nil,
			want:    `{"stories":[]}`,
		},
		{
			name:    "empty stories",
			stories: []json.RawMessage{},
			want:    `{"stories":[]}`,
		},
		{
			name:    "stories in order",
			stories: stories(`{"id":1}`, `{"id":2}`, `{"id":3}`),
			want:    `{"stories":[{"id":1},{"id":2},{"id":3}]}`,
		},
		{
			name:    "whitespace is compacted",
			stories: stories("{\n  \"id\": 1,\n  \"tags\": [ \"a\" ]\n}"),
			want:    `{"stories":[{"id":1,"tags":["a"]}]}`,
		},
		{
			name:    "html is not escaped",
			stories: stories(`{"story_content":"<p>a & b</p>"}`),
			want:    `{"stories":[{"story_content":"<p>a & b</p>"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.stories)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMarshal_InvalidStory(t *testing.T) {
	_, err := Marshal(stories(`{"id":`))
	if !errors.Is(err, relaierrors.ErrPersist) {
		t.Fatalf("Marshal() error = %v, want ErrPersist", err)
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	in := stories(`{"b":2,"a":1}`, `[1,2,3]`, `"text"`)

	first, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	second, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Errorf("Marshal() not deterministic (-first +second):\n%s", diff)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	in := stories(`{"story_hash":"6:a1b2c3"}`, `{"story_hash":"42:0f9e8d"}`)

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(doc.Stories) != len(in) {
		t.Fatalf("len(Stories) = %d, want %d", len(doc.Stories), len(in))
	}
	for i := range in {
		if string(doc.Stories[i]) != string(in[i]) {
			t.Errorf("story %d = %s, want %s", i, doc.Stories[i], in[i])
		}
	}
}

func TestNewWriter_SelectsImplementation(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(filepath.Join(dir, "a.json"), Options{})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	defer w.Close()
	if _, ok := w.(*FileWriter); !ok {
		t.Errorf("NewWriter() = %T, want *FileWriter", w)
	}

	aw, err := NewWriter(filepath.Join(dir, "b.json"), Options{Atomic: true})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	defer aw.Close()
	if _, ok := aw.(*AtomicWriter); !ok {
		t.Errorf("NewWriter() = %T, want *AtomicWriter", aw)
	}
}

// Compile-time checks
var (
	_ SnapshotWriter = (*FileWriter)(nil)
	_ SnapshotWriter = (*AtomicWriter)(nil)
)

func TestSnapshotWriters(t *testing.T) {
	constructors := map[string]func(path string, overwrite bool) (SnapshotWriter, error){
		"file": func(path string, overwrite bool) (SnapshotWriter, error) {
			return NewFileWriter(path, overwrite)
		},
		"atomic": func(path string, overwrite bool) (SnapshotWriter, error) {
			return NewAtomicWriter(path, overwrite)
		},
	}

	for name, newWriter := range constructors {
		t.Run(name+"/each snapshot replaces the last", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "starred_stories.json")
			w, err := newWriter(path, false)
			if err != nil {
				t.Fatalf("new writer error = %v", err)
			}
			defer w.Close()

			snapshots := [][]json.RawMessage{
				stories(`{"id":1}`, `{"id":2}`),
				stories(`{"id":1}`, `{"id":2}`, `{"id":3}`),
			}
			want := []string{
				`{"stories":[{"id":1},{"id":2}]}`,
				`{"stories":[{"id":1},{"id":2},{"id":3}]}`,
			}
			for i, s := range snapshots {
				if err := w.WriteSnapshot(s); err != nil {
					t.Fatalf("WriteSnapshot(%d) error = %v", i, err)
				}
				if got := readFile(t, path); got != want[i] {
					t.Errorf("after snapshot %d file = %s, want %s", i, got, want[i])
				}
			}
			if w.Snapshots() != 2 {
				t.Errorf("Snapshots() = %d, want 2", w.Snapshots())
			}
		})

		t.Run(name+"/shorter snapshot leaves no trailing bytes", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.json")
			if err := os.WriteFile(path, []byte(strings.Repeat("x", 4096)), 0o644); err != nil {
				t.Fatal(err)
			}

			w, err := newWriter(path, true)
			if err != nil {
				t.Fatalf("new writer error = %v", err)
			}
			defer w.Close()

			if err := w.WriteSnapshot(nil); err != nil {
				t.Fatalf("WriteSnapshot() error = %v", err)
			}
			if got := readFile(t, path); got != `{"stories":[]}` {
				t.Errorf("file = %q, want {\"stories\":[]}", got)
			}
		})

		t.Run(name+"/existing destination without overwrite", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.json")
			if err := os.WriteFile(path, []byte("keep"), 0o644); err != nil {
				t.Fatal(err)
			}

			_, err := newWriter(path, false)
			if !errors.Is(err, relaierrors.ErrDestinationExists) {
				t.Fatalf("new writer error = %v, want ErrDestinationExists", err)
			}
			if got := readFile(t, path); got != "keep" {
				t.Errorf("existing file modified: %q", got)
			}
		})

		t.Run(name+"/missing directory", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing", "out.json")
			_, err := newWriter(path, true)
			if !errors.Is(err, relaierrors.ErrPersist) {
				t.Fatalf("new writer error = %v, want ErrPersist", err)
			}
		})
	}
}

func TestFileWriter_OpenDoesNotTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(path, []byte(`{"stories":[{"old":true}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewFileWriter(path, true)
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}
	defer w.Close()

	if got := readFile(t, path); got != `{"stories":[{"old":true}]}` {
		t.Errorf("file changed before first snapshot: %s", got)
	}
}

func TestFileWriter_CloseWithoutSnapshot(t *testing.T) {
	tests := []struct {
		name      string
		existing  bool
		overwrite bool
		wantFile  bool
	}{
		{name: "new file is removed", overwrite: false, wantFile: false},
		{name: "new file with overwrite is removed", overwrite: true, wantFile: false},
		{name: "existing file is kept", existing: true, overwrite: true, wantFile: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.json")
			if tt.existing {
				if err := os.WriteFile(path, []byte("keep"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			w, err := NewFileWriter(path, tt.overwrite)
			if err != nil {
				t.Fatalf("NewFileWriter() error = %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			if tt.wantFile {
				if got := readFile(t, path); got != "keep" {
					t.Errorf("existing file modified: %q", got)
				}
				return
			}
			if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("Stat() error = %v, want file removed", err)
			}

			// A later run without overwrite is not blocked.
			w, err = NewFileWriter(path, false)
			if err != nil {
				t.Fatalf("second NewFileWriter() error = %v", err)
			}
			_ = w.Close()
		})
	}
}

func TestFileWriter_CloseAfterSnapshotKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w, err := NewFileWriter(path, false)
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}
	if err := w.WriteSnapshot(nil); err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := readFile(t, path); got != `{"stories":[]}` {
		t.Errorf("file = %q, want {\"stories\":[]}", got)
	}
}

func TestFileWriter_WriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w, err := NewFileWriter(path, false)
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	err = w.WriteSnapshot(stories(`{"id":1}`))
	if !errors.Is(err, relaierrors.ErrPersist) {
		t.Errorf("WriteSnapshot() after Close error = %v, want ErrPersist", err)
	}
}

func TestAtomicWriter_NoTempFileLeft(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	w, err := NewAtomicWriter(path, false)
	if err != nil {
		t.Fatalf("NewAtomicWriter() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("destination created before first snapshot")
	}

	if err := w.WriteSnapshot(stories(`{"id":1}`)); err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if diff := cmp.Diff([]string{"out.json"}, names); diff != "" {
		t.Errorf("directory contents mismatch (-want +got):\n%s", diff)
	}
}
