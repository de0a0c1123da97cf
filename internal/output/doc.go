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

// Package output persists the accumulated starred stories document.
//
// The document is always the complete set of stories collected so far,
// serialized as a single JSON object:
//
//	{"stories":[...]}
//
// Every write replaces the previous contents of the destination, so an
// interrupted run leaves the last successfully persisted snapshot on disk.
//
// Two writers are provided:
//   - FileWriter opens the destination once and rewrites it in place
//   - AtomicWriter writes each snapshot to a temporary file and renames it
//     over the destination
//
// CheckDestination implements the pre-flight overwrite guard that runs
// before any network request.
//
// Example usage:
//
//	if err := output.CheckDestination(path, force); err != nil {
//	    return err
//	}
//	w, err := output.NewWriter(path, output.Options{Overwrite: force})
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if err := w.WriteSnapshot(stories); err != nil {
//	    return err
//	}
package output
