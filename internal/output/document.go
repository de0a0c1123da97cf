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
	"bytes"
	"encoding/json"
	"fmt"

	relaierrors "github.com/sirseerhq/starred-export/internal/errors"
)

// Document is the on-disk shape of an export.
type Document struct {
	Stories []json.RawMessage `json:"stories"`
}

// Marshal renders stories as a compact {"stories":[...]} document with no
// trailing newline. Story bytes are compacted but never HTML-escaped, and a
// nil slice is written as an empty array.
func Marshal(stories []json.RawMessage) ([]byte, error) {
	if stories == nil {
		stories = []json.RawMessage{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Document{Stories: stories}); err != nil {
		return nil, fmt.Errorf("%w: failed to encode document: %w", relaierrors.ErrPersist, err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
