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
	"errors"
	"fmt"
	"io/fs"
	"os"

	relaierrors "github.com/sirseerhq/starred-export/internal/errors"
)

// CheckDestination fails with ErrDestinationExists when path already exists
// and force is false. It touches nothing on disk.
func CheckDestination(path string, force bool) error {
	if force {
		return nil
	}

	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", relaierrors.ErrDestinationExists, path)
		}
		return fmt.Errorf("%w: %s (use --force to overwrite)", relaierrors.ErrDestinationExists, path)
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("%w: cannot inspect %s: %w", relaierrors.ErrPersist, path, err)
	}
}
