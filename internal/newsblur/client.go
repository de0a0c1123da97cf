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

package newsblur

import "context"

// Client defines the interface for interacting with NewsBlur.
// This interface allows for easy mocking in tests.
type Client interface {
	// Login exchanges a username and password for a session credential.
	// An empty password means no password: the form carries only the username.
	Login(ctx context.Context, username, password string) (Credential, error)

	// FetchStarredStories retrieves one page of starred stories using the
	// credential returned by Login. Pages are zero-based; an empty Stories
	// slice means there are no further pages.
	FetchStarredStories(ctx context.Context, cred Credential, opts FetchOptions) (*StoryCollection, error)
}
