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

// Package newsblur provides a client for the two NewsBlur endpoints used to
// export starred stories: the session login and the paginated starred
// stories listing.
//
// The package includes:
//   - A Client interface for logging in and fetching pages
//   - An HTTP implementation using the go-resty/resty library
//   - A RetryClient decorator for transient fetch failures
//   - A mock client for testing
//
// Sessions are modelled as an immutable Credential value returned by Login
// and passed to every fetch, rather than as cookie state hidden in the client.
//
// Basic usage:
//
//	client, err := newsblur.NewHTTPClient(newsblur.Options{
//	    BaseURI:   "https://newsblur.com",
//	    UserAgent: "my-agent/1.0",
//	})
//	if err != nil {
//	    // Handle error
//	}
//	cred, err := client.Login(ctx, "alice", "secret")
//	if err != nil {
//	    // Handle error
//	}
//	page, err := client.FetchStarredStories(ctx, cred, newsblur.FetchOptions{Page: 0})
package newsblur
