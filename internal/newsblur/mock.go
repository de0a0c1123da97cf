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

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	relaierrors "github.com/sirseerhq/starred-export/internal/errors"
)

// MockClient is a mock implementation of the NewsBlur Client interface for testing.
// Pages are served in order; any page index past the end returns an empty page.
type MockClient struct {
	// Pages to return, indexed by page number
	Pages [][]Story

	// Session to hand out from Login
	Session Credential

	// Errors to return
	LoginError error
	PageErrors map[int]error

	// Behavior flags
	ShouldFailAuth bool

	// Track calls for verification
	LoginCalls     int
	LastUsername   string
	LastPassword   string
	FetchCalls     []FetchOptions
	LastCredential Credential
}

// NewMockClient creates a new mock client with two pages of test stories
func NewMockClient() *MockClient {
	return &MockClient{
		Pages:      generateTestPages(),
		Session:    NewCredential([]*http.Cookie{{Name: "sessionid", Value: "abc123"}}),
		PageErrors: make(map[int]error),
	}
}

// Login implements the Client interface
func (m *MockClient) Login(ctx context.Context, username, password string) (Credential, error) {
	m.LoginCalls++
	m.LastUsername = username
	m.LastPassword = password

	select {
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	default:
	}

	if m.ShouldFailAuth {
		return Credential{}, fmt.Errorf("%w: login response did not set a session cookie", relaierrors.ErrAuth)
	}
	if m.LoginError != nil {
		return Credential{}, m.LoginError
	}

	return m.Session, nil
}

// FetchStarredStories implements the Client interface
func (m *MockClient) FetchStarredStories(ctx context.Context, cred Credential, opts FetchOptions) (*StoryCollection, error) {
	m.FetchCalls = append(m.FetchCalls, opts)
	m.LastCredential = cred

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err, ok := m.PageErrors[opts.Page]; ok && err != nil {
		return nil, err
	}

	if opts.Page < 0 || opts.Page >= len(m.Pages) {
		return &StoryCollection{Stories: []Story{}}, nil
	}

	stories := make([]Story, len(m.Pages[opts.Page]))
	copy(stories, m.Pages[opts.Page])
	return &StoryCollection{Stories: stories}, nil
}

// generateTestPages creates sample starred stories for testing
func generateTestPages() [][]Story {
	return [][]Story{
		{
			json.RawMessage(`{"story_hash":"6:a1b2c3","story_title":"Go 1.24 released","story_feed_id":6}`),
			json.RawMessage(`{"story_hash":"6:d4e5f6","story_title":"Structured logging with slog","story_feed_id":6}`),
		},
		{
			json.RawMessage(`{"story_hash":"42:0f9e8d","story_title":"Writing a CLI with cobra","story_feed_id":42}`),
		},
	}
}

// MockClientOption allows configuring the mock client
type MockClientOption func(*MockClient)

// WithPages sets the pages to return
func WithPages(pages ...[]Story) MockClientOption {
	return func(m *MockClient) {
		m.Pages = pages
	}
}

// WithPageError makes the client fail a specific page
func WithPageError(page int, err error) MockClientOption {
	return func(m *MockClient) {
		m.PageErrors[page] = err
	}
}

// WithAuthFailure makes the client simulate a login without a session cookie
func WithAuthFailure() MockClientOption {
	return func(m *MockClient) {
		m.ShouldFailAuth = true
	}
}

// NewMockClientWithOptions creates a mock client with options
func NewMockClientWithOptions(opts ...MockClientOption) *MockClient {
	mock := NewMockClient()
	for _, opt := range opts {
		opt(mock)
	}
	return mock
}
