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
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	relaierrors "github.com/sirseerhq/starred-export/internal/errors"
	"github.com/sirseerhq/starred-export/internal/neterror"
)

// flakyClient fails the first len(errs) fetches with the given errors.
type flakyClient struct {
	errs       []error
	fetchCalls int
	loginCalls int
}

func (f *flakyClient) Login(ctx context.Context, username, password string) (Credential, error) {
	f.loginCalls++
	return Credential{}, fmt.Errorf("%w: connection reset", relaierrors.ErrAuth)
}

func (f *flakyClient) FetchStarredStories(ctx context.Context, cred Credential, opts FetchOptions) (*StoryCollection, error) {
	f.fetchCalls++
	if f.fetchCalls <= len(f.errs) {
		return nil, f.errs[f.fetchCalls-1]
	}
	return &StoryCollection{Stories: []Story{json.RawMessage(`{"id":1}`)}}, nil
}

func fastRetryConfig(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:        maxRetries,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func gatewayError(page int) error {
	return fmt.Errorf("%w: page %d: %w", relaierrors.ErrFetch, page,
		&neterror.StatusError{StatusCode: 503, Status: "503 Service Unavailable"})
}

func networkError(page int) error {
	return fmt.Errorf("%w: page %d: %w", relaierrors.ErrFetch, page,
		&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})
}

func TestRetryClient_FetchStarredStories(t *testing.T) {
	tests := []struct {
		name       string
		errs       []error
		maxRetries int
		wantCalls  int
		wantErr    error
	}{
		{
			name:       "success without retry",
			maxRetries: 3,
			wantCalls:  1,
		},
		{
			name:       "recovers from gateway error",
			errs:       []error{gatewayError(0), gatewayError(0)},
			maxRetries: 3,
			wantCalls:  3,
		},
		{
			name:       "recovers from network error",
			errs:       []error{networkError(0)},
			maxRetries: 1,
			wantCalls:  2,
		},
		{
			name:       "gives up after max retries",
			errs:       []error{gatewayError(0), gatewayError(0), gatewayError(0)},
			maxRetries: 2,
			wantCalls:  3,
			wantErr:    relaierrors.ErrFetch,
		},
		{
			name:       "decode errors are not retried",
			errs:       []error{fmt.Errorf("page 0: %w: unexpected end of JSON input", relaierrors.ErrDecode)},
			maxRetries: 3,
			wantCalls:  1,
			wantErr:    relaierrors.ErrDecode,
		},
		{
			name: "client errors are not retried",
			errs: []error{fmt.Errorf("%w: page 0: %w", relaierrors.ErrFetch,
				&neterror.StatusError{StatusCode: 403, Status: "403 Forbidden"})},
			maxRetries: 3,
			wantCalls:  1,
			wantErr:    relaierrors.ErrFetch,
		},
		{
			name:       "zero retries makes a single attempt",
			errs:       []error{gatewayError(0)},
			maxRetries: 0,
			wantCalls:  1,
			wantErr:    relaierrors.ErrFetch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &flakyClient{errs: tt.errs}
			client := NewRetryClient(inner, fastRetryConfig(tt.maxRetries), nil)

			page, err := client.FetchStarredStories(context.Background(), Credential{}, FetchOptions{})
			if inner.fetchCalls != tt.wantCalls {
				t.Errorf("fetch calls = %d, want %d", inner.fetchCalls, tt.wantCalls)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(page.Stories) != 1 {
				t.Errorf("len(Stories) = %d, want 1", len(page.Stories))
			}
		})
	}
}

func TestRetryClient_ExhaustedMessage(t *testing.T) {
	inner := &flakyClient{errs: []error{gatewayError(4), gatewayError(4)}}
	client := NewRetryClient(inner, fastRetryConfig(1), nil)

	_, err := client.FetchStarredStories(context.Background(), Credential{}, FetchOptions{Page: 4})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "failed after 1 retries") {
		t.Errorf("error = %v, want retry count", err)
	}
}

func TestRetryClient_LoginNotRetried(t *testing.T) {
	inner := &flakyClient{}
	client := NewRetryClient(inner, fastRetryConfig(5), nil)

	_, err := client.Login(context.Background(), "alice", "secret")
	if !errors.Is(err, relaierrors.ErrAuth) {
		t.Fatalf("Login() error = %v, want ErrAuth", err)
	}
	if inner.loginCalls != 1 {
		t.Errorf("login calls = %d, want 1", inner.loginCalls)
	}
}

func TestRetryClient_ContextCancelledDuringBackoff(t *testing.T) {
	inner := &flakyClient{errs: []error{gatewayError(0), gatewayError(0)}}
	client := NewRetryClient(inner, &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Hour,
		MaxBackoff:        time.Hour,
		BackoffMultiplier: 2.0,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.FetchStarredStories(ctx, Credential{}, FetchOptions{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context.DeadlineExceeded", err)
	}
	if inner.fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1", inner.fetchCalls)
	}
}

func TestCalculateBackoff(t *testing.T) {
	client := NewRetryClient(&flakyClient{}, &RetryConfig{
		MaxRetries:        5,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	}, nil)

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{5, time.Second},
	}

	for _, tt := range tests {
		got := client.calculateBackoff(tt.attempt)
		low := time.Duration(float64(tt.base) * 0.9)
		high := time.Duration(float64(tt.base) * 1.1)
		if got < low || got > high {
			t.Errorf("calculateBackoff(%d) = %v, want within [%v, %v]", tt.attempt, got, low, high)
		}
	}
}
