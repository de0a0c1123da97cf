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

package neterror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o deadline reached" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestIsNetworkError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("boom")}, true},
		{"dns error", fmt.Errorf("post: %w", &net.DNSError{Err: "no such host", Name: "newsblur.invalid"}), true},
		{"connection refused text", errors.New("Post \"http://x\": dial tcp 127.0.0.1:1: connect: connection refused"), true},
		{"connection reset text", errors.New("read: connection reset by peer"), true},
		{"unexpected eof", errors.New("unexpected EOF"), true},
		{"timeout", timeoutError{}, true},
		{"decode error", errors.New("invalid character '<' looking for beginning of value"), false},
		{"status error", &StatusError{StatusCode: 500}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsNetworkError(tt.err); got != tt.want {
				t.Errorf("IsNetworkError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTimeout(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"deadline exceeded", fmt.Errorf("request: %w", context.DeadlineExceeded), true},
		{"net timeout", timeoutError{}, true},
		{"client timeout text", errors.New("Client.Timeout exceeded while awaiting headers"), true},
		{"refused", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsTimeout(tt.err); got != tt.want {
				t.Errorf("IsTimeout(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"canceled", fmt.Errorf("post: %w", context.Canceled), false},
		{"bad gateway", &StatusError{StatusCode: http.StatusBadGateway}, true},
		{"service unavailable wrapped", fmt.Errorf("page 2: %w", &StatusError{StatusCode: http.StatusServiceUnavailable}), true},
		{"internal server error", &StatusError{StatusCode: http.StatusInternalServerError}, false},
		{"forbidden", &StatusError{StatusCode: http.StatusForbidden}, false},
		{"network", errors.New("dial tcp: connection refused"), true},
		{"generic", errors.New("something odd"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{StatusCode: 503, Status: "503 Service Unavailable"}
	if got := err.Error(); got != "unexpected response status 503 Service Unavailable" {
		t.Errorf("Error() = %q", got)
	}

	err = &StatusError{StatusCode: 418}
	if got := err.Error(); got != "unexpected response status 418" {
		t.Errorf("Error() = %q", got)
	}
}
