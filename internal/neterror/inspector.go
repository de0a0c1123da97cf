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
	"strings"
)

// Inspector provides methods for classifying errors from NewsBlur requests.
type Inspector interface {
	// IsNetworkError returns true if the error represents a network connectivity error.
	IsNetworkError(err error) bool

	// IsTimeout returns true if the error represents a request or dial timeout.
	IsTimeout(err error) bool

	// IsRetryable returns true if repeating the same request could succeed.
	IsRetryable(err error) bool
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected response status %s", e.Status)
	}
	return fmt.Sprintf("unexpected response status %d", e.StatusCode)
}

// Temporary reports whether the status is a gateway or availability failure.
func (e *StatusError) Temporary() bool {
	return IsRetryableStatusCode(e.StatusCode)
}

// RequestInspector implements Inspector using the error chain first and the
// error text as a fallback, since resty and net/http do not always preserve
// typed errors through redirects and body reads.
type RequestInspector struct{}

// NewInspector creates a new RequestInspector.
func NewInspector() Inspector {
	return &RequestInspector{}
}

// IsNetworkError checks if the error is a network connectivity error.
func (i *RequestInspector) IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "tls handshake") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "unexpected eof") ||
		i.IsTimeout(err)
}

// IsTimeout checks if the error is a timeout.
func (i *RequestInspector) IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// IsRetryable reports whether the error is transient. Cancellation by the
// caller is never retryable.
func (i *RequestInspector) IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	return i.IsNetworkError(err)
}

// IsRetryableStatusCode checks if an HTTP status code should trigger a retry.
func IsRetryableStatusCode(code int) bool {
	switch code {
	case http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
