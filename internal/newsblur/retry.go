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
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	relaierrors "github.com/sirseerhq/starred-export/internal/errors"
	"github.com/sirseerhq/starred-export/internal/neterror"
)

// RetryConfig configures the retry behavior for page fetches
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryClient wraps a Client and repeats page fetches that failed with a
// transient network error or a gateway status. Login is never retried, and
// neither is a page whose body failed to decode.
type RetryClient struct {
	client    Client
	config    *RetryConfig
	inspector neterror.Inspector
	logger    *slog.Logger
}

// NewRetryClient creates a new RetryClient with the given configuration
func NewRetryClient(client Client, config *RetryConfig, logger *slog.Logger) *RetryClient {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RetryClient{
		client:    client,
		config:    config,
		inspector: neterror.NewInspector(),
		logger:    logger,
	}
}

// Login implements the Client interface without retrying.
func (r *RetryClient) Login(ctx context.Context, username, password string) (Credential, error) {
	return r.client.Login(ctx, username, password)
}

// FetchStarredStories implements the Client interface with retry logic
func (r *RetryClient) FetchStarredStories(ctx context.Context, cred Credential, opts FetchOptions) (*StoryCollection, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		page, err := r.client.FetchStarredStories(ctx, cred, opts)
		if err == nil {
			return page, nil
		}

		lastErr = err

		if !r.shouldRetry(err) {
			return nil, err
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt == r.config.MaxRetries {
			break
		}

		backoff := r.calculateBackoff(attempt)
		r.logger.WarnContext(ctx, "page fetch failed, retrying",
			"page", opts.Page,
			"attempt", attempt+1,
			"max_retries", r.config.MaxRetries,
			"backoff", backoff,
			"err", err,
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if r.config.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("failed after %d retries: %w", r.config.MaxRetries, lastErr)
}

// shouldRetry determines if an error is retryable
func (r *RetryClient) shouldRetry(err error) bool {
	if errors.Is(err, relaierrors.ErrDecode) || errors.Is(err, relaierrors.ErrAuth) {
		return false
	}
	return errors.Is(err, relaierrors.ErrFetch) && r.inspector.IsRetryable(err)
}

// calculateBackoff calculates the backoff duration for the given attempt
func (r *RetryClient) calculateBackoff(attempt int) time.Duration {
	multiplier := r.config.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	backoff := float64(r.config.InitialBackoff) * math.Pow(multiplier, float64(attempt))

	if backoff > float64(r.config.MaxBackoff) {
		backoff = float64(r.config.MaxBackoff)
	}

	// ±10% jitter
	jitter := backoff * 0.1 * (2*float64(time.Now().UnixNano()%100)/100 - 1)
	backoff += jitter

	return time.Duration(backoff)
}
