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
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	relaierrors "github.com/sirseerhq/starred-export/internal/errors"
	"github.com/sirseerhq/starred-export/internal/neterror"
)

const (
	loginPath          = "/api/login"
	starredStoriesPath = "/reader/starred_stories"

	formContentType = "application/x-www-form-urlencoded"
)

// Options configures an HTTPClient.
type Options struct {
	// BaseURI is the service origin used for both endpoints, e.g. https://newsblur.com.
	BaseURI string

	// UserAgent is sent on every request.
	UserAgent string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration

	// Logger receives debug logs for every request. Nil discards them.
	Logger *slog.Logger
}

// HTTPClient implements Client against the NewsBlur web API using resty.
// It holds no session state: the Credential returned by Login is passed
// explicitly to every fetch.
type HTTPClient struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewHTTPClient creates a NewsBlur client. The client is configured with:
//   - The base URI for both endpoints
//   - A fixed User-Agent and form content type on every request
//   - Redirects restricted to the base URI's host
//   - No cookie jar, so only the Credential carries the session
//   - Response size limiting to prevent memory issues
//   - Debug logging of every request through Options.Logger
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	base, err := url.Parse(opts.BaseURI)
	if err != nil {
		return nil, fmt.Errorf("invalid base URI %q: %w", opts.BaseURI, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URI %q: must be absolute", opts.BaseURI)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.BaseURI, "/"))
	client.SetTransport(newTransport())
	client.SetCookieJar(nil) // sessions travel only in the Credential
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeader("Content-Type", formContentType)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	client.SetLogger(restyLogger{logger: logger})
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	instrumentClient(client, logger)

	return &HTTPClient{
		http:   client,
		logger: logger,
	}, nil
}

// loginForm builds the login body. An empty password is treated as absent,
// so the form carries no password field at all.
func loginForm(username, password string) url.Values {
	form := url.Values{
		"username": {username},
	}
	if password != "" {
		form.Set("password", password)
	}
	return form
}

// Login posts the username and optional password to /api/login and captures
// the session cookies from the response's Set-Cookie headers.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (Credential, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(loginForm(username, password)).
		Post(loginPath)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: login request failed: %w", relaierrors.ErrAuth, err)
	}

	if !res.IsSuccess() {
		return Credential{}, fmt.Errorf("%w: %w", relaierrors.ErrAuth,
			&neterror.StatusError{StatusCode: res.StatusCode(), Status: res.Status()})
	}

	setCookies := res.Header().Values("Set-Cookie")
	if len(setCookies) == 0 {
		return Credential{}, fmt.Errorf("%w: login response did not set a session cookie", relaierrors.ErrAuth)
	}
	cred := credentialFromSetCookie(setCookies)
	if cred.IsZero() {
		return Credential{}, fmt.Errorf("%w: login response set %d unparseable Set-Cookie headers",
			relaierrors.ErrAuth, len(setCookies))
	}

	c.logger.DebugContext(ctx, "logged in", "username", username, "session", cred.String())
	return cred, nil
}

// FetchStarredStories posts the page index and optional story hashes to
// /reader/starred_stories with the session cookies and decodes the response.
func (c *HTTPClient) FetchStarredStories(ctx context.Context, cred Credential, opts FetchOptions) (*StoryCollection, error) {
	req := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(opts.values())
	if !cred.IsZero() {
		req.SetHeader("Cookie", cred.Header())
	}

	res, err := req.Post(starredStoriesPath)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %w", relaierrors.ErrFetch, opts.Page, err)
	}

	if !res.IsSuccess() {
		return nil, fmt.Errorf("%w: page %d: %w", relaierrors.ErrFetch, opts.Page,
			&neterror.StatusError{StatusCode: res.StatusCode(), Status: res.Status()})
	}

	collection, err := DecodeStoryCollection(res.Body())
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", opts.Page, err)
	}

	return collection, nil
}
