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

// Package testutil provides common test helpers for starred-export
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// DefaultSessionCookie is the cookie a NewsBlurServer issues on login.
var DefaultSessionCookie = &http.Cookie{Name: "newsblur_sessionid", Value: "test-session"}

// LoginRequest records one call to /api/login.
type LoginRequest struct {
	Username    string
	Password    string
	HasPassword bool
	UserAgent   string
	ContentType string
}

// PageRequest records one call to /reader/starred_stories.
type PageRequest struct {
	Page      string
	Hashes    []string
	Cookie    string
	UserAgent string
}

// NewsBlurServer is an httptest server speaking the two NewsBlur endpoints
// used by an export. Pages are served by index; any index past the end is
// an empty page.
type NewsBlurServer struct {
	*httptest.Server

	mu       sync.Mutex
	pages    [][]json.RawMessage
	logins   []LoginRequest
	requests []PageRequest

	// RejectLogin makes /api/login answer without a session cookie.
	RejectLogin bool
	// LoginStatus overrides the login status code when non-zero.
	LoginStatus int
	// PageStatus overrides the status code for specific pages.
	PageStatus map[int]int
	// PageBody replaces the JSON body for specific pages.
	PageBody map[int]string
	// RequireCookie rejects page requests without the session cookie with 403.
	RequireCookie bool
}

// NewNewsBlurServer starts a server that serves pages of raw story JSON.
// It is closed automatically when the test ends.
func NewNewsBlurServer(t *testing.T, pages ...[]string) *NewsBlurServer {
	t.Helper()

	s := &NewsBlurServer{
		PageStatus:    make(map[int]int),
		PageBody:      make(map[int]string),
		RequireCookie: true,
	}
	for _, p := range pages {
		raw := make([]json.RawMessage, len(p))
		for i, story := range p {
			raw[i] = json.RawMessage(story)
		}
		s.pages = append(s.pages, raw)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", s.handleLogin)
	mux.HandleFunc("/reader/starred_stories", s.handleStarredStories)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}

func (s *NewsBlurServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pw, hasPassword := r.PostForm["password"]
	req := LoginRequest{
		Username:    r.PostForm.Get("username"),
		HasPassword: hasPassword,
		UserAgent:   r.UserAgent(),
		ContentType: r.Header.Get("Content-Type"),
	}
	if hasPassword {
		req.Password = pw[0]
	}

	s.mu.Lock()
	s.logins = append(s.logins, req)
	s.mu.Unlock()

	if s.LoginStatus != 0 {
		w.WriteHeader(s.LoginStatus)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if s.RejectLogin {
		_, _ = w.Write([]byte(`{"authenticated":false,"errors":{"__all__":["Whoopsy-daisy"]}}`))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     DefaultSessionCookie.Name,
		Value:    DefaultSessionCookie.Value,
		Path:     "/",
		HttpOnly: true,
	})
	_, _ = w.Write([]byte(`{"authenticated":true,"code":1}`))
}

func (s *NewsBlurServer) handleStarredStories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := PageRequest{
		Page:      r.PostForm.Get("page"),
		Hashes:    r.PostForm["h"],
		Cookie:    r.Header.Get("Cookie"),
		UserAgent: r.UserAgent(),
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.RequireCookie {
		c, err := r.Cookie(DefaultSessionCookie.Name)
		if err != nil || c.Value != DefaultSessionCookie.Value {
			http.Error(w, `{"authenticated":false}`, http.StatusForbidden)
			return
		}
	}

	page, err := strconv.Atoi(req.Page)
	if err != nil {
		http.Error(w, "bad page", http.StatusBadRequest)
		return
	}

	if status, ok := s.PageStatus[page]; ok {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if body, ok := s.PageBody[page]; ok {
		_, _ = w.Write([]byte(body))
		return
	}

	stories := []json.RawMessage{}
	if page >= 0 && page < len(s.pages) {
		stories = s.pages[page]
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(map[string]interface{}{
		"stories":      stories,
		"user_profile": map[string]interface{}{"username": "test"},
	})
}

// Logins returns a copy of the recorded login requests.
func (s *NewsBlurServer) Logins() []LoginRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LoginRequest(nil), s.logins...)
}

// PageRequests returns a copy of the recorded page requests.
func (s *NewsBlurServer) PageRequests() []PageRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PageRequest(nil), s.requests...)
}

// RequestCount returns the total number of requests of both kinds.
func (s *NewsBlurServer) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logins) + len(s.requests)
}
