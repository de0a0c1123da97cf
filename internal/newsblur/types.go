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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	relaierrors "github.com/sirseerhq/starred-export/internal/errors"
)

// Story is a single starred story exactly as NewsBlur returned it.
// Its fields are never interpreted, only counted and copied.
type Story = json.RawMessage

// StoryCollection is one decoded page of the starred stories listing.
type StoryCollection struct {
	Stories []Story
}

// FetchOptions configures a single starred stories request.
type FetchOptions struct {
	// Page is the zero-based page index, sent as the "page" form field.
	Page int

	// StoryHashes restricts the listing to specific stories. Each hash is
	// sent as a repeated "h" form field. Empty means no filter.
	StoryHashes []string
}

// values encodes the options as the request form body.
func (o FetchOptions) values() url.Values {
	v := url.Values{
		"page": {strconv.Itoa(o.Page)},
	}
	if len(o.StoryHashes) > 0 {
		v["h"] = append([]string(nil), o.StoryHashes...)
	}
	return v
}

// Credential is the session issued by the login endpoint. It is created once
// per run, never modified, and attached to every subsequent request.
type Credential struct {
	cookies []sessionCookie
}

// sessionCookie is a name=value pair replayed byte for byte. The value keeps
// any surrounding double quotes.
type sessionCookie struct {
	name  string
	value string
}

// NewCredential builds a Credential from parsed cookies. Only the name and
// value of each cookie are kept, since those are all a Cookie header carries.
func NewCredential(cookies []*http.Cookie) Credential {
	kept := make([]sessionCookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		value := c.Value
		if c.Quoted {
			value = `"` + value + `"`
		}
		kept = append(kept, sessionCookie{name: c.Name, value: value})
	}
	return Credential{cookies: kept}
}

// credentialFromSetCookie builds a Credential from raw Set-Cookie header
// values. The leading name=value pair of each header is kept verbatim, so
// values net/http would reject or unquote are replayed as the server sent
// them. Headers without a name are skipped.
func credentialFromSetCookie(headers []string) Credential {
	kept := make([]sessionCookie, 0, len(headers))
	for _, h := range headers {
		pair, _, _ := strings.Cut(h, ";")
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		kept = append(kept, sessionCookie{name: name, value: strings.TrimSpace(value)})
	}
	return Credential{cookies: kept}
}

// IsZero reports whether the credential holds no cookies.
func (c Credential) IsZero() bool {
	return len(c.cookies) == 0
}

// Cookies returns a copy of the session cookies. A double-quoted value is
// returned unquoted with Quoted set.
func (c Credential) Cookies() []*http.Cookie {
	out := make([]*http.Cookie, len(c.cookies))
	for i, ck := range c.cookies {
		cookie := &http.Cookie{Name: ck.name, Value: ck.value}
		if len(ck.value) >= 2 && strings.HasPrefix(ck.value, `"`) && strings.HasSuffix(ck.value, `"`) {
			cookie.Value = ck.value[1 : len(ck.value)-1]
			cookie.Quoted = true
		}
		out[i] = cookie
	}
	return out
}

// Header renders the credential as the value of a Cookie request header.
func (c Credential) Header() string {
	parts := make([]string, len(c.cookies))
	for i, ck := range c.cookies {
		parts[i] = ck.name + "=" + ck.value
	}
	return strings.Join(parts, "; ")
}

// String hides cookie values so a Credential is safe to log.
func (c Credential) String() string {
	names := make([]string, len(c.cookies))
	for i, ck := range c.cookies {
		names[i] = ck.name
	}
	return fmt.Sprintf("Credential{%s}", strings.Join(names, ", "))
}

// DecodeStoryCollection parses a starred stories response body. The "stories"
// field must be present and must be a JSON array; anything else is ErrDecode.
func DecodeStoryCollection(body []byte) (*StoryCollection, error) {
	var raw struct {
		Stories *[]json.RawMessage `json:"stories"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", relaierrors.ErrDecode, err)
	}
	if raw.Stories == nil || *raw.Stories == nil {
		return nil, fmt.Errorf("%w: response has no \"stories\" array", relaierrors.ErrDecode)
	}

	return &StoryCollection{Stories: *raw.Stories}, nil
}
