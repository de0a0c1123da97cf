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

// Package errors defines sentinel errors for consistent error handling across the application.
// Each sentinel identifies the stage of an export run that failed and maps to a specific
// exit code in the CLI for proper scripting support.
package errors

import "errors"

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrDestinationExists indicates the output file already exists and --force was not given.
	// Raised by the pre-flight check before any network call. Maps to exit code 4.
	ErrDestinationExists = errors.New("output file already exists")

	// ErrAuth indicates the login request failed or returned no session cookie.
	// Maps to exit code 2.
	ErrAuth = errors.New("authentication failed")

	// ErrFetch indicates a starred stories request failed at the network or HTTP level.
	// Maps to exit code 3.
	ErrFetch = errors.New("failed to fetch starred stories")

	// ErrDecode indicates a starred stories response was not valid JSON or had no
	// "stories" array. Maps to exit code 5.
	ErrDecode = errors.New("failed to decode starred stories")

	// ErrPersist indicates the output document could not be written.
	// Maps to exit code 6.
	ErrPersist = errors.New("failed to write output document")
)

// Stage names reported to the user when a run aborts.
const (
	StagePreflight = "pre-flight"
	StageAuth      = "auth"
	StageFetch     = "fetch"
	StageDecode    = "decode"
	StagePersist   = "persist"
	StageGeneral   = "general"
)

// Stage returns the name of the run stage that produced err.
// Errors that carry none of the sentinels above report StageGeneral.
func Stage(err error) string {
	switch {
	case errors.Is(err, ErrDestinationExists):
		return StagePreflight
	case errors.Is(err, ErrAuth):
		return StageAuth
	case errors.Is(err, ErrDecode):
		return StageDecode
	case errors.Is(err, ErrFetch):
		return StageFetch
	case errors.Is(err, ErrPersist):
		return StagePersist
	default:
		return StageGeneral
	}
}
