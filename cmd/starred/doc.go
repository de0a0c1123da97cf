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

// Package main implements the starred-export command-line interface.
// This tool logs in to NewsBlur and saves every starred story of the
// account into a single JSON document.
//
// The CLI supports:
//   - Credentials from flags, the environment, or interactive prompts
//   - A pre-flight check that refuses to overwrite output without --force
//   - Rewriting the output after every page so partial progress survives
//   - Optional atomic writes, fetch retries and run metadata
//   - Graceful error handling with stage names and exit codes
//
// Usage:
//
//	starred-export fetch [flags]
//
// Example:
//
//	export NEWSBLUR_PASSWORD=secret
//	starred-export fetch -u alice -o starred.json
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Authentication error
//   - 3: Fetch (network or HTTP) error
//   - 4: Output file already exists
//   - 5: Response decode error
//   - 6: Output write error
package main
