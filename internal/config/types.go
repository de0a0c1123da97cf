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

// Package config types define the configuration structures used throughout
// starred-export. These types represent settings that can be loaded from
// YAML configuration files, environment variables, or command-line flags.
package config

import "time"

// DefaultUserAgent is sent on every NewsBlur request unless overridden.
const DefaultUserAgent = "CERN-LineMode/2.15 libwww/2.17b3"

// Config represents the complete configuration for starred-export.
type Config struct {
	NewsBlur NewsBlurConfig `yaml:"newsblur"`
	Output   OutputConfig   `yaml:"output"`
	Retry    RetryConfig    `yaml:"retry"`
}

// NewsBlurConfig contains service settings: where to connect, how to
// identify, and where to find credentials. Passwords are deliberately not
// a YAML field; they come from a flag, the environment, or a prompt.
type NewsBlurConfig struct {
	BaseURI     string        `yaml:"base_uri"`
	UserAgent   string        `yaml:"user_agent"`
	Username    string        `yaml:"username"`
	PasswordEnv string        `yaml:"password_env"`
	Timeout     time.Duration `yaml:"timeout"`
}

// OutputConfig controls where the output document goes and how it is written.
type OutputConfig struct {
	Path        string `yaml:"path"`
	Force       bool   `yaml:"force"`
	Atomic      bool   `yaml:"atomic"`
	MetadataDir string `yaml:"metadata_dir"`
}

// RetryConfig controls retries of failed page fetches. MaxRetries of zero
// disables retrying entirely.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// DefaultConfig returns a Config matching the behavior of a plain run
// against newsblur.com with no config file present.
func DefaultConfig() *Config {
	return &Config{
		NewsBlur: NewsBlurConfig{
			BaseURI:     "https://newsblur.com",
			UserAgent:   DefaultUserAgent,
			PasswordEnv: "NEWSBLUR_PASSWORD",
			Timeout:     60 * time.Second,
		},
		Output: OutputConfig{
			Path: "starred_stories.json",
		},
		Retry: RetryConfig{
			MaxRetries:     0,
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
		},
	}
}
