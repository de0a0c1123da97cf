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

// Package config provides configuration management for starred-export with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags (applied by the CLI after LoadConfig)
//  2. Environment variables, including a .env file in the working directory
//  3. Configuration file
//  4. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .starred-export.yaml (current directory)
//   - .starred-export.yml (current directory)
//   - ~/.starred-export/config.yaml
//   - ~/.starred-export/config.yml
//
// A .env file in the current directory is loaded into the process
// environment before overrides are applied. Variables already set in the
// environment win over the .env file.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		defaultPaths := []string{
			".starred-export.yaml",
			".starred-export.yml",
			filepath.Join(os.Getenv("HOME"), ".starred-export", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".starred-export", "config.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Output.Path = ExpandPath(cfg.Output.Path)
	cfg.Output.MetadataDir = ExpandPath(cfg.Output.MetadataDir)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// loadDotEnv loads a .env file if one exists. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
// A malformed numeric value is an error rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	if baseURI := os.Getenv("NEWSBLUR_BASE_URI"); baseURI != "" {
		cfg.NewsBlur.BaseURI = baseURI
	}
	if username := os.Getenv("NEWSBLUR_USERNAME"); username != "" {
		cfg.NewsBlur.Username = username
	}
	if userAgent := os.Getenv("NEWSBLUR_USER_AGENT"); userAgent != "" {
		cfg.NewsBlur.UserAgent = userAgent
	}

	if output := os.Getenv("STARRED_OUTPUT"); output != "" {
		cfg.Output.Path = output
	}
	if force := os.Getenv("STARRED_FORCE"); force != "" {
		cfg.Output.Force = parseBool(force)
	}
	if atomic := os.Getenv("STARRED_ATOMIC"); atomic != "" {
		cfg.Output.Atomic = parseBool(atomic)
	}
	if dir := os.Getenv("STARRED_METADATA_DIR"); dir != "" {
		cfg.Output.MetadataDir = dir
	}

	if retries := os.Getenv("STARRED_MAX_RETRIES"); retries != "" {
		n, err := parseNonNegativeInt(retries)
		if err != nil {
			return fmt.Errorf("invalid STARRED_MAX_RETRIES %q: %w", retries, err)
		}
		cfg.Retry.MaxRetries = n
	}

	return nil
}

// Password returns the password from the environment variable named by
// NewsBlur.PasswordEnv, and whether that variable was set at all. A variable
// set to the empty string counts as set.
func (c *Config) Password() (string, bool) {
	if c.NewsBlur.PasswordEnv == "" {
		return "", false
	}
	return os.LookupEnv(c.NewsBlur.PasswordEnv)
}

// ExpandPath expands a leading ~ to the home directory. Every other
// character, including $, is kept literally.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home := os.Getenv("HOME")
	if home == "" {
		home = os.Getenv("USERPROFILE") // Windows
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

// parseNonNegativeInt parses a string to an integer >= 0
func parseNonNegativeInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i < 0 {
		return 0, fmt.Errorf("value must not be negative, got: %d", i)
	}
	return i, nil
}

// parseBool parses various boolean representations
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// Validate checks if the configuration contains valid values. This should be
// called after flags are applied so that a bad override is caught before the
// pre-flight check or any network call.
func (c *Config) Validate() error {
	if c.NewsBlur.BaseURI == "" {
		return fmt.Errorf("NewsBlur base URI cannot be empty")
	}
	u, err := url.Parse(c.NewsBlur.BaseURI)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("NewsBlur base URI %q must be an absolute URL", c.NewsBlur.BaseURI)
	}
	if c.NewsBlur.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.NewsBlur.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got: %s", c.NewsBlur.Timeout)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got: %d", c.Retry.MaxRetries)
	}
	if c.Retry.MaxRetries > 0 && c.Retry.InitialBackoff <= 0 {
		return fmt.Errorf("initial backoff must be positive when retries are enabled, got: %s", c.Retry.InitialBackoff)
	}
	if c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		return fmt.Errorf("max backoff %s is shorter than initial backoff %s", c.Retry.MaxBackoff, c.Retry.InitialBackoff)
	}
	return nil
}
