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

package testutil

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var (
	binaryOnce sync.Once
	binaryPath string
	buildErr   error
)

// BuildBinary builds the starred-export binary once per test run
func BuildBinary(t *testing.T) string {
	t.Helper()

	binaryOnce.Do(func() {
		// Create a persistent temp directory, not tied to test cleanup
		tmpDir, err := os.MkdirTemp("", "starred-export-test")
		if err != nil {
			buildErr = err
			return
		}
		binaryPath = filepath.Join(tmpDir, "starred-export")

		projectRoot, err := findProjectRoot()
		if err != nil {
			buildErr = err
			return
		}

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/starred")
		cmd.Dir = projectRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			buildErr = err
			t.Logf("Build output: %s", output)
		}
	})

	if buildErr != nil {
		t.Fatalf("Failed to build binary: %v", buildErr)
	}

	return binaryPath
}

// CLIResult contains the result of running a CLI command
type CLIResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// CLIOptions controls how RunCLI starts the binary.
type CLIOptions struct {
	// Dir is the working directory. It is also used as HOME so no user
	// config or .env file leaks into the run. Defaults to a temp dir.
	Dir string
	// Env adds or overrides environment variables.
	Env map[string]string
	// Stdin is fed to the process.
	Stdin string
}

// RunCLI executes the starred-export binary with the given arguments
func RunCLI(t *testing.T, args []string, opts CLIOptions) CLIResult {
	t.Helper()

	binary := BuildBinary(t)

	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}

	cmd := exec.Command(binary, args...)
	cmd.Dir = opts.Dir

	cmd.Env = []string{"HOME=" + opts.Dir, "PATH=" + os.Getenv("PATH")}
	for _, kv := range os.Environ() {
		// Keep the process environment free of settings that change behavior.
		if strings.HasPrefix(kv, "NEWSBLUR_") || strings.HasPrefix(kv, "STARRED_") ||
			strings.HasPrefix(kv, "HOME=") || strings.HasPrefix(kv, "PATH=") {
			continue
		}
		cmd.Env = append(cmd.Env, kv)
	}
	for k, v := range opts.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	cmd.Stdin = strings.NewReader(opts.Stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	exitCode := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		exitCode = -1
	}

	return CLIResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Err:      err,
	}
}

// RunWithServer runs the fetch command against server in dir, logging in as
// "alice" with password "secret" unless args say otherwise.
func RunWithServer(t *testing.T, server *NewsBlurServer, dir string, args ...string) CLIResult {
	t.Helper()

	fullArgs := append([]string{"fetch"}, args...)

	return RunCLI(t, fullArgs, CLIOptions{
		Dir: dir,
		Env: map[string]string{
			"NEWSBLUR_BASE_URI": server.URL,
			"NEWSBLUR_USERNAME": "alice",
			"NEWSBLUR_PASSWORD": "secret",
		},
	})
}

// AssertExitCode checks the command exit code
func AssertExitCode(t *testing.T, result CLIResult, expected int) {
	t.Helper()

	if result.ExitCode != expected {
		t.Errorf("Expected exit code %d, got %d\nStderr: %s", expected, result.ExitCode, result.Stderr)
	}
}

// findProjectRoot finds the project root by looking for go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
