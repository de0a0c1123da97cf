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

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sirseerhq/starred-export/internal/collector"
	"github.com/sirseerhq/starred-export/internal/config"
	"github.com/sirseerhq/starred-export/internal/metadata"
	"github.com/sirseerhq/starred-export/internal/newsblur"
	"github.com/sirseerhq/starred-export/internal/output"
	"github.com/sirseerhq/starred-export/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// fetchFlags holds the command-line flags of the fetch command.
type fetchFlags struct {
	username    string
	password    string
	output      string
	force       bool
	configPath  string
	baseURI     string
	atomic      bool
	metadataDir string
	maxRetries  int
	storyHashes []string
	verbose     bool
}

func newFetchCommand() *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download all starred stories into a JSON file",
		Long: `Log in to NewsBlur and download every starred story, page by page,
into a single JSON document. The document is rewritten after each page,
so an interrupted run keeps everything collected so far.

Credentials are resolved in this order:
  - Username: --username, NEWSBLUR_USERNAME, config file, then a prompt
  - Password: --password, the variable named by newsblur.password_env
    (NEWSBLUR_PASSWORD by default), then a prompt

An empty password is treated as no password at all.

Without --force an existing output file is never touched. If the run fails
before the first page is saved, the file it created is removed, so the
same command can simply be run again.

Each request times out after newsblur.timeout (60s by default, 0 disables
it). Paths in flags, environment and the config file expand a leading ~.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, &flags)
		},
	}

	addFetchFlags(cmd.Flags(), &flags)

	return cmd
}

func addFetchFlags(fs *pflag.FlagSet, f *fetchFlags) {
	fs.StringVarP(&f.username, "username", "u", "", "NewsBlur username")
	fs.StringVarP(&f.password, "password", "p", "", "NewsBlur password (empty means none)")
	fs.StringVarP(&f.output, "output", "o", "", "Output file path (default: starred_stories.json)")
	fs.BoolVarP(&f.force, "force", "f", false, "Overwrite the output file if it exists")
	fs.StringVar(&f.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&f.baseURI, "base-uri", "", "NewsBlur base URI (default: https://newsblur.com)")
	fs.BoolVar(&f.atomic, "atomic", false, "Write each snapshot to a temp file and rename it into place")
	fs.StringVar(&f.metadataDir, "metadata-dir", "", "Directory to write run metadata to")
	fs.IntVar(&f.maxRetries, "max-retries", 0, "Retries for transient page fetch failures")
	fs.StringArrayVar(&f.storyHashes, "story-hash", nil, "Only export the story with this hash (repeatable)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Log every request to stderr")
}

// applyFlagOverrides copies explicitly set flags over the loaded config, so
// flags take precedence over the environment and config file.
func applyFlagOverrides(cfg *config.Config, fs *pflag.FlagSet, f *fetchFlags) {
	if fs.Changed("username") {
		cfg.NewsBlur.Username = f.username
	}
	if fs.Changed("output") {
		cfg.Output.Path = config.ExpandPath(f.output)
	}
	if fs.Changed("force") {
		cfg.Output.Force = f.force
	}
	if fs.Changed("base-uri") {
		cfg.NewsBlur.BaseURI = f.baseURI
	}
	if fs.Changed("atomic") {
		cfg.Output.Atomic = f.atomic
	}
	if fs.Changed("metadata-dir") {
		cfg.Output.MetadataDir = config.ExpandPath(f.metadataDir)
	}
	if fs.Changed("max-retries") {
		cfg.Retry.MaxRetries = f.maxRetries
	}
}

// resolveCredentials returns the username and password for the login,
// prompting for whatever the flags, environment and config left unset.
func resolveCredentials(cfg *config.Config, fs *pflag.FlagSet, f *fetchFlags, p *prompter) (string, string, error) {
	username := cfg.NewsBlur.Username
	if username == "" {
		line, err := p.ReadLine("Username: ")
		if err != nil {
			return "", "", err
		}
		username = line
	}
	if username == "" {
		return "", "", fmt.Errorf("no username given. Use --username, NEWSBLUR_USERNAME or the prompt")
	}

	if fs.Changed("password") {
		return username, f.password, nil
	}
	if password, ok := cfg.Password(); ok {
		return username, password, nil
	}

	password, err := p.ReadSecret("Password: ")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// runFetch executes an export. The order matters: the destination is
// checked before credentials are read or any request is made.
func runFetch(cmd *cobra.Command, f *fetchFlags) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, cmd.Flags(), f)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := output.CheckDestination(cfg.Output.Path, cfg.Output.Force); err != nil {
		return err
	}

	username, password, err := resolveCredentials(cfg, cmd.Flags(), f, newPrompter(cmd.InOrStdin(), stderr))
	if err != nil {
		return err
	}

	logger := newLogger(stderr, f.verbose)

	httpClient, err := newsblur.NewHTTPClient(newsblur.Options{
		BaseURI:   cfg.NewsBlur.BaseURI,
		UserAgent: cfg.NewsBlur.UserAgent,
		Timeout:   cfg.NewsBlur.Timeout,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	var client newsblur.Client = httpClient
	if cfg.Retry.MaxRetries > 0 {
		client = newsblur.NewRetryClient(httpClient, &newsblur.RetryConfig{
			MaxRetries:        cfg.Retry.MaxRetries,
			InitialBackoff:    cfg.Retry.InitialBackoff,
			MaxBackoff:        cfg.Retry.MaxBackoff,
			BackoffMultiplier: 2.0,
		}, logger)
	}

	tracker := metadata.New()

	tracker.IncrementAPICall()
	cred, err := client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	writer, err := output.NewWriter(cfg.Output.Path, output.Options{
		Overwrite: cfg.Output.Force,
		Atomic:    cfg.Output.Atomic,
	})
	if err != nil {
		return err
	}
	defer writer.Close()

	result, err := collector.New(client, writer, collector.Options{
		StoryHashes: f.storyHashes,
		Progress:    stderr,
		Logger:      logger,
		Tracker:     tracker,
	}).Run(ctx, cred)
	if err != nil {
		return err
	}

	if err := writer.Close(); err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Exported %d starred stories from %d pages to %s\n",
		result.Stories, result.Pages, cfg.Output.Path)

	if cfg.Output.MetadataDir != "" {
		saveRunMetadata(cfg, f, username, tracker, logger)
	}

	return nil
}

// saveRunMetadata writes the run record. Failures are logged, not returned,
// since the export itself already succeeded.
func saveRunMetadata(cfg *config.Config, f *fetchFlags, username string, tracker *metadata.Tracker, logger *slog.Logger) {
	if previous, err := metadata.LoadLatestMetadata(cfg.Output.MetadataDir); err != nil {
		logger.Warn("could not read previous run metadata", "dir", cfg.Output.MetadataDir, "err", err)
	} else if previous != nil {
		logger.Debug("previous export",
			"run_id", previous.RunID,
			"stories", previous.Results.StoriesCollected,
			"completed_at", previous.Results.CompletedAt,
		)
	}

	md := tracker.GenerateMetadata(version.Version, metadata.ExportParams{
		BaseURI:     cfg.NewsBlur.BaseURI,
		Username:    username,
		OutputPath:  cfg.Output.Path,
		Force:       cfg.Output.Force,
		Atomic:      cfg.Output.Atomic,
		StoryHashes: f.storyHashes,
	})

	path, err := metadata.SaveMetadata(md, cfg.Output.MetadataDir)
	if err != nil {
		logger.Warn("failed to save run metadata", "dir", cfg.Output.MetadataDir, "err", err)
		return
	}
	logger.Debug("saved run metadata", "path", path, "run_id", md.RunID)
}
