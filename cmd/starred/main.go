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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	relaierrors "github.com/sirseerhq/starred-export/internal/errors"
	"github.com/sirseerhq/starred-export/pkg/version"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", relaierrors.Stage(err), err)
		os.Exit(mapErrorToExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	var flags fetchFlags

	rootCmd := &cobra.Command{
		Use:   "starred-export",
		Short: "Export starred stories from NewsBlur",
		Long: `starred-export logs in to NewsBlur and downloads every starred story
of the account into a single JSON document of the form {"stories":[...]}.

Running it without a subcommand is the same as running "fetch".`,
		Version:       version.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, &flags)
		},
	}
	addFetchFlags(rootCmd.Flags(), &flags)

	rootCmd.AddCommand(newFetchCommand())

	return rootCmd
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, relaierrors.ErrDestinationExists):
		return 4
	case errors.Is(err, relaierrors.ErrAuth):
		return 2
	case errors.Is(err, relaierrors.ErrDecode):
		return 5
	case errors.Is(err, relaierrors.ErrFetch):
		return 3
	case errors.Is(err, relaierrors.ErrPersist):
		return 6
	default:
		return 1
	}
}
