// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package clean implements 'teachbooks clean'.
package clean

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tombee/teachbooks/internal/builder"
	"github.com/tombee/teachbooks/internal/commands/shared"
	"github.com/tombee/teachbooks/internal/log"
	"github.com/tombee/teachbooks/internal/preview"
	"github.com/tombee/teachbooks/internal/release"
)

// NewCommand creates the clean command using jupyter-book.
func NewCommand() *cobra.Command {
	return NewCommandWithBuilder(nil)
}

// NewCommandWithBuilder creates the clean command with a specific builder.
func NewCommandWithBuilder(b builder.Builder) *cobra.Command {
	return &cobra.Command{
		Use:   "clean <path-source>",
		Short: "Stop the preview server and clean build artifacts",
		Long: `Stop the preview server of the book, if one is running, and run the
Jupyter Book clean command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, b, args[0])
		},
	}
}

func runClean(cmd *cobra.Command, b builder.Builder, source string) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	logger := shared.NewLogger(cfg)
	out := cmd.OutOrStdout()

	if _, err := os.Stat(source); err != nil {
		return shared.NewInvalidInputError(fmt.Sprintf("path-source %q does not exist", source), err)
	}
	if b == nil {
		b = builder.NewJupyterBook(cfg.Builder.Command, logger)
	}

	workdir := filepath.Join(source, release.WorkDirName)
	srv, err := preview.Load(workdir, preview.Options{StopTimeout: cfg.Preview.StopTimeout, Logger: logger})
	switch {
	case err == nil:
		if srv.IsRunning() {
			shared.Info(out, "Stopping running server before cleaning...")
			if err := srv.Stop(); err != nil {
				return shared.NewExecutionError("failed to stop server", err)
			}
			shared.Info(out, "Server stopped.")
		} else {
			// Dead server; only the state file is left to remove.
			if err := srv.Stop(); err != nil {
				logger.Warn("failed to remove stale server state", log.Error(err))
			}
			shared.Info(out, "No running server found.")
		}
	case errors.Is(err, preview.ErrStateNotFound), errors.Is(err, preview.ErrCorruptState):
		shared.Info(out, "No running server found.")
	default:
		logger.Warn("failed to read server state", log.Error(err))
		shared.Info(out, "No running server found.")
	}

	shared.Info(out, "Cleaning build artifacts in %s...", source)
	if err := b.Clean(cmd.Context(), source); err != nil {
		if errors.Is(err, builder.ErrBuilderNotFound) {
			return shared.NewInvalidInputError("jupyter-book is not installed", err)
		}
		return shared.NewExecutionError("clean failed", err)
	}
	shared.Info(out, "Clean complete.")
	return nil
}
