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

// Package build implements 'teachbooks build'.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tombee/teachbooks/internal/builder"
	"github.com/tombee/teachbooks/internal/commands/shared"
	"github.com/tombee/teachbooks/internal/config"
	"github.com/tombee/teachbooks/internal/log"
	"github.com/tombee/teachbooks/internal/release"
)

type buildOptions struct {
	release     bool
	publish     bool
	processOnly bool
	watch       bool
}

// NewCommand creates the build command using jupyter-book.
func NewCommand() *cobra.Command {
	return NewCommandWithBuilder(nil)
}

// NewCommandWithBuilder creates the build command with a specific builder.
// A nil builder means jupyter-book as configured.
func NewCommandWithBuilder(b builder.Builder) *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build <path-source>",
		Short: "Pre-process the book and build it with jupyter-book",
		Long: `Pre-process book contents and run the Jupyter Book build command.

With --release, sections of _config.yml and _toc.yml between
'# START REMOVE-FROM-RELEASE' and '# END REMOVE-FROM-RELEASE' are removed
before building. The filtered files are written to .teachbooks/release.

After the html build a linkcheck build is run, unless builder.linkcheck is
false in the configuration.`,
		Example: `  # Build the draft book
  teachbooks build book

  # Build the release version
  teachbooks build --release book

  # Only write the filtered config files
  teachbooks build --release --process-only book

  # Rebuild whenever a source file changes
  teachbooks build --watch book`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, b, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.release, "release", false, "Build the release version: remove REMOVE-FROM-RELEASE sections from _config.yml and _toc.yml")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Deprecated: use --release")
	cmd.Flags().BoolVar(&opts.processOnly, "process-only", false, "Only pre-process content, do not build the book")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Rebuild when source files change")

	return cmd
}

func runBuild(cmd *cobra.Command, b builder.Builder, opts buildOptions, source string) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	logger := shared.NewLogger(cfg)
	out := cmd.OutOrStdout()

	src, err := filepath.Abs(source)
	if err != nil {
		return shared.NewExecutionError("failed to resolve source path", err)
	}
	if _, err := os.Stat(src); err != nil {
		return shared.NewInvalidInputError(fmt.Sprintf("path-source %q does not exist", source), err)
	}

	if opts.publish {
		shared.Warn(out, "The --publish option is deprecated, use --release instead.")
	}
	if b == nil {
		b = builder.NewJupyterBook(cfg.Builder.Command, logger)
	}

	strategy := release.StrategyFor(opts.release, opts.publish)
	shared.Info(out, "running build with strategy '%s'", strategy)

	p := &pipeline{
		builder:   b,
		source:    src,
		strategy:  strategy,
		linkcheck: cfg.Builder.Linkcheck,
		build:     !opts.processOnly,
		out:       out,
	}
	if err := p.run(cmd.Context(), true); err != nil {
		return err
	}

	if opts.watch {
		return watch(cmd.Context(), p, cfg, logger)
	}
	return nil
}

// pipeline is one pre-process and build pass over a book.
type pipeline struct {
	builder   builder.Builder
	source    string
	strategy  release.Strategy
	linkcheck bool
	build     bool
	out       io.Writer
}

func (p *pipeline) run(ctx context.Context, withLinkcheck bool) error {
	req := builder.Request{SourceDir: p.source}

	if p.strategy == release.StrategyRelease {
		configPath, tocPath, err := release.Prepare(p.source)
		if err != nil {
			return shared.Wrap("failed to prepare release files", err)
		}
		req.ConfigPath = configPath
		req.TocPath = tocPath
	}

	if !p.build {
		return nil
	}

	if err := p.builder.Build(ctx, req); err != nil {
		return buildError(err)
	}
	if withLinkcheck && p.linkcheck {
		req.Kind = builder.KindLinkcheck
		if err := p.builder.Build(ctx, req); err != nil {
			return buildError(err)
		}
	}
	return nil
}

func buildError(err error) error {
	if errors.Is(err, builder.ErrBuilderNotFound) {
		return shared.NewInvalidInputError("jupyter-book is not installed", err)
	}
	return shared.NewExecutionError("build failed", err)
}

// watch rebuilds on source changes until interrupted. Linkcheck is skipped
// on rebuilds.
func watch(ctx context.Context, p *pipeline, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shared.Info(p.out, "watching %s for changes, press Ctrl+C to stop", p.source)
	w := &builder.Watcher{
		Root:     p.source,
		Debounce: cfg.Builder.Debounce,
		Logger:   logger,
		OnChange: func(ctx context.Context, paths []string) {
			shared.Info(p.out, "%d file(s) changed, rebuilding", len(paths))
			if err := p.run(ctx, false); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Error("rebuild failed", log.Error(err))
				shared.Warn(p.out, "rebuild failed: %v", err)
				return
			}
			shared.Info(p.out, "rebuild complete")
		},
	}
	if err := w.Watch(ctx); err != nil {
		return shared.NewExecutionError("file watcher failed", err)
	}
	return nil
}
