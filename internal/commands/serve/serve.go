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

// Package serve implements the 'teachbooks serve' command group, which
// manages the local preview server.
package serve

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tombee/teachbooks/internal/commands/shared"
	"github.com/tombee/teachbooks/internal/config"
	"github.com/tombee/teachbooks/internal/log"
	"github.com/tombee/teachbooks/internal/preview"
)

type serveOptions struct {
	port    int
	dir     string
	workdir string
}

// NewCommand creates the serve command group.
func NewCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built book locally",
		Long: `Start a web server to view the built book locally.

The server runs in the background and keeps running after this command
exits. Running 'teachbooks serve' again while it is running just prints
its address. Use 'teachbooks serve stop' to stop it.`,
		Example: `  # Serve book/_build/html on a free port
  teachbooks serve

  # Serve on a fixed port
  teachbooks serve --port 8000

  # Serve another book
  teachbooks serve path ./other-book`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to serve on (default: a free port)")
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", "", "Directory to serve (default: book/_build/html)")
	cmd.PersistentFlags().StringVar(&opts.workdir, "workdir", "", "Directory for server state (default: book/.teachbooks)")

	cmd.AddCommand(newStopCommand(&opts))
	cmd.AddCommand(newStatusCommand(&opts))
	cmd.AddCommand(newPathCommand(&opts))

	return cmd
}

// env is what every serve subcommand needs.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func setup() (*env, error) {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: shared.NewLogger(cfg)}, nil
}

func (e *env) workdir(opts serveOptions) string {
	if opts.workdir != "" {
		return opts.workdir
	}
	return e.cfg.Preview.WorkDir
}

func (e *env) options(port int) preview.Options {
	return preview.Options{
		Port:           port,
		SettleInterval: e.cfg.Preview.SettleInterval,
		StopTimeout:    e.cfg.Preview.StopTimeout,
		Logger:         e.logger,
	}
}

func runStart(cmd *cobra.Command, opts serveOptions) error {
	e, err := setup()
	if err != nil {
		return err
	}

	servedir := opts.dir
	if servedir == "" {
		servedir = e.cfg.Preview.ServeDir
	}
	port := e.cfg.Preview.Port
	if cmd.Flags().Changed("port") {
		port = opts.port
	}

	srv, err := preview.New(servedir, e.workdir(opts), e.options(port))
	if err != nil {
		return shared.Wrap("invalid server settings", err)
	}
	if err := srv.Start(cmd.Context()); err != nil {
		return startError(err)
	}

	return printRunning(cmd, srv)
}

func printRunning(cmd *cobra.Command, srv *preview.Server) error {
	if shared.GetJSON() {
		st := srv.Describe()
		st.Running = true
		return shared.EmitJSON(cmd.OutOrStdout(), statusResponse{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: cmd.CommandPath(), Success: true},
			Status:       &st,
		})
	}
	shared.Info(cmd.OutOrStdout(), "server running on %s", srv.URL())
	return nil
}

// startError maps Start failures to exit codes.
func startError(err error) error {
	switch {
	case errors.Is(err, preview.ErrNotADirectory):
		return shared.NewInvalidInputError("cannot serve book", err)
	case errors.Is(err, preview.ErrLaunchFailed):
		return shared.NewLaunchError("failed to start server", err)
	case errors.Is(err, context.Canceled):
		return shared.NewExecutionError("interrupted", err)
	default:
		return shared.Wrap("failed to start server", err)
	}
}

// load returns the persisted server in workdir, or nil when there is none.
// Unreadable state is reported and treated as absent.
func load(e *env, workdir string) (*preview.Server, error) {
	srv, err := preview.Load(workdir, e.options(0))
	switch {
	case err == nil:
		return srv, nil
	case errors.Is(err, preview.ErrStateNotFound):
		return nil, nil
	case errors.Is(err, preview.ErrCorruptState):
		e.logger.Warn("ignoring unreadable server state", log.Error(err))
		return nil, nil
	default:
		return nil, shared.NewExecutionError("failed to read server state", err)
	}
}
