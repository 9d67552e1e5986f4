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

package serve

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tombee/teachbooks/internal/commands/shared"
	"github.com/tombee/teachbooks/internal/preview"
)

func newPathCommand(opts *serveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path <book>",
		Short: "Serve a different book",
		Long: `Point the preview server at the html build of another book.

The running server, if any, is replaced by one serving <book>/_build/html on
the same port. If that directory does not exist yet the current server is
left as it is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPath(cmd, *opts, args[0])
		},
	}
}

// HTMLDir is where jupyter-book writes the html build of a book.
func HTMLDir(book string) string {
	return filepath.Join(book, "_build", "html")
}

func runPath(cmd *cobra.Command, opts serveOptions, book string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	servedir := HTMLDir(book)
	if info, err := os.Stat(servedir); err != nil || !info.IsDir() {
		shared.Warn(out, "%s is not available; build the book first. Server left unchanged.", servedir)
		return nil
	}

	workdir := e.workdir(opts)
	port := e.cfg.Preview.Port

	current, err := load(e, workdir)
	if err != nil {
		return err
	}
	if current != nil {
		if current.IsRunning() {
			port = current.Port()
		}
		if err := current.Stop(); err != nil {
			return shared.NewExecutionError("failed to stop current server", err)
		}
	}

	srv, err := preview.New(servedir, workdir, e.options(port))
	if err != nil {
		return shared.Wrap("invalid server settings", err)
	}
	if err := srv.Start(cmd.Context()); err != nil {
		return startError(err)
	}
	return printRunning(cmd, srv)
}
