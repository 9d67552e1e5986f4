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
	"github.com/spf13/cobra"

	"github.com/tombee/teachbooks/internal/commands/shared"
)

func newStopCommand(opts *serveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the preview server",
		Long: `Stop the preview server started by 'teachbooks serve'.

Stopping when no server is running is not an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd, *opts)
		},
	}
}

func runStop(cmd *cobra.Command, opts serveOptions) error {
	e, err := setup()
	if err != nil {
		return err
	}

	srv, err := load(e, e.workdir(opts))
	if err != nil {
		return err
	}
	if srv == nil {
		shared.Info(cmd.OutOrStdout(), "no server running")
		return nil
	}

	if err := srv.Stop(); err != nil {
		return shared.NewExecutionError("failed to stop server", err)
	}
	shared.Info(cmd.OutOrStdout(), "server stopped")
	return nil
}
