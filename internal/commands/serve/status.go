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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/teachbooks/internal/commands/shared"
	"github.com/tombee/teachbooks/internal/preview"
)

type statusResponse struct {
	shared.JSONResponse
	Status *preview.Status `json:"status,omitempty"`
}

func newStatusCommand(opts *serveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the preview server status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, *opts)
		},
	}
}

func runStatus(cmd *cobra.Command, opts serveOptions) error {
	e, err := setup()
	if err != nil {
		return err
	}

	srv, err := load(e, e.workdir(opts))
	if err != nil {
		return err
	}

	var st *preview.Status
	if srv != nil {
		s := srv.Status(cmd.Context())
		st = &s
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), statusResponse{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: cmd.CommandPath(), Success: true},
			Status:       st,
		})
	}

	out := cmd.OutOrStdout()
	switch {
	case st == nil:
		shared.Info(out, "no server running")
	case !st.Running:
		shared.Warn(out, "server on port %d is no longer running (pid %d)", st.Port, st.PID)
		fmt.Fprintln(out, shared.RenderLabel("  Run 'teachbooks serve' to start it again."))
	default:
		fmt.Fprintln(out, shared.RenderOK("Server running"))
		fmt.Fprintf(out, "  %s %s\n", shared.RenderLabel("URL:      "), st.URL)
		fmt.Fprintf(out, "  %s %s\n", shared.RenderLabel("Directory:"), st.ServeDir)
		fmt.Fprintf(out, "  %s %d\n", shared.RenderLabel("PID:      "), st.PID)
		if !st.Reachable {
			fmt.Fprintln(out, "  "+shared.RenderWarn("server is not answering requests"))
		}
	}
	return nil
}
