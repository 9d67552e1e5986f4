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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tombee/teachbooks/internal/cli"
	"github.com/tombee/teachbooks/internal/log"
	"github.com/tombee/teachbooks/internal/preview"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// 'teachbooks serve' re-executes this binary as the detached preview
	// server. Check for that before any cobra processing.
	if preview.IsChildInvocation(os.Args[1:]) {
		// Output goes to server.log, so request logging is on by default.
		logCfg := log.FromEnv()
		if logCfg.Level == log.DefaultConfig().Level {
			logCfg.Level = "info"
		}
		if err := preview.RunChild(context.Background(), os.Args[1:], log.New(logCfg)); err != nil {
			fmt.Fprintf(os.Stderr, "Preview server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		cli.HandleExitError(err)
	}
}
