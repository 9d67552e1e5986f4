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

//go:build linux

package lifecycle

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/procfs"
)

// CommandLineAvailable reports whether Inspect can read process arguments.
const CommandLineAvailable = true

// inspect reads /proc/<pid>/stat and /proc/<pid>/cmdline.
func inspect(pid int) (*ProcessInfo, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs: %w", err)
	}

	proc, err := fs.Proc(pid)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %d", ErrProcessNotRunning, pid)
		}
		return nil, fmt.Errorf("failed to read process %d: %w", pid, err)
	}

	stat, err := proc.Stat()
	if err != nil {
		// The entry can disappear between the two reads.
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %d", ErrProcessNotRunning, pid)
		}
		return nil, fmt.Errorf("failed to read stat of process %d: %w", pid, err)
	}

	info := &ProcessInfo{PID: pid, State: stat.State}

	// Zombies have an empty cmdline; unreadable cmdlines leave Args nil.
	if args, err := proc.CmdLine(); err == nil {
		info.Args = args
	}

	return info, nil
}

// activeState accepts running (R), sleeping (S), disk sleep (D) and idle (I).
// An idle HTTP server sits in S.
func activeState(state string) bool {
	switch state {
	case "R", "S", "D", "I":
		return true
	default:
		return false
	}
}
