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

//go:build darwin

package lifecycle

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CommandLineAvailable reports whether Inspect can read process arguments.
const CommandLineAvailable = true

// inspect queries ps for the state and command of pid.
func inspect(pid int) (*ProcessInfo, error) {
	cmd := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "stat=,command=")
	output, err := cmd.Output()
	if err != nil {
		// ps exits non-zero when the pid is not in the table
		if _, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%w: %d", ErrProcessNotRunning, pid)
		}
		return nil, fmt.Errorf("ps command failed: %w", err)
	}

	fields := strings.Fields(strings.TrimSpace(string(output)))
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrProcessNotRunning, pid)
	}

	return &ProcessInfo{
		PID:   pid,
		State: fields[0][:1],
		Args:  fields[1:],
	}, nil
}

// activeState accepts runnable (R), sleeping (S), idle (I) and
// uninterruptible (U). macOS reports a server that has slept for more than
// about 20 seconds as I rather than S.
func activeState(state string) bool {
	switch state {
	case "R", "S", "I", "U":
		return true
	default:
		return false
	}
}
