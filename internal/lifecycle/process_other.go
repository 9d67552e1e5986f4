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

//go:build !linux && !darwin && !windows

package lifecycle

import "fmt"

// CommandLineAvailable reports whether Inspect can read process arguments.
const CommandLineAvailable = false

// inspect falls back to an existence check; state and command line are not
// available without platform-specific APIs.
func inspect(pid int) (*ProcessInfo, error) {
	if !IsProcessRunning(pid) {
		return nil, fmt.Errorf("%w: %d", ErrProcessNotRunning, pid)
	}
	return &ProcessInfo{PID: pid}, nil
}

// activeState treats an unknown state as active since existence was
// already established.
func activeState(state string) bool {
	return state == "" || state == "R" || state == "S"
}
