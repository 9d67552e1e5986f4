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

//go:build windows

package lifecycle

import (
	"fmt"
	"os"
)

// CommandLineAvailable reports whether Inspect can read process arguments.
const CommandLineAvailable = false

// inspect opens the process to establish that it exists. Windows has no
// zombie entries once the last handle is closed.
func inspect(pid int) (*ProcessInfo, error) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrProcessNotRunning, pid)
	}
	_ = proc.Release()
	return &ProcessInfo{PID: pid}, nil
}

func activeState(state string) bool {
	return state == ""
}
