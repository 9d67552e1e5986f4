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

package preview

import (
	"strconv"

	"github.com/tombee/teachbooks/internal/lifecycle"
	"github.com/tombee/teachbooks/internal/log"
)

// IsRunning reports whether the tracked process exists, is in an active
// (non-zombie) state for this platform, and was started with this handle's
// port. The command line check guards against PID reuse.
func (s *Server) IsRunning() bool {
	if s.pid <= 0 || s.port <= 0 {
		return false
	}
	return s.alive(s.pid)
}

func (s *Server) alive(pid int) bool {
	info, err := lifecycle.Inspect(pid)
	if err != nil {
		return false
	}
	if !info.Active() {
		return false
	}
	if !s.matches(info) {
		s.logger.Debug("process does not belong to this server",
			log.PIDKey, pid,
			"cmdline", info.CommandLine(),
		)
		return false
	}
	return true
}

func (s *Server) matches(info *lifecycle.ProcessInfo) bool {
	if info.Args == nil && !lifecycle.CommandLineAvailable {
		return true
	}
	return info.HasArgs(ChildFlag) && info.HasArgs("--port", strconv.Itoa(s.port))
}
