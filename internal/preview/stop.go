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
	"errors"
	"time"

	"github.com/tombee/teachbooks/internal/lifecycle"
	"github.com/tombee/teachbooks/internal/log"
)

// Stop terminates the tracked process if it is still ours, then removes the
// state file and clears the pid. A process that is already gone is not an
// error; only failing to remove the state file is reported.
func (s *Server) Stop() error {
	unlock, err := s.lock(false)
	if err != nil {
		s.logger.Warn("stopping without state lock", log.Error(err))
		unlock = func() {}
	}
	defer unlock()

	if s.pid > 0 {
		start := time.Now()
		s.record(lifecycle.Event{Event: lifecycle.EventStop, Success: true})

		err := lifecycle.Terminate(s.pid, s.stopTimeout, s.alive)
		switch {
		case errors.Is(err, lifecycle.ErrProcessNotRunning):
			s.logger.Debug("preview server already gone", log.PIDKey, s.pid)
		case err != nil:
			s.logger.Warn("failed to stop preview server", log.PIDKey, s.pid, log.Error(err))
		default:
			s.record(lifecycle.Event{
				Event:   lifecycle.EventStopSuccess,
				Success: true,
				Message: "stopped in " + time.Since(start).Round(time.Millisecond).String(),
			})
		}
	}

	s.pid = 0
	s.startedAt = time.Time{}
	return s.removeState()
}
