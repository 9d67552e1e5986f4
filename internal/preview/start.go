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
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tombee/teachbooks/internal/lifecycle"
	"github.com/tombee/teachbooks/internal/log"
)

// Start launches the server unless one is already running for the work
// directory, in which case the handle adopts that server's port and pid and
// Start succeeds. A running server that serves a different directory is not
// adopted: Start returns a RunningError (ErrAlreadyRunning) and the handle's
// servedir stays as constructed.
//
// The child is given SettleInterval to fail (typically because the port is
// taken). If it has exited by then, Start returns a LaunchError and leaves no
// state behind; otherwise the handle is saved.
func (s *Server) Start(ctx context.Context) error {
	info, err := os.Stat(s.servedir)
	if err != nil {
		return notADirectory(s.servedir, err)
	}
	if !info.IsDir() {
		return notADirectory(s.servedir, nil)
	}

	unlock, err := s.lock(true)
	if err != nil {
		return err
	}
	defer unlock()

	if s.pid != 0 && s.IsRunning() {
		return nil
	}

	adopted, err := s.adoptExisting()
	if err != nil || adopted {
		return err
	}

	if s.port == 0 {
		port, err := AllocatePort()
		if err != nil {
			return err
		}
		s.port = port
	}

	exe, err := s.executable()
	if err != nil {
		return err
	}

	s.launchID = uuid.NewString()
	s.record(lifecycle.Event{Event: lifecycle.EventStart, Success: true})
	logger := s.logger.With(log.LaunchIDKey, s.launchID, log.PortKey, s.port)

	pid, err := s.spawner.SpawnDetached(exe, s.childArgs(), s.LogPath())
	if err != nil {
		if pid > 0 {
			_ = lifecycle.SendSignal(pid, syscall.SIGKILL)
		}
		return s.launchFailed(fmt.Errorf("failed to spawn server: %w", err))
	}
	s.pid = pid
	s.startedAt = time.Now()
	logger.Debug("spawned preview server", log.PIDKey, pid)

	select {
	case <-time.After(s.settle):
	case <-ctx.Done():
		s.kill()
		return ctx.Err()
	}

	if !s.IsRunning() {
		s.kill()
		return s.launchFailed(errors.New("server exited during startup"))
	}

	if err := s.Save(); err != nil {
		s.kill()
		return fmt.Errorf("server started but state could not be saved: %w", err)
	}

	s.record(lifecycle.Event{Event: lifecycle.EventStartSuccess, Success: true})
	logger.Info("preview server running", log.PIDKey, s.pid, log.ServeDirKey, s.servedir)
	return nil
}

// adoptExisting looks for a persisted server in the same work directory.
// A live one is adopted; a dead or unreadable one is cleaned up.
func (s *Server) adoptExisting() (bool, error) {
	existing, err := Load(s.workdir, Options{Logger: s.logger})
	switch {
	case errors.Is(err, ErrStateNotFound):
		return false, nil
	case errors.Is(err, ErrCorruptState):
		s.logger.Warn("discarding unreadable server state", log.Error(err))
		return false, s.removeState()
	case err != nil:
		return false, err
	}

	if !existing.IsRunning() {
		s.logger.Info("removing stale server state", log.PIDKey, existing.pid, log.PortKey, existing.port)
		existing.record(lifecycle.Event{Event: lifecycle.EventStaleState, Success: true, Message: "process not running"})
		return false, s.removeState()
	}

	if existing.servedir != s.servedir {
		return false, &RunningError{URL: existing.URL(), ServeDir: existing.servedir}
	}
	if s.port != 0 && s.port != existing.port {
		s.logger.Warn("preview server already running on another port, keeping it",
			"requested_port", s.port, log.PortKey, existing.port)
	}

	s.port = existing.port
	s.pid = existing.pid
	s.launchID = existing.launchID
	s.startedAt = existing.startedAt
	s.record(lifecycle.Event{Event: lifecycle.EventAlreadyRunning, Success: true})
	return true, nil
}

// kill removes whatever is left of a child that failed to start.
func (s *Server) kill() {
	if s.pid > 0 {
		if err := lifecycle.SendSignal(s.pid, syscall.SIGKILL); err != nil && !errors.Is(err, lifecycle.ErrProcessNotRunning) {
			s.logger.Debug("failed to kill preview server", log.PIDKey, s.pid, log.Error(err))
		}
	}
	s.pid = 0
	s.startedAt = time.Time{}
}

func (s *Server) launchFailed(cause error) error {
	err := &LaunchError{Port: s.port, LogPath: s.LogPath(), EventPath: s.events().Path(), Cause: cause}
	s.record(lifecycle.Failure(lifecycle.EventStartFailure, err))
	s.launchID = ""
	return err
}
