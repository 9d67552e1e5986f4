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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tombee/teachbooks/internal/lifecycle"
	"github.com/tombee/teachbooks/internal/log"
	pkgerrors "github.com/tombee/teachbooks/pkg/errors"
)

const (
	// ChildFlag marks an invocation of the binary as the preview server child.
	ChildFlag = "--preview-child"

	// DefaultSettleInterval is how long Start waits before checking the child.
	DefaultSettleInterval = 150 * time.Millisecond

	// DefaultStopTimeout is how long Stop waits after SIGTERM before SIGKILL.
	DefaultStopTimeout = 3 * time.Second

	stateDirName     = "server"
	stateFileName    = "state.json"
	lockFileName     = "state.lock"
	serverLogName    = "server.log"
	lifecycleLogName = "lifecycle.log"
)

// Options configures a Server. The zero value is usable.
type Options struct {
	// Port to serve on; 0 picks a free port on first start.
	Port int

	// Executable is re-executed as the server child. Default: os.Executable().
	Executable string

	// SettleInterval is the wait between spawn and the liveness check.
	SettleInterval time.Duration

	// StopTimeout bounds the graceful part of Stop.
	StopTimeout time.Duration

	// Logger receives diagnostics. Default: discard.
	Logger *slog.Logger
}

// Server is the handle of one preview server instance.
// servedir and workdir are fixed at construction.
type Server struct {
	servedir  string
	workdir   string
	port      int
	pid       int
	launchID  string
	startedAt time.Time

	exe         string
	settle      time.Duration
	stopTimeout time.Duration
	logger      *slog.Logger
	spawner     *lifecycle.Spawner
}

// Status is the presentation view of a server.
type Status struct {
	URL       string `json:"url"`
	ServeDir  string `json:"servedir"`
	Port      int    `json:"port"`
	PID       int    `json:"pid,omitempty"`
	Running   bool   `json:"running"`
	Reachable bool   `json:"reachable"`
}

// New creates a handle serving servedir with state kept under workdir.
// Both paths are made absolute. Nothing is started.
func New(servedir, workdir string, opts Options) (*Server, error) {
	if opts.Port < 0 || opts.Port > 65535 {
		return nil, &pkgerrors.ValidationError{
			Field:   "port",
			Message: fmt.Sprintf("port %d is out of range 1-65535", opts.Port),
		}
	}

	absServe, err := filepath.Abs(servedir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve serve directory: %w", err)
	}
	absWork, err := filepath.Abs(workdir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work directory: %w", err)
	}

	s := &Server{
		servedir: absServe,
		workdir:  absWork,
		port:     opts.Port,
	}
	s.configure(opts)
	return s, nil
}

func (s *Server) configure(opts Options) {
	s.exe = opts.Executable
	s.settle = opts.SettleInterval
	if s.settle <= 0 {
		s.settle = DefaultSettleInterval
	}
	s.stopTimeout = opts.StopTimeout
	if s.stopTimeout <= 0 {
		s.stopTimeout = DefaultStopTimeout
	}
	s.logger = opts.Logger
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = log.WithComponent(s.logger, "preview")
	s.spawner = lifecycle.NewSpawner()
}

// ServeDir returns the absolute directory being served.
func (s *Server) ServeDir() string { return s.servedir }

// WorkDir returns the absolute work directory.
func (s *Server) WorkDir() string { return s.workdir }

// Port returns the server port, 0 if none has been chosen yet.
func (s *Server) Port() int { return s.port }

// PID returns the tracked process id, 0 if none.
func (s *Server) PID() int { return s.pid }

// LaunchID identifies the start that spawned the tracked process.
func (s *Server) LaunchID() string { return s.launchID }

// StartedAt is when the tracked process was spawned.
func (s *Server) StartedAt() time.Time { return s.startedAt }

// StatePath is where the handle is persisted.
func (s *Server) StatePath() string {
	return filepath.Join(s.workdir, stateDirName, stateFileName)
}

// LogPath is where the child's output goes.
func (s *Server) LogPath() string {
	return filepath.Join(s.workdir, stateDirName, serverLogName)
}

func (s *Server) lockPath() string {
	return filepath.Join(s.workdir, stateDirName, lockFileName)
}

func (s *Server) events() *lifecycle.EventLog {
	return lifecycle.NewEventLog(filepath.Join(s.workdir, stateDirName, lifecycleLogName))
}

// record writes a lifecycle event; failures only reach the debug log.
func (s *Server) record(e lifecycle.Event) {
	if e.LaunchID == "" {
		e.LaunchID = s.launchID
	}
	if e.PID == 0 {
		e.PID = s.pid
	}
	if e.Port == 0 {
		e.Port = s.port
	}
	if e.ServeDir == "" {
		e.ServeDir = s.servedir
	}
	if err := s.events().Record(e); err != nil {
		s.logger.Debug("failed to write lifecycle log", log.Error(err))
	}
}

// URL is the address the server answers on.
func (s *Server) URL() string {
	return "http://localhost:" + strconv.Itoa(s.port)
}

// Describe returns URL and serve directory. It has no side effects.
func (s *Server) Describe() Status {
	return Status{
		URL:      s.URL(),
		ServeDir: s.servedir,
		Port:     s.port,
		PID:      s.pid,
	}
}

// Status is Describe plus a liveness check and an HTTP probe.
func (s *Server) Status(ctx context.Context) Status {
	st := s.Describe()
	st.Running = s.IsRunning()
	if st.Running {
		st.Reachable = lifecycle.NewHealthChecker(s.URL() + "/").Check(ctx).Reachable
	}
	return st
}

func (s *Server) childArgs() []string {
	return []string{ChildFlag, "--port", strconv.Itoa(s.port), "--dir", s.servedir}
}

func (s *Server) executable() (string, error) {
	if s.exe != "" {
		return s.exe, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return exe, nil
}
