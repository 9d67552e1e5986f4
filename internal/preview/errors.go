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
	"fmt"

	pkgerrors "github.com/tombee/teachbooks/pkg/errors"
)

var (
	// ErrNotADirectory is returned by Start when the serve directory is
	// missing or not a directory. Nothing is spawned.
	ErrNotADirectory = errors.New("serve directory is not a directory")

	// ErrLaunchFailed is returned by Start when the child process exited
	// within the settle interval.
	ErrLaunchFailed = errors.New("preview server failed to launch")

	// ErrAlreadyRunning is returned by Start when a server for the same work
	// directory is running but serves a different directory.
	ErrAlreadyRunning = errors.New("preview server already running")

	// ErrStateNotFound matches the error Load returns when no state file exists.
	ErrStateNotFound = &pkgerrors.NotFoundError{Resource: stateResource}

	// ErrCorruptState is returned by Load when the state file can't be decoded.
	ErrCorruptState = errors.New("preview server state is corrupt")
)

const stateResource = "preview server state"

// LaunchError describes a child process that did not survive startup.
type LaunchError struct {
	Port      int
	LogPath   string
	EventPath string
	Cause     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("%v on port %d: %v", ErrLaunchFailed, e.Port, e.Cause)
}

func (e *LaunchError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrLaunchFailed) hold for every LaunchError.
func (e *LaunchError) Is(target error) bool { return target == ErrLaunchFailed }

func (e *LaunchError) IsUserVisible() bool { return true }

func (e *LaunchError) UserMessage() string {
	return fmt.Sprintf("the preview server on port %d stopped right after starting", e.Port)
}

func (e *LaunchError) Suggestion() string {
	s := fmt.Sprintf("Another server is probably already running on port %d; pick another one with --port.", e.Port)
	if e.LogPath != "" {
		s += " Server output is in " + e.LogPath + "."
	}
	if e.EventPath != "" {
		s += " Launch history is in " + e.EventPath + "."
	}
	return s
}

// RunningError is returned when a different server already owns the work directory.
type RunningError struct {
	URL      string
	ServeDir string
}

func (e *RunningError) Error() string {
	return fmt.Sprintf("%v at %s serving %s", ErrAlreadyRunning, e.URL, e.ServeDir)
}

func (e *RunningError) Is(target error) bool { return target == ErrAlreadyRunning }

func (e *RunningError) IsUserVisible() bool { return true }

func (e *RunningError) UserMessage() string {
	return fmt.Sprintf("a preview server is already running at %s for %s", e.URL, e.ServeDir)
}

func (e *RunningError) Suggestion() string {
	return "Stop it first with 'teachbooks serve stop', or move it with 'teachbooks serve path'."
}

func notADirectory(dir string, cause error) error {
	if cause == nil {
		cause = ErrNotADirectory
	} else {
		cause = fmt.Errorf("%w: %w", ErrNotADirectory, cause)
	}
	return &pkgerrors.ValidationError{
		Field:   "servedir",
		Message: fmt.Sprintf("%s is not a directory", dir),
		Hint:    "Build the book first with 'teachbooks build', or point --dir at an existing directory.",
		Cause:   cause,
	}
}
