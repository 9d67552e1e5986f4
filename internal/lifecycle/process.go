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

package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"syscall"
	"time"
)

var (
	// ErrProcessNotRunning is returned when the process does not exist.
	ErrProcessNotRunning = errors.New("process not running")

	// ErrShutdownTimeout is returned when the process doesn't exit within the timeout.
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")
)

// ProcessInfo is a snapshot of one process table entry.
type ProcessInfo struct {
	PID int

	// State is the platform's one-letter scheduler state ("" when the
	// platform gives no state, e.g. on Windows).
	State string

	// Args is the command line, nil when it could not be read.
	Args []string
}

// Inspect returns the process table entry for pid.
// It returns ErrProcessNotRunning if no such process exists.
func Inspect(pid int) (*ProcessInfo, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("%w: invalid pid %d", ErrProcessNotRunning, pid)
	}
	return inspect(pid)
}

// Active reports whether the process is alive and not a zombie, stopped or
// dead entry, using the state codes of the host platform.
func (p *ProcessInfo) Active() bool {
	if p == nil {
		return false
	}
	return activeState(p.State)
}

// CommandLine returns the arguments joined by spaces.
func (p *ProcessInfo) CommandLine() string {
	return strings.Join(p.Args, " ")
}

// HasArgs reports whether want appears in the command line as a contiguous
// run of arguments.
func (p *ProcessInfo) HasArgs(want ...string) bool {
	if len(want) == 0 {
		return true
	}
	for i := 0; i+len(want) <= len(p.Args); i++ {
		if slices.Equal(p.Args[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

// IsProcessRunning checks if a process with the given PID exists.
// Zombies still exist; use IsActive to exclude them.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix, FindProcess always succeeds, so we need to send signal 0
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// IsActive reports whether pid exists and is in an active state.
func IsActive(pid int) bool {
	info, err := Inspect(pid)
	if err != nil {
		return false
	}
	return info.Active()
}

// SendSignal sends a signal to the given process.
func SendSignal(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	if err := proc.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("%w: %d", ErrProcessNotRunning, pid)
		}
		return fmt.Errorf("failed to send signal %v to process %d: %w", sig, pid, err)
	}

	return nil
}

// WaitForExit polls alive until it reports false or timeout passes.
// A nil alive defaults to IsActive.
func WaitForExit(pid int, timeout time.Duration, alive func(int) bool) error {
	if alive == nil {
		alive = IsActive
	}
	deadline := time.Now().Add(timeout)
	interval := 50 * time.Millisecond

	for {
		if !alive(pid) {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrShutdownTimeout
		}
		time.Sleep(interval)
	}
}

// Terminate sends SIGTERM to pid and waits up to timeout for it to exit,
// then sends SIGKILL. A process that is already gone yields
// ErrProcessNotRunning.
func Terminate(pid int, timeout time.Duration, alive func(int) bool) error {
	if alive == nil {
		alive = IsActive
	}
	if !alive(pid) {
		return ErrProcessNotRunning
	}

	if err := SendSignal(pid, syscall.SIGTERM); err != nil {
		return err
	}

	if err := WaitForExit(pid, timeout, alive); err == nil {
		return nil
	}

	if err := SendSignal(pid, syscall.SIGKILL); err != nil {
		if errors.Is(err, ErrProcessNotRunning) {
			return nil
		}
		return fmt.Errorf("failed to send SIGKILL: %w", err)
	}

	if err := WaitForExit(pid, 2*time.Second, alive); err != nil {
		return fmt.Errorf("process did not die after SIGKILL: %w", err)
	}

	return nil
}
