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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Event types written to the lifecycle log.
const (
	EventStart          = "start"
	EventStartSuccess   = "start_success"
	EventStartFailure   = "start_failure"
	EventAlreadyRunning = "already_running"
	EventStaleState     = "stale_state"
	EventStop           = "stop"
	EventStopSuccess    = "stop_success"
)

// Event is one lifecycle log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	LaunchID  string    `json:"launch_id,omitempty"`
	PID       int       `json:"pid,omitempty"`
	Port      int       `json:"port,omitempty"`
	ServeDir  string    `json:"servedir,omitempty"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// EventLog appends lifecycle events to a JSON-lines file.
type EventLog struct {
	path string
}

// NewEventLog creates an event log writing to path.
func NewEventLog(path string) *EventLog {
	return &EventLog{path: path}
}

// Path returns the log file location.
func (l *EventLog) Path() string {
	return l.path
}

// Record appends event to the log, stamping the time if unset.
func (l *EventLog) Record(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lifecycle log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// Failure builds a failed event of the given type from err.
func Failure(event string, err error) Event {
	e := Event{Event: event}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
