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

/*
Package lifecycle provides the OS process primitives behind the local preview
server: detached spawning, signalling, process-table inspection, an HTTP
reachability probe and an append-only lifecycle event log.

# Process Spawning

Detached processes run in their own session with stdin closed and output
redirected to a log file, so the spawning command can exit while the child
keeps running:

	spawner := lifecycle.NewSpawner()
	pid, err := spawner.SpawnDetached("/path/to/teachbooks", args, logPath)

# Process Inspection

Inspect reads the process table entry for a PID. How an idle server is
reported differs per platform (Linux shows a sleeping "S", macOS shows "I"
once a process has slept for a while), so Active hides those differences:

	info, err := lifecycle.Inspect(pid)
	if err == nil && info.Active() && info.HasArgs("--preview-child") {
	    // pid is a live preview server
	}

# Termination

Terminate sends SIGTERM, waits for the process to leave the active state and
escalates to SIGKILL after the timeout. Zombies count as exited.

# Lifecycle Logging

Start and stop events are appended to a JSON-lines log for later inspection:

	events := lifecycle.NewEventLog("/path/to/lifecycle.log")
	events.Record(lifecycle.Event{Event: lifecycle.EventStart, PID: pid})
*/
package lifecycle
