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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	pkgerrors "github.com/tombee/teachbooks/pkg/errors"
)

const stateVersion = 1

// snapshot is the on-disk form of a Server.
type snapshot struct {
	Version   int       `json:"version"`
	ServeDir  string    `json:"servedir"`
	WorkDir   string    `json:"workdir"`
	Port      int       `json:"port"`
	PID       int       `json:"pid"`
	LaunchID  string    `json:"launch_id,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
}

// Save writes the handle to StatePath, creating parent directories.
// The file is replaced by rename, so readers never see a partial write.
func (s *Server) Save() error {
	data, err := json.MarshalIndent(snapshot{
		Version:   stateVersion,
		ServeDir:  s.servedir,
		WorkDir:   s.workdir,
		Port:      s.port,
		PID:       s.pid,
		LaunchID:  s.launchID,
		StartedAt: s.startedAt,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode server state: %w", err)
	}

	path := s.StatePath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), stateFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Load reconstructs the handle persisted under workdir.
// It returns an error matching ErrStateNotFound when there is no state file
// and ErrCorruptState when the file can't be decoded. Runtime settings come
// from opts; opts.Port is ignored in favour of the persisted port.
func Load(workdir string, opts Options) (*Server, error) {
	absWork, err := filepath.Abs(workdir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work directory: %w", err)
	}
	path := filepath.Join(absWork, stateDirName, stateFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &pkgerrors.NotFoundError{Resource: stateResource, ID: path}
		}
		return nil, fmt.Errorf("failed to read server state: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptState, path, err)
	}
	if snap.ServeDir == "" || snap.WorkDir == "" || snap.Port < 1 || snap.Port > 65535 || snap.PID < 0 {
		return nil, fmt.Errorf("%w: %s: missing or invalid fields", ErrCorruptState, path)
	}

	s := &Server{
		servedir:  snap.ServeDir,
		workdir:   snap.WorkDir,
		port:      snap.Port,
		pid:       snap.PID,
		launchID:  snap.LaunchID,
		startedAt: snap.StartedAt,
	}
	s.configure(opts)
	return s, nil
}

// removeState deletes the state file; a missing file is not an error.
func (s *Server) removeState() error {
	if err := os.Remove(s.StatePath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove server state: %w", err)
	}
	return nil
}
