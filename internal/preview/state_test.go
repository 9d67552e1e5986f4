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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/tombee/teachbooks/pkg/errors"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	work := filepath.Join(t.TempDir(), "nested", "work")
	s, err := New(t.TempDir(), work, Options{Port: 8765})
	require.NoError(t, err)
	s.pid = 4242
	s.launchID = "launch-1"
	s.startedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save())

	loaded, err := Load(work, Options{Port: 9999})
	require.NoError(t, err)
	assert.Equal(t, s.ServeDir(), loaded.ServeDir())
	assert.Equal(t, s.WorkDir(), loaded.WorkDir())
	assert.Equal(t, 8765, loaded.Port(), "persisted port wins over options")
	assert.Equal(t, 4242, loaded.PID())
	assert.Equal(t, "launch-1", loaded.LaunchID())
	assert.True(t, s.StartedAt().Equal(loaded.StartedAt()))
	assert.Equal(t, s.StatePath(), loaded.StatePath())

	entries, err := os.ReadDir(filepath.Dir(s.StatePath()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")

	info, err := os.Stat(filepath.Dir(s.StatePath()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestSave_Overwrites(t *testing.T) {
	work := t.TempDir()
	s, err := New(t.TempDir(), work, Options{Port: 8000})
	require.NoError(t, err)
	require.NoError(t, s.Save())

	s.port = 8001
	require.NoError(t, s.Save())

	loaded, err := Load(work, Options{})
	require.NoError(t, err)
	assert.Equal(t, 8001, loaded.Port())
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(t.TempDir(), Options{})
	require.ErrorIs(t, err, ErrStateNotFound)

	var nf *pkgerrors.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, stateResource, nf.Resource)
	assert.Contains(t, nf.ID, "state.json")
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{pid: 12"},
		{"empty object", "{}"},
		{"port out of range", `{"servedir":"/a","workdir":"/b","port":70000,"pid":1}`},
		{"negative pid", `{"servedir":"/a","workdir":"/b","port":8000,"pid":-4}`},
		{"missing servedir", `{"workdir":"/b","port":8000,"pid":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work := t.TempDir()
			path := filepath.Join(work, "server", "state.json")
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := Load(work, Options{})
			require.ErrorIs(t, err, ErrCorruptState)
			assert.NotErrorIs(t, err, ErrStateNotFound)
		})
	}
}

func TestStart_DiscardsCorruptState(t *testing.T) {
	work := t.TempDir()
	path := filepath.Join(work, "server", "state.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0600))

	s := newServer(t, bookDir(t, "x"), work, 0)
	startServer(t, s)
	assert.True(t, s.IsRunning())

	loaded, err := Load(work, Options{})
	require.NoError(t, err)
	assert.Equal(t, s.PID(), loaded.PID())
}

func TestStop_WithoutProcess(t *testing.T) {
	work := t.TempDir()
	s, err := New(t.TempDir(), work, Options{Port: 8000})
	require.NoError(t, err)
	s.pid = deadPID(t)
	require.NoError(t, s.Save())

	require.NoError(t, s.Stop())
	assert.Zero(t, s.PID())
	assert.NoFileExists(t, s.StatePath())

	_, err = Load(work, Options{})
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestStop_MissingWorkDir(t *testing.T) {
	s, err := New(t.TempDir(), filepath.Join(t.TempDir(), "never-created"), Options{})
	require.NoError(t, err)
	require.NoError(t, s.Stop())
	assert.NoDirExists(t, s.WorkDir())
}
