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
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsChildInvocation(t *testing.T) {
	assert.True(t, IsChildInvocation([]string{"--preview-child", "--port", "8000", "--dir", "."}))
	assert.False(t, IsChildInvocation([]string{"serve", "--port", "8000"}))
	assert.False(t, IsChildInvocation(nil))
}

func TestParseChildArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    *ChildConfig
		wantErr bool
	}{
		{
			name: "valid",
			args: []string{"--preview-child", "--port", "8000", "--dir", "/srv/book"},
			want: &ChildConfig{Port: 8000, Dir: "/srv/book"},
		},
		{
			name: "unknown flags ignored",
			args: []string{"--preview-child", "--port=8001", "--dir=/b", "--verbose"},
			want: &ChildConfig{Port: 8001, Dir: "/b"},
		},
		{name: "missing port", args: []string{"--preview-child", "--dir", "/b"}, wantErr: true},
		{name: "port out of range", args: []string{"--preview-child", "--port", "70000", "--dir", "/b"}, wantErr: true},
		{name: "missing dir", args: []string{"--preview-child", "--port", "8000"}, wantErr: true},
		{name: "non numeric port", args: []string{"--preview-child", "--port", "http", "--dir", "/b"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChildArgs(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunChild(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>book</h1>"), 0644))

	port, err := AllocatePort()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunChild(ctx, []string{ChildFlag, "--port", strconv.Itoa(port), "--dir", dir}, nil)
	}()

	url := "http://localhost:" + strconv.Itoa(port) + "/"
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(url)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	resp, err = http.Get(url + "missing.html")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("RunChild did not return after cancel")
	}
}

func TestRunChild_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	err = RunChild(context.Background(), []string{ChildFlag, "--port", strconv.Itoa(port), "--dir", t.TempDir()}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestRunChild_NotADirectory(t *testing.T) {
	err := RunChild(context.Background(), []string{ChildFlag, "--port", "8000", "--dir", filepath.Join(t.TempDir(), "nope")}, nil)
	require.ErrorIs(t, err, ErrNotADirectory)
}
