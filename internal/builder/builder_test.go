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

package builder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "draft html",
			req:  Request{SourceDir: "/book"},
			want: []string{"build", "/book"},
		},
		{
			name: "release html",
			req:  Request{SourceDir: "/book", ConfigPath: "/book/.teachbooks/release/_config.yml", TocPath: "/book/.teachbooks/release/_toc.yml"},
			want: []string{"build", "/book", "--config", "/book/.teachbooks/release/_config.yml", "--toc", "/book/.teachbooks/release/_toc.yml"},
		},
		{
			name: "linkcheck",
			req:  Request{SourceDir: "/book", Kind: KindLinkcheck},
			want: []string{"build", "/book", "--builder", "linkcheck"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildArgs(tt.req))
		})
	}
}

// fakeBuilder writes a script that records its arguments and exits with code.
func fakeBuilder(t *testing.T, code int) (string, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script builder not supported on windows")
	}
	dir := t.TempDir()
	record := filepath.Join(dir, "args.txt")
	script := filepath.Join(dir, "jupyter-book")
	content := "#!/bin/sh\necho \"$@\" >> " + record + "\necho building\nexit " + string(rune('0'+code)) + "\n"
	require.NoError(t, os.WriteFile(script, []byte(content), 0755))
	return script, record
}

func TestJupyterBook_Build(t *testing.T) {
	script, record := fakeBuilder(t, 0)
	var out bytes.Buffer
	jb := NewJupyterBook(script, nil)
	jb.Stdout = &out

	require.NoError(t, jb.Build(context.Background(), Request{SourceDir: "book", Kind: KindLinkcheck}))
	require.NoError(t, jb.Clean(context.Background(), "book"))

	data, err := os.ReadFile(record)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{"build book --builder linkcheck", "clean book"}, lines)
	assert.Contains(t, out.String(), "building")
}

func TestJupyterBook_Failure(t *testing.T) {
	script, _ := fakeBuilder(t, 2)
	jb := NewJupyterBook(script, nil)
	jb.Stdout = &bytes.Buffer{}

	err := jb.Build(context.Background(), Request{SourceDir: "book"})
	require.ErrorIs(t, err, ErrBuildFailed)
}

func TestJupyterBook_NotFound(t *testing.T) {
	jb := NewJupyterBook("teachbooks-no-such-builder", nil)
	err := jb.Build(context.Background(), Request{SourceDir: "book"})
	require.ErrorIs(t, err, ErrBuilderNotFound)
}

func TestNoop(t *testing.T) {
	var b Builder = Noop{}
	assert.NoError(t, b.Build(context.Background(), Request{}))
	assert.NoError(t, b.Clean(context.Background(), "book"))
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Build(context.Background(), Request{SourceDir: "a"}))
	require.NoError(t, r.Clean(context.Background(), "a"))
	assert.Equal(t, []Request{{SourceDir: "a"}}, r.Requests())
	assert.Equal(t, []string{"a"}, r.Cleans)
}
