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

package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/teachbooks/internal/builder"
	"github.com/tombee/teachbooks/internal/commands/shared"
)

const toc = "root: intro\nchapters:\n- file: one\n# START REMOVE-FROM-RELEASE\n- file: draft\n# END REMOVE-FROM-RELEASE\n"

func book(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdirForTest(t, t.TempDir())

	dir := filepath.Join(t.TempDir(), "book")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_config.yml"), []byte("title: Book\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_toc.yml"), []byte(toc), 0644))
	return dir
}

func run(t *testing.T, b builder.Builder, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "teachbooks", SilenceUsage: true, SilenceErrors: true}
	verbose, quiet, jsonOut, config := shared.RegisterFlagPointers()
	root.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "")
	root.PersistentFlags().BoolVarP(quiet, "quiet", "q", false, "")
	root.PersistentFlags().BoolVar(jsonOut, "json", false, "")
	root.PersistentFlags().StringVar(config, "config", "", "")
	root.AddCommand(NewCommandWithBuilder(b))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBuild_Draft(t *testing.T) {
	dir := book(t)
	rec := &builder.Recorder{}

	out, err := run(t, rec, "build", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "TeachBooks: running build with strategy 'draft'")

	assert.Equal(t, []builder.Request{
		{SourceDir: dir},
		{SourceDir: dir, Kind: builder.KindLinkcheck},
	}, rec.Requests())
	assert.NoDirExists(t, filepath.Join(dir, ".teachbooks"))
}

func TestBuild_Release(t *testing.T) {
	for _, flag := range []string{"--release", "--publish"} {
		t.Run(flag, func(t *testing.T) {
			dir := book(t)
			rec := &builder.Recorder{}

			out, err := run(t, rec, "build", flag, dir)
			require.NoError(t, err)
			assert.Contains(t, out, "strategy 'release'")
			if flag == "--publish" {
				assert.Contains(t, out, "deprecated")
			}

			configPath := filepath.Join(dir, ".teachbooks", "release", "_config.yml")
			tocPath := filepath.Join(dir, ".teachbooks", "release", "_toc.yml")
			reqs := rec.Requests()
			require.Len(t, reqs, 2)
			assert.Equal(t, builder.Request{SourceDir: dir, ConfigPath: configPath, TocPath: tocPath}, reqs[0])
			assert.Equal(t, builder.KindLinkcheck, reqs[1].Kind)

			data, err := os.ReadFile(tocPath)
			require.NoError(t, err)
			assert.NotContains(t, string(data), "draft")
		})
	}
}

func TestBuild_ProcessOnly(t *testing.T) {
	dir := book(t)
	rec := &builder.Recorder{}

	_, err := run(t, rec, "build", "--release", "--process-only", dir)
	require.NoError(t, err)
	assert.Empty(t, rec.Requests())
	assert.FileExists(t, filepath.Join(dir, ".teachbooks", "release", "_toc.yml"))
}

func TestBuild_LinkcheckDisabled(t *testing.T) {
	dir := book(t)
	cfgPath := filepath.Join(t.TempDir(), "teachbooks.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("builder:\n  linkcheck: false\n"), 0644))
	rec := &builder.Recorder{}

	_, err := run(t, rec, "--config", cfgPath, "build", dir)
	require.NoError(t, err)
	assert.Equal(t, []builder.Request{{SourceDir: dir}}, rec.Requests())
}

func TestBuild_Errors(t *testing.T) {
	t.Run("missing source", func(t *testing.T) {
		book(t)
		_, err := run(t, &builder.Recorder{}, "build", "nope")
		var exitErr *shared.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, shared.ExitInvalidInput, exitErr.Code)
	})

	t.Run("builder failure", func(t *testing.T) {
		dir := book(t)
		rec := &builder.Recorder{Err: errors.New("sphinx error")}
		_, err := run(t, rec, "build", dir)
		var exitErr *shared.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, shared.ExitFailed, exitErr.Code)
		assert.Len(t, rec.Requests(), 1, "linkcheck must not run after a failed build")
	})

	t.Run("builder not installed", func(t *testing.T) {
		dir := book(t)
		rec := &builder.Recorder{Err: builder.ErrBuilderNotFound}
		_, err := run(t, rec, "build", dir)
		var exitErr *shared.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, shared.ExitInvalidInput, exitErr.Code)
	})

	t.Run("broken release markers", func(t *testing.T) {
		dir := book(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "_config.yml"), []byte("title: [a,\n# START REMOVE-FROM-RELEASE\nb]\n# END REMOVE-FROM-RELEASE\n"), 0644))
		_, err := run(t, &builder.Recorder{}, "build", "--release", dir)
		var exitErr *shared.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, shared.ExitInvalidInput, exitErr.Code)
	})
}
