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

// Package release prepares a book for a release build by stripping the
// sections marked for removal from its _config.yml and _toc.yml.
//
// Marked sections look like this and may appear any number of times, at any
// indentation:
//
//	- file: chapter_1/intro
//	# START REMOVE-FROM-RELEASE
//	- file: chapter_1/draft_notes
//	# END REMOVE-FROM-RELEASE
//
// The older REMOVE-FROM-PUBLISH markers are treated the same way.
package release

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	pkgerrors "github.com/tombee/teachbooks/pkg/errors"
)

// Strategy selects which version of the book is built.
type Strategy string

const (
	StrategyDraft   Strategy = "draft"
	StrategyRelease Strategy = "release"
)

// StrategyFor maps the build flags to a strategy. publish is the deprecated
// spelling of release.
func StrategyFor(release, publish bool) Strategy {
	if release || publish {
		return StrategyRelease
	}
	return StrategyDraft
}

const (
	// WorkDirName is the hidden directory inside the book for generated files.
	WorkDirName = ".teachbooks"

	configFile = "_config.yml"
	tocFile    = "_toc.yml"
	extDir     = "_ext"
)

var removeBlock = regexp.MustCompile(`(?s)# START REMOVE-FROM-(?:PUBLISH|RELEASE).*?# END REMOVE-FROM-(?:PUBLISH|RELEASE)`)

// Strip removes every marked section from src. Text outside the markers,
// including the rest of the marker lines' indentation, is kept as is.
func Strip(src []byte) []byte {
	return removeBlock.ReplaceAll(src, nil)
}

// CleanYAML writes src to dst without the marked sections. The result must
// still be valid YAML.
func CleanYAML(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	out := Strip(data)

	var doc any
	if err := yaml.Unmarshal(out, &doc); err != nil {
		return &pkgerrors.ValidationError{
			Field:   filepath.Base(src),
			Message: fmt.Sprintf("%s is not valid YAML after removing release sections", src),
			Hint:    "Check that every START REMOVE-FROM-RELEASE marker has a matching END marker.",
			Cause:   err,
		}
	}

	if err := os.WriteFile(dst, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// Dir returns the directory Prepare writes to for sourceDir.
func Dir(sourceDir string) string {
	return filepath.Join(sourceDir, WorkDirName, "release")
}

// Prepare writes the cleaned _config.yml and _toc.yml of the book in
// sourceDir to its release directory and returns their paths. Sphinx
// extensions in _ext are copied alongside, since jupyter-book resolves them
// relative to the config file.
func Prepare(sourceDir string) (configPath, tocPath string, err error) {
	dir := Dir(sourceDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create release directory: %w", err)
	}

	configPath = filepath.Join(dir, configFile)
	tocPath = filepath.Join(dir, tocFile)

	if err := CleanYAML(filepath.Join(sourceDir, configFile), configPath); err != nil {
		return "", "", pkgerrors.Wrap(err, "preparing release config")
	}
	if err := CleanYAML(filepath.Join(sourceDir, tocFile), tocPath); err != nil {
		return "", "", pkgerrors.Wrap(err, "preparing release table of contents")
	}

	if err := copyTree(filepath.Join(sourceDir, extDir), filepath.Join(dir, extDir)); err != nil {
		return "", "", pkgerrors.Wrap(err, "copying extensions")
	}

	return configPath, tocPath, nil
}

// copyTree copies every regular file under src to dst, overwriting what is
// there. A missing src is not an error.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	if !info.IsDir() {
		return nil
	}

	files, err := doublestar.Glob(os.DirFS(src), "**", doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", src, err)
	}

	for _, rel := range files {
		from := filepath.Join(src, filepath.FromSlash(rel))
		to := filepath.Join(dst, filepath.FromSlash(rel))
		if err := copyFile(from, to); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(from, to string) error {
	data, err := os.ReadFile(from)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", from, err)
	}
	info, err := os.Stat(from)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", from, err)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(to), err)
	}
	if err := os.WriteFile(to, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", to, err)
	}
	return nil
}
