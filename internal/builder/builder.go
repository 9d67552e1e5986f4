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

// Package builder runs the external book builder (jupyter-book) and watches
// book sources for changes.
package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/tombee/teachbooks/internal/log"
)

var (
	// ErrBuilderNotFound is returned when the builder command is not on PATH.
	ErrBuilderNotFound = errors.New("book builder not found")

	// ErrBuildFailed is returned when the builder exits non-zero.
	ErrBuildFailed = errors.New("book build failed")
)

// Kind names a jupyter-book builder. The empty Kind is the default html build.
type Kind string

const (
	KindHTML      Kind = ""
	KindLinkcheck Kind = "linkcheck"
)

// Request describes one build of a book.
type Request struct {
	SourceDir string
	// ConfigPath and TocPath override the book's own files when set.
	ConfigPath string
	TocPath    string
	Kind       Kind
}

// Builder abstracts the build step so commands can be tested without
// jupyter-book installed.
type Builder interface {
	Build(ctx context.Context, req Request) error
	Clean(ctx context.Context, sourceDir string) error
}

// JupyterBook invokes the jupyter-book command line.
type JupyterBook struct {
	Command string
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
}

// NewJupyterBook creates a builder running command with output on the
// process's stdout and stderr.
func NewJupyterBook(command string, logger *slog.Logger) *JupyterBook {
	if logger == nil {
		logger = log.Discard()
	}
	return &JupyterBook{
		Command: command,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  log.WithComponent(logger, "builder"),
	}
}

// BuildArgs returns the arguments for a build request.
func BuildArgs(req Request) []string {
	args := []string{"build", req.SourceDir}
	if req.ConfigPath != "" {
		args = append(args, "--config", req.ConfigPath)
	}
	if req.TocPath != "" {
		args = append(args, "--toc", req.TocPath)
	}
	if req.Kind != KindHTML {
		args = append(args, "--builder", string(req.Kind))
	}
	return args
}

func (j *JupyterBook) Build(ctx context.Context, req Request) error {
	return j.run(ctx, BuildArgs(req))
}

func (j *JupyterBook) Clean(ctx context.Context, sourceDir string) error {
	return j.run(ctx, []string{"clean", sourceDir})
}

func (j *JupyterBook) run(ctx context.Context, args []string) error {
	path, err := exec.LookPath(j.Command)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBuilderNotFound, j.Command, err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = j.Stdout
	cmd.Stderr = j.Stderr

	logger := j.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger.Debug("running builder", "command", path, "args", strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s %s: %w", ErrBuildFailed, j.Command, args[0], err)
	}
	return nil
}

// Noop performs no builds; useful in tests or when only pre-processing is wanted.
type Noop struct{}

func (Noop) Build(context.Context, Request) error { return nil }

func (Noop) Clean(context.Context, string) error { return nil }

// Recorder remembers the requests it receives instead of building. Err, if
// set, is returned from every call.
type Recorder struct {
	mu     sync.Mutex
	Builds []Request
	Cleans []string
	Err    error
}

func (r *Recorder) Build(_ context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Builds = append(r.Builds, req)
	return r.Err
}

func (r *Recorder) Clean(_ context.Context, sourceDir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Cleans = append(r.Cleans, sourceDir)
	return r.Err
}

// Requests returns a copy of the recorded build requests.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.Builds...)
}
