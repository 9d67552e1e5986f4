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

// Package preview manages the local preview server: a detached static file
// server started by one command invocation and found again by later ones.
//
// There is no daemon holding the server's identity in memory. A Server is
// persisted to <workdir>/server/state.json when a start succeeds, and any
// later invocation reconstructs it with Load and checks it against the OS
// process table with IsRunning. The served process is the teachbooks binary
// itself, re-executed with --preview-child.
//
//	srv, err := preview.New("book/_build/html", "book/.teachbooks", preview.Options{})
//	if err := srv.Start(ctx); err != nil {
//	    // ErrNotADirectory, ErrAlreadyRunning or ErrLaunchFailed
//	}
//	fmt.Println(srv.URL())
//
//	srv, err = preview.Load("book/.teachbooks", preview.Options{})
//	if errors.Is(err, preview.ErrStateNotFound) {
//	    // nothing was started, or it was stopped
//	}
//	_ = srv.Stop()
package preview
