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

//go:build !unix

package preview

import (
	"fmt"
	"os"
	"path/filepath"
)

// lock only prepares the state directory; there is no advisory locking on
// this platform and concurrent starts are last-writer-wins.
func (s *Server) lock(create bool) (func(), error) {
	if create {
		if err := os.MkdirAll(filepath.Dir(s.lockPath()), 0700); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return func() {}, nil
}
