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

//go:build unix

package lifecycle

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	// Setsid implies a new process group; setting Setpgid as well makes
	// setpgid(2) fail with EPERM on session leaders.
	return &syscall.SysProcAttr{Setsid: true}
}
