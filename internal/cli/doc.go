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

/*
Package cli provides the root command for the teachbooks CLI.

It creates the main Cobra command and handles global concerns like version
information, persistent flags and exit codes. Individual commands are
implemented in the internal/commands subpackages.

# Command Tree

	teachbooks
	├── build         Pre-process and build a book
	├── clean         Stop the preview server and clean build output
	├── serve         Start the preview server
	│   ├── stop      Stop it
	│   ├── status    Show its address and liveness
	│   └── path      Serve another book
	└── version       Show version

# Global Flags

	-v, --verbose   debug logging on stderr
	-q, --quiet     suppress informational output
	    --json      machine-readable output where supported
	    --config    config file (default: ./teachbooks.yaml, then ~/.config/teachbooks/config.yaml)

# Exit Codes

	0  success
	1  general failure
	2  invalid input: missing paths, bad configuration or YAML
	3  the preview server failed to launch
*/
package cli
