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

package shared

import (
	"log/slog"
	"os"

	"github.com/tombee/teachbooks/internal/config"
	"github.com/tombee/teachbooks/internal/log"
)

// LoadConfig loads configuration from --config, ./teachbooks.yaml or the
// user config file, plus environment overrides.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(configFlag))
	if err != nil {
		return nil, NewInvalidInputError("invalid configuration", err)
	}
	return cfg, nil
}

// NewLogger builds the diagnostic logger for a command. --verbose and
// TEACHBOOKS_DEBUG raise the level to debug.
func NewLogger(cfg *config.Config) *slog.Logger {
	lc := log.DefaultConfig()
	if cfg != nil {
		lc.Level = cfg.Log.Level
		lc.Format = log.Format(cfg.Log.Format)
		lc.AddSource = cfg.Log.AddSource
	}
	if debug := os.Getenv("TEACHBOOKS_DEBUG"); debug == "1" || debug == "true" {
		lc.Level = "debug"
		lc.AddSource = true
	}
	if GetVerbose() {
		lc.Level = "debug"
	}
	return log.New(lc)
}
