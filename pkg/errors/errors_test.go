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

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError_Is(t *testing.T) {
	err := fmt.Errorf("loading: %w", &NotFoundError{Resource: "server state", ID: "/tmp/work"})

	if !errors.Is(err, &NotFoundError{}) {
		t.Error("errors.Is(err, &NotFoundError{}) = false, want true")
	}
	if !errors.Is(err, &NotFoundError{Resource: "server state"}) {
		t.Error("errors.Is with matching resource = false, want true")
	}
	if errors.Is(err, &NotFoundError{Resource: "book"}) {
		t.Error("errors.Is with different resource = true, want false")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "with field",
			err:  &ValidationError{Field: "--dir", Message: "not a directory"},
			want: "validation failed on --dir: not a directory",
		},
		{
			name: "without field",
			err:  &ValidationError{Message: "bad input"},
			want: "validation failed: bad input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAsUserVisible(t *testing.T) {
	cause := errors.New("yaml: line 3: did not find expected key")
	err := Wrap(&ValidationError{Field: "_toc.yml", Message: "invalid YAML", Hint: "check markers", Cause: cause}, "preparing release")

	uve, ok := AsUserVisible(err)
	if !ok {
		t.Fatal("AsUserVisible() ok = false, want true")
	}
	if uve.Suggestion() != "check markers" {
		t.Errorf("Suggestion() = %q, want %q", uve.Suggestion(), "check markers")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable through errors.Is")
	}

	if _, ok := AsUserVisible(errors.New("plain")); ok {
		t.Error("AsUserVisible(plain error) ok = true, want false")
	}
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestConfigError(t *testing.T) {
	cause := errors.New("boom")
	err := &ConfigError{Key: "preview.port", Reason: "out of range", Cause: cause}
	if err.Error() != "config error at preview.port: out of range" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("ConfigError does not unwrap to cause")
	}
}
