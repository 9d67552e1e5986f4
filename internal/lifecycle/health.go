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

package lifecycle

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HealthChecker probes an HTTP endpoint.
type HealthChecker struct {
	endpoint string
	client   *http.Client
}

// HealthCheckResult contains the result of a single probe.
type HealthCheckResult struct {
	// Reachable is true when the endpoint answered with a non-5xx status.
	Reachable    bool
	StatusCode   int
	ResponseTime time.Duration
	Error        error
}

// NewHealthChecker creates a new checker for the given endpoint.
func NewHealthChecker(endpoint string) *HealthChecker {
	return &HealthChecker{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 2 * time.Second,
			// A redirect is an answer; don't follow it.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// WithHTTPClient sets a custom HTTP client.
func (h *HealthChecker) WithHTTPClient(client *http.Client) *HealthChecker {
	h.client = client
	return h
}

// Check performs a single HEAD request against the endpoint.
func (h *HealthChecker) Check(ctx context.Context) *HealthCheckResult {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, h.endpoint, nil)
	if err != nil {
		return &HealthCheckResult{Error: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := h.client.Do(req)
	responseTime := time.Since(start)
	if err != nil {
		return &HealthCheckResult{
			ResponseTime: responseTime,
			Error:        fmt.Errorf("request failed: %w", err),
		}
	}
	defer resp.Body.Close()

	return &HealthCheckResult{
		Reachable:    resp.StatusCode < 500,
		StatusCode:   resp.StatusCode,
		ResponseTime: responseTime,
	}
}
