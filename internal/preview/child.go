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

package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/tombee/teachbooks/internal/log"
)

const childShutdownTimeout = 5 * time.Second

// ChildConfig is what the server child is told on its command line.
type ChildConfig struct {
	Port int
	Dir  string
}

// IsChildInvocation reports whether args (without the program name) ask
// for the server child.
func IsChildInvocation(args []string) bool {
	return slices.Contains(args, ChildFlag)
}

// ParseChildArgs parses the child command line produced by Start.
func ParseChildArgs(args []string) (*ChildConfig, error) {
	fs := pflag.NewFlagSet("preview-child", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)

	var cfg ChildConfig
	fs.Bool(ChildFlag[2:], false, "run as preview server child")
	fs.IntVar(&cfg.Port, "port", 0, "port to listen on")
	fs.StringVar(&cfg.Dir, "dir", "", "directory to serve")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("invalid preview child arguments: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid preview child port %d", cfg.Port)
	}
	if cfg.Dir == "" {
		return nil, errors.New("preview child requires --dir")
	}
	return &cfg, nil
}

// RunChild serves the directory named in args until ctx is cancelled or the
// process receives SIGTERM or an interrupt. It fails immediately if the port
// is already bound, which is what Start detects as a failed launch.
func RunChild(ctx context.Context, args []string, logger *slog.Logger) error {
	cfg, err := ParseChildArgs(args)
	if err != nil {
		return err
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = log.WithComponent(logger, "preview-child")

	info, err := os.Stat(cfg.Dir)
	if err != nil || !info.IsDir() {
		return notADirectory(cfg.Dir, err)
	}

	addr := net.JoinHostPort("localhost", strconv.Itoa(cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           log.HTTPMiddleware(logger, noCache(http.FileServer(http.Dir(cfg.Dir)))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("serving", log.PortKey, cfg.Port, log.ServeDirKey, cfg.Dir, log.PIDKey, os.Getpid())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), childShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// noCache keeps browsers from showing a stale page after a rebuild.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
}
