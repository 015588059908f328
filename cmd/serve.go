package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/desertthunder/tri/internal/server"
	"github.com/gofrs/flock"
	"github.com/urfave/cli/v3"
)

const lockFileName = ".tri.lock"

// Serve runs the HTTP ingress until interrupted.
//
// With server.lock set, an exclusive lock on the cache root keeps a second
// instance from writing into the same cache.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	loaded, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	config := *loaded
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if cmd.IsSet("port") {
		config.Server.Port = cmd.Int("port")
	}

	root, err := config.CacheRoot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create cache root: %w", err)
	}

	if config.Server.Lock {
		lock, err := lockCache(root)
		if err != nil {
			return err
		}
		defer lock.Unlock()
	}

	p, err := r.buildPipeline(&config, 0)
	if err != nil {
		return err
	}
	defer p.Close()

	router, err := server.NewRouter(p.orchestrator, config.Server, r.logger)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("serving downloads", "cache", root, "backend", config.Backend.URL, "timeout", config.Server.Timeout())
	return server.New(config.Server.Addr(), router, r.logger).Start(ctx)
}

// lockCache takes the cache root's lock file without waiting.
func lockCache(root string) (*flock.Flock, error) {
	path := filepath.Join(root, lockFileName)
	lock := flock.New(path)

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another tri instance is already serving %s", root)
	}
	return lock, nil
}
