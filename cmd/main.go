package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tri/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := startupConfig(logger, "config.toml", os.LookupEnv)

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// startupConfig reads path when it exists, then applies the environment.
//
// Problems are logged rather than fatal so setup commands still run against a
// broken config. A rejected override never discards the others.
func startupConfig(logger *log.Logger, path string, lookup func(string) (string, bool)) *shared.Config {
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if parsed, err := shared.ParseConfig(path); err == nil {
			config = parsed
		} else {
			logger.Warn("ignoring "+path, "error", err)
		}
	}

	if err := config.ApplyEnv(lookup); err != nil {
		logger.Warn("environment override rejected", "error", err)
	}
	if err := config.Validate(); err != nil {
		logger.Warn("configuration is invalid", "error", err)
	}
	return config
}
