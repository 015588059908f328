package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tri/internal/formatter"
	"github.com/desertthunder/tri/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CacheList lists persisted tiers, optionally for a single content hash.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	root, err := config.CacheRoot()
	if err != nil {
		return err
	}

	entries, err := tasks.ListCache(root, cmd.String("hash"))
	if err != nil {
		return fmt.Errorf("failed to list cache: %w", err)
	}

	r.logger.Debugf("found %d cached artifact(s) under %s", len(entries), root)

	format := cmd.String("format")
	if len(entries) == 0 && (format == "" || format == formatter.FormatTable) {
		return r.writePlain("%s\n", r.palette.Help("No cached artifacts under "+root))
	}
	return formatter.Write(r.output, format, formatter.CacheSheet(entries))
}
