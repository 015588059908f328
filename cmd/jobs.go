package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tri/internal/formatter"
	"github.com/desertthunder/tri/internal/models"
	"github.com/desertthunder/tri/internal/repositories"
	"github.com/desertthunder/tri/internal/shared"
	"github.com/urfave/cli/v3"
)

// JobsList prints recorded download requests from the ledger.
func (r *Runner) JobsList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if config.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty, the request ledger is disabled", shared.ErrMissingConfig)
	}

	state := cmd.String("state")
	if state != "" && !models.JobState(state).Valid() {
		return fmt.Errorf("%w: unknown job state %q", shared.ErrInvalidRequest, state)
	}

	db, err := shared.OpenLedger(config.Database)
	if err != nil {
		return fmt.Errorf("failed to open request ledger: %w", err)
	}
	defer db.Close()

	jobs, err := repositories.NewJobRepository(db).List(map[string]any{
		"state": state,
		"hash":  cmd.String("hash"),
		"limit": cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if len(jobs) == 0 && (format == "" || format == formatter.FormatTable) {
		return r.writePlain("%s\n", r.palette.Help("No recorded downloads"))
	}
	return formatter.Write(r.output, format, formatter.JobSheet(jobs))
}
