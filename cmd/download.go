package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/tri/internal/formatter"
	"github.com/desertthunder/tri/internal/models"
	"github.com/desertthunder/tri/internal/shared"
	"github.com/desertthunder/tri/internal/tasks"
	"github.com/urfave/cli/v3"
)

// downloadResult is the JSON shape of a finished download.
type downloadResult struct {
	ID        string                     `json:"id"`
	State     string                     `json:"state"`
	Track     string                     `json:"track,omitempty"`
	Tiers     []models.Tier              `json:"tiers"`
	Partial   bool                       `json:"partial"`
	Artifacts []models.PersistedArtifact `json:"artifacts"`
	Error     string                     `json:"error,omitempty"`
}

// Download runs one request in-process, printing progress as it goes.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	req := tasks.Request{
		URL:   cmd.String("url"),
		Title: cmd.String("title"),
		Hash:  cmd.String("hash"),
		Token: cmd.String("token"),
	}
	if req.URL == "" && req.Title == "" {
		return fmt.Errorf("%w: either --url or --title must be provided", shared.ErrMissingArgument)
	}
	if req.Token == "" {
		return fmt.Errorf("%w: --token or TRI_TOKEN is required", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	p, err := r.buildPipeline(config, cmd.Duration("timeout"))
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	asJSON := cmd.Bool("json")
	progress := make(chan tasks.ProgressUpdate, 16)
	finished := make(chan struct{})
	done := make(chan struct{})
	// stop at the terminal update; anything after it comes from abandoned work
	go func() {
		defer close(done)
		show := func(u tasks.ProgressUpdate) bool {
			if !asJSON {
				r.writePlain("%s\n", r.palette.Progress(u))
			}
			return u.State.Terminal()
		}
		for {
			select {
			case u := <-progress:
				if show(u) {
					return
				}
			case <-finished:
				for {
					select {
					case u := <-progress:
						if show(u) {
							return
						}
					default:
						return
					}
				}
			}
		}
	}()

	out, runErr := p.orchestrator.Run(ctx, progress, req)
	close(finished)
	<-done

	if asJSON {
		result := downloadResult{
			ID:        out.ID,
			State:     out.State.String(),
			Tiers:     out.Tiers(),
			Partial:   out.Partial,
			Artifacts: out.Artifacts,
		}
		if out.Track.ID != "" {
			result.Track = out.Track.URI()
		}
		if out.Err != nil {
			result.Error = out.Err.Error()
		}
		if err := r.writeJSON(result, true); err != nil {
			return err
		}
	} else if len(out.Artifacts) > 0 {
		if err := formatter.Write(r.output, formatter.FormatTable, formatter.ArtifactSheet(out.Artifacts)); err != nil {
			return err
		}
		for _, f := range out.Failed {
			r.writePlain("%s\n", r.palette.Warn(fmt.Sprintf("%s not saved: %v", f.Tier, f.Err)))
		}
	}

	return runErr
}
