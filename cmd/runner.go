package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tri/internal/repositories"
	"github.com/desertthunder/tri/internal/services"
	"github.com/desertthunder/tri/internal/shared"
	"github.com/desertthunder/tri/internal/tasks"
	"github.com/desertthunder/tri/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	palette    *ui.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    ui.Styles,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, downloadCommand, cacheCommand, jobsCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns the config at path when that file exists, and the runner's config otherwise.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	if path == "" {
		return r.config, nil
	}
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return r.config, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return config, nil
}

// pipeline is everything a download needs, built from one config.
type pipeline struct {
	orchestrator *tasks.Orchestrator
	persister    *tasks.Persister
	ledger       *sql.DB
}

func (p *pipeline) Close() {
	p.persister.Close()
	if p.ledger != nil {
		p.ledger.Close()
	}
}

// buildPipeline wires search, gateway, persistence pool and the optional ledger from config.
// A positive timeout replaces server.request_timeout.
func (r *Runner) buildPipeline(config *shared.Config, timeout time.Duration) (*pipeline, error) {
	root, err := config.CacheRoot()
	if err != nil {
		return nil, err
	}

	ledger, err := shared.OpenLedger(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open request ledger: %w", err)
	}

	if timeout <= 0 {
		timeout = config.Server.Timeout()
	}

	opts := tasks.OrchestratorOpts{
		Timeout: timeout,
		Logger:  r.logger,
	}
	if ledger != nil {
		opts.Recorder = repositories.NewJobRepository(ledger)
		r.logger.Debug("request ledger enabled", "path", config.Database.Path)
	}

	search := services.NewSpotifyService(config.Spotify.APIURL, r.httpClient, config.Spotify.RateLimit)
	backend := services.NewGatewayBackend(config.Backend.URL, r.httpClient)
	persister := tasks.NewPersister(root, config.Cache.Workers, r.logger)

	return &pipeline{
		orchestrator: tasks.NewOrchestrator(tasks.NewResolver(search), backend, persister, opts),
		persister:    persister,
		ledger:       ledger,
	}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
