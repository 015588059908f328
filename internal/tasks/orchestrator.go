package tasks

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tri/internal/models"
	"github.com/desertthunder/tri/internal/services"
	"github.com/desertthunder/tri/internal/shared"
)

// DefaultTimeout bounds a whole request, resolution through persistence.
const DefaultTimeout = 300 * time.Second

// Request is one download: where the track comes from, where it goes, and whose token to use.
type Request struct {
	URL   string // spotify:track: URI or open.spotify.com link; takes precedence over Title
	Title string // free-text search used when URL is empty
	Hash  string // content hash naming the cache directory
	Token string // caller's access token for search and the backend session
}

// TierFailure records a tier that was selected but could not be written.
type TierFailure struct {
	Tier models.Tier
	Err  error
}

// Outcome is the result of [Orchestrator.Run].
type Outcome struct {
	ID        string
	State     State
	Track     models.TrackReference
	Artifacts []models.PersistedArtifact // written tiers, in best, medium, low order
	Failed    []TierFailure
	Partial   bool // at least one tier written and at least one failed
	Err       error
}

// Tiers lists the tiers that were written.
func (o *Outcome) Tiers() []models.Tier {
	tiers := make([]models.Tier, len(o.Artifacts))
	for i, a := range o.Artifacts {
		tiers[i] = a.Tier
	}
	return tiers
}

// JobRecorder stores a ledger row per request. Implemented by repositories.JobRepository.
type JobRecorder interface {
	Create(job *models.DownloadJob) error
	Update(job *models.DownloadJob) error
}

// OrchestratorOpts configures an [Orchestrator].
type OrchestratorOpts struct {
	Timeout  time.Duration // per request deadline (default: 300s)
	Policies []TierPolicy  // tier selection order (default: [DefaultPolicies])
	Recorder JobRecorder   // optional request ledger
	Logger   *log.Logger
}

// Orchestrator drives a request from resolution to persisted tiers.
type Orchestrator struct {
	resolver  *Resolver
	backend   services.Backend
	persister *Persister
	policies  []TierPolicy
	timeout   time.Duration
	recorder  JobRecorder
	logger    *log.Logger
}

// NewOrchestrator wires the resolver, backend and persistence pool together.
func NewOrchestrator(resolver *Resolver, backend services.Backend, persister *Persister, opts OrchestratorOpts) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if len(opts.Policies) == 0 {
		opts.Policies = DefaultPolicies()
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	return &Orchestrator{
		resolver:  resolver,
		backend:   backend,
		persister: persister,
		policies:  opts.Policies,
		timeout:   opts.Timeout,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
	}
}

// Run executes req under the configured timeout and reports a terminal [Outcome].
//
// The work runs on its own goroutine: a panic anywhere in it becomes
// [shared.ErrInternalFault] and an expired deadline becomes [shared.ErrTimeout].
// Work still in flight at the deadline is abandoned. The returned error is
// Outcome.Err.
func (o *Orchestrator) Run(ctx context.Context, progress chan<- ProgressUpdate, req Request) (*Outcome, error) {
	id := shared.GenerateID()
	logger := shared.WithLogger(o.logger, "download_id", id)

	if err := models.ValidateContentHash(req.Hash); err != nil {
		out := &Outcome{ID: id, State: CompletedErr, Err: fmt.Errorf("%w: %v", shared.ErrInvalidHash, err)}
		sendProgress(progress, completedUpdate(out))
		return out, out.Err
	}

	job := o.begin(id, req.Hash, logger)

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan *Outcome, 1)
	go func() {
		out := &Outcome{ID: id, State: Idle}
		defer func() {
			if r := recover(); r != nil {
				logger.Error("download crashed", "panic", r, "stack", string(debug.Stack()))
				out.State = CompletedErr
				out.Err = fmt.Errorf("%w: %v", shared.ErrInternalFault, r)
			}
			done <- out
		}()
		o.run(runCtx, progress, req, out, logger)
	}()

	var out *Outcome
	select {
	case out = <-done:
	case <-runCtx.Done():
		select {
		case out = <-done:
		default:
			out = &Outcome{ID: id, State: TimedOut}
			if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
				out.Err = fmt.Errorf("%w: no result after %s", shared.ErrTimeout, o.timeout)
			} else {
				out.State = CompletedErr
				out.Err = fmt.Errorf("request canceled: %w", runCtx.Err())
			}
		}
	}

	o.finish(job, out, logger)
	sendProgress(progress, completedUpdate(out))

	switch out.State {
	case CompletedOk:
		logger.Info("download complete", "track", out.Track, "hash", req.Hash, "tiers", models.JoinTiers(out.Tiers()), "partial", out.Partial)
	case TimedOut:
		logger.Warn("download timed out", "hash", req.Hash, "timeout", o.timeout)
	default:
		logger.Error("download failed", "hash", req.Hash, "error", out.Err)
	}

	return out, out.Err
}

func (o *Orchestrator) run(ctx context.Context, progress chan<- ProgressUpdate, req Request, out *Outcome, logger *log.Logger) {
	out.State = Resolving
	sendProgress(progress, resolvingUpdate(req.URL, req.Title))

	ref, err := o.resolver.Resolve(ctx, req.URL, req.Title, req.Token)
	if err != nil {
		fail(out, err)
		return
	}
	out.Track = ref

	out.State = Fetching
	sendProgress(progress, fetchingUpdate(ref))

	session, err := o.backend.Connect(ctx, req.Token)
	if err != nil {
		fail(out, fmt.Errorf("%w: connect: %w", shared.ErrBackend, err))
		return
	}
	// streams stay readable until the session closes
	defer session.Close()

	set, err := loadVariants(ctx, session, ref)
	if err != nil {
		fail(out, err)
		return
	}
	defer set.CloseAll()

	logger.Debug("variants loaded", "track", ref, "formats", set.Formats())

	assignments, err := Select(set, o.policies)
	if err != nil {
		fail(out, err)
		return
	}
	set.CloseAll()

	out.State = Persisting
	sendProgress(progress, persistingUpdate(assignments))

	o.persistAll(ctx, progress, req.Hash, assignments, out)
}

func loadVariants(ctx context.Context, session services.Session, ref models.TrackReference) (models.VariantSet, error) {
	variants, err := session.LoadVariants(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: load variants: %w", shared.ErrBackend, err)
	}

	for _, v := range variants {
		if v.Source == nil {
			for _, other := range variants {
				_ = other.Close()
			}
			return nil, fmt.Errorf("%w: variant %s has no stream", shared.ErrBackend, v.Format)
		}
	}

	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: no variants for %s", shared.ErrBackend, ref)
	}
	return models.NewVariantSet(variants), nil
}

type tierResult struct {
	tier     models.Tier
	artifact models.PersistedArtifact
	err      error
}

// persistAll dispatches every assignment to the pool and waits for all of them.
func (o *Orchestrator) persistAll(ctx context.Context, progress chan<- ProgressUpdate, hash string, assignments []models.TierAssignment, out *Outcome) {
	results := make(chan tierResult, len(assignments))
	for _, a := range assignments {
		go func() {
			artifact, err := o.persister.Persist(ctx, a, hash)
			results <- tierResult{tier: a.Tier, artifact: artifact, err: err}
		}()
	}

	var errs []error
	for i := range assignments {
		r := <-results
		if r.err != nil {
			out.Failed = append(out.Failed, TierFailure{Tier: r.tier, Err: r.err})
			errs = append(errs, r.err)
			sendProgress(progress, tierFailedUpdate(i+1, len(assignments), r.tier, r.err))
			continue
		}
		out.Artifacts = append(out.Artifacts, r.artifact)
		sendProgress(progress, tierPersistedUpdate(i+1, len(assignments), r.artifact))
	}

	slices.SortFunc(out.Artifacts, func(a, b models.PersistedArtifact) int {
		return slices.Index(models.Tiers, a.Tier) - slices.Index(models.Tiers, b.Tier)
	})

	if len(out.Artifacts) == 0 {
		fail(out, fmt.Errorf("%w: no tier could be written: %v", shared.ErrPersistence, errors.Join(errs...)))
		return
	}

	out.State = CompletedOk
	out.Partial = len(out.Failed) > 0
}

func fail(out *Outcome, err error) {
	out.State = CompletedErr
	out.Err = err
}

// begin records a running job. Ledger failures are logged and otherwise ignored.
func (o *Orchestrator) begin(id, hash string, logger *log.Logger) *models.DownloadJob {
	if o.recorder == nil {
		return nil
	}

	job := models.NewDownloadJob(hash)
	job.SetID(id)
	if err := o.recorder.Create(job); err != nil {
		logger.Warn("failed to record download", "error", err)
		return nil
	}
	return job
}

func (o *Orchestrator) finish(job *models.DownloadJob, out *Outcome, logger *log.Logger) {
	if job == nil {
		return
	}

	job.SetTrackID(out.Track.ID)
	job.SetTiers(out.Tiers())
	job.SetPartial(out.Partial)
	if out.Err != nil {
		job.SetErrorMessage(out.Err.Error())
	}

	state := models.JobFailed
	switch out.State {
	case CompletedOk:
		state = models.JobSucceeded
	case TimedOut:
		state = models.JobTimedOut
	}
	job.Complete(state, time.Now().UTC())

	if err := o.recorder.Update(job); err != nil {
		logger.Warn("failed to update download record", "id", job.ID(), "error", err)
	}
}
