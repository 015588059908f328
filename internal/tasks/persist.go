package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tri/internal/models"
	"github.com/desertthunder/tri/internal/shared"
	"github.com/dustin/go-humanize"
)

const defaultWorkers = 4

// Persister writes tier assignments to the cache on a fixed pool of workers.
//
// Draining a source and writing the file both block, so they never run on
// the caller's goroutine.
type Persister struct {
	root   string
	logger *log.Logger
	jobs   chan persistJob
	quit   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

type persistJob struct {
	ctx        context.Context
	assignment models.TierAssignment
	hash       string
	result     chan persistResult
}

type persistResult struct {
	artifact models.PersistedArtifact
	err      error
}

// NewPersister starts workers goroutines writing under root. A non-positive
// count uses the default of 4.
func NewPersister(root string, workers int, logger *log.Logger) *Persister {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	p := &Persister{
		root:   root,
		logger: logger,
		jobs:   make(chan persistJob),
		quit:   make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Root returns the cache root artifacts are written under.
func (p *Persister) Root() string {
	return p.root
}

// Persist writes a to <root>/<hash>/spotify/<tier>.<ext> and waits for the result.
//
// The source is always consumed or closed, even on failure. Writing the same
// tier twice overwrites the earlier file.
func (p *Persister) Persist(ctx context.Context, a models.TierAssignment, hash string) (models.PersistedArtifact, error) {
	if err := models.ValidateContentHash(hash); err != nil {
		closeSource(a.Source)
		return models.PersistedArtifact{}, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	job := persistJob{ctx: ctx, assignment: a, hash: hash, result: make(chan persistResult, 1)}

	select {
	case p.jobs <- job:
	case <-ctx.Done():
		closeSource(a.Source)
		return models.PersistedArtifact{}, fmt.Errorf("%w: %s tier not started: %v", shared.ErrPersistence, a.Tier, ctx.Err())
	case <-p.quit:
		closeSource(a.Source)
		return models.PersistedArtifact{}, fmt.Errorf("%w: persister is closed", shared.ErrPersistence)
	}

	select {
	case res := <-job.result:
		return res.artifact, res.err
	case <-ctx.Done():
		return models.PersistedArtifact{}, fmt.Errorf("%w: %s tier abandoned: %v", shared.ErrPersistence, a.Tier, ctx.Err())
	}
}

// Close stops the workers once their current job finishes.
func (p *Persister) Close() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

func (p *Persister) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.quit:
			return
		case job := <-p.jobs:
			artifact, err := p.write(job)
			job.result <- persistResult{artifact: artifact, err: err}
		}
	}
}

// write drains the source and writes it atomically. A panic while reading is
// reported as an error for this tier only.
func (p *Persister) write(job persistJob) (artifact models.PersistedArtifact, err error) {
	a := job.assignment

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s tier panicked: %v", shared.ErrPersistence, a.Tier, r)
			p.logger.Error("persistence worker recovered", "tier", a.Tier, "hash", job.hash, "panic", r)
		}
	}()
	defer closeSource(a.Source)

	if err := job.ctx.Err(); err != nil {
		return artifact, fmt.Errorf("%w: %s tier skipped: %v", shared.ErrPersistence, a.Tier, err)
	}
	if a.Source == nil {
		return artifact, fmt.Errorf("%w: %s tier has no stream", shared.ErrPersistence, a.Tier)
	}

	res := drain(job.ctx, a.Source)
	if res.recovered != nil {
		p.logger.Error("persistence worker recovered", "tier", a.Tier, "hash", job.hash, "panic", res.recovered)
		return artifact, fmt.Errorf("%w: %s tier panicked: %v", shared.ErrPersistence, a.Tier, res.recovered)
	}
	if res.err != nil {
		return artifact, fmt.Errorf("%w: failed to read %s stream: %v", shared.ErrPersistence, a.Format, res.err)
	}
	data := res.data

	path := filepath.Join(models.ArtifactDir(p.root, job.hash), a.FileName())
	if err := atomicWriteFile(path, data, 0o644); err != nil {
		return artifact, fmt.Errorf("%w: failed to write %s: %v", shared.ErrPersistence, path, err)
	}

	p.logger.Info("tier persisted", "tier", a.Tier, "format", a.Format, "path", path, "size", humanize.Bytes(uint64(len(data))))

	return models.PersistedArtifact{Tier: a.Tier, Format: a.Format, Path: path, Size: int64(len(data))}, nil
}

type drainResult struct {
	data      []byte
	err       error
	recovered any
}

// drain reads src to the end on its own goroutine and gives up when ctx ends.
//
// The source is closed as soon as ctx ends so readers that honor Close return.
// A source that ignores both keeps only the reading goroutine, never the worker.
func drain(ctx context.Context, src io.Reader) drainResult {
	done := make(chan drainResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- drainResult{recovered: r}
			}
		}()
		data, err := io.ReadAll(src)
		done <- drainResult{data: data, err: err}
	}()

	stop := context.AfterFunc(ctx, func() { closeSource(src) })
	defer stop()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return drainResult{err: fmt.Errorf("abandoned: %w", ctx.Err())}
	}
}

func closeSource(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
}

// atomicWriteFile writes data to a temp file in the target directory and renames it over path.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
