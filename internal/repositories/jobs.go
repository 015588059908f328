package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tri/internal/models"
	"github.com/desertthunder/tri/internal/shared"
)

const jobColumns = `
	id, sequence, track_id, content_hash, state, tiers, partial, error_message,
	started_at, completed_at, created_at, updated_at
`

// JobRepository implements [models.Repository] for the [models.DownloadJob] request ledger.
//
// It also satisfies tasks.JobRecorder, so the orchestrator can write to it directly.
type JobRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.DownloadJob] = (*JobRepository)(nil)

// NewJobRepository creates a new [JobRepository] with the given database connection
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a job, assigning an ID when it has none and the next sequence number.
func (r *JobRepository) Create(job *models.DownloadJob) error {
	if job.ID() == "" {
		job.SetID(shared.GenerateID())
	}

	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "download_jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	job.SetSequence(sequence)

	query := `INSERT INTO download_jobs (` + jobColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		job.ID(), sequence, job.TrackID(), job.ContentHash(), string(job.State()),
		models.JoinTiers(job.Tiers()), job.Partial(), nullString(job.ErrorMessage()),
		job.StartedAt(), nullTime(job.CompletedAt()), job.CreatedAt(), job.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert download job: %w", err)
	}

	return nil
}

// Get retrieves a job by ID, excluding soft-deleted jobs
func (r *JobRepository) Get(id string) (*models.DownloadJob, error) {
	query := `SELECT ` + jobColumns + ` FROM download_jobs WHERE id = ? AND deleted_at IS NULL`

	job, err := scanJob(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query download job: %w", err)
	}

	return job, nil
}

// Update writes the job's outcome columns.
func (r *JobRepository) Update(job *models.DownloadJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	job.SetUpdatedAt(now)

	query := `
		UPDATE download_jobs
		SET track_id = ?, state = ?, tiers = ?, partial = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		job.TrackID(), string(job.State()), models.JoinTiers(job.Tiers()), job.Partial(),
		nullString(job.ErrorMessage()), nullTime(job.CompletedAt()), now, job.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update download job: %w", err)
	}

	return checkAffected(result, job.ID())
}

// Delete soft-deletes a job by ID
func (r *JobRepository) Delete(id string) error {
	query := `
		UPDATE download_jobs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete download job: %w", err)
	}

	return checkAffected(result, id)
}

// List retrieves jobs, newest first, excluding soft-deleted ones.
//
// Supported criteria: "state" (string), "hash" (string) and "limit" (int).
func (r *JobRepository) List(criteria map[string]any) ([]*models.DownloadJob, error) {
	query := `SELECT ` + jobColumns + ` FROM download_jobs WHERE deleted_at IS NULL`
	args := []any{}

	if state, ok := criteria["state"].(string); ok && state != "" {
		query += " AND state = ?"
		args = append(args, state)
	}
	if hash, ok := criteria["hash"].(string); ok && hash != "" {
		query += " AND content_hash = ?"
		args = append(args, hash)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query download jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.DownloadJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.DownloadJob, error) {
	var (
		id           string
		sequence     int
		trackID      string
		hash         string
		state        string
		tiers        string
		partial      bool
		errorMessage sql.NullString
		startedAt    time.Time
		completedAt  sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&id, &sequence, &trackID, &hash, &state, &tiers, &partial, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var completed *time.Time
	if completedAt.Valid {
		completed = &completedAt.Time
	}

	return models.RestoreDownloadJob(
		id, sequence, trackID, hash, models.JobState(state), models.SplitTiers(tiers), partial,
		errorMessage.String, startedAt, completed, createdAt, updatedAt,
	), nil
}

func checkAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s not found or already deleted", shared.ErrJobNotFound, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
