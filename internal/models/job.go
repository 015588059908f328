package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// JobState is the ledger's view of where a download request ended up.
type JobState string

const (
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobTimedOut  JobState = "timed_out"
)

// Valid reports whether s is a known job state.
func (s JobState) Valid() bool {
	switch s {
	case JobRunning, JobSucceeded, JobFailed, JobTimedOut:
		return true
	default:
		return false
	}
}

// DownloadJob is one row of the request ledger.
type DownloadJob struct {
	id           string
	sequence     int
	trackID      string
	contentHash  string
	state        JobState
	tiers        []Tier
	partial      bool
	errorMessage string
	startedAt    time.Time
	completedAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewDownloadJob creates a running job for hash. The ID is assigned by the repository.
func NewDownloadJob(hash string) *DownloadJob {
	now := time.Now().UTC()
	return &DownloadJob{
		contentHash: hash,
		state:       JobRunning,
		startedAt:   now,
		createdAt:   now,
		updatedAt:   now,
	}
}

// RestoreDownloadJob rebuilds a job from stored columns.
func RestoreDownloadJob(
	id string, sequence int, trackID, hash string, state JobState, tiers []Tier, partial bool,
	errorMessage string, startedAt time.Time, completedAt *time.Time, createdAt, updatedAt time.Time,
) *DownloadJob {
	return &DownloadJob{
		id:           id,
		sequence:     sequence,
		trackID:      trackID,
		contentHash:  hash,
		state:        state,
		tiers:        tiers,
		partial:      partial,
		errorMessage: errorMessage,
		startedAt:    startedAt,
		completedAt:  completedAt,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (j *DownloadJob) ID() string              { return j.id }
func (j *DownloadJob) Sequence() int           { return j.sequence }
func (j *DownloadJob) TrackID() string         { return j.trackID }
func (j *DownloadJob) ContentHash() string     { return j.contentHash }
func (j *DownloadJob) State() JobState         { return j.state }
func (j *DownloadJob) Tiers() []Tier           { return j.tiers }
func (j *DownloadJob) Partial() bool           { return j.partial }
func (j *DownloadJob) ErrorMessage() string    { return j.errorMessage }
func (j *DownloadJob) StartedAt() time.Time    { return j.startedAt }
func (j *DownloadJob) CompletedAt() *time.Time { return j.completedAt }
func (j *DownloadJob) CreatedAt() time.Time    { return j.createdAt }
func (j *DownloadJob) UpdatedAt() time.Time    { return j.updatedAt }

func (j *DownloadJob) SetID(id string)            { j.id = id }
func (j *DownloadJob) SetSequence(seq int)        { j.sequence = seq }
func (j *DownloadJob) SetTrackID(id string)       { j.trackID = id }
func (j *DownloadJob) SetUpdatedAt(t time.Time)   { j.updatedAt = t }
func (j *DownloadJob) SetErrorMessage(msg string) { j.errorMessage = msg }
func (j *DownloadJob) SetTiers(tiers []Tier)      { j.tiers = tiers }
func (j *DownloadJob) SetPartial(partial bool)    { j.partial = partial }

// Complete moves the job to a terminal state.
func (j *DownloadJob) Complete(state JobState, at time.Time) {
	j.state = state
	j.completedAt = &at
	j.updatedAt = at
}

// Duration returns how long the job ran, or zero while it is still running.
func (j *DownloadJob) Duration() time.Duration {
	if j.completedAt == nil {
		return 0
	}
	return j.completedAt.Sub(j.startedAt)
}

// Validate checks the job before it is written.
func (j *DownloadJob) Validate() error {
	if j.id == "" {
		return fmt.Errorf("job ID is required")
	}
	if err := ValidateContentHash(j.contentHash); err != nil {
		return err
	}
	if !j.state.Valid() {
		return fmt.Errorf("invalid job state %q", j.state)
	}
	if j.state != JobRunning && j.completedAt == nil {
		return fmt.Errorf("job in state %q must have a completion time", j.state)
	}
	for _, t := range j.tiers {
		if !slices.Contains(Tiers, t) {
			return fmt.Errorf("invalid tier %q", t)
		}
	}
	return nil
}

// JoinTiers encodes tiers as a comma separated column value.
func JoinTiers(tiers []Tier) string {
	parts := make([]string, len(tiers))
	for i, t := range tiers {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// SplitTiers decodes a column value written by [JoinTiers].
func SplitTiers(s string) []Tier {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tiers := make([]Tier, len(parts))
	for i, p := range parts {
		tiers[i] = Tier(p)
	}
	return tiers
}
