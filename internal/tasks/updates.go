package tasks

import (
	"fmt"

	"github.com/desertthunder/tri/internal/models"
)

// ProgressUpdate reports a state transition of a download.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	State   State  // State the request just entered
	Step    int    // Current step number within the state
	Total   int    // Total steps in this state
	Message string // Human-readable message for display
	Data    any    // Optional state-specific data
}

// State of a single download request.
type State int

const (
	Idle State = iota
	Resolving
	Fetching
	Persisting
	CompletedOk
	CompletedErr
	TimedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	case Fetching:
		return "fetching"
	case Persisting:
		return "persisting"
	case CompletedOk:
		return "completed"
	case CompletedErr:
		return "failed"
	case TimedOut:
		return "timed_out"
	default:
		return ""
	}
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == CompletedOk || s == CompletedErr || s == TimedOut
}

// sendProgress sends an update without blocking; updates are dropped when the channel is full.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func resolvingUpdate(url, title string) ProgressUpdate {
	msg := "Resolving track..."
	if url != "" {
		msg = fmt.Sprintf("Resolving %s...", url)
	} else if title != "" {
		msg = fmt.Sprintf("Searching for %q...", title)
	}
	return ProgressUpdate{State: Resolving, Step: 1, Total: 1, Message: msg}
}

func fetchingUpdate(ref models.TrackReference) ProgressUpdate {
	return ProgressUpdate{
		State:   Fetching,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loading variants for %s...", ref),
		Data:    ref,
	}
}

func persistingUpdate(assignments []models.TierAssignment) ProgressUpdate {
	return ProgressUpdate{
		State:   Persisting,
		Step:    0,
		Total:   len(assignments),
		Message: fmt.Sprintf("Writing %d tier(s)...", len(assignments)),
	}
}

func tierPersistedUpdate(step, total int, artifact models.PersistedArtifact) ProgressUpdate {
	return ProgressUpdate{
		State:   Persisting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, artifact.Tier, artifact.Format),
		Data:    artifact,
	}
}

func tierFailedUpdate(step, total int, tier models.Tier, err error) ProgressUpdate {
	return ProgressUpdate{
		State:   Persisting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, tier, err),
	}
}

func completedUpdate(out *Outcome) ProgressUpdate {
	var msg string
	switch out.State {
	case CompletedOk:
		msg = fmt.Sprintf("Saved %d tier(s)", len(out.Artifacts))
		if out.Partial {
			msg += fmt.Sprintf(", %d failed", len(out.Failed))
		}
	case TimedOut:
		msg = "Timed out"
	default:
		msg = fmt.Sprintf("Failed: %v", out.Err)
	}
	return ProgressUpdate{State: out.State, Step: 1, Total: 1, Message: msg, Data: out}
}
