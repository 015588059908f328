package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/tri/internal/models"
	"github.com/desertthunder/tri/internal/services"
	"github.com/desertthunder/tri/internal/shared"
)

// Resolver turns a request's url or title into a track reference.
type Resolver struct {
	search services.Searcher
}

// NewResolver creates a resolver. search may be nil, in which case title lookups fail.
func NewResolver(search services.Searcher) *Resolver {
	return &Resolver{search: search}
}

// Resolve extracts the id from rawURL when it is set, otherwise searches for title.
//
// Every failure wraps [shared.ErrResolution].
func (r *Resolver) Resolve(ctx context.Context, rawURL, title, token string) (models.TrackReference, error) {
	var id string

	switch {
	case rawURL != "":
		extracted, err := services.ExtractTrackID(rawURL)
		if err != nil {
			return models.TrackReference{}, fmt.Errorf("%w: %v", shared.ErrResolution, err)
		}
		id = extracted
	case title != "":
		if r.search == nil {
			return models.TrackReference{}, fmt.Errorf("%w: search is not configured", shared.ErrResolution)
		}
		found, err := r.search.SearchTrack(ctx, title, token)
		if err != nil {
			return models.TrackReference{}, fmt.Errorf("%w: %w", shared.ErrResolution, err)
		}
		id = found
	default:
		return models.TrackReference{}, fmt.Errorf("%w: neither url nor title given", shared.ErrResolution)
	}

	ref, err := models.NewTrackReference(id)
	if err != nil {
		return models.TrackReference{}, fmt.Errorf("%w: %v", shared.ErrResolution, err)
	}
	return ref, nil
}
