// package services defines the search and streaming collaborators used by a download
package services

import (
	"context"

	"github.com/desertthunder/tri/internal/models"
)

// Searcher resolves free text to a track id.
type Searcher interface {
	// SearchTrack returns the id of the top result for query, authenticated with token.
	SearchTrack(ctx context.Context, query, token string) (string, error)
}

// Backend opens sessions against the streaming service.
type Backend interface {
	// Connect establishes a session authenticated with the caller's access token.
	Connect(ctx context.Context, token string) (Session, error)
}

// Session loads the encoded variants of a track.
type Session interface {
	// LoadVariants returns every (format, stream) pair available for ref.
	//
	// The caller owns the returned streams.
	LoadVariants(ctx context.Context, ref models.TrackReference) ([]models.EncodedVariant, error)

	// Close ends the session.
	Close() error
}
