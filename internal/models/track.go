package models

import (
	"fmt"
	"regexp"
)

// ItemKind tags what a reference points at. Only tracks can be downloaded.
type ItemKind string

const (
	KindTrack ItemKind = "track"
	KindAlbum ItemKind = "album"
)

// base62 ids encode a 128-bit value in exactly 22 characters
var trackIDPattern = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

// TrackReference is the canonical, immutable identifier of a track.
type TrackReference struct {
	ID   string
	Kind ItemKind
}

// NewTrackReference validates id as a base62 track id and tags it as a track.
func NewTrackReference(id string) (TrackReference, error) {
	if !trackIDPattern.MatchString(id) {
		return TrackReference{}, fmt.Errorf("invalid track id %q", id)
	}
	return TrackReference{ID: id, Kind: KindTrack}, nil
}

// Validate reports whether the reference can be handed to the streaming backend.
func (t TrackReference) Validate() error {
	if !trackIDPattern.MatchString(t.ID) {
		return fmt.Errorf("invalid track id %q", t.ID)
	}
	if t.Kind != KindTrack {
		return fmt.Errorf("unsupported item kind %q: only %q can be downloaded", t.Kind, KindTrack)
	}
	return nil
}

// URI returns the reference in spotify:track:<id> form.
func (t TrackReference) URI() string {
	return fmt.Sprintf("spotify:%s:%s", t.Kind, t.ID)
}

func (t TrackReference) String() string {
	return t.URI()
}
