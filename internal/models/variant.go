package models

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"slices"
)

// ProviderDir is the per-provider directory artifacts are written under.
const ProviderDir = "spotify"

// Tier is one of the three output qualities produced per request.
type Tier string

const (
	TierBest   Tier = "best"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Tiers lists every tier in selection order.
var Tiers = []Tier{TierBest, TierMedium, TierLow}

// EncodedVariant pairs a format with its decrypted byte stream.
//
// Source can be read once. Whoever holds the variant owns the stream and is
// responsible for closing it when it implements [io.Closer].
type EncodedVariant struct {
	Format FormatLabel
	Source io.Reader
}

// Close releases the variant's stream if it holds one that can be closed.
func (v EncodedVariant) Close() error {
	if c, ok := v.Source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// VariantSet holds the streams still available for a request, at most one per format.
type VariantSet map[FormatLabel]EncodedVariant

// NewVariantSet builds a set from the backend's variant list.
//
// When the backend reports the same format twice the first stream wins and
// the duplicate is closed.
func NewVariantSet(variants []EncodedVariant) VariantSet {
	set := make(VariantSet, len(variants))
	for _, v := range variants {
		if _, exists := set[v.Format]; exists {
			_ = v.Close()
			continue
		}
		set[v.Format] = v
	}
	return set
}

// Claim removes the variant for f from the set and hands it to the caller.
func (s VariantSet) Claim(f FormatLabel) (EncodedVariant, bool) {
	v, ok := s[f]
	if ok {
		delete(s, f)
	}
	return v, ok
}

// Formats returns the formats still available, in label order.
func (s VariantSet) Formats() []FormatLabel {
	formats := make([]FormatLabel, 0, len(s))
	for f := range s {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	return formats
}

// CloseAll closes every stream left in the set and empties it.
func (s VariantSet) CloseAll() {
	for f, v := range s {
		_ = v.Close()
		delete(s, f)
	}
}

// TierAssignment records that a tier claimed a format.
type TierAssignment struct {
	Tier   Tier
	Format FormatLabel
	Source io.Reader
}

// FileName returns the artifact file name for the assignment, e.g. "best.flac".
func (a TierAssignment) FileName() string {
	return fmt.Sprintf("%s.%s", a.Tier, a.Format.Extension())
}

// PersistedArtifact describes a file written under the cache root.
type PersistedArtifact struct {
	Tier   Tier        `json:"tier"`
	Format FormatLabel `json:"format"`
	Path   string      `json:"path"`
	Size   int64       `json:"size"`
}

var contentHashPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateContentHash rejects hashes that are empty, too long, or could escape
// the cache root when used as a path segment.
func ValidateContentHash(hash string) error {
	if !contentHashPattern.MatchString(hash) {
		return fmt.Errorf("content hash %q must be 1-128 characters of [A-Za-z0-9_-]", hash)
	}
	return nil
}

// ArtifactDir returns <root>/<hash>/spotify.
func ArtifactDir(root, hash string) string {
	return filepath.Join(root, hash, ProviderDir)
}
