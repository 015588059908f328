package tasks

import (
	"fmt"
	"slices"

	"github.com/desertthunder/tri/internal/models"
	"github.com/desertthunder/tri/internal/shared"
)

var (
	bestPriority = []models.FormatLabel{
		models.FLAC24Bit, models.FLAC, models.MP3_320, models.AAC_320, models.MP3_256, models.OggVorbis320,
	}
	mediumPriority = []models.FormatLabel{
		models.MP3_160, models.MP3_160Enc, models.AAC_48, models.AAC_24, models.XHEAAC_24, models.OggVorbis320, models.MP4_128,
	}
	lowPriority = []models.FormatLabel{
		models.AAC_24, models.XHEAAC_24, models.XHEAAC_16, models.XHEAAC_12, models.OggVorbis160, models.MP3_96, models.OggVorbis96,
	}
)

// TierPolicy is the ordered list of formats a tier will accept, most preferred first.
type TierPolicy struct {
	Tier       models.Tier
	Preference []models.FormatLabel
}

// DefaultPolicies returns the best, medium and low policies.
//
// Each tier falls back to the other tiers' lists so a track with a single
// variant still gets its best tier written.
func DefaultPolicies() []TierPolicy {
	return []TierPolicy{
		{Tier: models.TierBest, Preference: slices.Concat(bestPriority, mediumPriority, lowPriority)},
		{Tier: models.TierMedium, Preference: slices.Concat(mediumPriority, lowPriority, bestPriority)},
		{Tier: models.TierLow, Preference: slices.Concat(lowPriority, mediumPriority, bestPriority)},
	}
}

// Select assigns at most one variant to each tier, in policy order.
//
// A tier claims the first format in its preference list that is still in set
// and not already used by an earlier tier. Claimed variants are removed from
// set; whatever remains belongs to the caller. A tier with no match is skipped.
// When no tier matched, Select returns [shared.ErrSelectionExhausted].
func Select(set models.VariantSet, policies []TierPolicy) ([]models.TierAssignment, error) {
	used := make(map[models.FormatLabel]bool)
	assignments := make([]models.TierAssignment, 0, len(policies))

	for _, p := range policies {
		for _, f := range p.Preference {
			if used[f] {
				continue
			}
			v, ok := set.Claim(f)
			if !ok {
				continue
			}
			used[f] = true
			assignments = append(assignments, models.TierAssignment{Tier: p.Tier, Format: f, Source: v.Source})
			break
		}
	}

	if len(assignments) == 0 {
		return nil, fmt.Errorf("%w (offered: %v)", shared.ErrSelectionExhausted, set.Formats())
	}
	return assignments, nil
}
