package tasks

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/tri/internal/models"
	"github.com/desertthunder/tri/internal/shared"
)

func variantSet(formats ...models.FormatLabel) models.VariantSet {
	variants := make([]models.EncodedVariant, len(formats))
	for i, f := range formats {
		variants[i] = models.EncodedVariant{Format: f, Source: strings.NewReader(f.String())}
	}
	return models.NewVariantSet(variants)
}

func assigned(assignments []models.TierAssignment) map[models.Tier]models.FormatLabel {
	m := make(map[models.Tier]models.FormatLabel, len(assignments))
	for _, a := range assignments {
		m[a.Tier] = a.Format
	}
	return m
}

func TestSelect(t *testing.T) {
	t.Run("Full Catalog", func(t *testing.T) {
		set := variantSet(
			models.FLAC24Bit, models.FLAC, models.MP3_320, models.MP3_160,
			models.AAC_24, models.OggVorbis96, models.OggVorbis160, models.OggVorbis320,
		)

		got, err := Select(set, DefaultPolicies())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := map[models.Tier]models.FormatLabel{
			models.TierBest:   models.FLAC24Bit,
			models.TierMedium: models.MP3_160,
			models.TierLow:    models.AAC_24,
		}
		for tier, f := range want {
			if assigned(got)[tier] != f {
				t.Errorf("%s: got %v, want %v", tier, assigned(got)[tier], f)
			}
		}
		if got[0].Tier != models.TierBest || got[1].Tier != models.TierMedium || got[2].Tier != models.TierLow {
			t.Errorf("assignments out of tier order: %v", got)
		}
		if len(set) != 5 {
			t.Errorf("expected 5 unclaimed variants, got %d", len(set))
		}
	})

	t.Run("Single Lossy Variant Goes To Best", func(t *testing.T) {
		set := variantSet(models.OggVorbis160)

		got, err := Select(set, DefaultPolicies())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 assignment, got %d", len(got))
		}
		if got[0].Tier != models.TierBest || got[0].Format != models.OggVorbis160 {
			t.Errorf("expected best=OGG_VORBIS_160, got %s=%v", got[0].Tier, got[0].Format)
		}
		if len(set) != 0 {
			t.Error("claimed variant must be removed from the set")
		}
	})

	t.Run("Formats Are Never Shared", func(t *testing.T) {
		set := variantSet(models.MP3_160, models.AAC_24)

		got, err := Select(set, DefaultPolicies())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		seen := map[models.FormatLabel]bool{}
		for _, a := range got {
			if seen[a.Format] {
				t.Errorf("format %v assigned twice", a.Format)
			}
			seen[a.Format] = true
		}

		m := assigned(got)
		if m[models.TierBest] != models.MP3_160 || m[models.TierMedium] != models.AAC_24 {
			t.Errorf("unexpected assignment %v", m)
		}
		if _, ok := m[models.TierLow]; ok {
			t.Error("low tier must be skipped when nothing is left")
		}
	})

	t.Run("Best Priority Order", func(t *testing.T) {
		tc := []struct {
			name    string
			formats []models.FormatLabel
			want    models.FormatLabel
		}{
			{"FLAC 24 Over FLAC", []models.FormatLabel{models.FLAC, models.FLAC24Bit}, models.FLAC24Bit},
			{"FLAC Over MP3", []models.FormatLabel{models.MP3_320, models.FLAC}, models.FLAC},
			{"MP3 320 Over AAC 320", []models.FormatLabel{models.AAC_320, models.MP3_320}, models.MP3_320},
			{"AAC 320 Over MP3 256", []models.FormatLabel{models.MP3_256, models.AAC_320}, models.AAC_320},
			{"MP3 256 Over Vorbis 320", []models.FormatLabel{models.OggVorbis320, models.MP3_256}, models.MP3_256},
			{"Medium List Before Low", []models.FormatLabel{models.OggVorbis96, models.MP4_128}, models.MP4_128},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got, err := Select(variantSet(tt.formats...), DefaultPolicies())
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got[0].Tier != models.TierBest || got[0].Format != tt.want {
					t.Errorf("best = %v, want %v", got[0].Format, tt.want)
				}
			})
		}
	})

	t.Run("Medium Falls Back To Best List", func(t *testing.T) {
		got, err := Select(variantSet(models.FLAC, models.FLAC24Bit), DefaultPolicies())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		m := assigned(got)
		if m[models.TierBest] != models.FLAC24Bit || m[models.TierMedium] != models.FLAC {
			t.Errorf("unexpected assignment %v", m)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 assignments, got %d", len(got))
		}
	})

	t.Run("Exhausted", func(t *testing.T) {
		set := variantSet(models.Other5, models.AAC_160)

		_, err := Select(set, DefaultPolicies())
		if !errors.Is(err, shared.ErrSelectionExhausted) {
			t.Fatalf("expected ErrSelectionExhausted, got %v", err)
		}
		if len(set) != 2 {
			t.Error("unmatched variants must stay in the set")
		}
	})

	t.Run("Empty Set", func(t *testing.T) {
		_, err := Select(models.VariantSet{}, DefaultPolicies())
		if !errors.Is(err, shared.ErrSelectionExhausted) {
			t.Errorf("expected ErrSelectionExhausted, got %v", err)
		}
	})
}

func TestDefaultPolicies(t *testing.T) {
	policies := DefaultPolicies()
	if len(policies) != 3 {
		t.Fatalf("expected 3 policies, got %d", len(policies))
	}

	total := len(bestPriority) + len(mediumPriority) + len(lowPriority)
	for i, tier := range models.Tiers {
		if policies[i].Tier != tier {
			t.Errorf("policy %d: got tier %s, want %s", i, policies[i].Tier, tier)
		}
		if len(policies[i].Preference) != total {
			t.Errorf("%s: expected %d preferences, got %d", tier, total, len(policies[i].Preference))
		}
	}

	if policies[1].Preference[0] != models.MP3_160 || policies[2].Preference[0] != models.AAC_24 {
		t.Error("each tier must start with its own list")
	}

	policies[0].Preference[0] = models.Other5
	if bestPriority[0] != models.FLAC24Bit {
		t.Error("policies must not alias the package lists")
	}
}
