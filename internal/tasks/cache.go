package tasks

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/tri/internal/models"
)

// CacheEntry is a file found under the cache root.
type CacheEntry struct {
	Hash      string
	Tier      models.Tier
	Extension string
	Path      string
	Size      int64
	ModTime   time.Time
}

// ListCache returns the artifacts stored for hash, or for every hash when it is empty.
//
// Presence is decided by directory listing alone. Files that do not look like
// <tier>.<ext> are skipped. A missing root or hash directory yields no entries.
func ListCache(root, hash string) ([]CacheEntry, error) {
	var hashes []string
	if hash != "" {
		if err := models.ValidateContentHash(hash); err != nil {
			return nil, err
		}
		hashes = []string{hash}
	} else {
		dirs, err := os.ReadDir(root)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		} else if err != nil {
			return nil, fmt.Errorf("failed to read cache root: %w", err)
		}
		for _, d := range dirs {
			if d.IsDir() {
				hashes = append(hashes, d.Name())
			}
		}
	}

	var entries []CacheEntry
	for _, h := range hashes {
		dir := models.ArtifactDir(root, h)
		files, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dir, err)
		}

		for _, f := range files {
			if f.IsDir() {
				continue
			}
			tier, ext, ok := strings.Cut(f.Name(), ".")
			if !ok || !slices.Contains(models.Tiers, models.Tier(tier)) {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			entries = append(entries, CacheEntry{
				Hash:      h,
				Tier:      models.Tier(tier),
				Extension: ext,
				Path:      filepath.Join(dir, f.Name()),
				Size:      info.Size(),
				ModTime:   info.ModTime(),
			})
		}
	}

	slices.SortFunc(entries, func(a, b CacheEntry) int {
		if c := strings.Compare(a.Hash, b.Hash); c != 0 {
			return c
		}
		return slices.Index(models.Tiers, a.Tier) - slices.Index(models.Tiers, b.Tier)
	})
	return entries, nil
}
