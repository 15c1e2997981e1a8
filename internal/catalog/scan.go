package catalog

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"media-enricher/internal/logging"
	"media-enricher/internal/mediatypes"
)

// ScanDirectory walks root and registers every enrichable media file as a
// catalog item. Already-known paths keep their existing refs. Returns the
// refs for all media files found, in walk order. Errors on individual
// entries are logged and skipped; the walk continues.
func (s *Store) ScanDirectory(ctx context.Context, root string) ([]MediaRef, error) {
	start := time.Now()
	var refs []MediaRef
	var skipped int

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return fs.SkipAll
		default:
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !mediatypes.IsEnrichable(ext) {
			skipped++
			return nil
		}

		ref, addErr := s.AddRef(ctx, NewMediaRef(path))
		if addErr != nil {
			logging.Warn("Failed to register %s: %v", path, addErr)
			return nil
		}
		refs = append(refs, ref)
		return nil
	})

	logging.Info("Catalog scan complete: %d media files (%d skipped) in %v",
		len(refs), skipped, time.Since(start))
	return refs, err
}
