package metadata

import (
	"context"
	"os"
	"sync"

	"media-enricher/internal/catalog"
	"media-enricher/internal/exiftool"
	"media-enricher/internal/filesystem"
	"media-enricher/internal/logging"
	"media-enricher/internal/metrics"
)

// Reader extracts normalized metadata from media files. It keeps a purely
// advisory in-memory cache keyed by (path, mtime); a stale or missing entry
// only costs a re-read, never correctness.
type Reader struct {
	tool exiftool.Tool

	mu    sync.Mutex
	cache map[string]readerEntry
}

type readerEntry struct {
	modTime int64
	meta    *catalog.ExtractedMetadata
}

// NewReader creates a Reader backed by the given external tool.
func NewReader(tool exiftool.Tool) *Reader {
	return &Reader{
		tool:  tool,
		cache: make(map[string]readerEntry),
	}
}

// ReadOne extracts metadata for a single file. Returns nil when the file is
// unreadable or carries no metadata; that is not an error for callers.
func (r *Reader) ReadOne(ctx context.Context, ref catalog.MediaRef) *catalog.ExtractedMetadata {
	results := r.ReadBatch(ctx, []catalog.MediaRef{ref})
	return results[ref.ID]
}

// ReadBatch extracts metadata for a set of files using at most one external
// tool invocation for all cache misses combined. The result is keyed by ref
// ID; files whose metadata could not be read are absent. A per-file failure
// never fails the batch.
func (r *Reader) ReadBatch(ctx context.Context, refs []catalog.MediaRef) map[string]*catalog.ExtractedMetadata {
	results := make(map[string]*catalog.ExtractedMetadata, len(refs))

	var misses []catalog.MediaRef
	modTimes := make(map[string]int64, len(refs))

	r.mu.Lock()
	for _, ref := range refs {
		info, err := filesystem.StatWithTimeout(ref.Path, filesystem.DefaultTimeout)
		if err != nil {
			logging.Debug("Metadata read skipped, cannot stat %s: %v", ref.Path, err)
			continue
		}
		modTimes[ref.Path] = info.ModTime().UnixNano()

		if entry, ok := r.cache[ref.Path]; ok && entry.modTime == modTimes[ref.Path] {
			metrics.ReaderCacheHits.Inc()
			results[ref.ID] = entry.meta
			continue
		}
		misses = append(misses, ref)
	}
	r.mu.Unlock()

	if len(misses) == 0 {
		return results
	}

	paths := make([]string, len(misses))
	for i, ref := range misses {
		paths[i] = ref.Path
	}

	fieldsByPath, err := r.tool.ReadBatch(ctx, paths)
	if err != nil {
		if err != exiftool.ErrUnavailable {
			logging.Warn("Batch metadata read failed: %v", err)
		}
		return results
	}

	r.mu.Lock()
	for _, ref := range misses {
		fields, ok := fieldsByPath[ref.Path]
		if !ok {
			continue
		}
		meta := mapFields(fields)
		r.cache[ref.Path] = readerEntry{modTime: modTimes[ref.Path], meta: meta}
		results[ref.ID] = meta
	}
	r.mu.Unlock()

	return results
}

// ReadQuick extracts metadata for one file without spawning a process,
// decoding the embedded EXIF block directly. Formats the decoder does not
// understand fall back to a full ReadOne. Intended for interactive paths
// where latency matters more than field coverage.
func (r *Reader) ReadQuick(ctx context.Context, ref catalog.MediaRef) *catalog.ExtractedMetadata {
	info, err := os.Stat(ref.Path)
	if err != nil {
		return nil
	}

	r.mu.Lock()
	if entry, ok := r.cache[ref.Path]; ok && entry.modTime == info.ModTime().UnixNano() {
		metrics.ReaderCacheHits.Inc()
		r.mu.Unlock()
		return entry.meta
	}
	r.mu.Unlock()

	if meta := decodeEmbedded(ref.Path); meta != nil {
		return meta
	}
	return r.ReadOne(ctx, ref)
}

// Invalidate drops any cached entries for the given paths. Called after
// metadata is written back to disk so the next read reflects the new state.
func (r *Reader) Invalidate(paths ...string) {
	r.mu.Lock()
	for _, path := range paths {
		delete(r.cache, path)
	}
	r.mu.Unlock()
}
