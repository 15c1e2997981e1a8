package writer

import (
	"context"
	"fmt"
	"strconv"

	"media-enricher/internal/catalog"
	"media-enricher/internal/exiftool"
	"media-enricher/internal/logging"
	"media-enricher/internal/mediatypes"
	"media-enricher/internal/metrics"
)

// Suspender pauses the filesystem monitor around self-inflicted writes.
type Suspender interface {
	Suspend()
	Resume()
}

// Invalidator drops stale metadata cache entries after a write.
type Invalidator interface {
	Invalidate(paths ...string)
}

// Writer applies user edits. The overlay store is always updated first;
// disk write-back happens only for formats that may be rewritten. RAW
// files are partitioned out before the disk path is ever reached, so the
// no-write guarantee holds structurally rather than by runtime check.
type Writer struct {
	store   *catalog.Store
	tool    exiftool.Tool
	monitor Suspender
	reader  Invalidator
	tagger  FileTagger
}

// New creates a Writer. monitor and reader may be nil when no monitor or
// metadata cache is in play.
func New(store *catalog.Store, tool exiftool.Tool, monitor Suspender, reader Invalidator, tagger FileTagger) *Writer {
	if tagger == nil {
		tagger = NewTagger()
	}
	return &Writer{
		store:   store,
		tool:    tool,
		monitor: monitor,
		reader:  reader,
		tagger:  tagger,
	}
}

// WriteBatch applies the sparse changes to every ref. The overlay update is
// optimistic and unconditional; one external tool invocation covers all
// rewritable files. A disk-write failure leaves the overlay intact and is
// reported, not rolled back.
func (w *Writer) WriteBatch(ctx context.Context, refs []catalog.MediaRef, changes catalog.OverlayChanges) error {
	if changes.IsEmpty() || len(refs) == 0 {
		return nil
	}

	for _, ref := range refs {
		if err := w.store.ApplyOverlay(ctx, ref.ID, changes); err != nil {
			logging.Error("Overlay update failed for %s: %v", ref.ID, err)
		}
	}

	var rewritable []catalog.MediaRef
	for _, ref := range refs {
		if mediatypes.Rewritable(ref.Family) {
			rewritable = append(rewritable, ref)
		} else {
			metrics.WriterDiskWrites.WithLabelValues("skipped_raw").Inc()
		}
	}
	if len(rewritable) == 0 {
		return nil
	}

	tags := diskTags(changes)
	paths := make([]string, len(rewritable))
	for i, ref := range rewritable {
		paths[i] = ref.Path
	}

	if w.monitor != nil {
		w.monitor.Suspend()
		defer w.monitor.Resume()
	}

	var writeErr error
	if len(tags) > 0 {
		writeErr = w.tool.WriteBatch(ctx, paths, tags)
		if writeErr != nil {
			metrics.WriterDiskWrites.WithLabelValues("error").Inc()
			logging.Error("Metadata write-back failed for %d files: %v", len(paths), writeErr)
		} else {
			metrics.WriterDiskWrites.WithLabelValues("ok").Inc()
		}
	}

	// Label sync is independent of the tool outcome; xattrs never touch
	// file contents.
	if changes.ColorLabel != nil {
		for _, path := range paths {
			if err := w.tagger.SetLabel(path, *changes.ColorLabel); err != nil {
				metrics.WriterLabelSyncs.WithLabelValues("error").Inc()
				logging.Warn("Label sync failed for %s: %v", path, err)
			} else {
				metrics.WriterLabelSyncs.WithLabelValues("ok").Inc()
			}
		}
	}

	if w.reader != nil {
		w.reader.Invalidate(paths...)
	}

	if writeErr != nil {
		return fmt.Errorf("write-back failed: %w", writeErr)
	}
	return nil
}

// diskTags maps overlay changes to the tag assignments written to disk.
// Favorite and the pick/reject flag stay overlay-only on every format.
func diskTags(changes catalog.OverlayChanges) map[string]string {
	tags := make(map[string]string)
	if changes.Rating != nil {
		tags["Rating"] = strconv.Itoa(*changes.Rating)
	}
	if changes.ColorLabel != nil {
		tags["XMP:Label"] = *changes.ColorLabel
	}
	return tags
}
