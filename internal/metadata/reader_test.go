package metadata

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"media-enricher/internal/catalog"
	"media-enricher/internal/exiftool"
)

// fakeTool is an in-memory Tool implementation that records invocations.
type fakeTool struct {
	mu         sync.Mutex
	fields     map[string]exiftool.Fields
	readCalls  int
	writeCalls int
	written    []map[string]string
	available  bool
}

func newFakeTool() *fakeTool {
	return &fakeTool{fields: make(map[string]exiftool.Fields), available: true}
}

func (f *fakeTool) ReadBatch(_ context.Context, paths []string) (map[string]exiftool.Fields, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls++
	out := make(map[string]exiftool.Fields)
	for _, p := range paths {
		if fields, ok := f.fields[p]; ok {
			out[p] = fields
		}
	}
	return out, nil
}

func (f *fakeTool) WriteBatch(_ context.Context, _ []string, tags map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeCalls++
	f.written = append(f.written, tags)
	return nil
}

func (f *fakeTool) ExtractPreview(_ context.Context, _ string) ([]byte, error) {
	return nil, exiftool.ErrUnavailable
}

func (f *fakeTool) Available() bool { return f.available }

func (f *fakeTool) reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readCalls
}

func writeTempMedia(t *testing.T, dir, name string) catalog.MediaRef {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatal(err)
	}
	return catalog.NewMediaRef(path)
}

func TestReadBatchSingleInvocation(t *testing.T) {
	dir := t.TempDir()
	tool := newFakeTool()

	var refs []catalog.MediaRef
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		ref := writeTempMedia(t, dir, name)
		tool.fields[ref.Path] = exiftool.Fields{"ISO": float64(100)}
		refs = append(refs, ref)
	}

	reader := NewReader(tool)
	results := reader.ReadBatch(context.Background(), refs)

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if tool.reads() != 1 {
		t.Errorf("Expected exactly one tool invocation for the batch, got %d", tool.reads())
	}
}

func TestReadBatchCachesByModTime(t *testing.T) {
	dir := t.TempDir()
	tool := newFakeTool()
	ref := writeTempMedia(t, dir, "a.jpg")
	tool.fields[ref.Path] = exiftool.Fields{"ISO": float64(100)}

	reader := NewReader(tool)
	ctx := context.Background()

	if meta := reader.ReadOne(ctx, ref); meta == nil || meta.ISO == nil {
		t.Fatal("First read returned no metadata")
	}
	if meta := reader.ReadOne(ctx, ref); meta == nil {
		t.Fatal("Second read returned no metadata")
	}
	if tool.reads() != 1 {
		t.Errorf("Expected second read to hit cache, got %d invocations", tool.reads())
	}

	// Touch the file: cache entry is stale, tool runs again
	future := time.Now().Add(time.Second)
	if err := os.Chtimes(ref.Path, future, future); err != nil {
		t.Fatal(err)
	}
	reader.ReadOne(ctx, ref)
	if tool.reads() != 2 {
		t.Errorf("Expected modified file to miss cache, got %d invocations", tool.reads())
	}
}

func TestReadBatchPartialFailure(t *testing.T) {
	dir := t.TempDir()
	tool := newFakeTool()

	good := writeTempMedia(t, dir, "good.jpg")
	tool.fields[good.Path] = exiftool.Fields{"ISO": float64(100)}

	// Corrupt file: tool reports nothing for it
	corrupt := writeTempMedia(t, dir, "corrupt.jpg")

	// Missing file: stat fails
	missing := catalog.NewMediaRef(filepath.Join(dir, "missing.jpg"))

	reader := NewReader(tool)
	results := reader.ReadBatch(context.Background(), []catalog.MediaRef{good, corrupt, missing})

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if _, ok := results[good.ID]; !ok {
		t.Error("Expected the readable file to be present")
	}
}

func TestReaderInvalidate(t *testing.T) {
	dir := t.TempDir()
	tool := newFakeTool()
	ref := writeTempMedia(t, dir, "a.jpg")
	tool.fields[ref.Path] = exiftool.Fields{"ISO": float64(100)}

	reader := NewReader(tool)
	ctx := context.Background()

	reader.ReadOne(ctx, ref)
	reader.Invalidate(ref.Path)
	reader.ReadOne(ctx, ref)

	if tool.reads() != 2 {
		t.Errorf("Expected invalidation to force a re-read, got %d invocations", tool.reads())
	}
}

func TestReadQuickFallsBackToTool(t *testing.T) {
	dir := t.TempDir()
	tool := newFakeTool()

	// Not a decodable image, so the embedded decode path fails and the
	// reader falls back to the external tool.
	ref := writeTempMedia(t, dir, "a.jpg")
	tool.fields[ref.Path] = exiftool.Fields{"Make": "Canon"}

	reader := NewReader(tool)
	meta := reader.ReadQuick(context.Background(), ref)

	if meta == nil || meta.Make == nil || *meta.Make != "Canon" {
		t.Errorf("Expected fallback metadata, got %+v", meta)
	}
}

func TestReadQuickMissingFile(t *testing.T) {
	tool := newFakeTool()
	reader := NewReader(tool)

	ref := catalog.NewMediaRef(filepath.Join(t.TempDir(), "missing.jpg"))
	if meta := reader.ReadQuick(context.Background(), ref); meta != nil {
		t.Errorf("Expected nil for missing file, got %+v", meta)
	}
	if tool.reads() != 0 {
		t.Errorf("Expected no tool invocation for missing file, got %d", tool.reads())
	}
}
