package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestVolumeResolverLongestPrefix(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"media":   "/mnt/media",
		"raw":     "/mnt/media/raw",
		"cache":   "/var/cache/enricher",
		"scratch": "/tmp",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/mnt/media/2024/photo.jpg", "media"},
		{"/mnt/media/raw/photo.cr2", "raw"},
		{"/mnt/media", "media"},
		{"/var/cache/enricher/a_thumbnail.jpg", "cache"},
		{"/tmp/upload.jpg", "scratch"},
		{"/home/user/photo.jpg", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestVolumeResolverNilReceiver(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/anywhere"); got != "unknown" {
		t.Errorf("Expected unknown from nil resolver, got %q", got)
	}
}

func TestStatWithTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithTimeout(path, time.Second)
	if err != nil {
		t.Fatalf("StatWithTimeout failed: %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("Expected size 4, got %d", info.Size())
	}
}

func TestStatWithTimeoutMissingFile(t *testing.T) {
	_, err := StatWithTimeout(filepath.Join(t.TempDir(), "missing"), time.Second)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestStatWithTimeoutZeroUsesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := StatWithTimeout(path, 0); err != nil {
		t.Errorf("Expected default timeout to apply, got %v", err)
	}
}

func TestReadDirWithTimeout(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := ReadDirWithTimeout(dir, time.Second)
	if err != nil {
		t.Fatalf("ReadDirWithTimeout failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(entries))
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"estale", syscall.ESTALE, true},
		{"wrapped estale", &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"enoent", syscall.ENOENT, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetryStopsOnNonStaleError(t *testing.T) {
	calls := 0
	_, err := withRetry("stat", "/x", DefaultRetryConfig(), func() (int, error) {
		calls++
		return 0, errors.New("permanent")
	})
	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Expected no retry on a non-stale error, got %d calls", calls)
	}
}

func TestWithRetryRecoversFromStale(t *testing.T) {
	config := RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	calls := 0
	v, err := withRetry("stat", "/x", config, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, syscall.ESTALE
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Expected recovery, got %v", err)
	}
	if v != 42 || calls != 3 {
		t.Errorf("Expected value 42 after 3 calls, got %d after %d", v, calls)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	config := RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	calls := 0
	_, err := withRetry("stat", "/x", config, func() (int, error) {
		calls++
		return 0, syscall.ESTALE
	})
	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("Expected stale error after exhaustion, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected initial attempt plus 2 retries, got %d calls", calls)
	}
}

func TestStatWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry failed: %v", err)
	}
	if info.Name() != "a.jpg" {
		t.Errorf("Expected a.jpg, got %s", info.Name())
	}
}
