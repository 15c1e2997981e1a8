package filesystem

import (
	"fmt"
	"os"
	"time"

	"media-enricher/internal/logging"
	"media-enricher/internal/metrics"
)

// DefaultTimeout bounds metadata operations against slow or disconnected
// storage. Callers degrade to "no result" instead of hanging.
const DefaultTimeout = 2 * time.Second

type statResult struct {
	info os.FileInfo
	err  error
}

// StatWithTimeout performs os.Stat but gives up after the timeout. The
// abandoned goroutine finishes (or hangs) on its own; the caller moves on.
func StatWithTimeout(path string, timeout time.Duration) (os.FileInfo, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ch := make(chan statResult, 1)
	go func() {
		info, err := os.Stat(path)
		ch <- statResult{info: info, err: err}
	}()

	select {
	case r := <-ch:
		return r.info, r.err
	case <-time.After(timeout):
		metrics.FilesystemTimeouts.WithLabelValues("stat").Inc()
		logging.Warn("Stat timed out after %v for %s", timeout, path)
		return nil, fmt.Errorf("stat timed out after %v: %s", timeout, path)
	}
}

// ReadDirWithTimeout performs os.ReadDir but gives up after the timeout.
func ReadDirWithTimeout(path string, timeout time.Duration) ([]os.DirEntry, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	type result struct {
		entries []os.DirEntry
		err     error
	}

	ch := make(chan result, 1)
	go func() {
		entries, err := os.ReadDir(path)
		ch <- result{entries: entries, err: err}
	}()

	select {
	case r := <-ch:
		return r.entries, r.err
	case <-time.After(timeout):
		metrics.FilesystemTimeouts.WithLabelValues("readdir").Inc()
		logging.Warn("ReadDir timed out after %v for %s", timeout, path)
		return nil, fmt.Errorf("readdir timed out after %v: %s", timeout, path)
	}
}
