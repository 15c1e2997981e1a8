package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"media-enricher/internal/logging"
	"media-enricher/internal/mediatypes"
	"media-enricher/internal/metrics"
)

// resumeGrace is how long events stay suppressed after the last Resume.
// In-flight events for our own writes can arrive slightly after the write
// returns; without the grace window they would trigger a spurious rescan.
const resumeGrace = 500 * time.Millisecond

// debounceTime is how long a path must be quiet before its event is
// delivered, so half-written files are not picked up.
const debounceTime = 500 * time.Millisecond

// Event is one observed change to a media file.
type Event struct {
	Path string
	Op   string // "create", "write", "remove", "rename"
}

// Monitor watches a directory tree for media file changes. The pipeline
// suspends it around its own metadata writes so self-inflicted events are
// dropped instead of re-enqueued.
type Monitor struct {
	root    string
	watcher *fsnotify.Watcher
	events  chan Event
	stop    chan struct{}
	done    chan struct{}

	mu           sync.Mutex
	suspendCount int
	resumedAt    time.Time
	pending      map[string]pendingEvent
}

type pendingEvent struct {
	op   string
	seen time.Time
}

// New creates a Monitor for the directory tree rooted at root.
func New(root string) (*Monitor, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Monitor{
		root:    root,
		watcher: w,
		events:  make(chan Event, 100),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		pending: make(map[string]pendingEvent),
	}, nil
}

// Events is the channel of debounced, non-suppressed change events.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Start begins watching. Watches are added recursively; directories created
// later are picked up from their create events.
func (m *Monitor) Start() error {
	count := 0
	err := filepath.Walk(m.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && !strings.HasPrefix(info.Name(), ".") {
			if addErr := m.watcher.Add(path); addErr != nil {
				logging.Warn("failed to watch %s: %v", path, addErr)
			} else {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", m.root, err)
	}
	logging.Debug("Monitor started, watching %d directories under %s", count, m.root)

	go m.loop()
	return nil
}

// Stop shuts the monitor down and closes the event channel.
func (m *Monitor) Stop() {
	close(m.stop)
	<-m.done
}

// Suspend pauses event delivery. Calls nest; delivery restarts only after
// the matching number of Resume calls plus a short grace window.
func (m *Monitor) Suspend() {
	m.mu.Lock()
	m.suspendCount++
	m.mu.Unlock()
	metrics.MonitorSuspends.Inc()
}

// Resume undoes one Suspend.
func (m *Monitor) Resume() {
	m.mu.Lock()
	if m.suspendCount > 0 {
		m.suspendCount--
		if m.suspendCount == 0 {
			m.resumedAt = time.Now()
		}
	}
	m.mu.Unlock()
}

// Suspended reports whether events are currently being dropped.
func (m *Monitor) Suspended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.suspendCount > 0 || time.Since(m.resumedAt) < resumeGrace
}

func (m *Monitor) loop() {
	defer close(m.done)
	defer close(m.events)
	defer func() {
		if err := m.watcher.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleEvent(event)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher error: %v", err)

		case <-ticker.C:
			m.flushPending()
		}
	}
}

func (m *Monitor) handleEvent(event fsnotify.Event) {
	if strings.Contains(event.Name, "/.") {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if addErr := m.watcher.Add(event.Name); addErr != nil {
				logging.Warn("failed to watch new directory %s: %v", event.Name, addErr)
			} else {
				logging.Debug("Watching new directory: %s", event.Name)
			}
			return
		}
	}

	ext := strings.ToLower(filepath.Ext(event.Name))
	if !mediatypes.IsEnrichable(ext) {
		return
	}

	if m.Suspended() {
		metrics.MonitorEventsDropped.Inc()
		return
	}

	op := opString(event.Op)
	if op == "" {
		return
	}

	// Removes and renames do not get quieter; deliver those immediately.
	if op == "remove" || op == "rename" {
		m.deliver(Event{Path: event.Name, Op: op})
		return
	}

	m.mu.Lock()
	m.pending[event.Name] = pendingEvent{op: op, seen: time.Now()}
	m.mu.Unlock()
}

func (m *Monitor) flushPending() {
	m.mu.Lock()
	now := time.Now()
	var ready []Event
	for path, p := range m.pending {
		if now.Sub(p.seen) < debounceTime {
			continue
		}
		delete(m.pending, path)
		ready = append(ready, Event{Path: path, Op: p.op})
	}
	suspended := m.suspendCount > 0 || time.Since(m.resumedAt) < resumeGrace
	m.mu.Unlock()

	for _, e := range ready {
		if suspended {
			metrics.MonitorEventsDropped.Inc()
			continue
		}
		m.deliver(e)
	}
}

func (m *Monitor) deliver(e Event) {
	select {
	case m.events <- e:
		metrics.MonitorEvents.Inc()
	default:
		metrics.MonitorEventsDropped.Inc()
		logging.Warn("Monitor event channel full, dropping %s %s", e.Op, e.Path)
	}
}

func opString(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	}
	return ""
}
