package scheduler

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"media-enricher/internal/cache"
	"media-enricher/internal/catalog"
	"media-enricher/internal/derivative"
	"media-enricher/internal/logging"
	"media-enricher/internal/mediatypes"
	"media-enricher/internal/metrics"
	"media-enricher/internal/workers"
)

const (
	// batchSize balances throughput against cancellation responsiveness.
	batchSize = 8

	// batchYield keeps the loop from monopolizing the process between
	// batches.
	batchYield = 10 * time.Millisecond

	// statusInterval throttles progress status updates.
	statusInterval = 500 * time.Millisecond

	// statusClearDelay is how long a terminal status stays visible.
	statusClearDelay = 3 * time.Second
)

// MetadataReader is the metadata extraction capability the loop drives.
type MetadataReader interface {
	ReadBatch(ctx context.Context, refs []catalog.MediaRef) map[string]*catalog.ExtractedMetadata
}

// Generator is the derivative generation capability the loop drives.
type Generator interface {
	Generate(ctx context.Context, ref catalog.MediaRef, kind derivative.Kind) (image.Image, error)
	Orient(family mediatypes.FormatFamily, img image.Image, orientation *int) image.Image
}

// Snapshot is the externally observable scheduler state.
type Snapshot struct {
	IsRunning     bool    `json:"isRunning"`
	Progress      float64 `json:"progress"`
	Remaining     int     `json:"remaining"`
	StatusMessage string  `json:"statusMessage"`
}

// Scheduler owns the enrichment queue. One background goroutine drains it
// in FIFO batches; per-item work fans out inside each batch. All queue
// state is in-memory and lost on restart.
type Scheduler struct {
	store  *catalog.Store
	reader MetadataReader
	gen    Generator
	cache  *cache.Cache

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	genSlots chan struct{}

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []string
	queued    map[string]bool
	cancelled map[string]bool
	epoch     int
	suspended bool
	running   bool
	stopping  bool
	inFlight  int
	total     int
	completed int
	status    string
	statusSeq int
	statusAt  time.Time
}

// New creates a Scheduler. Call Start to begin processing.
func New(store *catalog.Store, reader MetadataReader, gen Generator, c *cache.Cache) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		store:     store,
		reader:    reader,
		gen:       gen,
		cache:     c,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		genSlots:  make(chan struct{}, workers.ForMixed(batchSize)),
		queued:    make(map[string]bool),
		cancelled: make(map[string]bool),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Start launches the processing loop.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop shuts the loop down. In-flight items finish their checkpoints and
// are abandoned; queued items stay unprocessed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()
	s.cancel()
	s.cond.Broadcast()
	<-s.done
}

// Enqueue appends item ids to the queue tail. Already-queued ids are
// no-ops. When the queue was drained the progress baseline resets to the
// new total.
func (s *Scheduler) Enqueue(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 && s.inFlight == 0 {
		s.total = 0
		s.completed = 0
	}

	added := 0
	for _, id := range ids {
		if id == "" || s.queued[id] {
			continue
		}
		s.queue = append(s.queue, id)
		s.queued[id] = true
		delete(s.cancelled, id)
		added++
	}
	if added == 0 {
		return
	}

	s.total += added
	s.running = true
	metrics.QueueDepth.Set(float64(len(s.queue)))
	metrics.SchedulerRunning.Set(1)
	logging.Debug("Enqueued %d items (queue depth %d)", added, len(s.queue))
	s.cond.Broadcast()
}

// CancelAll drops every queued item and marks in-flight work for skipping
// at its next checkpoint. Terminal status is "Cancelled".
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := len(s.queue)
	s.queue = nil
	s.queued = make(map[string]bool)
	s.cancelled = make(map[string]bool)
	s.epoch++
	s.total = 0
	s.completed = 0
	s.running = false
	s.setStatusLocked("Cancelled", true)
	metrics.QueueDepth.Set(0)
	metrics.SchedulerRunning.Set(0)
	if dropped > 0 {
		metrics.ItemsCancelled.Add(float64(dropped))
	}
	logging.Info("Enrichment cancelled, dropped %d queued items", dropped)
	s.cond.Broadcast()
}

// CancelSome removes the given ids from the queue and marks any in-flight
// ones for skipping. Run state is unchanged.
func (s *Scheduler) CancelSome(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	kept := s.queue[:0]
	removed := 0
	for _, id := range s.queue {
		if want[id] {
			delete(s.queued, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.queue = kept

	// In-flight ids are not in the queue anymore; mark them so the next
	// checkpoint skips them.
	for id := range want {
		if !s.queued[id] {
			s.cancelled[id] = true
		}
	}

	s.completed += removed
	metrics.QueueDepth.Set(float64(len(s.queue)))
	if removed > 0 {
		metrics.ItemsCancelled.Add(float64(removed))
	}
}

// Suspend pauses the loop at the next batch boundary. Idempotent.
func (s *Scheduler) Suspend() {
	s.mu.Lock()
	s.suspended = true
	s.mu.Unlock()
}

// Resume continues a suspended loop. Idempotent.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	s.suspended = false
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Snapshot returns the observable state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		IsRunning:     s.running,
		Progress:      s.progressLocked(),
		Remaining:     len(s.queue) + s.inFlight,
		StatusMessage: s.status,
	}
}

func (s *Scheduler) progressLocked() float64 {
	if s.total == 0 {
		return 0
	}
	remaining := len(s.queue) + s.inFlight
	p := float64(s.total-remaining) / float64(s.total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// setStatusLocked replaces the status message. Terminal statuses self-clear
// after a short delay unless something newer replaced them first.
func (s *Scheduler) setStatusLocked(msg string, terminal bool) {
	s.status = msg
	s.statusSeq++
	s.statusAt = time.Now()
	if !terminal {
		return
	}
	seq := s.statusSeq
	time.AfterFunc(statusClearDelay, func() {
		s.mu.Lock()
		if s.statusSeq == seq {
			s.status = ""
			s.statusSeq++
		}
		s.mu.Unlock()
	})
}

func (s *Scheduler) run() {
	defer close(s.done)

	for {
		s.mu.Lock()
		for (len(s.queue) == 0 || s.suspended) && !s.stopping {
			if len(s.queue) == 0 && s.running && s.inFlight == 0 {
				s.running = false
				s.setStatusLocked("Finished", true)
				metrics.SchedulerRunning.Set(0)
				logging.Info("Enrichment finished, %d items processed", s.completed)
			}
			s.cond.Wait()
		}
		if s.stopping {
			s.mu.Unlock()
			return
		}

		n := batchSize
		if n > len(s.queue) {
			n = len(s.queue)
		}
		ids := make([]string, n)
		copy(ids, s.queue[:n])
		s.queue = s.queue[n:]
		for _, id := range ids {
			delete(s.queued, id)
		}
		s.inFlight = n
		epoch := s.epoch
		metrics.QueueDepth.Set(float64(len(s.queue)))
		s.mu.Unlock()

		processed := s.processBatch(ids, epoch)

		s.mu.Lock()
		s.inFlight = 0
		if s.epoch == epoch {
			s.completed += processed
			s.maybeUpdateProgressLocked()
		}
		s.mu.Unlock()

		time.Sleep(batchYield)
	}
}

func (s *Scheduler) maybeUpdateProgressLocked() {
	finished := len(s.queue) == 0 && s.inFlight == 0
	if !finished && time.Since(s.statusAt) < statusInterval {
		return
	}
	if s.total > 0 && !finished {
		s.setStatusLocked(fmt.Sprintf("Generating previews %d%%", int(s.progressLocked()*100)), false)
	}
}

// skipItem reports whether the item was cancelled (or the whole run
// superseded) since the batch started. Consulted at every checkpoint.
func (s *Scheduler) skipItem(id string, epoch int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch != epoch || s.cancelled[id]
}

type itemResult struct {
	ref    catalog.MediaRef
	thumb  image.Image
	prev   image.Image
	failed bool
}

// processBatch runs one batch end to end and returns how many items were
// accounted as processed. Per-item failures are logged and absorbed.
func (s *Scheduler) processBatch(ids []string, epoch int) int {
	start := time.Now()
	defer func() {
		metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}()

	refsByID, err := s.store.GetRefs(s.ctx, ids)
	if err != nil {
		logging.Error("Batch ref lookup failed: %v", err)
		return len(ids)
	}

	var refs []catalog.MediaRef
	for _, id := range ids {
		if ref, ok := refsByID[id]; ok {
			refs = append(refs, ref)
		} else {
			logging.Warn("Skipping unknown item %s", id)
		}
	}
	if len(refs) == 0 {
		return len(ids)
	}

	// Metadata for the whole batch and derivatives for each item run
	// concurrently; no queue or store lock is held here.
	var metas map[string]*catalog.ExtractedMetadata
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		metas = s.reader.ReadBatch(s.ctx, refs)
	}()

	results := make([]itemResult, len(refs))
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref catalog.MediaRef) {
			defer wg.Done()
			s.genSlots <- struct{}{}
			defer func() { <-s.genSlots }()
			results[i] = s.generateItem(ref)
		}(i, ref)
	}
	wg.Wait()

	// Cache writes happen before the store session opens, so no image or
	// file I/O ever runs under the batch transaction.
	for i := range results {
		r := &results[i]
		if r.failed {
			continue
		}
		if s.skipItem(r.ref.ID, epoch) {
			metrics.ItemsCancelled.Inc()
			r.failed = true
			continue
		}
		orientation := orientationFor(metas[r.ref.ID])
		if r.thumb != nil {
			s.cache.Store(r.ref.ID, derivative.KindThumbnail, s.gen.Orient(r.ref.Family, r.thumb, orientation))
		}
		if r.prev != nil {
			s.cache.Store(r.ref.ID, derivative.KindPreview, s.gen.Orient(r.ref.Family, r.prev, orientation))
		}
	}

	s.persistBatch(results, metas, epoch)

	metrics.ItemsProcessed.Add(float64(len(ids)))
	return len(ids)
}

func (s *Scheduler) generateItem(ref catalog.MediaRef) itemResult {
	r := itemResult{ref: ref}

	thumb, err := s.gen.Generate(s.ctx, ref, derivative.KindThumbnail)
	if err != nil {
		logging.Warn("Thumbnail generation failed for %s: %v", ref.Path, err)
		metrics.ItemFailures.Inc()
		r.failed = true
		return r
	}
	prev, err := s.gen.Generate(s.ctx, ref, derivative.KindPreview)
	if err != nil {
		logging.Warn("Preview generation failed for %s: %v", ref.Path, err)
	}

	r.thumb = thumb
	r.prev = prev
	return r
}

// persistBatch stores extracted metadata through one transactional session.
// A save failure for one item does not abort the others.
func (s *Scheduler) persistBatch(results []itemResult, metas map[string]*catalog.ExtractedMetadata, epoch int) {
	var toSave []catalog.MediaRef
	for i := range results {
		ref := results[i].ref
		if metas[ref.ID] == nil {
			continue
		}
		if s.skipItem(ref.ID, epoch) {
			continue
		}
		toSave = append(toSave, ref)
	}
	if len(toSave) == 0 {
		return
	}

	batch, err := s.store.BeginBatch(s.ctx)
	if err != nil {
		logging.Error("Failed to open batch session: %v", err)
		return
	}
	defer batch.Rollback()

	for _, ref := range toSave {
		if err := batch.SaveExtracted(s.ctx, ref.ID, metas[ref.ID]); err != nil {
			logging.Warn("Failed to persist metadata for %s: %v", ref.ID, err)
			metrics.ItemFailures.Inc()
		}
	}
	if err := batch.Commit(); err != nil {
		logging.Error("Batch commit failed: %v", err)
	}
}

func orientationFor(m *catalog.ExtractedMetadata) *int {
	if m == nil {
		return nil
	}
	return m.Orientation
}
