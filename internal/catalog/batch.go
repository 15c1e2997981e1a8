package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"media-enricher/internal/logging"
)

// Batch is a single transactional session used by the enrichment loop to
// persist per-item results. It is the only writer while open: BeginBatch
// takes the store's write lock and Commit/Rollback release it, so image
// decode and cache I/O must never happen while a Batch is held.
type Batch struct {
	store *Store
	tx    *sql.Tx
	done  bool
}

// BeginBatch opens a transactional session for one scheduler batch.
func (s *Store) BeginBatch(ctx context.Context) (*Batch, error) {
	s.mu.Lock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to begin batch transaction: %w", err)
	}

	return &Batch{store: s, tx: tx}, nil
}

// SaveExtracted replaces the extracted metadata record for an item within
// the batch transaction.
func (b *Batch) SaveExtracted(ctx context.Context, itemID string, m *ExtractedMetadata) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := b.tx.ExecContext(ctx, saveExtractedQuery, extractedArgs(itemID, m)...)
	if err != nil {
		return fmt.Errorf("failed to save extracted metadata for %s: %w", itemID, err)
	}
	return nil
}

// Commit commits the batch and releases the store write lock.
func (b *Batch) Commit() error {
	if b.done {
		return nil
	}
	b.done = true
	defer b.store.mu.Unlock()

	start := time.Now()
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	logging.Debug("Batch committed in %v", time.Since(start))
	return nil
}

// Rollback aborts the batch and releases the store write lock. Safe to call
// after Commit (no-op).
func (b *Batch) Rollback() {
	if b.done {
		return
	}
	b.done = true
	defer b.store.mu.Unlock()

	if err := b.tx.Rollback(); err != nil {
		logging.Warn("Batch rollback failed: %v", err)
	}
}
