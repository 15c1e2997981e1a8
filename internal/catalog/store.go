package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-enricher/internal/logging"
	"media-enricher/internal/mediatypes"
)

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// ErrNotFound is returned when a catalog item does not exist.
var ErrNotFound = errors.New("catalog: item not found")

// Store manages the structured store backing the catalog: media refs,
// editable overlays, and extracted metadata records.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewStore opens (or creates) the catalog database at dbPath. The parent
// directory must already exist and be writable.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	logging.Info("Catalog store path: %s", dbPath)

	// WAL mode and a busy timeout keep concurrent readers from tripping
	// over the batch writer. Foreign keys are required for overlay cascade.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	logging.Info("Catalog store initialized at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	-- Catalog items: one row per MediaRef
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		family TEXT NOT NULL,
		added_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_items_path ON items(path);
	CREATE INDEX IF NOT EXISTS idx_items_family ON items(family);

	-- User-editable overlay, one row per item, cascade-deleted
	CREATE TABLE IF NOT EXISTS overlays (
		item_id TEXT PRIMARY KEY,
		rating INTEGER,
		color_label TEXT,
		favorite INTEGER,
		flag TEXT,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
	);

	-- Extracted metadata, one row per item, replaced wholesale
	CREATE TABLE IF NOT EXISTS extracted (
		item_id TEXT PRIMARY KEY,
		make TEXT,
		model TEXT,
		lens TEXT,
		focal_length REAL,
		aperture REAL,
		shutter TEXT,
		iso INTEGER,
		latitude REAL,
		longitude REAL,
		captured_at INTEGER,
		artist TEXT,
		copyright TEXT,
		description TEXT,
		orientation INTEGER,
		width INTEGER,
		height INTEGER,
		rating INTEGER,
		FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_extracted_captured ON extracted(captured_at);
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddRef inserts a media ref. Inserting a ref whose path already exists is
// a no-op and returns the existing ref.
func (s *Store) AddRef(ctx context.Context, ref MediaRef) (MediaRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, path, family, added_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO NOTHING
	`, ref.ID, ref.Path, string(ref.Family), ref.AddedAt.Unix())
	if err != nil {
		return MediaRef{}, fmt.Errorf("failed to add catalog item: %w", err)
	}

	return s.getRefByPathLocked(ctx, ref.Path)
}

func (s *Store) getRefByPathLocked(ctx context.Context, path string) (MediaRef, error) {
	var ref MediaRef
	var family string
	var addedAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, path, family, added_at FROM items WHERE path = ?", path).
		Scan(&ref.ID, &ref.Path, &family, &addedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return MediaRef{}, ErrNotFound
	}
	if err != nil {
		return MediaRef{}, err
	}
	ref.Family = mediatypes.FormatFamily(family)
	ref.AddedAt = time.Unix(addedAt, 0)
	return ref, nil
}

// GetRefByPath returns the media ref whose path matches exactly.
func (s *Store) GetRefByPath(ctx context.Context, path string) (MediaRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return s.getRefByPathLocked(ctx, path)
}

// GetRef returns the media ref for an identifier.
func (s *Store) GetRef(ctx context.Context, id string) (MediaRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ref MediaRef
	var family string
	var addedAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, path, family, added_at FROM items WHERE id = ?", id).
		Scan(&ref.ID, &ref.Path, &family, &addedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return MediaRef{}, ErrNotFound
	}
	if err != nil {
		return MediaRef{}, err
	}
	ref.Family = mediatypes.FormatFamily(family)
	ref.AddedAt = time.Unix(addedAt, 0)
	return ref, nil
}

// GetRefs resolves a set of identifiers to refs. Unknown ids are simply
// absent from the result map.
func (s *Store) GetRefs(ctx context.Context, ids []string) (map[string]MediaRef, error) {
	refs := make(map[string]MediaRef, len(ids))
	for _, id := range ids {
		ref, err := s.GetRef(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return refs, err
		}
		refs[id] = ref
	}
	return refs, nil
}

// RemoveRef deletes a catalog item. The overlay and extracted metadata rows
// cascade with it.
func (s *Store) RemoveRef(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	return err
}

// CountItems returns the number of catalog items.
func (s *Store) CountItems(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count)
	return count, err
}

// DatabasePath returns the path of the backing database file.
func (s *Store) DatabasePath() string {
	return s.dbPath
}
