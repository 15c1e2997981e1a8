package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ApplyOverlay upserts the sparse overlay changes for an item. Unset fields
// keep their stored values; the row is created on first edit.
func (s *Store) ApplyOverlay(ctx context.Context, itemID string, changes OverlayChanges) error {
	if changes.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// COALESCE keeps unchanged columns on conflict; a nil bound parameter
	// falls through to the existing value.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO overlays (item_id, rating, color_label, favorite, flag, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			rating = COALESCE(excluded.rating, overlays.rating),
			color_label = COALESCE(excluded.color_label, overlays.color_label),
			favorite = COALESCE(excluded.favorite, overlays.favorite),
			flag = COALESCE(excluded.flag, overlays.flag),
			updated_at = excluded.updated_at
	`,
		itemID,
		nullInt(changes.Rating),
		nullString(changes.ColorLabel),
		nullBool(changes.Favorite),
		nullString(changes.Flag),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to apply overlay for %s: %w", itemID, err)
	}
	return nil
}

// GetOverlay returns the overlay for an item, or ErrNotFound if the item has
// never been edited.
func (s *Store) GetOverlay(ctx context.Context, itemID string) (Overlay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var o Overlay
	var rating sql.NullInt64
	var colorLabel, flag sql.NullString
	var favorite sql.NullInt64
	var updatedAt int64

	err := s.db.QueryRowContext(ctx, `
		SELECT item_id, rating, color_label, favorite, flag, updated_at
		FROM overlays WHERE item_id = ?
	`, itemID).Scan(&o.ItemID, &rating, &colorLabel, &favorite, &flag, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Overlay{}, ErrNotFound
	}
	if err != nil {
		return Overlay{}, err
	}

	if rating.Valid {
		v := int(rating.Int64)
		o.Rating = &v
	}
	if colorLabel.Valid {
		v := colorLabel.String
		o.ColorLabel = &v
	}
	if favorite.Valid {
		v := favorite.Int64 != 0
		o.Favorite = &v
	}
	if flag.Valid {
		v := flag.String
		o.Flag = &v
	}
	o.UpdatedAt = time.Unix(updatedAt, 0)
	return o, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullBool(v *bool) any {
	if v == nil {
		return nil
	}
	if *v {
		return 1
	}
	return 0
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.Unix()
}
