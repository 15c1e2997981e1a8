package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const saveExtractedQuery = `
	INSERT OR REPLACE INTO extracted (
		item_id, make, model, lens, focal_length, aperture, shutter, iso,
		latitude, longitude, captured_at, artist, copyright, description,
		orientation, width, height, rating
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func extractedArgs(itemID string, m *ExtractedMetadata) []any {
	return []any{
		itemID,
		nullString(m.Make),
		nullString(m.Model),
		nullString(m.Lens),
		nullFloat(m.FocalLength),
		nullFloat(m.Aperture),
		nullString(m.Shutter),
		nullInt(m.ISO),
		nullFloat(m.Latitude),
		nullFloat(m.Longitude),
		nullTime(m.CapturedAt),
		nullString(m.Artist),
		nullString(m.Copyright),
		nullString(m.Description),
		nullInt(m.Orientation),
		nullInt(m.Width),
		nullInt(m.Height),
		nullInt(m.Rating),
	}
}

// SaveExtracted replaces the extracted metadata record for an item.
func (s *Store) SaveExtracted(ctx context.Context, itemID string, m *ExtractedMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, saveExtractedQuery, extractedArgs(itemID, m)...)
	if err != nil {
		return fmt.Errorf("failed to save extracted metadata for %s: %w", itemID, err)
	}
	return nil
}

// GetExtracted returns the stored extracted metadata for an item, or
// ErrNotFound if none has been recorded.
func (s *Store) GetExtracted(ctx context.Context, itemID string) (*ExtractedMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT make, model, lens, focal_length, aperture, shutter, iso,
		       latitude, longitude, captured_at, artist, copyright, description,
		       orientation, width, height, rating
		FROM extracted WHERE item_id = ?
	`, itemID)

	var (
		mk, model, lens, shutter, artist, copyright, description sql.NullString
		focalLength, aperture, latitude, longitude               sql.NullFloat64
		iso, capturedAt, orientation, width, height, rating      sql.NullInt64
	)

	err := row.Scan(&mk, &model, &lens, &focalLength, &aperture, &shutter, &iso,
		&latitude, &longitude, &capturedAt, &artist, &copyright, &description,
		&orientation, &width, &height, &rating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	m := &ExtractedMetadata{}
	setString := func(dst **string, v sql.NullString) {
		if v.Valid {
			s := v.String
			*dst = &s
		}
	}
	setFloat := func(dst **float64, v sql.NullFloat64) {
		if v.Valid {
			f := v.Float64
			*dst = &f
		}
	}
	setInt := func(dst **int, v sql.NullInt64) {
		if v.Valid {
			i := int(v.Int64)
			*dst = &i
		}
	}

	setString(&m.Make, mk)
	setString(&m.Model, model)
	setString(&m.Lens, lens)
	setFloat(&m.FocalLength, focalLength)
	setFloat(&m.Aperture, aperture)
	setString(&m.Shutter, shutter)
	setInt(&m.ISO, iso)
	setFloat(&m.Latitude, latitude)
	setFloat(&m.Longitude, longitude)
	if capturedAt.Valid {
		t := time.Unix(capturedAt.Int64, 0)
		m.CapturedAt = &t
	}
	setString(&m.Artist, artist)
	setString(&m.Copyright, copyright)
	setString(&m.Description, description)
	setInt(&m.Orientation, orientation)
	setInt(&m.Width, width)
	setInt(&m.Height, height)
	setInt(&m.Rating, rating)
	return m, nil
}
