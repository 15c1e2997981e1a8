package catalog

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"media-enricher/internal/mediatypes"
)

// MediaRef identifies one source media file. The ID is durable across
// renames within the catalog; the path is the current resolvable location.
// A MediaRef is immutable once created.
type MediaRef struct {
	ID      string                  `json:"id"`
	Path    string                  `json:"path"`
	Family  mediatypes.FormatFamily `json:"family"`
	AddedAt time.Time               `json:"addedAt"`
}

// NewMediaRef creates a MediaRef for a file path, classifying it by
// extension and assigning a fresh durable identifier.
func NewMediaRef(path string) MediaRef {
	ext := strings.ToLower(filepath.Ext(path))
	return MediaRef{
		ID:      uuid.NewString(),
		Path:    path,
		Family:  mediatypes.FamilyForExt(ext),
		AddedAt: time.Now(),
	}
}

// ExtractedMetadata holds normalized metadata for a media file. Every field
// is optional: nil means "unknown", never a zero-value default. Width and
// Height are always visual (post-rotation) dimensions. Records are replaced
// wholesale on regeneration, never mutated in place.
type ExtractedMetadata struct {
	Make        *string    `json:"make,omitempty"`
	Model       *string    `json:"model,omitempty"`
	Lens        *string    `json:"lens,omitempty"`
	FocalLength *float64   `json:"focalLength,omitempty"`
	Aperture    *float64   `json:"aperture,omitempty"`
	Shutter     *string    `json:"shutter,omitempty"`
	ISO         *int       `json:"iso,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	CapturedAt  *time.Time `json:"capturedAt,omitempty"`
	Artist      *string    `json:"artist,omitempty"`
	Copyright   *string    `json:"copyright,omitempty"`
	Description *string    `json:"description,omitempty"`
	Orientation *int       `json:"orientation,omitempty"`
	Width       *int       `json:"width,omitempty"`
	Height      *int       `json:"height,omitempty"`
	Rating      *int       `json:"rating,omitempty"`
}

// Overlay holds the user-editable metadata for a catalog item. For RAW
// items the overlay is the only place these values live; disk metadata for
// those formats is never mutated.
type Overlay struct {
	ItemID     string    `json:"itemId"`
	Rating     *int      `json:"rating,omitempty"`
	ColorLabel *string   `json:"colorLabel,omitempty"`
	Favorite   *bool     `json:"favorite,omitempty"`
	Flag       *string   `json:"flag,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// OverlayChanges is a sparse set of overlay edits. A nil field means
// "leave unchanged".
type OverlayChanges struct {
	Rating     *int
	ColorLabel *string
	Favorite   *bool
	Flag       *string
}

// IsEmpty returns true if no field is set.
func (c OverlayChanges) IsEmpty() bool {
	return c.Rating == nil && c.ColorLabel == nil && c.Favorite == nil && c.Flag == nil
}

// Flag values for the pick/reject state.
const (
	FlagPick   = "pick"
	FlagReject = "reject"
)
