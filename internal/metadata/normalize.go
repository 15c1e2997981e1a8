package metadata

import (
	"fmt"
	"math"
	"time"

	"media-enricher/internal/catalog"
	"media-enricher/internal/exiftool"
)

// SwapsDimensions reports whether an orientation code implies a 90°/270°
// rotation, i.e. whether sensor-plane width/height must be swapped to get
// visual dimensions.
func SwapsDimensions(orientation int) bool {
	return orientation >= 5 && orientation <= 8
}

// VisualDimensions converts sensor-plane dimensions to visual (as-displayed)
// dimensions for the given orientation code. This is the single place that
// normalizes decoder differences: every caller hands in raw dimensions and
// gets back rotation-correct ones.
func VisualDimensions(width, height, orientation int) (int, int) {
	if SwapsDimensions(orientation) {
		return height, width
	}
	return width, height
}

// FormatShutter renders an exposure time in seconds as the conventional
// photographic notation ("1/250", "0.8", "30").
func FormatShutter(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	if seconds < 1 {
		denom := math.Round(1 / seconds)
		if denom > 0 {
			return fmt.Sprintf("1/%d", int(denom))
		}
	}
	if seconds == math.Trunc(seconds) {
		return fmt.Sprintf("%d", int(seconds))
	}
	return fmt.Sprintf("%g", seconds)
}

// exifTimeLayout is the timestamp format used by EXIF DateTimeOriginal.
const exifTimeLayout = "2006:01:02 15:04:05"

// mapFields converts raw tool fields into a normalized metadata record.
// Every field is optional; anything missing or malformed stays nil.
func mapFields(f exiftool.Fields) *catalog.ExtractedMetadata {
	m := &catalog.ExtractedMetadata{}

	if v, ok := f.String("Make"); ok {
		m.Make = &v
	}
	if v, ok := f.String("Model"); ok {
		m.Model = &v
	}
	if v, ok := f.String("LensModel"); ok {
		m.Lens = &v
	}
	if v, ok := f.Float("FocalLength"); ok && v > 0 {
		m.FocalLength = &v
	}
	if v, ok := f.Float("FNumber"); ok && v > 0 {
		m.Aperture = &v
	}
	if v, ok := f.Float("ExposureTime"); ok && v > 0 {
		s := FormatShutter(v)
		if s != "" {
			m.Shutter = &s
		}
	}
	if v, ok := f.Int("ISO"); ok && v > 0 {
		m.ISO = &v
	}
	if v, ok := f.Float("GPSLatitude"); ok {
		if lon, lonOK := f.Float("GPSLongitude"); lonOK {
			m.Latitude = &v
			m.Longitude = &lon
		}
	}
	for _, key := range []string{"DateTimeOriginal", "CreateDate"} {
		if v, ok := f.String(key); ok {
			if t, err := time.ParseInLocation(exifTimeLayout, v, time.Local); err == nil {
				m.CapturedAt = &t
				break
			}
		}
	}
	if v, ok := f.String("Artist"); ok {
		m.Artist = &v
	}
	if v, ok := f.String("Copyright"); ok {
		m.Copyright = &v
	}
	if v, ok := f.String("ImageDescription"); ok {
		m.Description = &v
	}
	if v, ok := f.Int("Orientation"); ok && v >= 1 && v <= 8 {
		m.Orientation = &v
	}
	if v, ok := f.Int("Rating"); ok && v >= 0 && v <= 5 {
		m.Rating = &v
	}

	// The tool reports sensor-plane dimensions; store visual ones.
	if w, wOK := f.Int("ImageWidth"); wOK && w > 0 {
		if h, hOK := f.Int("ImageHeight"); hOK && h > 0 {
			orientation := 1
			if m.Orientation != nil {
				orientation = *m.Orientation
			}
			vw, vh := VisualDimensions(w, h, orientation)
			m.Width = &vw
			m.Height = &vh
		}
	}

	return m
}
