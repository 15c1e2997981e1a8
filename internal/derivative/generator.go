package derivative

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"media-enricher/internal/catalog"
	"media-enricher/internal/exiftool"
	"media-enricher/internal/logging"
	"media-enricher/internal/mediatypes"
	"media-enricher/internal/metrics"
)

// Generator produces thumbnail and preview images from source media.
//
// Generated images are NOT orientation-corrected for RAW sources: their
// embedded previews carry no rotation, and the orientation code only becomes
// known once the metadata batch completes. Callers apply Orient afterwards.
// Raster and video sources auto-orient during decode, so Orient is a no-op
// for them.
type Generator struct {
	tool          exiftool.Tool
	thumbnailSize int
	previewSize   int
}

// NewGenerator creates a Generator. Zero sizes fall back to the defaults.
func NewGenerator(tool exiftool.Tool, thumbnailSize, previewSize int) *Generator {
	if thumbnailSize <= 0 {
		thumbnailSize = DefaultThumbnailSize
	}
	if previewSize <= 0 {
		previewSize = DefaultPreviewSize
	}
	return &Generator{
		tool:          tool,
		thumbnailSize: thumbnailSize,
		previewSize:   previewSize,
	}
}

// SizeFor returns the bounding-box edge length for a derivative kind.
func (g *Generator) SizeFor(kind Kind) int {
	if kind == KindPreview {
		return g.previewSize
	}
	return g.thumbnailSize
}

// Generate decodes the source and scales it to fit the kind's bounding box.
// The result preserves aspect ratio and is never upscaled beyond the source.
func (g *Generator) Generate(ctx context.Context, ref catalog.MediaRef, kind Kind) (image.Image, error) {
	if _, err := os.Stat(ref.Path); err != nil {
		metrics.DerivativeFailures.Inc()
		return nil, fmt.Errorf("source not accessible: %w", err)
	}

	start := time.Now()
	size := g.SizeFor(kind)

	var img image.Image
	var err error
	switch ref.Family {
	case mediatypes.FamilyRaster:
		img, err = g.decodeRaster(ctx, ref.Path, size)
	case mediatypes.FamilyRaw:
		img, err = g.decodeRawPreview(ctx, ref.Path)
	case mediatypes.FamilyVideo:
		img, err = extractVideoFrame(ctx, ref.Path)
	default:
		err = fmt.Errorf("no derivative for family %s", ref.Family)
	}
	if err != nil {
		metrics.DerivativeFailures.Inc()
		return nil, err
	}
	if img == nil {
		metrics.DerivativeFailures.Inc()
		return nil, fmt.Errorf("decode returned no image for %s", ref.Path)
	}

	out := imaging.Fit(img, size, size, imaging.Lanczos)
	metrics.DerivativeDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	return out, nil
}

// Orient applies the EXIF orientation to a generated image when the decode
// path did not already do so. Raster and video decodes auto-orient, so only
// RAW embedded previews are rotated here. This is the single guard against
// double rotation.
func (g *Generator) Orient(family mediatypes.FormatFamily, img image.Image, orientation *int) image.Image {
	if img == nil || orientation == nil {
		return img
	}
	if mediatypes.DecoderAutoOrients(family) {
		return img
	}
	return applyOrientation(img, *orientation)
}

// decodeRaster loads a raster image, preferring the vips decode-time
// shrinking path when libvips is present.
func (g *Generator) decodeRaster(ctx context.Context, path string, size int) (image.Image, error) {
	if vipsEnabled() {
		img, err := loadWithVips(path, size, size)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips decode failed for %s: %v, falling back", path, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	logging.Debug("imaging.Open failed for %s: %v, trying stdlib decode", path, err)

	img, err = decodeImageFile(path)
	if err == nil {
		return img, nil
	}
	logging.Debug("Standard decode failed for %s: %v, trying ffmpeg", path, err)

	img, err = decodeWithFFmpeg(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("all decode methods failed for %s: %w", path, err)
	}
	return img, nil
}

// decodeRawPreview pulls the embedded preview out of a RAW file. The RAW
// file itself is never decoded and never written.
func (g *Generator) decodeRawPreview(ctx context.Context, path string) (image.Image, error) {
	data, err := g.tool.ExtractPreview(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("no embedded preview in %s: %w", path, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("embedded preview decode failed for %s: %w", path, err)
	}
	return img, nil
}

func decodeImageFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	logging.Debug("Decoded image format: %s for %s", format, path)
	return img, nil
}
