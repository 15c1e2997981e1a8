package derivative

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"media-enricher/internal/catalog"
	"media-enricher/internal/exiftool"
	"media-enricher/internal/mediatypes"
)

type stubTool struct {
	preview []byte
}

func (s *stubTool) ReadBatch(_ context.Context, _ []string) (map[string]exiftool.Fields, error) {
	return nil, nil
}

func (s *stubTool) WriteBatch(_ context.Context, _ []string, _ map[string]string) error {
	return nil
}

func (s *stubTool) ExtractPreview(_ context.Context, _ string) ([]byte, error) {
	if s.preview == nil {
		return nil, exiftool.ErrUnavailable
	}
	return s.preview, nil
}

func (s *stubTool) Available() bool { return true }

// markedImage has a red pixel at (0,0) and distinct dimensions, so rotations
// are observable.
func markedImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{A: 255})
		}
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSizeFor(t *testing.T) {
	g := NewGenerator(&stubTool{}, 0, 0)
	if got := g.SizeFor(KindThumbnail); got != DefaultThumbnailSize {
		t.Errorf("Expected default thumbnail size %d, got %d", DefaultThumbnailSize, got)
	}
	if got := g.SizeFor(KindPreview); got != DefaultPreviewSize {
		t.Errorf("Expected default preview size %d, got %d", DefaultPreviewSize, got)
	}

	g = NewGenerator(&stubTool{}, 200, 800)
	if got := g.SizeFor(KindThumbnail); got != 200 {
		t.Errorf("Expected 200, got %d", got)
	}
	if got := g.SizeFor(KindPreview); got != 800 {
		t.Errorf("Expected 800, got %d", got)
	}
}

func TestGenerateScalesDown(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png", markedImage(400, 200))

	g := NewGenerator(&stubTool{}, 100, 150)
	ref := catalog.NewMediaRef(path)

	img, err := g.Generate(context.Background(), ref, KindThumbnail)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// 400x200 fit into 100x100 preserves aspect ratio
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Errorf("Expected 100x50, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestGenerateNeverUpscales(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png", markedImage(40, 20))

	g := NewGenerator(&stubTool{}, 600, 1024)
	ref := catalog.NewMediaRef(path)

	img, err := g.Generate(context.Background(), ref, KindPreview)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if img.Bounds().Dx() > 40 || img.Bounds().Dy() > 20 {
		t.Errorf("Expected no upscaling, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestGenerateMissingFile(t *testing.T) {
	g := NewGenerator(&stubTool{}, 100, 100)
	ref := catalog.NewMediaRef(filepath.Join(t.TempDir(), "missing.jpg"))

	if _, err := g.Generate(context.Background(), ref, KindThumbnail); err == nil {
		t.Fatal("Expected an error for a missing source")
	}
}

func TestGenerateRawWithoutPreviewFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cr2")
	if err := os.WriteFile(path, []byte("raw-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := NewGenerator(&stubTool{}, 100, 100)
	ref := catalog.NewMediaRef(path)

	if _, err := g.Generate(context.Background(), ref, KindThumbnail); err == nil {
		t.Fatal("Expected an error when no embedded preview exists")
	}
}

func TestApplyOrientation(t *testing.T) {
	src := markedImage(4, 2)

	tests := []struct {
		orientation  int
		wantW, wantH int
		redX, redY   int
	}{
		{1, 4, 2, 0, 0},
		{2, 4, 2, 3, 0}, // mirrored horizontally
		{3, 4, 2, 3, 1}, // rotated 180
		{4, 4, 2, 0, 1}, // mirrored vertically
		{5, 2, 4, 0, 0}, // transposed
		{6, 2, 4, 1, 0}, // rotated 90 cw
		{7, 2, 4, 1, 3}, // transverse
		{8, 2, 4, 0, 3}, // rotated 270 cw
		{0, 4, 2, 0, 0}, // unknown code passes through
		{9, 4, 2, 0, 0},
	}

	for _, tt := range tests {
		out := applyOrientation(src, tt.orientation)
		b := out.Bounds()
		if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("orientation %d: expected %dx%d, got %dx%d",
				tt.orientation, tt.wantW, tt.wantH, b.Dx(), b.Dy())
			continue
		}
		r, _, _, _ := out.At(b.Min.X+tt.redX, b.Min.Y+tt.redY).RGBA()
		if r < 0x8000 {
			t.Errorf("orientation %d: expected marker pixel at (%d, %d)",
				tt.orientation, tt.redX, tt.redY)
		}
	}
}

func TestOrientSkipsAutoOrientingFamilies(t *testing.T) {
	g := NewGenerator(&stubTool{}, 100, 100)
	src := markedImage(4, 2)
	rot := 6

	// Raster and video decodes already orient; no second rotation
	for _, family := range []mediatypes.FormatFamily{mediatypes.FamilyRaster, mediatypes.FamilyVideo} {
		out := g.Orient(family, src, &rot)
		if out.Bounds().Dx() != 4 {
			t.Errorf("Expected %s image untouched, got %dx%d", family, out.Bounds().Dx(), out.Bounds().Dy())
		}
	}

	// RAW embedded previews carry no rotation; Orient applies it
	out := g.Orient(mediatypes.FamilyRaw, src, &rot)
	if out.Bounds().Dx() != 2 || out.Bounds().Dy() != 4 {
		t.Errorf("Expected rotated 2x4 image, got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestOrientNilCases(t *testing.T) {
	g := NewGenerator(&stubTool{}, 100, 100)
	src := markedImage(4, 2)

	if out := g.Orient(mediatypes.FamilyRaw, src, nil); out != src {
		t.Error("Expected nil orientation to pass through")
	}
	if out := g.Orient(mediatypes.FamilyRaw, nil, nil); out != nil {
		t.Error("Expected nil image to pass through")
	}
}
