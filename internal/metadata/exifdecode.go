package metadata

import (
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	heicexif "github.com/dsoprea/go-heic-exif-extractor"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure"
	pngstructure "github.com/dsoprea/go-png-image-structure"
	tiffstructure "github.com/dsoprea/go-tiff-image-structure"
	riimage "github.com/dsoprea/go-utility/image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"media-enricher/internal/catalog"
	"media-enricher/internal/exiftool"
	"media-enricher/internal/logging"
)

type structureParser interface {
	Parse(rs io.ReadSeeker, size int) (ec riimage.MediaContext, err error)
}

func parserForExt(ext string) structureParser {
	switch ext {
	case ".jpg", ".jpeg":
		return jpegstructure.NewJpegMediaParser()
	case ".png":
		return pngstructure.NewPngMediaParser()
	case ".tif", ".tiff":
		return tiffstructure.NewTiffMediaParser()
	case ".heic", ".heif", ".avif":
		return heicexif.NewHeicExifMediaParser()
	default:
		return nil
	}
}

// rationalKeys are tags whose in-file encoding is a rational ("50/1") and
// whose normalized form is a float.
var rationalKeys = map[string]string{
	"FocalLength":  "FocalLength",
	"FNumber":      "FNumber",
	"ExposureTime": "ExposureTime",
}

// decodeEmbedded reads metadata directly from the file's embedded EXIF
// block without spawning an external process. It covers fewer formats and
// fewer tags than the external tool; callers fall back to a full read when
// it returns nil.
func decodeEmbedded(path string) *catalog.ExtractedMetadata {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil
	}

	var exifData []byte
	if parser := parserForExt(strings.ToLower(filepath.Ext(path))); parser != nil {
		if mc, pErr := parser.Parse(f, int(info.Size())); pErr == nil {
			_, exifData, _ = mc.Exif()
		}
	}
	if len(exifData) == 0 {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil
		}
		exifData, err = exif.SearchAndExtractExifWithReader(f)
		if err != nil && !errors.Is(err, exif.ErrNoExif) {
			logging.Debug("EXIF scan failed for %s: %v", path, err)
		}
	}

	fields := exiftool.Fields{}
	if len(exifData) > 0 {
		entries, _, err := exif.GetFlatExifData(exifData, nil)
		if err != nil {
			logging.Debug("EXIF parse failed for %s: %v", path, err)
		}
		for _, tag := range entries {
			if tag.TagName == "" {
				continue
			}
			value := strings.TrimSpace(strings.ReplaceAll(tag.FormattedFirst, "\x00", ""))
			if value == "" {
				continue
			}
			if key, ok := rationalKeys[tag.TagName]; ok {
				if r, rErr := parseRational(value); rErr == nil {
					fields[key] = r
				}
				continue
			}
			fields[tag.TagName] = value
		}
	}

	// ISOSpeedRatings is the in-file name for what the tool reports as ISO.
	if _, ok := fields["ISO"]; !ok {
		if v, ok := fields["ISOSpeedRatings"]; ok {
			fields["ISO"] = v
		}
	}

	// Stored dimensions come from the image header, not EXIF.
	if _, err := f.Seek(0, io.SeekStart); err == nil {
		if cfg, _, cErr := image.DecodeConfig(f); cErr == nil {
			fields["ImageWidth"] = float64(cfg.Width)
			fields["ImageHeight"] = float64(cfg.Height)
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return mapFields(fields)
}

// parseRational converts an EXIF rational string like "50/1" to a float.
// Plain decimal strings are accepted as well.
func parseRational(s string) (float64, error) {
	parts := strings.Split(s, "/")
	if len(parts) == 1 {
		return strconv.ParseFloat(parts[0], 64)
	}
	if len(parts) != 2 {
		return 0, errors.New("invalid rational")
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0, errors.New("invalid rational")
	}
	return num / den, nil
}
