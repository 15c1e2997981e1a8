package mediatypes

// FormatFamily classifies a media file by how the pipeline may treat it.
type FormatFamily string

const (
	// FamilyRaster represents standard raster images (JPEG, PNG, TIFF, ...).
	// Decoders for these formats are assumed to auto-apply the EXIF
	// orientation, and their containers tolerate in-place metadata edits.
	FamilyRaster FormatFamily = "raster"
	// FamilyRaw represents unencoded-sensor camera formats. Their
	// containers are tool-maintained and must never be rewritten.
	FamilyRaw FormatFamily = "raw"
	// FamilyVideo represents video containers.
	FamilyVideo FormatFamily = "video"
	// FamilyOther represents unsupported files.
	FamilyOther FormatFamily = "other"
)

// RasterExtensions maps extensions to whether they are standard raster formats.
var RasterExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
	".avif": true,
}

// RawExtensions maps extensions to whether they are unencoded-sensor formats.
var RawExtensions = map[string]bool{
	".cr2": true,
	".cr3": true,
	".nef": true,
	".nrw": true,
	".arw": true,
	".orf": true,
	".rw2": true,
	".raf": true,
	".pef": true,
	".srw": true,
	".dng": true,
	".x3f": true,
	".raw": true,
}

// VideoExtensions maps extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".mts":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",

	".cr2": "image/x-canon-cr2",
	".cr3": "image/x-canon-cr3",
	".nef": "image/x-nikon-nef",
	".arw": "image/x-sony-arw",
	".orf": "image/x-olympus-orf",
	".rw2": "image/x-panasonic-rw2",
	".raf": "image/x-fuji-raf",
	".pef": "image/x-pentax-pef",
	".dng": "image/x-adobe-dng",

	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".mts":  "video/mp2t",
}

// FamilyForExt returns the FormatFamily for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns FamilyOther if the extension is not recognized.
func FamilyForExt(ext string) FormatFamily {
	if RasterExtensions[ext] {
		return FamilyRaster
	}
	if RawExtensions[ext] {
		return FamilyRaw
	}
	if VideoExtensions[ext] {
		return FamilyVideo
	}
	return FamilyOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// DecoderAutoOrients reports whether the decode path for a family applies
// the EXIF orientation by itself. Raster decodes go through auto-orienting
// loaders and video frame extraction honors rotation metadata; embedded
// RAW previews come back as bare sensor-plane JPEGs.
func DecoderAutoOrients(family FormatFamily) bool {
	return family == FamilyRaster || family == FamilyVideo
}

// IsEnrichable returns true if the extension belongs to a family the
// enrichment pipeline can process.
func IsEnrichable(ext string) bool {
	return FamilyForExt(ext) != FamilyOther
}

// Rewritable reports whether files of this family tolerate in-place
// metadata edits. RAW containers never do.
func Rewritable(family FormatFamily) bool {
	return family == FamilyRaster || family == FamilyVideo
}
