package derivative

// Kind names one derivative size class.
type Kind string

const (
	// KindThumbnail is the small grid image.
	KindThumbnail Kind = "thumbnail"
	// KindPreview is the large single-item image.
	KindPreview Kind = "preview"
)

// Default bounding-box edge lengths in pixels. Both derivatives fit inside
// a square box of this size with aspect ratio preserved.
const (
	DefaultThumbnailSize = 600
	DefaultPreviewSize   = 1024
)

// Kinds lists every derivative produced per item, in generation order.
var Kinds = []Kind{KindThumbnail, KindPreview}
