// Package derivative generates thumbnail and preview images. Raster files
// decode through libvips when available, falling back to pure-Go decoders
// and then ffmpeg; video frames come from ffmpeg; RAW files use their
// embedded preview and are never decoded directly.
package derivative
