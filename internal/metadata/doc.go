// Package metadata turns raw EXIF fields into normalized records. It owns
// the orientation rules: stored dimensions are converted to visual ones
// exactly once, here, regardless of which extraction path produced them.
package metadata
