// Package writer applies user edits to the overlay store and, for formats
// that tolerate rewriting, mirrors rating and label back into the files in
// one batched tool invocation. RAW files never reach the disk-write path.
package writer
