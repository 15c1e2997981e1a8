// Package exiftool wraps the external metadata-extraction tool behind an
// interface so the pipeline can be tested without spawning processes.
// Reads and writes are batched: one process invocation per batch.
package exiftool
