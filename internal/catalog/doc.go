// Package catalog provides the structured store for the enrichment
// pipeline: media refs (durable identifiers for source files), user-editable
// overlays, and extracted metadata records, all backed by SQLite.
package catalog
