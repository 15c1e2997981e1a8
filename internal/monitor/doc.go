// Package monitor watches the media tree for external changes. Delivery is
// debounced and can be suspended while the pipeline performs its own disk
// writes, so those writes never loop back in as change events.
package monitor
