// Package scheduler drives background enrichment: a FIFO queue drained in
// fixed-size batches, with cooperative cancellation and suspension checked
// at batch boundaries and before persistence or cache writes.
package scheduler
