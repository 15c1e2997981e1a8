// Package metrics defines the Prometheus instrumentation for the
// enrichment pipeline: scheduler queue and batch metrics, dual-tier cache
// hit/miss counters, external tool invocations, writer outcomes, and
// filesystem monitor activity.
package metrics
