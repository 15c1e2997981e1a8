// Package handlers implements the HTTP API: enqueue and control endpoints
// for the scheduler, item metadata and overlay access, and derivative
// serving from the cache.
package handlers
