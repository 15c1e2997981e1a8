// Package filesystem wraps basic file operations with the resilience the
// pipeline needs on network storage: ESTALE retry with backoff, and hard
// timeouts that degrade to an error instead of hanging the loop.
package filesystem
