// Package cache stores generated derivatives in two tiers: a bounded
// in-memory LRU over a flat directory of JPEG files. Both tiers are pure
// caches; anything lost is regenerated on demand.
package cache
