// Package cache provides a small read-through cache used by services that
// want to avoid repeated store reads. Values are JSON encoded and grouped
// by tag so that a write can invalidate every cached read of a resource
// in one call. The cache is never the system of record: store failures
// are logged and the caller falls back to the loader.
package cache
