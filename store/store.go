// Package store holds the byte-bounded entries behind a ReaderCache.
package store

import "time"

// Value reports its memory footprint for eviction accounting.
type Value interface {
	Len() int
}

// Options configures an LRU.
type Options struct {
	MaxBytes        int64 // 0 means unbounded
	CleanupInterval time.Duration
	// OnEvicted runs with the store locked and must not call back into it.
	OnEvicted func(key string, value Value)
}

// NewOptions returns the defaults: 8MB, one sweep per minute.
func NewOptions() Options {
	return Options{
		MaxBytes:        8 << 20,
		CleanupInterval: time.Minute,
	}
}
