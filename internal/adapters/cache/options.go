package cache

import "time"

// Option applies a configuration option to the ParameterCache.
type Option func(*ParameterCache)

// WithSize sets the maximum number of cached entries.
func WithSize(size int) Option {
	return func(c *ParameterCache) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithTTL sets the lifetime of a cached entry.
func WithTTL(ttl time.Duration) Option {
	return func(c *ParameterCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}
