// Package cache provides a TTL-bounded store for calibrated model
// parameters, keyed by athlete and a fingerprint of the inputs that
// produced them. Identical concurrent calibrations are collapsed so the
// solver runs at most once per distinct input set.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/mattsre/peakform/internal/domain/model"
	"github.com/mattsre/peakform/pkg/metrics"
)

// Default cache configuration constants.
const (
	defaultSize = 4096
	defaultTTL  = 6 * time.Hour

	keySeparator = "|"
)

// ComputeFunc produces parameters for a cache miss.
type ComputeFunc func(ctx context.Context) (model.ModelParameters, error)

// ParameterCache stores calibrated parameters with TTL-based expiry and
// LRU eviction.
type ParameterCache struct {
	size int
	ttl  time.Duration

	lru   *expirable.LRU[string, model.ModelParameters]
	group singleflight.Group
}

// New creates a parameter cache with configuration options.
func New(opts ...Option) *ParameterCache {
	c := &ParameterCache{
		size: defaultSize,
		ttl:  defaultTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.lru = expirable.NewLRU[string, model.ModelParameters](c.size, nil, c.ttl)
	return c
}

// Fingerprint derives a stable digest of a training history and marker
// set. Two calls with equal content produce the same fingerprint
// regardless of when they run.
func Fingerprint(history []model.TrainingDay, markers []model.PerformanceMarker) string {
	h := sha256.New()

	var buf [8]byte
	writeInt := func(v int64) {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeFloat := func(v float64) {
		binary.BigEndian.PutUint64(buf[:], uint64(int64(v*1e6)))
		h.Write(buf[:])
	}

	writeInt(int64(len(history)))
	for _, d := range history {
		writeInt(d.Date.Unix())
		writeFloat(d.Load)
	}
	writeInt(int64(len(markers)))
	for _, m := range markers {
		writeInt(m.Date.Unix())
		writeFloat(m.Value)
		if m.IsRace {
			writeInt(1)
		} else {
			writeInt(0)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Key builds the cache key for an athlete and input fingerprint. The
// athlete component is digested so IDs containing the separator cannot
// alias another athlete's key space.
func Key(athleteID, fingerprint string) string {
	return athletePrefix(athleteID) + fingerprint
}

func athletePrefix(athleteID string) string {
	sum := sha256.Sum256([]byte(athleteID))
	return hex.EncodeToString(sum[:]) + keySeparator
}

// Get returns the cached parameters for a key, if present and unexpired.
func (c *ParameterCache) Get(key string) (model.ModelParameters, bool) {
	params, ok := c.lru.Get(key)
	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return params, ok
}

// Put stores parameters under a key.
func (c *ParameterCache) Put(key string, params model.ModelParameters) {
	c.lru.Add(key, params)
}

// GetOrCompute returns cached parameters for the athlete and inputs, or
// runs compute exactly once per distinct key while concurrent callers
// wait for the shared result. Compute errors are returned to every
// waiter and nothing is cached.
func (c *ParameterCache) GetOrCompute(ctx context.Context, athleteID string, history []model.TrainingDay, markers []model.PerformanceMarker, compute ComputeFunc) (model.ModelParameters, error) {
	key := Key(athleteID, Fingerprint(history, markers))

	if params, ok := c.Get(key); ok {
		return params, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: another caller may have
		// populated the entry while we waited for the lock.
		if params, ok := c.lru.Get(key); ok {
			return params, nil
		}
		params, err := compute(ctx)
		if err != nil {
			return model.ModelParameters{}, err
		}
		c.lru.Add(key, params)
		return params, nil
	})
	if err != nil {
		return model.ModelParameters{}, err
	}

	params, ok := v.(model.ModelParameters)
	if !ok {
		return model.ModelParameters{}, nil
	}
	return params, nil
}

// InvalidateAthlete drops every cached entry belonging to an athlete.
// Returns the number of entries removed.
func (c *ParameterCache) InvalidateAthlete(athleteID string) int {
	prefix := athletePrefix(athleteID)
	removed := 0
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			if c.lru.Remove(key) {
				removed++
			}
		}
	}
	return removed
}

// Purge drops every cached entry.
func (c *ParameterCache) Purge() {
	c.lru.Purge()
}

// Len returns the number of live cache entries.
func (c *ParameterCache) Len() int {
	return c.lru.Len()
}
