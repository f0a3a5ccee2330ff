package strata

import (
	"fmt"
	"sync"
)

// DefaultPoolBucketSize is the number of surfaces retained per dimension.
const DefaultPoolBucketSize = 50

// Pool allocates and reuses fixed-size surfaces.
//
// Pool groups surfaces by their exact dimensions. Each bucket retains at
// most maxPerBucket released surfaces; once a bucket is full, Release
// discards the surface instead of retaining it. An optional byte budget
// bounds the memory held by acquired plus retained surfaces; when the
// budget would be exceeded, retained surfaces of other sizes are dropped
// first and Acquire fails with ErrAllocation if that is not enough.
//
// All methods are safe for concurrent use, although strata itself uses
// the pool from a single event loop: acquire, use synchronously, release.
type Pool struct {
	mu           sync.Mutex
	buckets      map[poolKey][]*Surface
	outstanding  map[*Surface]struct{}
	maxPerBucket int
	budget       int64
	live         int64
	stats        PoolStats
}

type poolKey struct {
	width  int
	height int
}

// PoolStats reports pool activity counters.
type PoolStats struct {
	Acquired  int
	Reused    int
	Allocated int
	Discarded int
	Failed    int
	LiveBytes int64
}

// NewPool creates a pool retaining up to maxPerBucket surfaces per size.
// A maxPerBucket of 0 or less selects DefaultPoolBucketSize. A budget of 0
// means unlimited memory.
func NewPool(maxPerBucket int, budget int64) *Pool {
	if maxPerBucket <= 0 {
		maxPerBucket = DefaultPoolBucketSize
	}
	return &Pool{
		buckets:      make(map[poolKey][]*Surface),
		outstanding:  make(map[*Surface]struct{}),
		maxPerBucket: maxPerBucket,
		budget:       budget,
	}
}

// Acquire returns a transparent surface of exactly width x height.
//
// Allocation failures are surfaced as errors wrapping ErrInvalidDimensions
// or ErrAllocation; callers skip the operation and log rather than crash.
func (p *Pool) Acquire(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	key := poolKey{width: width, height: height}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Acquired++
	if bucket := p.buckets[key]; len(bucket) > 0 {
		s := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.outstanding[s] = struct{}{}
		p.stats.Reused++
		s.Clear()
		return s, nil
	}

	size := surfaceBytes(width, height)
	if p.budget > 0 && p.live+size > p.budget {
		p.evictLocked(key, p.live+size-p.budget)
		if p.live+size > p.budget {
			p.stats.Failed++
			Logger().Warn("strata: surface budget exhausted",
				"width", width, "height", height, "live", p.live, "budget", p.budget)
			return nil, fmt.Errorf("%w: %dx%d exceeds budget of %d bytes", ErrAllocation, width, height, p.budget)
		}
	}

	s := &Surface{width: width, height: height, data: make([]uint8, size)}
	p.live += size
	p.outstanding[s] = struct{}{}
	p.stats.Allocated++
	return s, nil
}

// Release returns a surface to the pool. The surface must not be used
// afterwards. Nil surfaces are ignored. If the bucket for its size is
// full, the surface is discarded.
func (p *Pool) Release(s *Surface) {
	if s == nil {
		return
	}
	key := poolKey{width: s.width, height: s.height}
	size := surfaceBytes(s.width, s.height)

	p.mu.Lock()
	defer p.mu.Unlock()

	_, owned := p.outstanding[s]
	delete(p.outstanding, s)

	bucket := p.buckets[key]
	full := len(bucket) >= p.maxPerBucket
	overBudget := !owned && p.budget > 0 && p.live+size > p.budget
	if full || overBudget {
		if owned {
			p.live -= size
		}
		p.stats.Discarded++
		return
	}
	if !owned {
		p.live += size
	}
	p.buckets[key] = append(bucket, s)
}

// Retained returns the number of released surfaces held for width x height.
func (p *Pool) Retained(width, height int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets[poolKey{width: width, height: height}])
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.stats
	st.LiveBytes = p.live
	return st
}

// evictLocked drops retained surfaces from buckets other than keep until
// at least need bytes are freed or nothing is left to drop.
func (p *Pool) evictLocked(keep poolKey, need int64) {
	for key, bucket := range p.buckets {
		if key == keep {
			continue
		}
		for len(bucket) > 0 && need > 0 {
			s := bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			size := surfaceBytes(s.width, s.height)
			p.live -= size
			need -= size
			p.stats.Discarded++
		}
		p.buckets[key] = bucket
		if need <= 0 {
			return
		}
	}
}

func surfaceBytes(width, height int) int64 {
	return int64(width) * int64(height) * 4
}
