package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// KeyedFetchFunc loads the value for one key from upstream. It is supplied
// at the call site because the request parameters the key encodes are only
// known there.
type KeyedFetchFunc[V any] func(ctx context.Context) (V, error)

// KeyedOptions configures a parameterised cache.
type KeyedOptions struct {
	Name         string
	Size         int
	TTL          time.Duration
	FetchTimeout time.Duration
}

// Keyed is a bounded cache for parameterised lookups (one entry per distinct
// key), with the same coalescing, detached-fetch and stale-serving rules as
// Dataset. Used for the sunrise, moon-phase and marine feeds, whose values
// vary with request parameters and are only fetched on demand.
type Keyed[V any] struct {
	name         string
	ttl          time.Duration
	fetchTimeout time.Duration
	clock        func() time.Time

	entries *lru.Cache[string, *entry[V]]
	group   singleflight.Group
}

func NewKeyed[V any](opts KeyedOptions) (*Keyed[V], error) {
	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	entries, err := lru.New[string, *entry[V]](opts.Size)
	if err != nil {
		return nil, fmt.Errorf("creating %s cache: %w", opts.Name, err)
	}
	return &Keyed[V]{
		name:         opts.Name,
		ttl:          opts.TTL,
		fetchTimeout: opts.FetchTimeout,
		clock:        time.Now,
		entries:      entries,
	}, nil
}

// Get returns the value for key, calling fetch when it is missing or
// expired. Concurrent callers for the same key share one fetch. Expired
// entries are kept until evicted so a failed refresh can still be answered
// stale.
func (c *Keyed[V]) Get(ctx context.Context, key string, fetch KeyedFetchFunc[V]) (V, error) {
	if e, ok := c.entries.Get(key); ok && c.clock().Sub(e.fetchedAt) < c.ttl {
		hitsTotal.WithLabelValues(c.name).Inc()
		return e.value, nil
	}
	missesTotal.WithLabelValues(c.name).Inc()

	ch := c.group.DoChan(key, func() (any, error) {
		return c.refresh(key, fetch)
	})
	select {
	case res := <-ch:
		if res.Shared {
			coalescedTotal.WithLabelValues(c.name).Inc()
		}
		if res.Err != nil {
			return c.serveStale(key, res.Err)
		}
		return res.Val.(*entry[V]).value, nil
	case <-ctx.Done():
		return c.serveStale(key, ctx.Err())
	}
}

func (c *Keyed[V]) serveStale(key string, cause error) (V, error) {
	if e, ok := c.entries.Get(key); ok {
		staleServesTotal.WithLabelValues(c.name).Inc()
		return e.value, &StaleError{Dataset: c.name, FetchedAt: e.fetchedAt, Err: cause}
	}
	var zero V
	return zero, cause
}

func (c *Keyed[V]) refresh(key string, fetch KeyedFetchFunc[V]) (result any, err error) {
	if e, ok := c.entries.Get(key); ok && c.clock().Sub(e.fetchedAt) < c.ttl {
		return e, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cache %s: fetch %q panicked: %v", c.name, key, r)
		}
		if err != nil {
			refreshFailuresTotal.WithLabelValues(c.name).Inc()
		}
	}()

	fetchesTotal.WithLabelValues(c.name).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	value, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("cache %s: fetch %q: %w", c.name, key, err)
	}

	e := &entry[V]{value: value, fetchedAt: c.clock()}
	c.entries.Add(key, e)
	return e, nil
}
