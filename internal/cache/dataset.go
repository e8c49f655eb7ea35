// Package cache keeps named upstream datasets fresh without redundant
// fetches. Each dataset carries its own TTL; concurrent readers of a stale
// entry coalesce onto a single in-flight upstream fetch, and a failed
// refresh serves the previous value rather than an error whenever one
// exists.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const defaultFetchTimeout = 10 * time.Second

// FetchFunc loads a dataset from its upstream provider. The context carries
// the fetch timeout; implementations must honour it.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// entry pairs a value with the instant it was fetched. Entries are replaced
// wholesale on refresh, never mutated, so a reader can never observe a
// half-updated value.
type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// DatasetOptions configures a named dataset.
type DatasetOptions struct {
	Name         string
	TTL          time.Duration
	FetchTimeout time.Duration
}

// Dataset is a single named cache entry with lazy, coalesced refresh.
// Values handed out are snapshots owned by the cache; callers must treat
// them as read-only.
type Dataset[T any] struct {
	name         string
	ttl          time.Duration
	fetchTimeout time.Duration
	fetch        FetchFunc[T]
	clock        func() time.Time

	mu      sync.RWMutex
	current *entry[T]
	forced  bool

	group singleflight.Group
}

func NewDataset[T any](opts DatasetOptions, fetch FetchFunc[T]) *Dataset[T] {
	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	return &Dataset[T]{
		name:         opts.Name,
		ttl:          opts.TTL,
		fetchTimeout: opts.FetchTimeout,
		fetch:        fetch,
		clock:        time.Now,
	}
}

func (d *Dataset[T]) Name() string {
	return d.name
}

// RefreshInterval is the proactive refresh period used by the scheduler,
// which matches the TTL.
func (d *Dataset[T]) RefreshInterval() time.Duration {
	return d.ttl
}

// Get returns the current value and its fetch time, refreshing synchronously
// when the entry is missing, expired, or invalidated. A refresh failure with
// a previous value available returns that value together with a *StaleError;
// with no previous value the error is propagated.
func (d *Dataset[T]) Get(ctx context.Context) (T, time.Time, error) {
	if e, fresh := d.snapshot(); fresh {
		hitsTotal.WithLabelValues(d.name).Inc()
		return e.value, e.fetchedAt, nil
	}
	missesTotal.WithLabelValues(d.name).Inc()

	ch := d.group.DoChan(d.name, d.refresh)
	select {
	case res := <-ch:
		if res.Shared {
			coalescedTotal.WithLabelValues(d.name).Inc()
		}
		if res.Err != nil {
			return d.serveStale(res.Err)
		}
		e := res.Val.(*entry[T])
		return e.value, e.fetchedAt, nil
	case <-ctx.Done():
		// The caller gave up waiting. The in-flight refresh keeps running:
		// other waiters and the cache still benefit from it completing.
		return d.serveStale(ctx.Err())
	}
}

// Invalidate forces the next Get to refresh regardless of TTL. The previous
// value stays available for stale-serving until a refresh succeeds.
func (d *Dataset[T]) Invalidate() {
	d.mu.Lock()
	d.forced = true
	d.mu.Unlock()
}

// Refresh invalidates and synchronously re-fetches the dataset. Used by the
// background scheduler.
func (d *Dataset[T]) Refresh(ctx context.Context) error {
	d.Invalidate()
	_, _, err := d.Get(ctx)
	return err
}

func (d *Dataset[T]) snapshot() (*entry[T], bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.current == nil {
		return nil, false
	}
	fresh := !d.forced && d.clock().Sub(d.current.fetchedAt) < d.ttl
	return d.current, fresh
}

func (d *Dataset[T]) serveStale(cause error) (T, time.Time, error) {
	d.mu.RLock()
	e := d.current
	d.mu.RUnlock()

	if e != nil {
		staleServesTotal.WithLabelValues(d.name).Inc()
		return e.value, e.fetchedAt, &StaleError{Dataset: d.name, FetchedAt: e.fetchedAt, Err: cause}
	}
	var zero T
	return zero, time.Time{}, cause
}

// refresh runs inside the singleflight group, so at most one instance is in
// flight per dataset.
func (d *Dataset[T]) refresh() (result any, err error) {
	// A waiter can land here just after another flight finished; serve the
	// fresh entry instead of issuing a second upstream call.
	if e, fresh := d.snapshot(); fresh {
		return e, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dataset %s: refresh panicked: %v", d.name, r)
		}
		if err != nil {
			refreshFailuresTotal.WithLabelValues(d.name).Inc()
			log.Warn().Err(err).Str("dataset", d.name).Msg("dataset refresh failed")
		}
	}()

	fetchesTotal.WithLabelValues(d.name).Inc()

	// Detached from any caller context: an abandoned request must not
	// cancel a refresh that other waiters share.
	ctx, cancel := context.WithTimeout(context.Background(), d.fetchTimeout)
	defer cancel()

	value, err := d.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: fetch: %w", d.name, err)
	}

	e := &entry[T]{value: value, fetchedAt: d.clock()}
	d.mu.Lock()
	d.current = e
	d.forced = false
	d.mu.Unlock()

	log.Debug().Str("dataset", d.name).Time("fetched_at", e.fetchedAt).Msg("dataset refreshed")
	return e, nil
}
