package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Refresher is the type-erased view of a Dataset used for invalidation by
// name and by the background scheduler.
type Refresher interface {
	Name() string
	RefreshInterval() time.Duration
	Invalidate()
	Refresh(ctx context.Context) error
}

// Registry tracks every named dataset in the process. Datasets refresh
// independently; the registry never serialises access across names.
type Registry struct {
	mu   sync.RWMutex
	sets map[string]Refresher
}

func NewRegistry() *Registry {
	return &Registry{sets: make(map[string]Refresher)}
}

func (r *Registry) Register(ds Refresher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sets[ds.Name()]; exists {
		log.Warn().Str("dataset", ds.Name()).Msg("dataset registered twice, replacing")
	}
	r.sets[ds.Name()] = ds
}

// Invalidate forces the named dataset's next Get to refresh.
func (r *Registry) Invalidate(name string) error {
	r.mu.RLock()
	ds, ok := r.sets[name]
	r.mu.RUnlock()
	if !ok {
		return ErrUnknownDataset
	}
	ds.Invalidate()
	return nil
}

// Datasets returns the registered datasets ordered by name.
func (r *Registry) Datasets() []Refresher {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Refresher, 0, len(r.sets))
	for _, ds := range r.sets {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
