package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const scheduledRefreshTimeout = 2 * time.Minute

// Scheduler proactively refreshes every registered dataset at its own
// interval so the first request after expiry does not pay upstream latency.
// This is an optimisation only: Get's lazy refresh path works without it.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
}

func NewScheduler(registry *Registry) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		registry: registry,
	}
}

// Start registers one cron entry per dataset and begins the single runner
// goroutine. Refresh failures are logged, never fatal.
func (s *Scheduler) Start() error {
	for _, ds := range s.registry.Datasets() {
		ds := ds
		spec := fmt.Sprintf("@every %s", ds.RefreshInterval())
		if _, err := s.cron.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), scheduledRefreshTimeout)
			defer cancel()
			if err := ds.Refresh(ctx); err != nil {
				log.Warn().Err(err).Str("dataset", ds.Name()).Msg("scheduled refresh failed")
				return
			}
			log.Debug().Str("dataset", ds.Name()).Msg("scheduled refresh completed")
		}); err != nil {
			return fmt.Errorf("scheduling refresh for %s: %w", ds.Name(), err)
		}
		log.Info().Str("dataset", ds.Name()).Dur("interval", ds.RefreshInterval()).
			Msg("scheduled proactive refresh")
	}
	s.cron.Start()
	return nil
}

// Stop halts the runner and waits for any in-flight refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
