// Package forecast composes the upstream providers into the cached datasets
// the boundary layer reads. It owns the dataset registry, the derived
// gate-event series, and the keyed caches for the on-demand astronomy and
// marine feeds.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/morlais/tidegate/internal/cache"
	"github.com/morlais/tidegate/internal/config"
	"github.com/morlais/tidegate/internal/gate"
	"github.com/morlais/tidegate/internal/marine"
	"github.com/morlais/tidegate/internal/models"
)

// Dataset names, as used for invalidation and in metrics labels.
const (
	DatasetTideExtremes = "tide-extremes"
	DatasetTideHeights  = "tide-heights"
	DatasetWeather      = "weather"
)

// TideProvider supplies tide forecasts for the gate location.
type TideProvider interface {
	Extremes(ctx context.Context, start time.Time, days int) ([]models.TideExtreme, error)
	Heights(ctx context.Context, start time.Time, days int) ([]models.TideSample, error)
}

// WeatherProvider supplies the daily forecast keyed by local date.
type WeatherProvider interface {
	Daily(ctx context.Context) (map[string]models.WeatherDay, error)
}

type SunProvider interface {
	Times(ctx context.Context, date string, lat, lng float64) (models.SunTimes, error)
}

type MoonProvider interface {
	Phase(ctx context.Context, ts int64) (models.MoonPhase, error)
}

type MarineProvider interface {
	Forecast(ctx context.Context, p marine.Params) (models.MarineForecast, error)
}

// Providers bundles every upstream the service reads from.
type Providers struct {
	Tides   TideProvider
	Weather WeatherProvider
	Sun     SunProvider
	Moon    MoonProvider
	Marine  MarineProvider
}

// Service is the cached read model for the gate site. All methods are safe
// for concurrent use.
type Service struct {
	cfg       *config.Config
	loc       *time.Location
	providers Providers
	clock     func() time.Time

	extremes *cache.Dataset[[]models.TideExtreme]
	heights  *cache.Dataset[[]models.TideSample]
	weather  *cache.Dataset[map[string]models.WeatherDay]

	sun      *cache.Keyed[models.SunTimes]
	moon     *cache.Keyed[models.MoonPhase]
	seaState *cache.Keyed[models.MarineForecast]

	registry *cache.Registry

	// Gate events are derived from the heights dataset, keyed on its fetch
	// time so a recompute happens exactly once per heights refresh.
	gateMu     sync.Mutex
	gateBasis  time.Time
	gateEvents []models.GateEvent
}

func NewService(cfg *config.Config, providers Providers) (*Service, error) {
	s := &Service{
		cfg:       cfg,
		loc:       cfg.Location(),
		providers: providers,
		clock:     time.Now,
		registry:  cache.NewRegistry(),
	}

	s.extremes = cache.NewDataset(cache.DatasetOptions{
		Name:         DatasetTideExtremes,
		TTL:          cfg.TideTTL,
		FetchTimeout: cfg.HTTPTimeout,
	}, func(ctx context.Context) ([]models.TideExtreme, error) {
		return providers.Tides.Extremes(ctx, s.localToday(), cfg.ExtremesDays)
	})

	s.heights = cache.NewDataset(cache.DatasetOptions{
		Name:         DatasetTideHeights,
		TTL:          cfg.HeightsTTL,
		FetchTimeout: cfg.HTTPTimeout,
	}, func(ctx context.Context) ([]models.TideSample, error) {
		return providers.Tides.Heights(ctx, s.localToday(), cfg.HeightsDays)
	})

	s.weather = cache.NewDataset(cache.DatasetOptions{
		Name:         DatasetWeather,
		TTL:          cfg.WeatherTTL,
		FetchTimeout: cfg.HTTPTimeout,
	}, func(ctx context.Context) (map[string]models.WeatherDay, error) {
		return providers.Weather.Daily(ctx)
	})

	s.registry.Register(s.extremes)
	s.registry.Register(s.heights)
	s.registry.Register(s.weather)

	var err error
	if s.sun, err = cache.NewKeyed[models.SunTimes](cache.KeyedOptions{
		Name:         "sunrise-sunset",
		Size:         cfg.KeyedCacheSize,
		TTL:          cfg.KeyedCacheTTL,
		FetchTimeout: cfg.HTTPTimeout,
	}); err != nil {
		return nil, err
	}
	if s.moon, err = cache.NewKeyed[models.MoonPhase](cache.KeyedOptions{
		Name:         "moon-phase",
		Size:         cfg.KeyedCacheSize,
		TTL:          cfg.KeyedCacheTTL,
		FetchTimeout: cfg.HTTPTimeout,
	}); err != nil {
		return nil, err
	}
	if s.seaState, err = cache.NewKeyed[models.MarineForecast](cache.KeyedOptions{
		Name:         "marine",
		Size:         cfg.KeyedCacheSize,
		TTL:          cfg.KeyedCacheTTL,
		FetchTimeout: cfg.HTTPTimeout,
	}); err != nil {
		return nil, err
	}

	return s, nil
}

// Registry exposes the dataset registry for the background refresh scheduler.
func (s *Service) Registry() *cache.Registry {
	return s.registry
}

// Location is the civil timezone boundary responses render in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Invalidate forces the named dataset's next read to refresh. The derived
// gate events follow the heights dataset automatically.
func (s *Service) Invalidate(name string) error {
	return s.registry.Invalidate(name)
}

// Extremes returns the predicted high/low waters. A *StaleError alongside a
// value means the last refresh failed and this is the previous fetch.
func (s *Service) Extremes(ctx context.Context) ([]models.TideExtreme, time.Time, error) {
	return s.extremes.Get(ctx)
}

// Heights returns the half-hour tide height series against chart datum.
func (s *Service) Heights(ctx context.Context) ([]models.TideSample, time.Time, error) {
	return s.heights.Get(ctx)
}

// Weather returns the daily forecast keyed by local date.
func (s *Service) Weather(ctx context.Context) (map[string]models.WeatherDay, time.Time, error) {
	return s.weather.Get(ctx)
}

// GateEvents returns the predicted gate operations derived from the heights
// series, recomputing only when the underlying series was refetched. The
// returned time is the heights fetch time the events were derived from.
func (s *Service) GateEvents(ctx context.Context) ([]models.GateEvent, time.Time, error) {
	samples, fetchedAt, err := s.heights.Get(ctx)

	var staleErr *cache.StaleError
	if err != nil && !errors.As(err, &staleErr) {
		return nil, time.Time{}, err
	}

	s.gateMu.Lock()
	defer s.gateMu.Unlock()

	if !s.gateBasis.Equal(fetchedAt) {
		events, predErr := gate.Predict(samples, s.cfg.GateOpenHeight)
		if predErr != nil {
			return nil, fetchedAt, fmt.Errorf("predicting gate events: %w", predErr)
		}
		s.gateBasis = fetchedAt
		s.gateEvents = events
	}

	return s.gateEvents, fetchedAt, err
}

// SunTimes returns sunrise/sunset times for one local date (YYYY-MM-DD) and
// location. Callers default the coordinates to the gate site.
func (s *Service) SunTimes(ctx context.Context, date string, lat, lng float64) (models.SunTimes, error) {
	key := fmt.Sprintf("%g:%g:%s", lat, lng, date)
	return s.sun.Get(ctx, key, func(ctx context.Context) (models.SunTimes, error) {
		return s.providers.Sun.Times(ctx, date, lat, lng)
	})
}

// MoonPhase returns the moon phase for the UTC timestamp ts.
func (s *Service) MoonPhase(ctx context.Context, ts int64) (models.MoonPhase, error) {
	return s.moon.Get(ctx, strconv.FormatInt(ts, 10), func(ctx context.Context) (models.MoonPhase, error) {
		return s.providers.Moon.Phase(ctx, ts)
	})
}

// Marine returns the hourly marine forecast for p, defaulting the location
// to the gate site when p carries none.
func (s *Service) Marine(ctx context.Context, p marine.Params) (models.MarineForecast, error) {
	if p.Lat == 0 && p.Lon == 0 {
		p.Lat = s.cfg.Latitude
		p.Lon = s.cfg.Longitude
	}
	return s.seaState.Get(ctx, p.Key(), func(ctx context.Context) (models.MarineForecast, error) {
		return s.providers.Marine.Forecast(ctx, p)
	})
}

// localToday is midnight of the current local civil date, expressed so the
// providers' date parameters name the local day.
func (s *Service) localToday() time.Time {
	now := s.clock().In(s.loc)
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
