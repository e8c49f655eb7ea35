package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/morlais/tidegate/internal/astro"
	"github.com/morlais/tidegate/internal/cache"
	"github.com/morlais/tidegate/internal/config"
	"github.com/morlais/tidegate/internal/forecast"
	"github.com/morlais/tidegate/internal/marine"
	"github.com/morlais/tidegate/internal/server"
	"github.com/morlais/tidegate/internal/weather"
	"github.com/morlais/tidegate/internal/worldtides"
	"github.com/morlais/tidegate/pkg/http/client"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.OpenWeatherKey == "" {
		log.Warn().Msg("OPENWEATHER_KEY not set, weather requests will fail upstream")
	}

	newClient := func(baseURL string) *client.Client {
		return client.New(client.Options{
			BaseURL:    baseURL,
			Timeout:    cfg.HTTPTimeout,
			MaxRetries: cfg.MaxRetries,
		})
	}

	providers := forecast.Providers{
		Tides: worldtides.NewClient(
			newClient(cfg.WorldTidesBaseURL), cfg.WorldTidesKey, cfg.Latitude, cfg.Longitude),
		Weather: weather.NewClient(
			newClient(cfg.OpenWeatherBaseURL), cfg.OpenWeatherKey, cfg.Latitude, cfg.Longitude, cfg.Location()),
		Sun:    astro.NewSunClient(newClient(cfg.SunriseBaseURL), cfg.Timezone),
		Moon:   astro.NewMoonClient(newClient(cfg.MoonBaseURL)),
		Marine: marine.NewClient(newClient(cfg.MarineBaseURL)),
	}

	svc, err := forecast.NewService(cfg, providers)
	if err != nil {
		log.Fatal().Err(err).Msg("building forecast service")
	}

	scheduler := cache.NewScheduler(svc.Registry())
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("starting refresh scheduler")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(cfg, svc).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("env", cfg.Environment).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	scheduler.Stop()
	log.Info().Msg("stopped")
}
