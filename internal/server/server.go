// Package server is the HTTP boundary. It renders cached forecast data in
// the site's civil timezone and never talks to an upstream itself.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/morlais/tidegate/internal/config"
	"github.com/morlais/tidegate/internal/forecast"
)

type Server struct {
	cfg    *config.Config
	svc    *forecast.Service
	loc    *time.Location
	now    func() time.Time
	router *chi.Mux
}

func New(cfg *config.Config, svc *forecast.Service) *Server {
	s := &Server{
		cfg: cfg,
		svc: svc,
		loc: svc.Location(),
		now: time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	// Probes and scraping stay reachable without credentials.
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.auth)

		r.Get("/tides/{date}", s.handleTides)
		r.Get("/tide-heights", s.handleTideHeights)
		r.Get("/gate-times", s.handleGateTimes)
		r.Get("/gate-times/{date}", s.handleGateTimesForDate)
		r.Get("/weather/{date}", s.handleWeather)
		r.Get("/sunrise-sunset", s.handleSunriseSunset)
		r.Get("/moon-phase", s.handleMoonPhase)
		r.Get("/marine", s.handleMarine)
		r.Post("/refresh/{dataset}", s.handleRefresh)
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
