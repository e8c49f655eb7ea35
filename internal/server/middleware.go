package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// auth accepts either the X-API-KEY header or HTTP Basic credentials,
// compared in constant time. With neither configured the check is disabled.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.AuthEnabled() {
			next.ServeHTTP(w, r)
			return
		}

		if s.cfg.APIKey != "" {
			key := r.Header.Get("X-API-KEY")
			if key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}

		if s.cfg.BasicAuthUser != "" && s.cfg.BasicAuthPass != "" {
			user, pass, ok := r.BasicAuth()
			if ok &&
				subtle.ConstantTimeCompare([]byte(user), []byte(s.cfg.BasicAuthUser)) == 1 &&
				subtle.ConstantTimeCompare([]byte(pass), []byte(s.cfg.BasicAuthPass)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="tidegate"`)
		}

		writeError(w, http.StatusUnauthorized, "unauthorized")
	})
}
