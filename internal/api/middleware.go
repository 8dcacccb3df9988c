package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const (
	// throttleBacklog is how many calls may queue for a free worker
	throttleBacklog = 1024
	// throttleBacklogTimeout bounds only the wait for a worker, never the call itself
	throttleBacklogTimeout = 10 * time.Minute
)

// zerologLogger returns a Chi middleware that logs HTTP requests using zerolog
func zerologLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("remote_ip", r.RemoteAddr).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("user_agent", r.UserAgent()).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// workerPool limits concurrently executing RPC calls and streams to limit. Requests
// outside /api/ (health, metrics, docs) bypass the pool. A websocket stream holds
// its slot until it ends.
func workerPool(limit int) func(next http.Handler) http.Handler {
	throttle := middleware.ThrottleBacklog(limit, throttleBacklog, throttleBacklogTimeout)
	return func(next http.Handler) http.Handler {
		throttled := throttle(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") && r.URL.Path != docsPath {
				throttled.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
