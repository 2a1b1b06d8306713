package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/fedibtc/minimint/module"
)

type contextKey int

const requestIDKey contextKey = iota

const requestIDHeader = "X-Request-Id"

// requestLogger returns the logger carrying the request's ID.
func requestLogger(log zerolog.Logger, r *http.Request) zerolog.Logger {
	id, ok := r.Context().Value(requestIDKey).(string)
	if !ok {
		return log
	}
	return log.With().Str("request_id", id).Logger()
}

// requestIDMiddleware tags each request with a unique ID, echoed in the response headers.
func requestIDMiddleware() mux.MiddlewareFunc {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := uuid.New().String()
			w.Header().Set(requestIDHeader, id)
			ctx := context.WithValue(req.Context(), requestIDKey, id)
			handler.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// loggingMiddleware logs the request method, uri, duration and response code
// and records them as metrics.
func loggingMiddleware(logger zerolog.Logger, collector module.GatewayMetrics) mux.MiddlewareFunc {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			respWriter := newResponseWriter(w)
			handler.ServeHTTP(respWriter, req)
			duration := time.Since(start)

			route := "unknown"
			if current := mux.CurrentRoute(req); current != nil {
				route = current.GetName()
			}
			collector.RequestServed(route, respWriter.statusCode, duration)

			log := requestLogger(logger, req)
			event := log.Info()
			if respWriter.statusCode >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("client_ip", req.RemoteAddr).
				Str("user_agent", req.UserAgent()).
				Dur("duration", duration).
				Int("response_code", respWriter.statusCode).
				Msg("api")
		})
	}
}

// responseWriter is a wrapper around http.ResponseWriter and helps capture the response code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
