// Package trace assigns request IDs and logs each request with its outcome.
package trace

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	zlog "zeus/internal/log"
	"zeus/internal/metrics"
)

type ContextKey string

const (
	RequestIDKey    ContextKey = "request_id"
	RequestIDHeader            = "X-Request-ID"
)

type Middleware struct {
	extractIP  func(*http.Request) string
	suspicious func(*http.Request) bool
	logger     *zlog.Logger
	metrics    *metrics.Metrics
}

// NewMiddleware builds the tracer. suspicious may be nil.
func NewMiddleware(logger *zlog.Logger, m *metrics.Metrics, extractIP func(*http.Request) string, suspicious func(*http.Request) bool) *Middleware {
	return &Middleware{
		extractIP:  extractIP,
		suspicious: suspicious,
		logger:     logger.WithComponent(zlog.ComponentTrace),
		metrics:    m,
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	sl := zlog.NewStructuredLogger(m.logger.WithComponent(zlog.ComponentHTTP))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		reqLogger := m.logger.With(zlog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = zlog.WithLogger(ctx, reqLogger)
		r = r.WithContext(ctx)

		if m.suspicious != nil && m.suspicious(r) {
			m.logger.WarnContext(ctx, "Suspicious request",
				zlog.FieldRequestID, requestID,
				zlog.FieldClientIP, clientIP,
				zlog.FieldMethod, r.Method,
				zlog.FieldPath, r.URL.Path)
		}

		sl.LogHTTPStart(ctx, r, requestID, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		sl.LogHTTPEnd(ctx, r, requestID, rw.statusCode, elapsed.Milliseconds(), clientIP)

		// ServeMux records the matched pattern on the request it was given.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.metrics.ObserveRequest(r.Method, route, rw.statusCode, elapsed)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
