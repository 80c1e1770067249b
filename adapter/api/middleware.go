package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/reserva/internal/identity"
	"github.com/felixgeelhaar/reserva/pkg/observability"
	"github.com/google/uuid"
)

// Actor headers. A gateway in front of this service authenticates the caller
// and stamps these; an absent or unparseable ID falls back to the anonymous
// member actor.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// HeaderCorrelationID propagates a caller-supplied correlation ID; one is
// generated when absent. The ID is echoed on the response and attached to
// every log line emitted while handling the request.
const HeaderCorrelationID = "X-Correlation-ID"

// withCorrelationID stamps request and correlation IDs into the context.
func withCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.NewRequestContext(r.Context(), r.Header.Get(HeaderCorrelationID))
		w.Header().Set(HeaderCorrelationID, observability.CorrelationIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withActor extracts the calling actor from request headers into the context.
func withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := identity.Actor{Role: identity.RoleMember}

		if id, err := uuid.Parse(r.Header.Get(HeaderActorID)); err == nil {
			actor.ID = id
		}
		if r.Header.Get(HeaderActorRole) == string(identity.RoleAdmin) {
			actor.Role = identity.RoleAdmin
		}

		next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), actor)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLogging logs one line per request and records request metrics.
func withRequestLogging(next http.Handler, logger *slog.Logger, metrics observability.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", duration.Milliseconds(),
		)

		tags := []observability.Tag{
			observability.T("method", r.Method),
			observability.T("status", strconv.Itoa(recorder.status)),
		}
		metrics.Counter(observability.MetricOperationTotal, 1, tags...)
		metrics.Timing(observability.MetricOperationDuration, duration, tags...)
		if recorder.status >= http.StatusInternalServerError {
			metrics.Counter(observability.MetricOperationErrors, 1, tags...)
		}
	})
}
