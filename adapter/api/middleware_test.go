package api

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/felixgeelhaar/reserva/internal/identity"
	"github.com/felixgeelhaar/reserva/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithCorrelationID_GeneratesWhenAbsent(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.CorrelationIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	withCorrelationID(next).ServeHTTP(rec, req)

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderCorrelationID))
}

func TestWithCorrelationID_PropagatesCallerID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.CorrelationIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderCorrelationID, "upstream-123")
	rec := httptest.NewRecorder()
	withCorrelationID(next).ServeHTTP(rec, req)

	assert.Equal(t, "upstream-123", seen)
	assert.Equal(t, "upstream-123", rec.Header().Get(HeaderCorrelationID))
}

func TestWithActor_ParsesHeaders(t *testing.T) {
	actorID := uuid.New()
	var seen identity.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = identity.ActorFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderActorID, actorID.String())
	req.Header.Set(HeaderActorRole, string(identity.RoleAdmin))
	withActor(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, actorID, seen.ID)
	assert.Equal(t, identity.RoleAdmin, seen.Role)
}

func TestWithActor_DefaultsToAnonymousMember(t *testing.T) {
	var seen identity.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = identity.ActorFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	withActor(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, uuid.Nil, seen.ID)
	assert.Equal(t, identity.RoleMember, seen.Role)
}

func TestWithRequestLogging_RecordsMetrics(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	logger := slog.New(slog.DiscardHandler)
	withRequestLogging(next, logger, metrics).ServeHTTP(httptest.NewRecorder(), req)

	tags := []observability.Tag{
		observability.T("method", http.MethodGet),
		observability.T("status", "500"),
	}
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricOperationTotal, tags...))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricOperationErrors, tags...))
	assert.Len(t, metrics.GetTimings(observability.MetricOperationDuration, tags...), 1)
}
