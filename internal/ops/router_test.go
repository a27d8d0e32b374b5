package ops

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fieldops-logistics/internal/inventory"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/metrics"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type driftFunc func(ctx context.Context) ([]inventory.DriftEntry, error)

func (f driftFunc) DriftReport(ctx context.Context) ([]inventory.DriftEntry, error) { return f(ctx) }

func newTestRouter(t *testing.T, params RouterParams) http.Handler {
	t.Helper()
	params.Logger = logger.New(logger.Options{Output: io.Discard})
	h, err := NewRouter(params)
	require.NoError(t, err)
	return h
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthEndpoints(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	h := newTestRouter(t, RouterParams{Env: "dev", Dependencies: map[string]Pinger{"db": healthy, "redis": nil}})

	live := serve(h, "/health/live")
	require.Equal(t, http.StatusOK, live.Code)
	require.NotEmpty(t, live.Header().Get(requestIDHeader))

	ready := serve(h, "/health/ready")
	require.Equal(t, http.StatusOK, ready.Code)
}

func TestReadyReportsDependencyFailure(t *testing.T) {
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	h := newTestRouter(t, RouterParams{Dependencies: map[string]Pinger{"db": down}})

	w := serve(h, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "DEPENDENCY_ERROR", body.Error.Code)
	require.True(t, body.Error.Retryable)
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewLogisticsMetrics(reg).AllocationConsumed()
	h := newTestRouter(t, RouterParams{Gatherer: reg})

	w := serve(h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "logistics_allocations_consumed_total 1"), w.Body.String())
}

func TestDriftEndpoint(t *testing.T) {
	h := newTestRouter(t, RouterParams{Drift: driftFunc(func(context.Context) ([]inventory.DriftEntry, error) {
		return []inventory.DriftEntry{{LocationID: "loc-van", VehicleID: "van-1", PriceListItemID: "pli-1", LocationQty: decimal.NewFromInt(2), VehicleQty: decimal.Zero}}, nil
	})})

	w := serve(h, "/ops/vehicle-stock/drift")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []inventory.DriftEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "van-1", body.Data[0].VehicleID)

	failing := newTestRouter(t, RouterParams{Drift: driftFunc(func(context.Context) ([]inventory.DriftEntry, error) {
		return nil, errors.New("boom")
	})})
	require.Equal(t, http.StatusInternalServerError, serve(failing, "/ops/vehicle-stock/drift").Code)
}

func TestRecovererReturnsInternalError(t *testing.T) {
	logg := logger.New(logger.Options{Output: io.Discard})
	h := recoverer(logg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("kaboom") }))
	w := serve(h, "/")
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
