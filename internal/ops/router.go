// Package ops serves the operational endpoints of the cron worker.
package ops

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/fieldops-logistics/internal/inventory"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
)

// Pinger is a dependency checked by /health/ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type driftReporter interface {
	DriftReport(ctx context.Context) ([]inventory.DriftEntry, error)
}

type RouterParams struct {
	Env      string
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer
	// Dependencies maps a name to its health check. Nil entries are skipped.
	Dependencies map[string]Pinger
	Drift        driftReporter
}

func NewRouter(params RouterParams) (http.Handler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	gatherer := params.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(recoverer(logg), requestID(logg), requestLogging(logg))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", func(w http.ResponseWriter, _ *http.Request) {
			writeSuccess(w, map[string]string{"status": "live", "env": params.Env})
		})
		r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
			for name, dep := range params.Dependencies {
				if dep == nil {
					continue
				}
				if err := dep.Ping(req.Context()); err != nil {
					writeError(req.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
					return
				}
			}
			writeSuccess(w, map[string]string{"status": "ready"})
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if params.Drift != nil {
		r.Get("/ops/vehicle-stock/drift", func(w http.ResponseWriter, req *http.Request) {
			entries, err := params.Drift.DriftReport(req.Context())
			if err != nil {
				writeError(req.Context(), logg, w, err)
				return
			}
			if entries == nil {
				entries = []inventory.DriftEntry{}
			}
			writeSuccess(w, entries)
		})
	}

	return r, nil
}
