// Package locking rejects writes made against an outdated write_version.
package locking

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/metrics"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
)

// Versioned is a record carrying a write_version. Unset versions read as 1.
type Versioned interface {
	CurrentWriteVersion() int
}

// VersionSource loads the versioned record with the given id.
type VersionSource func(ctx context.Context, id string) (Versioned, error)

// SourceFor adapts a repository into a VersionSource.
func SourceFor[T Versioned](repo store.Repository[T]) VersionSource {
	return func(ctx context.Context, id string) (Versioned, error) {
		rec, err := repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return *rec, nil
	}
}

// VersionStamp is merged by callers into their update after a successful write.
type VersionStamp struct {
	WriteVersion int
	WriteSource  string
}

// Columns renders the stamp as update columns.
func (s VersionStamp) Columns() store.Columns {
	return store.Columns{
		"write_version": s.WriteVersion,
		"write_source":  s.WriteSource,
	}
}

// NextVersionPayload returns the version a caller should write next. It is
// never applied automatically.
func NextVersionPayload(v Versioned, source string) VersionStamp {
	current := 1
	if v != nil {
		current = v.CurrentWriteVersion()
	}
	if current <= 0 {
		current = 1
	}
	return VersionStamp{WriteVersion: current + 1, WriteSource: source}
}

// GateParams configure a Gate.
type GateParams struct {
	Sources map[string]VersionSource
	Logger  *logger.Logger
	Metrics *metrics.LogisticsMetrics
}

// Gate compares caller-held versions with stored ones.
type Gate struct {
	sources map[string]VersionSource
	logg    *logger.Logger
	metrics *metrics.LogisticsMetrics
}

// NewGate builds a Gate over the named entity sources.
func NewGate(params GateParams) (*Gate, error) {
	if len(params.Sources) == 0 {
		return nil, fmt.Errorf("at least one version source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	sources := make(map[string]VersionSource, len(params.Sources))
	for name, src := range params.Sources {
		if src == nil {
			return nil, fmt.Errorf("version source %q is nil", name)
		}
		sources[name] = src
	}
	return &Gate{sources: sources, logg: params.Logger, metrics: params.Metrics}, nil
}

// AssertVersion returns nil when expected is nil or matches the stored
// version, and a STALE_WRITE error naming both versions otherwise.
func (g *Gate) AssertVersion(ctx context.Context, entity, id string, expected *int) error {
	if expected == nil {
		return nil
	}
	src, ok := g.sources[entity]
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeInternal, "no version source registered for %q", entity)
	}
	rec, err := src(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s %s not found", entity, id)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("load %s %s", entity, id))
	}

	current := rec.CurrentWriteVersion()
	if current <= 0 {
		current = 1
	}
	if current == *expected {
		return nil
	}

	g.metrics.StaleWrite(entity)
	g.logg.Warn(g.logg.WithFields(ctx, map[string]any{
		"entity":           entity,
		"entity_id":        id,
		"expected_version": *expected,
		"current_version":  current,
	}), "stale write rejected")

	return pkgerrors.Newf(pkgerrors.CodeStaleWrite,
		"%s %s is at write version %d, caller expected %d", entity, id, current, *expected).
		WithDetails(map[string]any{
			"entity":           entity,
			"id":               id,
			"expected_version": *expected,
			"current_version":  current,
		})
}
