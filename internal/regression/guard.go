package regression

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/metrics"
)

// Result is the cleaned patch plus every field that was dropped from it.
type Result struct {
	Patch    JobPatch
	Rejected []RejectedField
}

type GuardParams struct {
	Logger  *logger.Logger
	Metrics *metrics.LogisticsMetrics
}

// Guard applies the regression policy and records what it stripped.
type Guard struct {
	logg    *logger.Logger
	metrics *metrics.LogisticsMetrics
}

func NewGuard(params GuardParams) (*Guard, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Guard{logg: params.Logger, metrics: params.Metrics}, nil
}

// Apply strips regressions, then derives the ratcheted fields. It never
// fails; rejected fields are logged at warn.
func (g *Guard) Apply(ctx context.Context, prev JobState, patch JobPatch) Result {
	stripped, rejected := StripRegressions(prev, patch)
	for _, r := range rejected {
		g.metrics.RegressionBlocked(r.Field)
		g.logg.Warn(g.logg.WithFields(ctx, map[string]any{
			"field":     r.Field,
			"previous":  r.Previous,
			"attempted": r.Attempted,
			"reason":    r.Reason,
		}), "logistics field regression blocked")
	}
	return Result{Patch: DeriveLogisticsFields(prev, stripped), Rejected: rejected}
}
