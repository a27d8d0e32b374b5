package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fieldops-logistics/internal/allocations"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
)

const defaultReconcileActor = "system:reconciler"

type allocationReconciler interface {
	ReconcileOpen(ctx context.Context, actor string) (allocations.ReconcileSummary, error)
}

type AllocationReconcileJobParams struct {
	Logger     *logger.Logger
	Reconciler allocationReconciler
	Actor      string
}

// NewAllocationReconcileJob flips exhausted allocations to consumed. It
// catches allocations whose consumptions were written by paths that did not
// reconcile afterwards.
func NewAllocationReconcileJob(params AllocationReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("allocation reconciler required")
	}
	actor := params.Actor
	if actor == "" {
		actor = defaultReconcileActor
	}
	return &allocationReconcileJob{logg: params.Logger, reconciler: params.Reconciler, actor: actor}, nil
}

type allocationReconcileJob struct {
	logg       *logger.Logger
	reconciler allocationReconciler
	actor      string
}

func (j *allocationReconcileJob) Name() string { return "allocation-reconcile" }

func (j *allocationReconcileJob) Run(ctx context.Context) error {
	summary, err := j.reconciler.ReconcileOpen(ctx, j.actor)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"allocations_scanned":  summary.Scanned,
		"allocations_consumed": summary.Consumed,
	})
	if err != nil {
		return fmt.Errorf("allocation reconcile: %w", err)
	}
	j.logg.Info(logCtx, "allocation reconcile complete")
	return nil
}
