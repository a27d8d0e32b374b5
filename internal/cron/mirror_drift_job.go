package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fieldops-logistics/internal/inventory"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
)

type driftReporter interface {
	DriftReport(ctx context.Context) ([]inventory.DriftEntry, error)
}

type MirrorDriftJobParams struct {
	Logger   *logger.Logger
	Reporter driftReporter
}

// NewMirrorDriftJob reports vehicle stock rows that disagree with the
// vehicle location balance. It never corrects them.
func NewMirrorDriftJob(params MirrorDriftJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reporter == nil {
		return nil, fmt.Errorf("drift reporter required")
	}
	return &mirrorDriftJob{logg: params.Logger, reporter: params.Reporter}, nil
}

type mirrorDriftJob struct {
	logg     *logger.Logger
	reporter driftReporter
}

func (j *mirrorDriftJob) Name() string { return "vehicle-stock-drift" }

func (j *mirrorDriftJob) Run(ctx context.Context) error {
	entries, err := j.reporter.DriftReport(ctx)
	if err != nil {
		return fmt.Errorf("vehicle stock drift: %w", err)
	}
	for _, e := range entries {
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"location_id":        e.LocationID,
			"vehicle_id":         e.VehicleID,
			"price_list_item_id": e.PriceListItemID,
			"location_qty":       e.LocationQty.String(),
			"vehicle_qty":        e.VehicleQty.String(),
		}), "vehicle stock drifted from location balance")
	}
	j.logg.Info(j.logg.WithField(ctx, "drifted_items", len(entries)), "vehicle stock drift check complete")
	return nil
}
