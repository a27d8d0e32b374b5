// Package allocations keeps stock allocations consistent with the
// consumptions recorded against them.
package allocations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/metrics"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
	"github.com/angelmondragon/fieldops-logistics/pkg/validate"
)

const maxReconcileAttempts = 3

// ConsumptionInput is a request to record stock used on a project.
type ConsumptionInput struct {
	ProjectID          string          `json:"project_id" validate:"max=64"`
	VisitID            *string         `json:"visit_id,omitempty"`
	SourceAllocationID *string         `json:"source_allocation_id,omitempty"`
	QtyConsumed        decimal.Decimal `json:"qty_consumed" validate:"dec_gt0"`
	ConsumedBy         string          `json:"consumed_by" validate:"max=128"`
	// AllowOverride lets privileged callers record against a visit that is
	// not in progress.
	AllowOverride bool `json:"allow_override"`
}

// RecordResult is the outcome of RecordConsumption.
type RecordResult struct {
	Consumption models.StockConsumption
	Allocation  *models.StockAllocation
	Consumed    bool
}

// ReconcileSummary is the outcome of a sweep over open allocations.
type ReconcileSummary struct {
	Scanned  int
	Consumed int
}

type Service interface {
	ValidateConsumption(ctx context.Context, input ConsumptionInput, allocation *models.StockAllocation) error
	Remaining(ctx context.Context, allocationID string) (decimal.Decimal, error)
	Reconcile(ctx context.Context, allocationID, actor string) (models.StockAllocation, bool, error)
	RecordConsumption(ctx context.Context, input ConsumptionInput) (RecordResult, error)
	ReconcileOpen(ctx context.Context, actor string) (ReconcileSummary, error)
}

type ServiceParams struct {
	Allocations  store.Repository[models.StockAllocation]
	Consumptions store.Repository[models.StockConsumption]
	Visits       store.Repository[models.Visit]
	Logger       *logger.Logger
	Metrics      *metrics.LogisticsMetrics
	Now          func() time.Time
}

type service struct {
	allocations  store.Repository[models.StockAllocation]
	consumptions store.Repository[models.StockConsumption]
	visits       store.Repository[models.Visit]
	logg         *logger.Logger
	metrics      *metrics.LogisticsMetrics
	now          func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Allocations == nil {
		return nil, fmt.Errorf("allocation repository required")
	}
	if params.Consumptions == nil {
		return nil, fmt.Errorf("consumption repository required")
	}
	if params.Visits == nil {
		return nil, fmt.Errorf("visit repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		allocations:  params.Allocations,
		consumptions: params.Consumptions,
		visits:       params.Visits,
		logg:         params.Logger,
		metrics:      params.Metrics,
		now:          now,
	}, nil
}

// ValidateConsumption checks input before it is persisted. The allocation is
// loaded when input references one and the caller did not pass it.
func (s *service) ValidateConsumption(ctx context.Context, input ConsumptionInput, allocation *models.StockAllocation) error {
	if input.ProjectID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "project_id is required")
	}

	if visitID := deref(input.VisitID); visitID != "" {
		visit, err := s.visits.Get(ctx, visitID)
		if err != nil {
			return lookupError(err, "visit", visitID)
		}
		if visit.Status != enums.VisitStatusInProgress && !input.AllowOverride {
			return pkgerrors.Newf(pkgerrors.CodeValidation,
				"visit %s is %s; consumption requires an in-progress visit", visitID, visit.Status)
		}
	}

	if allocationID := deref(input.SourceAllocationID); allocationID != "" {
		if allocation == nil || allocation.ID != allocationID {
			loaded, err := s.allocations.Get(ctx, allocationID)
			if err != nil {
				return lookupError(err, "allocation", allocationID)
			}
			allocation = loaded
		}
		if allocation.ProjectID != input.ProjectID {
			return pkgerrors.Newf(pkgerrors.CodeValidation,
				"allocation %s belongs to project %s, not %s", allocation.ID, allocation.ProjectID, input.ProjectID)
		}
		if allocVisit := deref(allocation.VisitID); allocVisit != "" && allocVisit != deref(input.VisitID) {
			return pkgerrors.Newf(pkgerrors.CodeValidation,
				"allocation %s is reserved for visit %s", allocation.ID, allocVisit)
		}
		if allocation.Status == enums.AllocationStatusReleased {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "allocation %s has been released", allocation.ID)
		}
		if !input.QtyConsumed.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "qty_consumed must be greater than zero")
		}
		remaining, err := s.remainingFor(ctx, *allocation)
		if err != nil {
			return err
		}
		if input.QtyConsumed.GreaterThan(remaining) {
			return pkgerrors.Newf(pkgerrors.CodeValidation,
				"qty_consumed %s exceeds remaining %s on allocation %s", input.QtyConsumed, remaining, allocation.ID).
				WithDetails(map[string]string{
					"requested": input.QtyConsumed.String(),
					"remaining": remaining.String(),
				})
		}
	}

	return validate.Struct(input)
}

// Remaining is qty_allocated minus everything consumed against the allocation.
func (s *service) Remaining(ctx context.Context, allocationID string) (decimal.Decimal, error) {
	allocation, err := s.allocations.Get(ctx, allocationID)
	if err != nil {
		return decimal.Zero, lookupError(err, "allocation", allocationID)
	}
	return s.remainingFor(ctx, *allocation)
}

func (s *service) remainingFor(ctx context.Context, allocation models.StockAllocation) (decimal.Decimal, error) {
	rows, err := s.consumptions.Filter(ctx, store.Query{
		Where: store.Columns{"source_allocation_id": allocation.ID},
	})
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list consumptions")
	}
	consumed := decimal.Zero
	for _, row := range rows {
		consumed = consumed.Add(row.QtyConsumed)
	}
	return allocation.QtyAllocated.Sub(consumed), nil
}

// Reconcile flips an allocation to consumed once nothing remains on it.
// Consumed and released allocations are returned unchanged.
func (s *service) Reconcile(ctx context.Context, allocationID, actor string) (models.StockAllocation, bool, error) {
	ctx = s.logg.WithAllocationID(ctx, allocationID)

	for attempt := 0; attempt < maxReconcileAttempts; attempt++ {
		allocation, err := s.allocations.Get(ctx, allocationID)
		if err != nil {
			return models.StockAllocation{}, false, lookupError(err, "allocation", allocationID)
		}
		if allocation.Status.IsTerminal() {
			return *allocation, false, nil
		}
		remaining, err := s.remainingFor(ctx, *allocation)
		if err != nil {
			return models.StockAllocation{}, false, err
		}
		if remaining.IsPositive() {
			return *allocation, false, nil
		}

		consumedAt := s.now().UTC()
		consumedBy := actor
		ok, err := s.allocations.UpdateIf(ctx, allocation.ID,
			store.Columns{"status": allocation.Status},
			store.Columns{
				"status":      enums.AllocationStatusConsumed,
				"consumed_by": consumedBy,
				"consumed_at": consumedAt,
			})
		if err != nil {
			return models.StockAllocation{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark allocation consumed")
		}
		if !ok {
			continue
		}

		allocation.Status = enums.AllocationStatusConsumed
		allocation.ConsumedBy = &consumedBy
		allocation.ConsumedAt = &consumedAt
		s.metrics.AllocationConsumed()
		s.logg.Info(ctx, "allocation fully consumed")
		return *allocation, true, nil
	}

	return models.StockAllocation{}, false, pkgerrors.Newf(pkgerrors.CodeConflict,
		"allocation %s kept changing during reconcile", allocationID)
}

// RecordConsumption validates, persists and then reconciles the source
// allocation, if any.
func (s *service) RecordConsumption(ctx context.Context, input ConsumptionInput) (RecordResult, error) {
	if err := s.ValidateConsumption(ctx, input, nil); err != nil {
		return RecordResult{}, err
	}

	row := models.StockConsumption{
		ProjectID:          input.ProjectID,
		VisitID:            nonEmpty(input.VisitID),
		SourceAllocationID: nonEmpty(input.SourceAllocationID),
		QtyConsumed:        input.QtyConsumed,
		ConsumedBy:         input.ConsumedBy,
	}
	if err := s.consumptions.Create(ctx, &row); err != nil {
		return RecordResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert consumption")
	}

	result := RecordResult{Consumption: row}
	if row.SourceAllocationID == nil {
		return result, nil
	}
	allocation, changed, err := s.Reconcile(ctx, *row.SourceAllocationID, input.ConsumedBy)
	if err != nil {
		// the consumption is stored; the next sweep picks the allocation up
		s.logg.Error(ctx, "reconcile after consumption failed", err)
		return result, nil
	}
	result.Allocation = &allocation
	result.Consumed = changed
	return result, nil
}

// ReconcileOpen reconciles every reserved or loaded allocation.
func (s *service) ReconcileOpen(ctx context.Context, actor string) (ReconcileSummary, error) {
	var summary ReconcileSummary
	var errs error
	for _, status := range []enums.AllocationStatus{enums.AllocationStatusReserved, enums.AllocationStatusLoaded} {
		rows, err := s.allocations.Filter(ctx, store.Query{Where: store.Columns{"status": status}})
		if err != nil {
			return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open allocations")
		}
		for _, row := range rows {
			summary.Scanned++
			_, changed, err := s.Reconcile(ctx, row.ID, actor)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("allocation %s: %w", row.ID, err))
				continue
			}
			if changed {
				summary.Consumed++
			}
		}
	}
	return summary, errs
}

func lookupError(err error, entity, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s %s not found", entity, id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(s *string) *string {
	if deref(s) == "" {
		return nil
	}
	return s
}
