package parts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/fieldops-logistics/internal/locking"
	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	dbtypes "github.com/angelmondragon/fieldops-logistics/pkg/db/types"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
)

const (
	defaultWriteSource = "po_status_sync"
	maxPartAttempts    = 3
)

// Service applies purchase order status changes to linked parts.
type Service interface {
	ApplyPurchaseOrderStatus(ctx context.Context, input ApplyInput) (ApplyReport, error)
}

// ServiceParams wires the part sync service.
type ServiceParams struct {
	PurchaseOrders     store.Repository[models.PurchaseOrder]
	PurchaseOrderLines store.Repository[models.PurchaseOrderLine]
	Parts              store.Repository[models.Part]
	Logger             *logger.Logger
	Now                func() time.Time
}

type service struct {
	orders store.Repository[models.PurchaseOrder]
	lines  store.Repository[models.PurchaseOrderLine]
	parts  store.Repository[models.Part]
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the part sync service.
func NewService(params ServiceParams) (Service, error) {
	if params.PurchaseOrders == nil {
		return nil, fmt.Errorf("purchase order repository required")
	}
	if params.PurchaseOrderLines == nil {
		return nil, fmt.Errorf("purchase order line repository required")
	}
	if params.Parts == nil {
		return nil, fmt.Errorf("part repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		orders: params.PurchaseOrders,
		lines:  params.PurchaseOrderLines,
		parts:  params.Parts,
		logg:   params.Logger,
		now:    now,
	}, nil
}

// ApplyInput names the purchase order and the status it moved to.
type ApplyInput struct {
	PurchaseOrderID string
	Status          enums.PurchaseOrderStatus
	WriteSource     string
}

// PartOutcome describes what happened to one linked part.
type PartOutcome struct {
	PartID   string
	Previous enums.PartStatus
	Status   enums.PartStatus
	Changed  bool
	Err      error
}

// ApplyReport lists per-part outcomes. Err combines every per-part failure;
// parts that failed were left untouched.
type ApplyReport struct {
	Outcomes []PartOutcome
	Err      error
}

// partPatch holds the fields a sync may touch; nil means leave as is.
type partPatch struct {
	status                 *enums.PartStatus
	location               *enums.PartLocation
	purchaseOrderIDs       dbtypes.StringArray
	primaryPurchaseOrderID *string
	orderDate              *time.Time
}

func (p partPatch) empty() bool {
	return p.status == nil && p.location == nil && p.purchaseOrderIDs == nil &&
		p.primaryPurchaseOrderID == nil && p.orderDate == nil
}

func (p partPatch) columns() store.Columns {
	cols := store.Columns{}
	if p.status != nil {
		cols["status"] = *p.status
	}
	if p.location != nil {
		cols["location"] = *p.location
	}
	if p.purchaseOrderIDs != nil {
		cols["purchase_order_ids"] = p.purchaseOrderIDs
	}
	if p.primaryPurchaseOrderID != nil {
		cols["primary_purchase_order_id"] = *p.primaryPurchaseOrderID
	}
	if p.orderDate != nil {
		cols["order_date"] = *p.orderDate
	}
	return cols
}

func (s *service) ApplyPurchaseOrderStatus(ctx context.Context, input ApplyInput) (ApplyReport, error) {
	if input.PurchaseOrderID == "" {
		return ApplyReport{}, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id is required")
	}
	if !input.Status.IsValid() {
		return ApplyReport{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown purchase order status %q", input.Status)
	}
	source := input.WriteSource
	if source == "" {
		source = defaultWriteSource
	}

	if _, err := s.orders.Get(ctx, input.PurchaseOrderID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ApplyReport{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "purchase order %s not found", input.PurchaseOrderID)
		}
		return ApplyReport{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}

	lines, err := s.lines.Filter(ctx, store.Query{Where: store.Columns{"purchase_order_id": input.PurchaseOrderID}})
	if err != nil {
		return ApplyReport{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order lines")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"purchase_order_id": input.PurchaseOrderID,
		"po_status":         string(input.Status),
	})

	target := MapPOStatusToPartStatus(input.Status)
	report := ApplyReport{}
	seen := map[string]bool{}
	for _, line := range lines {
		if line.PartID == nil || *line.PartID == "" || seen[*line.PartID] {
			continue
		}
		seen[*line.PartID] = true
		outcome := s.applyToPart(ctx, *line.PartID, input.PurchaseOrderID, target, source)
		if outcome.Err != nil {
			report.Err = multierr.Append(report.Err, fmt.Errorf("part %s: %w", outcome.PartID, outcome.Err))
			s.logg.Warn(s.logg.WithPartID(ctx, outcome.PartID), "part skipped during purchase order sync: "+outcome.Err.Error())
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

func (s *service) applyToPart(ctx context.Context, partID, poID string, target enums.PartStatus, source string) PartOutcome {
	outcome := PartOutcome{PartID: partID}
	for attempt := 0; attempt < maxPartAttempts; attempt++ {
		part, err := s.parts.Get(ctx, partID)
		if errors.Is(err, store.ErrNotFound) {
			outcome.Err = pkgerrors.Newf(pkgerrors.CodeNotFound, "part %s not found", partID)
			return outcome
		}
		if err != nil {
			outcome.Err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part")
			return outcome
		}
		outcome.Previous = part.Status
		outcome.Status = part.Status

		if result := ValidateTransition(part.Status, target); !result.Valid {
			outcome.Err = result.Err
			return outcome
		}

		patch := s.buildPatch(*part, poID, target)
		if patch.empty() {
			return outcome
		}

		cols := patch.columns()
		for k, v := range locking.NextVersionPayload(part, source).Columns() {
			cols[k] = v
		}
		ok, err := s.parts.UpdateIf(ctx, partID, store.Columns{"write_version": part.WriteVersion}, cols)
		if err != nil {
			outcome.Err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update part")
			return outcome
		}
		if ok {
			outcome.Status = target
			outcome.Changed = true
			return outcome
		}
	}
	outcome.Err = pkgerrors.Newf(pkgerrors.CodeStaleWrite, "part %s kept changing during purchase order sync", partID)
	return outcome
}

func (s *service) buildPatch(part models.Part, poID string, target enums.PartStatus) partPatch {
	var patch partPatch
	if !part.PurchaseOrderIDs.Contains(poID) {
		patch.purchaseOrderIDs = append(append(dbtypes.StringArray{}, part.PurchaseOrderIDs...), poID)
	}
	if part.PrimaryPurchaseOrderID == nil || *part.PrimaryPurchaseOrderID == "" {
		primary := poID
		patch.primaryPurchaseOrderID = &primary
	}
	if part.Status != target {
		status := target
		patch.status = &status
		if loc, ok := LocationForPartStatus(target); ok && loc != part.Location {
			patch.location = &loc
		}
		if target == enums.PartStatusOnOrder && part.OrderDate == nil {
			now := s.now().UTC()
			patch.orderDate = &now
		}
	}
	return patch
}
