// Package inventory keeps location balances, the per-vehicle mirror and the
// movement ledger in step for each stock move.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fieldops-logistics/internal/movements"
	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/metrics"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
	"github.com/angelmondragon/fieldops-logistics/pkg/validate"
)

const (
	defaultMaxCASAttempts = 5

	tableQuantities   = "inventory_quantities"
	tableVehicleStock = "vehicle_stock"
)

// MoveInput moves a catalog item between locations. Either side may be
// omitted for receipts and write-offs.
type MoveInput struct {
	Source          string          `json:"source" validate:"required"`
	SourceID        string          `json:"source_id" validate:"max=64"`
	PriceListItemID string          `json:"price_list_item_id" validate:"required"`
	FromLocationID  *string         `json:"from_location_id,omitempty"`
	ToLocationID    *string         `json:"to_location_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity" validate:"dec_gt0"`
	MovedBy         string          `json:"moved_by" validate:"max=128"`
	OccurredAt      time.Time       `json:"occurred_at"`
	IdempotencyKey  string          `json:"idempotency_key,omitempty" validate:"max=64"`
}

// BalanceChange is one balance row touched by a move.
type BalanceChange struct {
	Table      string          `json:"table"`
	LocationID string          `json:"location_id,omitempty"`
	VehicleID  string          `json:"vehicle_id,omitempty"`
	Before     decimal.Decimal `json:"before"`
	After      decimal.Decimal `json:"after"`
}

// MoveResult reports the ledger row and the balances changed. Replayed moves
// change nothing.
type MoveResult struct {
	Movement models.StockMovement
	Replayed bool
	Changes  []BalanceChange
}

type SyncParams struct {
	Locations      store.Repository[models.InventoryLocation]
	Quantities     store.Repository[models.InventoryQuantity]
	VehicleStock   store.Repository[models.VehicleStock]
	Ledger         movements.Ledger
	Logger         *logger.Logger
	Metrics        *metrics.LogisticsMetrics
	MaxCASAttempts int
}

// Sync applies stock moves.
type Sync struct {
	locations   store.Repository[models.InventoryLocation]
	quantities  balanceTable[models.InventoryQuantity]
	vehicles    balanceTable[models.VehicleStock]
	quantityRpo store.Repository[models.InventoryQuantity]
	vehicleRpo  store.Repository[models.VehicleStock]
	ledger      movements.Ledger
	logg        *logger.Logger
	metrics     *metrics.LogisticsMetrics
	attempts    int
}

func NewSync(params SyncParams) (*Sync, error) {
	if params.Locations == nil {
		return nil, fmt.Errorf("location repository required")
	}
	if params.Quantities == nil {
		return nil, fmt.Errorf("quantity repository required")
	}
	if params.VehicleStock == nil {
		return nil, fmt.Errorf("vehicle stock repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	attempts := params.MaxCASAttempts
	if attempts <= 0 {
		attempts = defaultMaxCASAttempts
	}
	return &Sync{
		locations: params.Locations,
		quantities: balanceTable[models.InventoryQuantity]{
			name: tableQuantities,
			repo: params.Quantities,
			newRow: func(where store.Columns, qty decimal.Decimal) models.InventoryQuantity {
				return models.InventoryQuantity{
					PriceListItemID: where["price_list_item_id"].(string),
					LocationID:      where["location_id"].(string),
					Quantity:        qty,
				}
			},
			idOf:    func(r models.InventoryQuantity) string { return r.ID },
			qtyOf:   func(r models.InventoryQuantity) decimal.Decimal { return r.Quantity },
			metrics: params.Metrics,
		},
		vehicles: balanceTable[models.VehicleStock]{
			name: tableVehicleStock,
			repo: params.VehicleStock,
			newRow: func(where store.Columns, qty decimal.Decimal) models.VehicleStock {
				return models.VehicleStock{
					PriceListItemID: where["price_list_item_id"].(string),
					VehicleID:       where["vehicle_id"].(string),
					Quantity:        qty,
				}
			},
			idOf:    func(r models.VehicleStock) string { return r.ID },
			qtyOf:   func(r models.VehicleStock) decimal.Decimal { return r.Quantity },
			metrics: params.Metrics,
		},
		quantityRpo: params.Quantities,
		vehicleRpo:  params.VehicleStock,
		ledger:      params.Ledger,
		logg:        params.Logger,
		metrics:     params.Metrics,
		attempts:    attempts,
	}, nil
}

// side is one tracked end of a move.
type side struct {
	location models.InventoryLocation
	delta    decimal.Decimal
}

// Move validates the input, returns early when the ledger already holds the
// move, otherwise adjusts every tracked balance and appends the ledger row.
func (s *Sync) Move(ctx context.Context, input MoveInput) (MoveResult, error) {
	if err := validate.Struct(input); err != nil {
		return MoveResult{}, err
	}
	if movements.IsCustomSKU(input.PriceListItemID) {
		return MoveResult{}, pkgerrors.New(pkgerrors.CodeValidation, "custom items are not inventory tracked")
	}
	fromID, toID := deref(input.FromLocationID), deref(input.ToLocationID)
	if fromID == "" && toID == "" {
		return MoveResult{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one of from_location_id or to_location_id is required")
	}
	if fromID == toID {
		return MoveResult{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to locations must differ")
	}

	var sides []side
	if fromID != "" {
		loc, err := s.activeLocation(ctx, fromID)
		if err != nil {
			return MoveResult{}, err
		}
		sides = append(sides, side{location: loc, delta: input.Quantity.Neg()})
	}
	if toID != "" {
		loc, err := s.activeLocation(ctx, toID)
		if err != nil {
			return MoveResult{}, err
		}
		sides = append(sides, side{location: loc, delta: input.Quantity})
	}

	payload, err := s.ledger.Prepare(ctx, movements.Payload{
		Source:          input.Source,
		SourceID:        input.SourceID,
		FromLocationID:  nonEmpty(fromID),
		ToLocationID:    nonEmpty(toID),
		PriceListItemID: &input.PriceListItemID,
		Quantity:        input.Quantity,
		MovedBy:         input.MovedBy,
		OccurredAt:      input.OccurredAt,
		IdempotencyKey:  input.IdempotencyKey,
	})
	if err != nil {
		return MoveResult{}, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"idempotency_key":    payload.IdempotencyKey,
		"price_list_item_id": input.PriceListItemID,
	})

	existing, err := s.ledger.Find(ctx, payload.IdempotencyKey)
	if err != nil {
		return MoveResult{}, err
	}
	if existing != nil {
		s.logg.Debug(ctx, "stock move already applied")
		return MoveResult{Movement: *existing, Replayed: true}, nil
	}

	var changes []BalanceChange
	for _, sd := range sides {
		applied, err := s.applySide(ctx, input.PriceListItemID, sd)
		if err != nil {
			s.rollback(ctx, input.PriceListItemID, changes)
			return MoveResult{}, err
		}
		changes = append(changes, applied...)
	}

	movement, created, err := s.ledger.CreateIdempotent(ctx, payload)
	if err != nil {
		s.rollback(ctx, input.PriceListItemID, changes)
		return MoveResult{}, err
	}
	if !created {
		// another caller recorded the same move between our lookup and insert
		s.logg.Warn(ctx, "concurrent duplicate stock move; reverting balances")
		s.rollback(ctx, input.PriceListItemID, changes)
		return MoveResult{Movement: movement, Replayed: true}, nil
	}

	s.logg.Info(ctx, "stock move applied")
	return MoveResult{Movement: movement, Changes: changes}, nil
}

func (s *Sync) applySide(ctx context.Context, itemID string, sd side) ([]BalanceChange, error) {
	loc := sd.location
	if !loc.Type.TracksQuantity() {
		return nil, nil
	}

	adj, err := s.quantities.adjust(ctx, store.Columns{
		"price_list_item_id": itemID,
		"location_id":        loc.ID,
	}, sd.delta, s.attempts)
	if err != nil {
		return nil, err
	}
	changes := []BalanceChange{{Table: tableQuantities, LocationID: loc.ID, Before: adj.Before, After: adj.After}}

	if loc.Type != enums.InventoryLocationVehicle || deref(loc.VehicleID) == "" {
		return changes, nil
	}
	vehicleID := *loc.VehicleID
	mirror, err := s.vehicles.adjust(ctx, store.Columns{
		"price_list_item_id": itemID,
		"vehicle_id":         vehicleID,
	}, sd.delta, s.attempts)
	if err != nil {
		// the location balance stays authoritative; the drift job reports the gap
		s.logg.Error(s.logg.WithField(ctx, "vehicle_id", vehicleID), "vehicle stock mirror update failed", err)
		return changes, nil
	}
	return append(changes, BalanceChange{Table: tableVehicleStock, LocationID: loc.ID, VehicleID: vehicleID, Before: mirror.Before, After: mirror.After}), nil
}

// rollback reverses already applied balance changes, newest first.
func (s *Sync) rollback(ctx context.Context, itemID string, changes []BalanceChange) {
	for i := len(changes) - 1; i >= 0; i-- {
		c := changes[i]
		delta := c.Before.Sub(c.After)
		var err error
		switch c.Table {
		case tableQuantities:
			_, err = s.quantities.adjust(ctx, store.Columns{"price_list_item_id": itemID, "location_id": c.LocationID}, delta, s.attempts)
		case tableVehicleStock:
			_, err = s.vehicles.adjust(ctx, store.Columns{"price_list_item_id": itemID, "vehicle_id": c.VehicleID}, delta, s.attempts)
		}
		if err != nil {
			s.logg.Error(s.logg.WithFields(ctx, map[string]any{
				"table":       c.Table,
				"location_id": c.LocationID,
				"delta":       delta.String(),
			}), "failed to revert balance change", err)
		}
	}
}

func (s *Sync) activeLocation(ctx context.Context, id string) (models.InventoryLocation, error) {
	loc, err := s.locations.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.InventoryLocation{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "location %s not found", id)
	}
	if err != nil {
		return models.InventoryLocation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	if !loc.IsActive {
		return models.InventoryLocation{}, pkgerrors.Newf(pkgerrors.CodeValidation, "location %s is inactive", id)
	}
	return *loc, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
