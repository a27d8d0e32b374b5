package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
)

// DriftEntry is a catalog item whose vehicle stock disagrees with the
// balance of the vehicle's location.
type DriftEntry struct {
	LocationID      string          `json:"location_id"`
	VehicleID       string          `json:"vehicle_id"`
	PriceListItemID string          `json:"price_list_item_id"`
	LocationQty     decimal.Decimal `json:"location_qty"`
	VehicleQty      decimal.Decimal `json:"vehicle_qty"`
}

// DriftReport compares InventoryQuantity with VehicleStock for every active
// vehicle location and publishes the per-location drift gauge.
func (s *Sync) DriftReport(ctx context.Context) ([]DriftEntry, error) {
	locations, err := s.locations.Filter(ctx, store.Query{Where: store.Columns{
		"type":      enums.InventoryLocationVehicle,
		"is_active": true,
	}})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vehicle locations")
	}

	var report []DriftEntry
	for _, loc := range locations {
		vehicleID := deref(loc.VehicleID)
		if vehicleID == "" {
			continue
		}
		qtyRows, err := s.quantityRpo.Filter(ctx, store.Query{Where: store.Columns{"location_id": loc.ID}})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list location balances")
		}
		stockRows, err := s.vehicleRpo.Filter(ctx, store.Query{Where: store.Columns{"vehicle_id": vehicleID}})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vehicle stock")
		}

		byLocation := map[string]decimal.Decimal{}
		for _, r := range qtyRows {
			byLocation[r.PriceListItemID] = byLocation[r.PriceListItemID].Add(r.Quantity)
		}
		byVehicle := map[string]decimal.Decimal{}
		for _, r := range stockRows {
			byVehicle[r.PriceListItemID] = byVehicle[r.PriceListItemID].Add(r.Quantity)
		}

		items := map[string]struct{}{}
		for id := range byLocation {
			items[id] = struct{}{}
		}
		for id := range byVehicle {
			items[id] = struct{}{}
		}

		drifted := 0
		for id := range items {
			if byLocation[id].Equal(byVehicle[id]) {
				continue
			}
			drifted++
			report = append(report, DriftEntry{
				LocationID:      loc.ID,
				VehicleID:       vehicleID,
				PriceListItemID: id,
				LocationQty:     byLocation[id],
				VehicleQty:      byVehicle[id],
			})
		}
		s.metrics.SetMirrorDrift(loc.ID, drifted)
	}

	sort.Slice(report, func(i, j int) bool {
		if report[i].LocationID != report[j].LocationID {
			return report[i].LocationID < report[j].LocationID
		}
		return report[i].PriceListItemID < report[j].PriceListItemID
	})
	return report, nil
}
