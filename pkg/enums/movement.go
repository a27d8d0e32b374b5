package enums

import "strings"

// MovementSource names the business flow that produced a stock movement.
type MovementSource string

const (
	MovementSourcePurchaseOrderReceipt MovementSource = "purchase_order_receipt"
	MovementSourceStockTransfer        MovementSource = "stock_transfer"
	MovementSourceJobConsumption       MovementSource = "job_consumption"
	MovementSourceVehicleLoad          MovementSource = "vehicle_load"
	MovementSourceVehicleUnload        MovementSource = "vehicle_unload"
	MovementSourceManualAdjustment     MovementSource = "manual_adjustment"
	MovementSourceReturnToSupplier     MovementSource = "return_to_supplier"
	MovementSourceStockTake            MovementSource = "stock_take"
)

var validMovementSources = []MovementSource{
	MovementSourcePurchaseOrderReceipt,
	MovementSourceStockTransfer,
	MovementSourceJobConsumption,
	MovementSourceVehicleLoad,
	MovementSourceVehicleUnload,
	MovementSourceManualAdjustment,
	MovementSourceReturnToSupplier,
	MovementSourceStockTake,
}

// legacyMovementSources maps tags written by older clients onto canonical sources.
var legacyMovementSources = map[string]MovementSource{
	"po_receive":      MovementSourcePurchaseOrderReceipt,
	"po_receipt":      MovementSourcePurchaseOrderReceipt,
	"receive":         MovementSourcePurchaseOrderReceipt,
	"transfer":        MovementSourceStockTransfer,
	"consume":         MovementSourceJobConsumption,
	"consumption":     MovementSourceJobConsumption,
	"job_usage":       MovementSourceJobConsumption,
	"load":            MovementSourceVehicleLoad,
	"load_vehicle":    MovementSourceVehicleLoad,
	"unload":          MovementSourceVehicleUnload,
	"unload_vehicle":  MovementSourceVehicleUnload,
	"adjustment":      MovementSourceManualAdjustment,
	"manual":          MovementSourceManualAdjustment,
	"return":          MovementSourceReturnToSupplier,
	"supplier_return": MovementSourceReturnToSupplier,
	"stocktake":       MovementSourceStockTake,
	"cycle_count":     MovementSourceStockTake,
}

// IsValid reports whether the value is a canonical MovementSource.
func (s MovementSource) IsValid() bool {
	for _, candidate := range validMovementSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// NormalizeMovementSource maps canonical and legacy tags onto a canonical
// source. The second return is false when the value cannot be normalized.
func NormalizeMovementSource(value string) (MovementSource, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	if candidate := MovementSource(key); candidate.IsValid() {
		return candidate, true
	}
	if mapped, ok := legacyMovementSources[key]; ok {
		return mapped, true
	}
	return "", false
}

// MovementType classifies the physical effect of a movement.
type MovementType string

const (
	MovementTypeReceipt     MovementType = "receipt"
	MovementTypeTransfer    MovementType = "transfer"
	MovementTypeConsumption MovementType = "consumption"
	MovementTypeAdjustment  MovementType = "adjustment"
	MovementTypeReturn      MovementType = "return"
)

var validMovementTypes = []MovementType{
	MovementTypeReceipt,
	MovementTypeTransfer,
	MovementTypeConsumption,
	MovementTypeAdjustment,
	MovementTypeReturn,
}

// IsValid reports whether the value is a known MovementType.
func (t MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// DefaultMovementType returns the movement type implied by a canonical source.
func DefaultMovementType(source MovementSource) MovementType {
	switch source {
	case MovementSourcePurchaseOrderReceipt:
		return MovementTypeReceipt
	case MovementSourceJobConsumption:
		return MovementTypeConsumption
	case MovementSourceReturnToSupplier:
		return MovementTypeReturn
	case MovementSourceManualAdjustment, MovementSourceStockTake:
		return MovementTypeAdjustment
	default:
		return MovementTypeTransfer
	}
}
