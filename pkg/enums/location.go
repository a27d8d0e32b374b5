package enums

// InventoryLocationType describes what kind of place holds stock.
type InventoryLocationType string

const (
	InventoryLocationLoadingBay InventoryLocationType = "loading_bay"
	InventoryLocationWarehouse  InventoryLocationType = "warehouse"
	InventoryLocationVehicle    InventoryLocationType = "vehicle"
	InventoryLocationSupplier   InventoryLocationType = "supplier"
)

// IsValid reports whether the value is a known InventoryLocationType.
func (t InventoryLocationType) IsValid() bool {
	switch t {
	case InventoryLocationLoadingBay, InventoryLocationWarehouse, InventoryLocationVehicle, InventoryLocationSupplier:
		return true
	}
	return false
}

// TracksQuantity reports whether balances are kept for this location type.
// Supplier locations are external and only appear as movement endpoints.
func (t InventoryLocationType) TracksQuantity() bool {
	return t != InventoryLocationSupplier
}
