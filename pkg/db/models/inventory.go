package models

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
)

// PriceListItem is the catalog entry that ledger rows snapshot.
type PriceListItem struct {
	Entity
	SKU  string `gorm:"column:sku;type:varchar(64)"`
	Name string `gorm:"column:name;type:text"`
}

func (PriceListItem) TableName() string { return "price_list_items" }

// InventoryLocation is a place that can hold stock.
type InventoryLocation struct {
	Entity
	Type      enums.InventoryLocationType `gorm:"column:type;type:varchar(16);not null"`
	Name      string                      `gorm:"column:name;type:text"`
	IsActive  bool                        `gorm:"column:is_active;not null"`
	VehicleID *string                     `gorm:"column:vehicle_id;type:varchar(64)"`
}

func (InventoryLocation) TableName() string { return "inventory_locations" }

// InventoryQuantity is the balance of one catalog item at one location.
type InventoryQuantity struct {
	Entity
	PriceListItemID string          `gorm:"column:price_list_item_id;type:varchar(64);not null;index:idx_inventory_quantities_item_location"`
	LocationID      string          `gorm:"column:location_id;type:varchar(64);not null;index:idx_inventory_quantities_item_location"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:numeric(18,4);not null"`
}

func (InventoryQuantity) TableName() string { return "inventory_quantities" }

// VehicleStock is the per-vehicle balance kept alongside InventoryQuantity.
type VehicleStock struct {
	Entity
	VehicleID       string          `gorm:"column:vehicle_id;type:varchar(64);not null;index:idx_vehicle_stock_vehicle_item"`
	PriceListItemID string          `gorm:"column:price_list_item_id;type:varchar(64);not null;index:idx_vehicle_stock_vehicle_item"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:numeric(18,4);not null"`
}

func (VehicleStock) TableName() string { return "vehicle_stock" }
