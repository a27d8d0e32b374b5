package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entity carries the identity and audit columns shared by every logistics table.
// Identifiers are opaque strings; an empty ID is filled on insert.
type Entity struct {
	ID        string    `gorm:"column:id;type:varchar(64);primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns a random identifier when the caller did not provide one.
func (e *Entity) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// All lists every model owned by the logistics schema, in dependency order.
func All() []any {
	return []any{
		&PriceListItem{},
		&InventoryLocation{},
		&InventoryQuantity{},
		&VehicleStock{},
		&PurchaseOrder{},
		&PurchaseOrderLine{},
		&Part{},
		&Visit{},
		&ProjectRequirementLine{},
		&StockAllocation{},
		&StockConsumption{},
		&StockMovement{},
		&LogisticsJobCounter{},
		&Job{},
	}
}
