package models

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
)

// PurchaseOrder is the authoritative source of part status.
type PurchaseOrder struct {
	Entity
	Status         enums.PurchaseOrderStatus `gorm:"column:status;type:varchar(32);not null"`
	DeliveryMethod enums.DeliveryMethod      `gorm:"column:delivery_method;type:varchar(16)"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }

// PurchaseOrderLine links an ordered item to the part it fulfils, if any.
type PurchaseOrderLine struct {
	Entity
	PurchaseOrderID string          `gorm:"column:purchase_order_id;type:varchar(64);not null;index"`
	PartID          *string         `gorm:"column:part_id;type:varchar(64)"`
	SourceID        string          `gorm:"column:source_id;type:varchar(64)"`
	ItemName        string          `gorm:"column:item_name;type:text"`
	QtyOrdered      decimal.Decimal `gorm:"column:qty_ordered;type:numeric(18,4);not null"`
}

func (PurchaseOrderLine) TableName() string { return "purchase_order_lines" }
