package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
)

// StockMovement is an append-only ledger row. IdempotencyKey identifies the
// logical event; at most one row exists per key.
type StockMovement struct {
	Entity
	Source          enums.MovementSource `gorm:"column:source;type:varchar(32);not null"`
	SourceID        string               `gorm:"column:source_id;type:varchar(64)"`
	MovementType    enums.MovementType   `gorm:"column:movement_type;type:varchar(16);not null"`
	FromLocationID  *string              `gorm:"column:from_location_id;type:varchar(64)"`
	ToLocationID    *string              `gorm:"column:to_location_id;type:varchar(64)"`
	PriceListItemID *string              `gorm:"column:price_list_item_id;type:varchar(64)"`
	ItemSKU         string               `gorm:"column:item_sku;type:varchar(64)"`
	ItemLabel       string               `gorm:"column:item_label;type:text"`
	Quantity        decimal.Decimal      `gorm:"column:quantity;type:numeric(18,4);not null"`
	IdempotencyKey  string               `gorm:"column:idempotency_key;type:varchar(64);not null;index"`
	MovedBy         string               `gorm:"column:moved_by;type:varchar(128)"`
	OccurredAt      time.Time            `gorm:"column:occurred_at;not null"`
}

func (StockMovement) TableName() string { return "stock_movements" }
